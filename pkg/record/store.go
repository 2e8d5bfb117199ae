// Package record persists transaction records after a successful broadcast.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"krizpay/pkg/types"
)

var (
	ErrNotFound   = errors.New("transaction record not found")
	ErrDuplicate  = errors.New("transaction record already exists for hash")
	ErrNilRecord  = errors.New("transaction record is nil")
	ErrBadBackend = errors.New("unsupported store driver")
)

// Store is the persistence capability used by the payment pipeline
type Store interface {
	// CreateTransactionRecord saves rec and returns its id. A hash may be
	// recorded only once.
	CreateTransactionRecord(ctx context.Context, rec *types.TransactionRecord) (string, error)
}

// Repository is a Store that can also read records back
type Repository interface {
	Store
	ListTransactionRecords(ctx context.Context) ([]types.TransactionRecord, error)
	GetTransactionRecord(ctx context.Context, hash string) (*types.TransactionRecord, error)
}

// Drivers accepted by Open
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverHTTP     = "http"
)

// Options selects and configures a store backend
type Options struct {
	Driver string
	Path   string
	DSN    string
	URL    string
}

// Open builds the repository named by opts.Driver
func Open(opts Options) (Repository, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(opts.Driver) {
	case "", DriverFile:
		store, err := NewFileStore(opts.Path)
		return store, noop, err
	case DriverSQLite, DriverPostgres:
		dsn := opts.DSN
		if dsn == "" {
			dsn = opts.Path
		}
		db, cleanup, err := OpenDatabase(strings.ToLower(opts.Driver), dsn)
		if err != nil {
			return nil, nil, err
		}
		store, err := NewGormStore(db)
		if err != nil {
			_ = cleanup()
			return nil, nil, err
		}
		return store, cleanup, nil
	case DriverHTTP:
		store, err := NewHTTPStore(opts.URL)
		return store, noop, err
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrBadBackend, opts.Driver)
	}
}

func prepare(rec *types.TransactionRecord) error {
	if rec == nil {
		return ErrNilRecord
	}
	return rec.Validate()
}
