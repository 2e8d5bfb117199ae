package record

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"krizpay/pkg/types"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19
)

// Transaction mirrors the transactions table
type Transaction struct {
	ID          string    `gorm:"primaryKey"`
	Hash        string    `gorm:"not null;uniqueIndex"`
	FromAddress string    `gorm:"not null;index"`
	ToAddress   string    `gorm:"not null"`
	Amount      string    `gorm:"not null"`
	Token       string    `gorm:"not null"`
	Network     string    `gorm:"not null"`
	InrValue    string    `gorm:"not null"`
	PayeeVPA    string    `gorm:""`
	PayeeName   string    `gorm:""`
	Reference   string    `gorm:""`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (Transaction) TableName() string { return "transactions" }

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func toModel(rec *types.TransactionRecord) Transaction {
	return Transaction{
		Hash:        rec.Hash,
		FromAddress: strings.ToLower(rec.FromAddress),
		ToAddress:   rec.ToAddress,
		Amount:      rec.Amount,
		Token:       rec.Token,
		Network:     rec.Network,
		InrValue:    rec.InrValue,
		PayeeVPA:    rec.PayeeVPA,
		PayeeName:   rec.PayeeName,
		Reference:   rec.Reference,
		CreatedAt:   rec.CreatedAt,
	}
}

func (t Transaction) record() types.TransactionRecord {
	return types.TransactionRecord{
		ID:          t.ID,
		Hash:        t.Hash,
		FromAddress: t.FromAddress,
		ToAddress:   t.ToAddress,
		Amount:      t.Amount,
		Token:       t.Token,
		Network:     t.Network,
		InrValue:    t.InrValue,
		PayeeVPA:    t.PayeeVPA,
		PayeeName:   t.PayeeName,
		Reference:   t.Reference,
		CreatedAt:   t.CreatedAt,
	}
}

// GormStore keeps records in a SQL database through gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the schema and wraps db
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("gorm store requires a database")
	}
	if err := db.AutoMigrate(&Transaction{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateTransactionRecord inserts rec
func (s *GormStore) CreateTransactionRecord(ctx context.Context, rec *types.TransactionRecord) (string, error) {
	if err := prepare(rec); err != nil {
		return "", err
	}
	model := toModel(rec)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%w: %s", ErrDuplicate, rec.Hash)
	}
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	return model.ID, nil
}

// GetTransactionRecord looks a record up by hash
func (s *GormStore) GetTransactionRecord(ctx context.Context, hash string) (*types.TransactionRecord, error) {
	var model Transaction
	err := s.db.WithContext(ctx).Where("lower(hash) = ?", strings.ToLower(hash)).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	rec := model.record()
	return &rec, nil
}

// ListTransactionRecords returns all records, newest first
func (s *GormStore) ListTransactionRecords(ctx context.Context) ([]types.TransactionRecord, error) {
	var models []Transaction
	if err := s.db.WithContext(ctx).Order("created_at desc").Order("hash").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	records := make([]types.TransactionRecord, 0, len(models))
	for _, m := range models {
		records = append(records, m.record())
	}
	return records, nil
}

// OpenDatabase opens a sqlite or postgres database for the store
func OpenDatabase(driver, dsn string) (*gorm.DB, func() error, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		if dsn == "" {
			return nil, nil, errors.New("postgres store requires a dsn")
		}
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case DriverSQLite:
		path, perr := sqlitePath(dsn)
		if perr != nil {
			return nil, nil, perr
		}
		db, err = gorm.Open(sqlite.Open(path), cfg)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrBadBackend, driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return db, sqlDB.Close, nil
}

func sqlitePath(dsn string) (string, error) {
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parse sqlite url: %w", err)
		}
		dsn = u.Path
		if dsn == "" {
			dsn = u.Host
		}
	}
	if dsn == "" || dsn == "/" {
		dsn = "krizpay.db"
	}
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn, nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return "", err
	}
	return dsn, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
