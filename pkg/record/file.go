package record

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"krizpay/pkg/types"
)

const (
	DefaultStoreFileName = ".krizpay-transactions.json"
)

// FileStore keeps records in a JSON file keyed by transaction hash
type FileStore struct {
	filePath string
	mu       sync.RWMutex
	records  map[string]*types.TransactionRecord
}

// fileContents is the on-disk layout
type fileContents struct {
	Transactions map[string]*types.TransactionRecord `json:"transactions"`
}

// NewFileStore opens the store at filePath, defaulting to a file in the
// home directory
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStoreFileName)
	}

	store := &FileStore{
		filePath: filePath,
		records:  make(map[string]*types.TransactionRecord),
	}

	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load transactions: %w", err)
		}
	}

	return store, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return fmt.Errorf("failed to unmarshal transactions: %w", err)
	}

	s.records = contents.Transactions
	if s.records == nil {
		s.records = make(map[string]*types.TransactionRecord)
	}
	return nil
}

// saveLocked writes the file; callers hold mu
func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(fileContents{Transactions: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transactions: %w", err)
	}
	return writeAtomic(s.filePath, data)
}

// writeAtomic writes to a temporary file first, then renames it over path
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func hashKey(hash string) string {
	return strings.ToLower(hash)
}

// CreateTransactionRecord stores rec under its hash
func (s *FileStore) CreateTransactionRecord(ctx context.Context, rec *types.TransactionRecord) (string, error) {
	if err := prepare(rec); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := hashKey(rec.Hash)
	if _, exists := s.records[key]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicate, rec.Hash)
	}

	stored := *rec
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.records[key] = &stored

	if err := s.saveLocked(); err != nil {
		delete(s.records, key)
		return "", err
	}
	return stored.ID, nil
}

// GetTransactionRecord retrieves a record by hash
func (s *FileStore) GetTransactionRecord(ctx context.Context, hash string) (*types.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[hashKey(hash)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	out := *rec
	return &out, nil
}

// ListTransactionRecords returns all records, newest first
func (s *FileStore) ListTransactionRecords(ctx context.Context) ([]types.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]types.TransactionRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, *rec)
	}
	sortNewestFirst(records)
	return records, nil
}

// Count returns the number of stored records
func (s *FileStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// FilePath returns the storage file path
func (s *FileStore) FilePath() string {
	return s.filePath
}

func sortNewestFirst(records []types.TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].Hash < records[j].Hash
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
