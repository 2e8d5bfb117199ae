package record

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krizpay/pkg/types"
)

func sampleRecord(hash string) *types.TransactionRecord {
	return &types.TransactionRecord{
		Hash:        hash,
		FromAddress: "0x00000000000000000000000000000000000000f1",
		ToAddress:   "0x00000000000000000000000000000000000000aa",
		Amount:      "0.5",
		Token:       "eth",
		Network:     "ethereum",
		InrValue:    "125000",
	}
}

// repositoryContract runs the behavior every backend shares
func repositoryContract(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	first := sampleRecord("0xaaa1")
	first.CreatedAt = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	id, err := repo.CreateTransactionRecord(ctx, first)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	second := sampleRecord("0xaaa2")
	second.PayeeVPA = "shop@okaxis"
	second.CreatedAt = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	_, err = repo.CreateTransactionRecord(ctx, second)
	require.NoError(t, err)

	_, err = repo.CreateTransactionRecord(ctx, sampleRecord("0xaaa1"))
	assert.ErrorIs(t, err, ErrDuplicate)

	invalid := sampleRecord("0xbad")
	invalid.Amount = "lots"
	_, err = repo.CreateTransactionRecord(ctx, invalid)
	assert.Error(t, err)

	got, err := repo.GetTransactionRecord(ctx, "0xAAA1")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "125000", got.InrValue)

	_, err = repo.GetTransactionRecord(ctx, "0xmissing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.ListTransactionRecords(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0xaaa2", list[0].Hash)
	assert.Equal(t, "shop@okaxis", list[0].PayeeVPA)
	assert.Equal(t, "0xaaa1", list[1].Hash)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	repositoryContract(t, store)
	assert.Equal(t, 2, store.Count())

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Count())
}

func TestFileStoreRejectsNil(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "tx.json"))
	require.NoError(t, err)

	_, err = store.CreateTransactionRecord(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilRecord)
}

func TestGormStoreSQLite(t *testing.T) {
	db, cleanup, err := OpenDatabase(DriverSQLite, filepath.Join(t.TempDir(), "krizpay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })

	store, err := NewGormStore(db)
	require.NoError(t, err)
	repositoryContract(t, store)
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	repo, cleanup, err := Open(Options{Driver: "file", Path: filepath.Join(dir, "tx.json")})
	require.NoError(t, err)
	fs, ok := repo.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "tx.json"), fs.FilePath())
	assert.Equal(t, 0, fs.Count())
	require.NoError(t, cleanup())

	repo, cleanup, err = Open(Options{Driver: "sqlite", DSN: "sqlite://" + filepath.Join(dir, "db.sqlite")})
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, repo)
	require.NoError(t, cleanup())

	repo, _, err = Open(Options{Driver: "http", URL: "http://localhost:5000"})
	require.NoError(t, err)
	assert.IsType(t, &HTTPStore{}, repo)

	_, _, err = Open(Options{Driver: "mongo"})
	assert.ErrorIs(t, err, ErrBadBackend)
}

func TestPendingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending.json")

	records, err := ReadPending(path)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, AppendPending(path, *sampleRecord("0x1")))
	require.NoError(t, AppendPending(path, *sampleRecord("0x2")))
	require.NoError(t, AppendPending(path, *sampleRecord("0x1")))

	records, err = ReadPending(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.NoError(t, WritePending(path, nil))
	records, err = ReadPending(path)
	require.NoError(t, err)
	assert.Empty(t, records)
}
