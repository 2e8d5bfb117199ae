package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krizpay/pkg/record"
	"krizpay/pkg/types"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := record.NewFileStore(filepath.Join(t.TempDir(), "tx.json"))
	require.NoError(t, err)
	srv, err := New(Config{}, store)
	require.NoError(t, err)
	return srv
}

func sampleRecord(hash string) types.TransactionRecord {
	return types.TransactionRecord{
		Hash:        hash,
		FromAddress: "0x00000000000000000000000000000000000000f1",
		ToAddress:   "0x00000000000000000000000000000000000000aa",
		Amount:      "1.25",
		Token:       "matic",
		Network:     "polygon",
		InrValue:    "100",
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, srv.Handler(), http.MethodGet, "/api/health", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreateListGet(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	resp := doJSON(t, handler, http.MethodPost, "/api/transactions", sampleRecord("0xabc"))
	require.Equal(t, http.StatusCreated, resp.Code)
	var created types.TransactionRecord
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	resp = doJSON(t, handler, http.MethodPost, "/api/transactions", sampleRecord("0xabc"))
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = doJSON(t, handler, http.MethodGet, "/api/transactions", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var list []types.TransactionRecord
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list, 1)

	resp = doJSON(t, handler, http.MethodGet, "/api/transactions/0xabc", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, handler, http.MethodGet, "/api/transactions/0xnope", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateRejectsInvalidRecord(t *testing.T) {
	srv := newTestServer(t)

	bad := sampleRecord("0xabc")
	bad.InrValue = "NaN"
	resp := doJSON(t, srv.Handler(), http.MethodPost, "/api/transactions", bad)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmptyListIsArray(t *testing.T) {
	srv := newTestServer(t)
	resp := doJSON(t, srv.Handler(), http.MethodGet, "/api/transactions", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, "[]", resp.Body.String())
}

func TestHTTPStoreAgainstServer(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client, err := record.NewHTTPStore(ts.URL)
	require.NoError(t, err)

	rec := sampleRecord("0xdef")
	id, err := client.CreateTransactionRecord(context.Background(), &rec)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = client.CreateTransactionRecord(context.Background(), &rec)
	assert.ErrorIs(t, err, record.ErrDuplicate)

	got, err := client.GetTransactionRecord(context.Background(), "0xdef")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = client.GetTransactionRecord(context.Background(), "0x404")
	assert.ErrorIs(t, err, record.ErrNotFound)

	list, err := client.ListTransactionRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewRequiresRepository(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}
