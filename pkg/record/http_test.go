package record

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krizpay/pkg/types"
)

func TestHTTPStoreCreate(t *testing.T) {
	var received types.TransactionRecord
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/transactions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		received.ID = "rec-1"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(received)
	}))
	defer srv.Close()

	store, err := NewHTTPStore(srv.URL + "/")
	require.NoError(t, err)

	id, err := store.CreateTransactionRecord(context.Background(), sampleRecord("0xabc"))
	require.NoError(t, err)
	assert.Equal(t, "rec-1", id)
	assert.Equal(t, "0xabc", received.Hash)
}

func TestHTTPStoreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"duplicate hash"}`))
		default:
			if r.URL.Path == "/api/transactions" {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"message":"database unavailable"}`))
				return
			}
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
		}
	}))
	defer srv.Close()

	store, err := NewHTTPStore(srv.URL)
	require.NoError(t, err)

	_, err = store.CreateTransactionRecord(context.Background(), sampleRecord("0xabc"))
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = store.GetTransactionRecord(context.Background(), "0xabc")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.ListTransactionRecords(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unavailable")
}

func TestHTTPStoreUnreachable(t *testing.T) {
	store, err := NewHTTPStore("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = store.CreateTransactionRecord(context.Background(), sampleRecord("0xabc"))
	assert.Error(t, err)

	_, err = NewHTTPStore("")
	assert.Error(t, err)
}
