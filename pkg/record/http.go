package record

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"krizpay/pkg/types"
)

const defaultHTTPTimeout = 15 * time.Second

const transactionsPath = "/api/transactions"

// HTTPStore talks to the record backend served by pkg/server
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// HTTPOption configures an HTTPStore
type HTTPOption func(*HTTPStore)

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPStore) {
		if client != nil {
			s.client = client
		}
	}
}

// NewHTTPStore creates a client for the backend at baseURL
func NewHTTPStore(baseURL string, opts ...HTTPOption) (*HTTPStore, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("http store requires a url")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid store url: %w", err)
	}
	s := &HTTPStore{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// errorBody is the backend's error payload
type errorBody struct {
	Message string `json:"message"`
}

// CreateTransactionRecord posts rec and returns the id the backend assigned
func (s *HTTPStore) CreateTransactionRecord(ctx context.Context, rec *types.TransactionRecord) (string, error) {
	if err := prepare(rec); err != nil {
		return "", err
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	var created types.TransactionRecord
	if err := s.do(ctx, http.MethodPost, transactionsPath, body, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("record backend returned no id")
	}
	return created.ID, nil
}

// GetTransactionRecord fetches a record by hash
func (s *HTTPStore) GetTransactionRecord(ctx context.Context, hash string) (*types.TransactionRecord, error) {
	var rec types.TransactionRecord
	if err := s.do(ctx, http.MethodGet, transactionsPath+"/"+url.PathEscape(hash), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListTransactionRecords fetches all records
func (s *HTTPStore) ListTransactionRecords(ctx context.Context) ([]types.TransactionRecord, error) {
	var records []types.TransactionRecord
	if err := s.do(ctx, http.MethodGet, transactionsPath, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("record backend request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		if eb.Message == "" {
			eb.Message = http.StatusText(resp.StatusCode)
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, eb.Message)
		case http.StatusConflict:
			return fmt.Errorf("%w: %s", ErrDuplicate, eb.Message)
		default:
			return fmt.Errorf("record backend returned %d: %s", resp.StatusCode, eb.Message)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
