package record

import (
	"encoding/json"
	"fmt"
	"os"

	"krizpay/pkg/types"
)

// DefaultPendingFileName holds records whose broadcast succeeded but whose
// persistence did not
const DefaultPendingFileName = ".krizpay-pending.json"

// ReadPending loads unpersisted records. A missing file yields none.
func ReadPending(path string) ([]types.TransactionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read pending records: %w", err)
	}
	var records []types.TransactionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending records: %w", err)
	}
	return records, nil
}

// WritePending replaces the pending file. An empty list removes it.
func WritePending(path string, records []types.TransactionRecord) error {
	if len(records) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove pending records: %w", err)
		}
		return nil
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pending records: %w", err)
	}
	return writeAtomic(path, data)
}

// AppendPending adds rec to the pending file, replacing any entry with the
// same hash
func AppendPending(path string, rec types.TransactionRecord) error {
	records, err := ReadPending(path)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, r := range records {
		if hashKey(r.Hash) != hashKey(rec.Hash) {
			kept = append(kept, r)
		}
	}
	return WritePending(path, append(kept, rec))
}
