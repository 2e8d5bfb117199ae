package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() TransactionRecord {
	return TransactionRecord{
		Hash:        "0xabc",
		FromAddress: "0x1111111111111111111111111111111111111111",
		ToAddress:   "0x2222222222222222222222222222222222222222",
		Amount:      "0.5",
		Token:       "eth",
		Network:     "sepolia",
		InrValue:    "125000",
	}
}

func TestTransactionRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *TransactionRecord)
		wantErr bool
	}{
		{name: "complete record", mutate: func(r *TransactionRecord) {}},
		{name: "missing hash", mutate: func(r *TransactionRecord) { r.Hash = "" }, wantErr: true},
		{name: "non numeric amount", mutate: func(r *TransactionRecord) { r.Amount = "ten" }, wantErr: true},
		{name: "missing inr value", mutate: func(r *TransactionRecord) { r.InrValue = "" }, wantErr: true},
		{name: "vpa is optional", mutate: func(r *TransactionRecord) { r.PayeeVPA = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(&record)
			err := record.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid transaction record")
				return
			}
			require.NoError(t, err)
		})
	}
}
