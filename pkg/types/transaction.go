package types

import "time"

// TransactionRecord is the server-side record of a broadcast transfer
type TransactionRecord struct {
	ID          string    `json:"id,omitempty"`
	Hash        string    `json:"hash" validate:"required"`
	FromAddress string    `json:"fromAddress" validate:"required"`
	ToAddress   string    `json:"toAddress" validate:"required"`
	Amount      string    `json:"amount" validate:"required,numeric"`
	Token       string    `json:"token" validate:"required"`
	Network     string    `json:"network" validate:"required"`
	InrValue    string    `json:"inrValue" validate:"required,numeric"`
	PayeeVPA    string    `json:"payeeVpa,omitempty"`
	PayeeName   string    `json:"payeeName,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TransferRequest is a native-coin transfer handed to a signer
type TransferRequest struct {
	To    string
	Value string // smallest-unit integer, base 10
}
