package qr

import (
	"errors"
	"strings"
)

var (
	ErrEmptyInput     = errors.New("empty qr input")
	ErrInvalidUPI     = errors.New("upi payload missing payee address")
	ErrInvalidAddress = errors.New("empty address payload")
	ErrUnknownTarget  = errors.New("unknown payment target")
)

// user-facing text per rejection
var messages = map[error]string{
	ErrEmptyInput:     "Please enter a valid QR code or address",
	ErrInvalidUPI:     "Invalid UPI QR code",
	ErrInvalidAddress: "Invalid address format",
	ErrUnknownTarget:  "Unsupported QR code format",
}

// Validation is the structured outcome of Validate
type Validation struct {
	Valid  bool   `json:"valid"`
	Kind   Kind   `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
	Target Target `json:"target"`

	err error
}

// Err returns the sentinel describing why the input was rejected, or nil
func (v Validation) Err() error {
	return v.err
}

func invalid(kind Kind, target Target, err error) Validation {
	return Validation{Kind: kind, Error: messages[err], Target: target, err: err}
}

// Validate classifies raw and rejects payloads that cannot be paid. A upi://
// prefix without a pa field is reported as an invalid UPI code rather than an
// unsupported format.
func Validate(raw string) Validation {
	if strings.TrimSpace(raw) == "" {
		return invalid("", Target{Kind: KindUnknown}, ErrEmptyInput)
	}

	target := Classify(raw)
	switch target.Kind {
	case KindUPI:
		if target.UPI == nil || target.UPI.VPA == "" {
			return invalid(KindUPI, target, ErrInvalidUPI)
		}
		return Validation{Valid: true, Kind: KindUPI, Target: target}
	case KindAddress:
		if target.Address == nil || target.Address.Address == "" {
			return invalid(KindAddress, target, ErrInvalidAddress)
		}
		return Validation{Valid: true, Kind: KindAddress, Target: target}
	}

	if hasUPIScheme(strings.TrimSpace(raw)) {
		return invalid(KindUPI, target, ErrInvalidUPI)
	}
	return invalid("", target, ErrUnknownTarget)
}
