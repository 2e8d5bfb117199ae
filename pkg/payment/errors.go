package payment

import (
	"errors"
	"fmt"

	"krizpay/pkg/rates"
	"krizpay/pkg/wallet"
)

// Kind classifies a pipeline failure
type Kind string

const (
	KindProviderUnavailable     Kind = "provider_unavailable"
	KindConnectionRejected      Kind = "connection_rejected"
	KindUnsupportedProviderKind Kind = "unsupported_provider_kind"
	KindNotConnected            Kind = "not_connected"
	KindInvalidInput            Kind = "invalid_input"
	KindSignerUnavailable       Kind = "signer_unavailable"
	KindUnknownToken            Kind = "unknown_token"
	KindUnknownTarget           Kind = "unknown_target"
	KindBroadcastFailed         Kind = "broadcast_failed"
	KindBroadcastTimeout        Kind = "broadcast_timeout"
	KindPersistenceFailed       Kind = "persistence_failed"
	KindSubmissionInFlight      Kind = "submission_in_flight"
)

// Sentinels for errors.Is; any *Error of the same kind matches
var (
	ErrProviderUnavailable     = &Error{Kind: KindProviderUnavailable}
	ErrConnectionRejected      = &Error{Kind: KindConnectionRejected}
	ErrUnsupportedProviderKind = &Error{Kind: KindUnsupportedProviderKind}
	ErrNotConnected            = &Error{Kind: KindNotConnected}
	ErrInvalidInput            = &Error{Kind: KindInvalidInput}
	ErrSignerUnavailable       = &Error{Kind: KindSignerUnavailable}
	ErrUnknownToken            = &Error{Kind: KindUnknownToken}
	ErrUnknownTarget           = &Error{Kind: KindUnknownTarget}
	ErrBroadcastFailed         = &Error{Kind: KindBroadcastFailed}
	ErrBroadcastTimeout        = &Error{Kind: KindBroadcastTimeout}
	ErrPersistenceFailed       = &Error{Kind: KindPersistenceFailed}
	ErrSubmissionInFlight      = &Error{Kind: KindSubmissionInFlight}
)

// Error is a classified pipeline failure. TxHash is set when the transfer
// was already broadcast.
type Error struct {
	Kind    Kind
	Message string
	TxHash  string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	} else {
		msg = string(e.Kind) + ": " + msg
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the failure kind, or "" for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// classify maps collaborator errors onto pipeline kinds
func classify(err error, fallback Kind) Kind {
	switch {
	case errors.Is(err, wallet.ErrProviderUnavailable):
		return KindProviderUnavailable
	case errors.Is(err, wallet.ErrConnectionRejected):
		return KindConnectionRejected
	case errors.Is(err, wallet.ErrUnsupportedProviderKind):
		return KindUnsupportedProviderKind
	case errors.Is(err, wallet.ErrNotConnected):
		return KindNotConnected
	case errors.Is(err, wallet.ErrSignerUnavailable):
		return KindSignerUnavailable
	case errors.Is(err, rates.ErrUnknownToken):
		return KindUnknownToken
	case errors.Is(err, rates.ErrInvalidAmount), errors.Is(err, rates.ErrPrecisionLoss):
		return KindInvalidInput
	default:
		return fallback
	}
}

// ConnectError classifies a wallet connection failure for display
func ConnectError(err error) error {
	if err == nil {
		return nil
	}
	return newError(classify(err, KindConnectionRejected), "", err)
}
