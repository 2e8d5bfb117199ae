package wallet

import "errors"

var (
	ErrProviderUnavailable     = errors.New("wallet provider is not available")
	ErrConnectionRejected      = errors.New("wallet connection rejected")
	ErrUnsupportedProviderKind = errors.New("wallet provider kind not supported")
	ErrNotConnected            = errors.New("wallet not connected")
	ErrSignerUnavailable       = errors.New("wallet signer not available")
)
