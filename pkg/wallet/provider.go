package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"krizpay/pkg/types"
)

// ProviderKind names a wallet integration
type ProviderKind string

const (
	// KindInjected is a general-purpose provider holding the user's key; the
	// only kind with a working connect path
	KindInjected      ProviderKind = "injected"
	KindWalletConnect ProviderKind = "walletconnect"
	KindBlocto        ProviderKind = "blocto"
)

// ParseProviderKind maps user input onto a known kind
func ParseProviderKind(raw string) (ProviderKind, error) {
	switch kind := ProviderKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case KindInjected, KindWalletConnect, KindBlocto:
		return kind, nil
	case "", "metamask":
		return KindInjected, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProviderKind, raw)
	}
}

// Provider is the wallet capability the session drives. It holds key
// material; the session never copies it.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	Signer(ctx context.Context) (Signer, error)
	Balance(ctx context.Context, address string) (*big.Int, error)
	Network(ctx context.Context) (string, error)
}

// Signer sends transactions on behalf of the connected account
type Signer interface {
	Address(ctx context.Context) (string, error)
	SendTransaction(ctx context.Context, req types.TransferRequest) (string, error)
}

// AccountSelector is implemented by providers that can report an account
// the user already authorized, enabling connect on startup.
type AccountSelector interface {
	SelectedAccount() (string, bool)
}
