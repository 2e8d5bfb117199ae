package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"krizpay/pkg/types"
)

// DefaultPlaceholderDelay is how long unsupported kinds take to fail
const DefaultPlaceholderDelay = 1500 * time.Millisecond

// nativeDecimals is the precision of the chain's native coin
const nativeDecimals = 18

// Session drives one wallet connection
type Session struct {
	mu       sync.Mutex
	state    State
	provider Provider

	placeholderDelay time.Duration
	logger           *zap.Logger
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPlaceholderDelay sets how long unsupported provider kinds wait before failing
func WithPlaceholderDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.placeholderDelay = d
		}
	}
}

// NewSession creates a disconnected session over the injected provider,
// which may be nil when none is present.
func NewSession(provider Provider, opts ...Option) *Session {
	s := &Session{
		state:            State{Status: StatusDisconnected},
		provider:         provider,
		placeholderDelay: DefaultPlaceholderDelay,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) dispatch(action Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Transition(s.state, action)
	return s.state
}

// Connect runs a connection attempt with the given kind. A call made while
// another attempt is in progress returns nil without touching the provider.
func (s *Session) Connect(ctx context.Context, kind ProviderKind) error {
	s.mu.Lock()
	if s.state.Status == StatusConnecting {
		s.mu.Unlock()
		s.logger.Debug("connect already in progress", zap.String("kind", string(kind)))
		return nil
	}
	s.state = Transition(s.state, ConnectStarted{})
	attempt := s.state.attempt
	s.mu.Unlock()

	s.logger.Info("connecting wallet", zap.String("kind", string(kind)))

	success, err := s.connect(ctx, kind)
	if err != nil {
		s.dispatch(ConnectFailed{Attempt: attempt, Err: err})
		s.logger.Warn("wallet connection failed", zap.String("kind", string(kind)), zap.Error(err))
		return err
	}

	success.Attempt = attempt
	state := s.dispatch(success)
	if state.Status != StatusConnected || state.attempt != attempt {
		// superseded by a disconnect or a newer attempt
		s.logger.Debug("discarding stale connection result", zap.Uint64("attempt", attempt))
		return nil
	}
	s.logger.Info("wallet connected",
		zap.String("address", state.Address),
		zap.String("network", state.Network),
		zap.String("balance", state.Balance),
	)
	return nil
}

func (s *Session) connect(ctx context.Context, kind ProviderKind) (ConnectSucceeded, error) {
	switch kind {
	case KindInjected:
	case KindWalletConnect, KindBlocto:
		if err := s.wait(ctx); err != nil {
			return ConnectSucceeded{}, err
		}
		return ConnectSucceeded{}, fmt.Errorf("%w: %s integration not implemented yet", ErrUnsupportedProviderKind, kind)
	default:
		return ConnectSucceeded{}, fmt.Errorf("%w: %q", ErrUnsupportedProviderKind, kind)
	}

	if s.provider == nil {
		return ConnectSucceeded{}, ErrProviderUnavailable
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return ConnectSucceeded{}, fmt.Errorf("%w: %v", ErrConnectionRejected, err)
	}
	if len(accounts) == 0 {
		return ConnectSucceeded{}, fmt.Errorf("%w: no accounts authorized", ErrConnectionRejected)
	}

	signer, err := s.provider.Signer(ctx)
	if err != nil {
		return ConnectSucceeded{}, fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
	}
	address, err := signer.Address(ctx)
	if err != nil {
		return ConnectSucceeded{}, fmt.Errorf("read signer address: %w", err)
	}
	balance, err := s.provider.Balance(ctx, address)
	if err != nil {
		return ConnectSucceeded{}, fmt.Errorf("read balance: %w", err)
	}
	network, err := s.provider.Network(ctx)
	if err != nil {
		return ConnectSucceeded{}, fmt.Errorf("read network: %w", err)
	}

	return ConnectSucceeded{
		Address:  address,
		Balance:  FormatNative(balance),
		Network:  network,
		Provider: s.provider,
		Signer:   signer,
	}, nil
}

func (s *Session) wait(ctx context.Context) error {
	if s.placeholderDelay == 0 {
		return nil
	}
	timer := time.NewTimer(s.placeholderDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Disconnect drops the binding. It never fails.
func (s *Session) Disconnect() {
	s.dispatch(DisconnectRequested{})
	s.logger.Info("wallet disconnected")
}

// RefreshBalance re-reads the balance of the connected account. It is a
// no-op when not connected; a failed read leaves the state unchanged.
func (s *Session) RefreshBalance(ctx context.Context) error {
	state := s.Snapshot()
	if state.Status != StatusConnected || state.provider == nil {
		return nil
	}

	balance, err := state.provider.Balance(ctx, state.Address)
	if err != nil {
		s.logger.Warn("balance refresh failed", zap.String("address", state.Address), zap.Error(err))
		return fmt.Errorf("refresh balance: %w", err)
	}
	s.dispatch(BalanceUpdated{Attempt: state.attempt, Balance: FormatNative(balance)})
	return nil
}

// AutoConnect connects once when the provider reports a previously
// selected account. It reports whether an attempt was made.
func (s *Session) AutoConnect(ctx context.Context) (bool, error) {
	selector, ok := s.provider.(AccountSelector)
	if !ok {
		return false, nil
	}
	account, ok := selector.SelectedAccount()
	if !ok || account == "" {
		return false, nil
	}
	s.logger.Debug("auto-connecting selected account", zap.String("account", account))
	return true, s.Connect(ctx, KindInjected)
}

// Transfer sends a native transfer through the bound signer
func (s *Session) Transfer(ctx context.Context, req types.TransferRequest) (string, error) {
	state := s.Snapshot()
	if state.Status != StatusConnected {
		return "", ErrNotConnected
	}
	if state.signer == nil {
		return "", ErrSignerUnavailable
	}
	return state.signer.SendTransaction(ctx, req)
}

// FormatNative renders a smallest-unit balance in whole coins
func FormatNative(balance *big.Int) string {
	if balance == nil {
		return "0"
	}
	return decimal.NewFromBigInt(balance, -nativeDecimals).String()
}
