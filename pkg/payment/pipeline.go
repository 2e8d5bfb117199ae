// Package payment turns a classified payment target into an on-chain
// transfer plus a persisted record.
//
// Submit validates, converts, broadcasts once and then persists. When the
// broadcast succeeds but persistence fails, the result is a partial success
// carrying the hash; RetryPersist saves it later without a new broadcast.
package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"krizpay/pkg/qr"
	"krizpay/pkg/rates"
	"krizpay/pkg/record"
	"krizpay/pkg/types"
	"krizpay/pkg/wallet"
)

// Wallet is the session capability the pipeline pays through
type Wallet interface {
	Snapshot() wallet.State
	Transfer(ctx context.Context, req types.TransferRequest) (string, error)
}

// Pipeline submits payment intents. One submission runs at a time.
type Pipeline struct {
	wallet    Wallet
	converter *rates.Converter
	registry  *rates.Registry
	store     record.Store

	settlementAddress string
	payeeName         string
	timeout           time.Duration
	logger            *zap.Logger
	now               func() time.Time

	inFlight atomic.Bool
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithRegistry replaces the default token registry
func WithRegistry(registry *rates.Registry) Option {
	return func(p *Pipeline) {
		if registry != nil {
			p.registry = registry
		}
	}
}

// WithSettlementAddress sets the on-chain address that receives UPI payments
func WithSettlementAddress(address string) Option {
	return func(p *Pipeline) {
		p.settlementAddress = strings.TrimSpace(address)
	}
}

// WithPayeeName sets the payee recorded when a UPI code carries none
func WithPayeeName(name string) Option {
	return func(p *Pipeline) {
		p.payeeName = strings.TrimSpace(name)
	}
}

// WithTimeout bounds how long Submit waits for the broadcast. The broadcast
// itself is not cancelled when the wait ends.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		if timeout >= 0 {
			p.timeout = timeout
		}
	}
}

// WithLogger sets the pipeline logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the record timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline wires the pipeline's collaborators
func NewPipeline(w Wallet, converter *rates.Converter, store record.Store, opts ...Option) (*Pipeline, error) {
	if w == nil {
		return nil, errors.New("payment pipeline requires a wallet session")
	}
	if converter == nil {
		return nil, errors.New("payment pipeline requires a rate converter")
	}
	if store == nil {
		return nil, errors.New("payment pipeline requires a record store")
	}

	p := &Pipeline{
		wallet:    w,
		converter: converter,
		registry:  rates.DefaultRegistry(),
		store:     store,
		logger:    zap.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// prepared is an intent that passed every check before broadcast
type prepared struct {
	state       wallet.State
	token       rates.Token
	amount      decimal.Decimal
	inrValue    decimal.Decimal
	destination string
	request     types.TransferRequest
}

// Submit runs one payment. The returned Result is always populated; its
// Outcome tells success, partial success and failure apart.
func (p *Pipeline) Submit(ctx context.Context, intent Intent) (Result, error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return failed(), newError(KindSubmissionInFlight, "another payment is still being submitted", nil)
	}
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(func() { p.inFlight.Store(false) }) }

	prep, err := p.prepare(intent)
	if err != nil {
		release()
		p.logger.Info("payment rejected", zap.String("kind", string(KindOf(err))), zap.Error(err))
		return failed(), err
	}
	p.logger.Info("payment validated",
		zap.String("to", prep.destination),
		zap.String("amount", prep.amount.String()),
		zap.String("token", prep.token.ID),
		zap.String("network", prep.state.Network),
		zap.String("inr_value", prep.inrValue.String()),
	)

	hash, late, err := p.broadcast(ctx, prep, intent, release)
	if err != nil {
		p.logger.Warn("payment broadcast failed", zap.String("kind", string(KindOf(err))), zap.Error(err))
		result := failed()
		result.Late = late
		return result, err
	}
	p.logger.Info("payment broadcast", zap.String("hash", hash))

	return p.persist(ctx, p.newRecord(prep, intent, hash))
}

// newRecord describes a broadcast transfer
func (p *Pipeline) newRecord(prep prepared, intent Intent, hash string) types.TransactionRecord {
	rec := types.TransactionRecord{
		Hash:        hash,
		FromAddress: prep.state.Address,
		ToAddress:   prep.destination,
		Amount:      prep.amount.String(),
		Token:       prep.token.ID,
		Network:     prep.state.Network,
		InrValue:    prep.inrValue.String(),
		Reference:   intent.Reference,
		CreatedAt:   p.now(),
	}
	if upi := intent.Target.UPI; upi != nil {
		rec.PayeeVPA = upi.VPA
		rec.PayeeName = upi.PayeeName
		if rec.PayeeName == "" {
			rec.PayeeName = p.payeeName
		}
	}
	return rec
}

// prepare checks preconditions in order and converts the amount. Nothing
// here touches the network.
func (p *Pipeline) prepare(intent Intent) (prepared, error) {
	state := p.wallet.Snapshot()
	if state.Status != wallet.StatusConnected {
		return prepared{}, newError(KindNotConnected, "connect a wallet first", wallet.ErrNotConnected)
	}

	amount, err := rates.ParseAmount(strings.TrimSpace(intent.Amount))
	if err != nil {
		return prepared{}, newError(KindInvalidInput, "amount must be a positive number", err)
	}

	recipient := intent.Recipient()
	if recipient == "" {
		return prepared{}, newError(KindInvalidInput, "recipient is required", nil)
	}

	if !state.HasSigner() {
		return prepared{}, newError(KindSignerUnavailable, "wallet cannot sign transactions", wallet.ErrSignerUnavailable)
	}

	symbol := intent.Token
	if symbol == "" {
		symbol = DefaultToken
	}
	token, ok := p.registry.Lookup(symbol)
	if !ok {
		return prepared{}, newError(KindUnknownToken, "token "+symbol+" is not supported", rates.ErrUnknownToken)
	}

	// transfers move the chain's native coin only
	native := nativeToken(state.Network)
	if token.ID != native {
		return prepared{}, newError(KindInvalidInput,
			"network "+state.Network+" pays in "+strings.ToUpper(native)+", not "+token.Symbol, nil)
	}

	baseUnits, err := token.ToBaseUnits(amount)
	if err != nil {
		return prepared{}, newError(KindInvalidInput, "amount has too many decimals for "+token.Symbol, err)
	}
	amount = token.FromBaseUnits(baseUnits)

	destination, err := p.destination(intent.Target)
	if err != nil {
		return prepared{}, err
	}

	inrValue, err := p.converter.ToINR(amount, token.ID)
	if err != nil {
		return prepared{}, newError(classify(err, KindInvalidInput), "no INR rate for "+token.Symbol, err)
	}

	return prepared{
		state:       state,
		token:       token,
		amount:      amount,
		inrValue:    inrValue,
		destination: destination,
		request:     types.TransferRequest{To: destination, Value: baseUnits.String()},
	}, nil
}

// nativeToken is the registry id of the coin a network transfers. Networks
// outside the chain table only move the default token.
func nativeToken(network string) string {
	if chain, ok := rates.ChainByName(network); ok {
		return chain.NativeToken
	}
	return DefaultToken
}

// destination resolves the on-chain address a target is paid to
func (p *Pipeline) destination(target qr.Target) (string, error) {
	switch target.Kind {
	case qr.KindUPI:
		if p.settlementAddress == "" {
			return "", newError(KindInvalidInput, "UPI payments need a settlement address", nil)
		}
		if !common.IsHexAddress(p.settlementAddress) {
			return "", newError(KindInvalidInput, "settlement address is not a valid address", nil)
		}
		return p.settlementAddress, nil
	case qr.KindAddress:
		address := target.Address.Address
		if !common.IsHexAddress(address) {
			return "", newError(KindInvalidInput, "recipient is not an EVM address", nil)
		}
		return address, nil
	default:
		return "", newError(KindUnknownTarget, "unsupported payment target", nil)
	}
}

type broadcastResult struct {
	hash string
	err  error
}

// broadcast sends the transfer exactly once, unless ctx is already done.
// When the wait ends first the transfer keeps running: release fires when it
// returns and the returned channel delivers its outcome.
func (p *Pipeline) broadcast(ctx context.Context, prep prepared, intent Intent, release func()) (string, <-chan LateBroadcast, error) {
	if err := ctx.Err(); err != nil {
		release()
		return "", nil, newError(KindBroadcastFailed, "payment cancelled before broadcast", err)
	}

	waitCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan broadcastResult, 1)
	go func() {
		defer release()
		hash, err := p.wallet.Transfer(context.WithoutCancel(ctx), prep.request)
		done <- broadcastResult{hash: hash, err: err}
	}()

	select {
	case res := <-done:
		hash, err := settle(res)
		return hash, nil, err
	case <-waitCtx.Done():
	}

	// a result that is already in wins over the deadline
	select {
	case res := <-done:
		hash, err := settle(res)
		return hash, nil, err
	default:
	}

	late := make(chan LateBroadcast, 1)
	go p.watchLate(done, late, prep, intent)
	return "", late, newError(KindBroadcastTimeout, "stopped waiting for the wallet", waitCtx.Err())
}

func settle(res broadcastResult) (string, error) {
	if res.err != nil {
		return "", newError(classify(res.err, KindBroadcastFailed), "transfer was not broadcast", res.err)
	}
	if res.hash == "" {
		return "", newError(KindBroadcastFailed, "wallet returned no transaction hash", nil)
	}
	return res.hash, nil
}

// watchLate hands over the outcome of a broadcast nobody waits for anymore
func (p *Pipeline) watchLate(done <-chan broadcastResult, late chan<- LateBroadcast, prep prepared, intent Intent) {
	defer close(late)

	hash, err := settle(<-done)
	if err != nil {
		p.logger.Warn("late broadcast failed", zap.String("to", prep.destination), zap.Error(err))
		late <- LateBroadcast{Err: err}
		return
	}

	rec := p.newRecord(prep, intent, hash)
	p.logger.Error("broadcast completed after caller stopped waiting; record not saved yet",
		zap.String("hash", hash),
		zap.String("to", prep.destination),
		zap.String("value", prep.request.Value),
	)
	late <- LateBroadcast{Record: rec}
}

func (p *Pipeline) persist(ctx context.Context, rec types.TransactionRecord) (Result, error) {
	result := Result{
		Outcome:     OutcomePartial,
		TxHash:      rec.Hash,
		Record:      rec,
		ExplorerURL: rates.ExplorerURL(rec.Hash, rec.Network),
	}

	id, err := p.store.CreateTransactionRecord(ctx, &rec)
	if err != nil {
		p.logger.Error("payment broadcast but record not saved",
			zap.String("hash", rec.Hash),
			zap.Error(err),
		)
		return result, &Error{
			Kind:    KindPersistenceFailed,
			Message: "transfer sent but the record was not saved",
			TxHash:  rec.Hash,
			Cause:   err,
		}
	}

	result.Outcome = OutcomeSuccess
	result.RecordID = id
	result.Record.ID = id
	p.logger.Info("payment persisted", zap.String("hash", rec.Hash), zap.String("record_id", id))
	return result, nil
}

// RetryPersist saves a record whose broadcast already succeeded. It never
// broadcasts.
func (p *Pipeline) RetryPersist(ctx context.Context, rec types.TransactionRecord) (Result, error) {
	if strings.TrimSpace(rec.Hash) == "" {
		return failed(), newError(KindInvalidInput, "record has no transaction hash", nil)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = p.now()
	}
	return p.persist(ctx, rec)
}
