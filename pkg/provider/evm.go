// Package provider implements the injected wallet provider on top of an EVM
// JSON-RPC endpoint and a locally held key.
package provider

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"krizpay/pkg/rates"
	"krizpay/pkg/types"
	"krizpay/pkg/wallet"
)

// nativeTransferGas is the fixed cost of a plain value transfer
const nativeTransferGas = uint64(21000)

var (
	ErrMissingRPCURL     = errors.New("rpc url not configured")
	ErrMissingPrivateKey = errors.New("private key not configured")
	ErrInvalidRecipient  = errors.New("invalid recipient address")
	ErrInvalidValue      = errors.New("invalid transfer value")
)

// Backend is the slice of ethclient.Client the provider uses
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
}

// Config describes the endpoint and key of an EVM provider
type Config struct {
	RPCURL     string
	PrivateKey string
	// ChainID overrides the id reported by the node when non-zero
	ChainID int64
	// Network overrides the network name derived from the chain id
	Network string
	// Selected marks the key's account as already authorized
	Selected bool
	GasPrice *big.Int
}

// EVM is a wallet.Provider backed by an RPC node and a private key
type EVM struct {
	config     Config
	backend    Backend
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger

	// guards nonce assignment across concurrent sends
	sendMu sync.Mutex
}

// Option configures an EVM provider
type Option func(*EVM)

// WithLogger sets the provider logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *EVM) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Dial connects to the configured RPC endpoint
func Dial(cfg Config, opts ...Option) (*EVM, error) {
	if cfg.RPCURL == "" {
		return nil, ErrMissingRPCURL
	}
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return New(cfg, client, opts...)
}

// New builds a provider over an existing backend
func New(cfg Config, backend Backend, opts ...Option) (*EVM, error) {
	if cfg.PrivateKey == "" {
		return nil, ErrMissingPrivateKey
	}
	if backend == nil {
		return nil, wallet.ErrProviderUnavailable
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	e := &EVM{
		config:     cfg,
		backend:    backend,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Address is the account controlled by the key
func (e *EVM) Address() common.Address {
	return e.address
}

// RequestAccounts returns the single account the key controls
func (e *EVM) RequestAccounts(ctx context.Context) ([]string, error) {
	return []string{e.address.Hex()}, nil
}

// SelectedAccount reports the account when it is marked as authorized
func (e *EVM) SelectedAccount() (string, bool) {
	if !e.config.Selected {
		return "", false
	}
	return e.address.Hex(), true
}

// Signer returns the signer bound to the key
func (e *EVM) Signer(ctx context.Context) (wallet.Signer, error) {
	return &signer{evm: e}, nil
}

// Balance reads the latest native balance of address
func (e *EVM) Balance(ctx context.Context, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecipient, address)
	}
	balance, err := e.backend.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Network names the chain. A configured name wins; otherwise the node's chain
// id is looked up, falling back to "chain-<id>".
func (e *EVM) Network(ctx context.Context) (string, error) {
	if e.config.Network != "" {
		return strings.ToLower(e.config.Network), nil
	}
	chainID, err := e.chainID(ctx)
	if err != nil {
		return "", err
	}
	if chain, ok := rates.ChainByID(chainID.Int64()); ok {
		return chain.Key, nil
	}
	return fmt.Sprintf("chain-%s", chainID), nil
}

func (e *EVM) chainID(ctx context.Context) (*big.Int, error) {
	if e.config.ChainID != 0 {
		return big.NewInt(e.config.ChainID), nil
	}
	chainID, err := e.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	return chainID, nil
}

func (e *EVM) gasPrice(ctx context.Context) (*big.Int, error) {
	if e.config.GasPrice != nil {
		return new(big.Int).Set(e.config.GasPrice), nil
	}
	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return gasPrice, nil
}

// sendNative signs and broadcasts a value transfer, returning its hash
func (e *EVM) sendNative(ctx context.Context, req types.TransferRequest) (string, error) {
	if !common.IsHexAddress(req.To) {
		return "", fmt.Errorf("%w: %s", ErrInvalidRecipient, req.To)
	}
	value, ok := new(big.Int).SetString(req.Value, 10)
	if !ok || value.Sign() <= 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidValue, req.Value)
	}

	e.sendMu.Lock()
	defer e.sendMu.Unlock()

	nonce, err := e.backend.PendingNonceAt(ctx, e.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := e.gasPrice(ctx)
	if err != nil {
		return "", err
	}

	balance, err := e.backend.BalanceAt(ctx, e.address, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get balance: %w", err)
	}
	fee := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(nativeTransferGas))
	if need := new(big.Int).Add(value, fee); balance.Cmp(need) < 0 {
		return "", fmt.Errorf("insufficient balance: have %s wei, need %s wei", balance, need)
	}

	chainID, err := e.chainID(ctx)
	if err != nil {
		return "", err
	}

	tx := ethtypes.NewTransaction(nonce, common.HexToAddress(req.To), value, nativeTransferGas, gasPrice, nil)
	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), e.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.backend.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	hash := signedTx.Hash().Hex()
	e.logger.Info("transaction broadcast",
		zap.String("hash", hash),
		zap.String("to", req.To),
		zap.String("value", value.String()),
		zap.Uint64("nonce", nonce),
	)
	return hash, nil
}

// Close releases the RPC connection when the backend holds one
func (e *EVM) Close() {
	if c, ok := e.backend.(interface{ Close() }); ok {
		c.Close()
	}
}

type signer struct {
	evm *EVM
}

func (s *signer) Address(ctx context.Context) (string, error) {
	return s.evm.address.Hex(), nil
}

func (s *signer) SendTransaction(ctx context.Context, req types.TransferRequest) (string, error) {
	return s.evm.sendNative(ctx, req)
}
