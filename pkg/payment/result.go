package payment

import "krizpay/pkg/types"

// Outcome tells total success, partial success and failure apart
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means funds moved on-chain but the record was not saved
	OutcomePartial Outcome = "partial_success"
	OutcomeFailed  Outcome = "failed"
)

// Result reports a submission. TxHash is set whenever a broadcast
// succeeded; RecordID only when the record was also saved.
//
// Late is set only on broadcast_timeout. It delivers exactly one
// LateBroadcast once the wallet returns and is then closed.
type Result struct {
	Outcome     Outcome                 `json:"outcome"`
	TxHash      string                  `json:"txHash,omitempty"`
	RecordID    string                  `json:"recordId,omitempty"`
	Record      types.TransactionRecord `json:"record"`
	ExplorerURL string                  `json:"explorerUrl,omitempty"`

	Late <-chan LateBroadcast `json:"-"`
}

// LateBroadcast is the outcome of a transfer Submit stopped waiting for.
// On success Record carries the hash and is ready for RetryPersist.
type LateBroadcast struct {
	Record types.TransactionRecord
	Err    error
}

func failed() Result {
	return Result{Outcome: OutcomeFailed}
}
