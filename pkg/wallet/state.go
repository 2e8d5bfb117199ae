// Package wallet owns the wallet connection state machine.
//
// Transition is a pure function over State and Action; Session serializes
// calls to it and runs the provider I/O between transitions. Only Session
// mutates its State.
package wallet

import "strings"

// Status is the connection phase
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusFailed       Status = "failed"
)

// State is a point-in-time view of the session. Address, Network and the
// signer are set together, and only while Status is StatusConnected.
type State struct {
	Status    Status `json:"status"`
	Address   string `json:"address,omitempty"`
	Balance   string `json:"balance,omitempty"`
	Network   string `json:"network,omitempty"`
	LastError string `json:"lastError,omitempty"`

	// Failure is the error behind StatusFailed, for errors.Is checks
	Failure error `json:"-"`

	attempt  uint64
	provider Provider
	signer   Signer
}

// HasSigner reports whether a send-capable signer is bound
func (s State) HasSigner() bool {
	return s.signer != nil
}

// Action is an input to Transition
type Action interface {
	isAction()
}

// ConnectStarted opens a new connection attempt
type ConnectStarted struct{}

// ConnectSucceeded binds the account read during attempt Attempt
type ConnectSucceeded struct {
	Attempt  uint64
	Address  string
	Balance  string
	Network  string
	Provider Provider
	Signer   Signer
}

// ConnectFailed ends attempt Attempt with Err
type ConnectFailed struct {
	Attempt uint64
	Err     error
}

// DisconnectRequested resets to the initial state
type DisconnectRequested struct{}

// BalanceUpdated replaces the balance read during attempt Attempt
type BalanceUpdated struct {
	Attempt uint64
	Balance string
}

func (ConnectStarted) isAction()      {}
func (ConnectSucceeded) isAction()    {}
func (ConnectFailed) isAction()       {}
func (DisconnectRequested) isAction() {}
func (BalanceUpdated) isAction()      {}

// Transition computes the next state. Results tagged with an attempt other
// than the current one are stale and leave the state untouched.
func Transition(state State, action Action) State {
	switch a := action.(type) {
	case ConnectStarted:
		if state.Status == StatusConnecting {
			return state
		}
		return State{Status: StatusConnecting, attempt: state.attempt + 1}

	case ConnectSucceeded:
		if state.Status != StatusConnecting || a.Attempt != state.attempt {
			return state
		}
		return State{
			Status:   StatusConnected,
			Address:  strings.ToLower(a.Address),
			Balance:  a.Balance,
			Network:  a.Network,
			attempt:  state.attempt,
			provider: a.Provider,
			signer:   a.Signer,
		}

	case ConnectFailed:
		if state.Status != StatusConnecting || a.Attempt != state.attempt {
			return state
		}
		next := State{Status: StatusFailed, Failure: a.Err, attempt: state.attempt}
		if a.Err != nil {
			next.LastError = a.Err.Error()
		}
		return next

	case DisconnectRequested:
		return State{Status: StatusDisconnected, attempt: state.attempt}

	case BalanceUpdated:
		if state.Status != StatusConnected || a.Attempt != state.attempt {
			return state
		}
		state.Balance = a.Balance
		return state
	}
	return state
}
