package wallet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionConnectLifecycle(t *testing.T) {
	state := State{Status: StatusDisconnected}

	state = Transition(state, ConnectStarted{})
	assert.Equal(t, StatusConnecting, state.Status)
	assert.Empty(t, state.Address)

	state = Transition(state, ConnectSucceeded{
		Attempt: state.attempt,
		Address: "0xABCDEF0000000000000000000000000000000001",
		Balance: "1.5",
		Network: "ethereum",
		Signer:  &fakeSigner{},
	})
	assert.Equal(t, StatusConnected, state.Status)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", state.Address)
	assert.Equal(t, "1.5", state.Balance)
	assert.True(t, state.HasSigner())

	state = Transition(state, DisconnectRequested{})
	assert.Equal(t, StatusDisconnected, state.Status)
	assert.Empty(t, state.Address)
	assert.Empty(t, state.Network)
	assert.False(t, state.HasSigner())
}

func TestTransitionFailureRetainsNoBinding(t *testing.T) {
	state := Transition(State{}, ConnectStarted{})
	state = Transition(state, ConnectFailed{Attempt: state.attempt, Err: ErrConnectionRejected})

	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, ErrConnectionRejected.Error(), state.LastError)
	assert.True(t, errors.Is(state.Failure, ErrConnectionRejected))
	assert.Empty(t, state.Address)
	assert.False(t, state.HasSigner())

	// retry from failed
	state = Transition(state, ConnectStarted{})
	assert.Equal(t, StatusConnecting, state.Status)
	assert.Empty(t, state.LastError)
}

func TestTransitionIgnoresStaleResults(t *testing.T) {
	state := Transition(State{}, ConnectStarted{})
	stale := state.attempt

	state = Transition(state, DisconnectRequested{})
	state = Transition(state, ConnectSucceeded{Attempt: stale, Address: "0x1"})
	assert.Equal(t, StatusDisconnected, state.Status)

	state = Transition(state, ConnectStarted{})
	state = Transition(state, ConnectFailed{Attempt: stale, Err: errors.New("late")})
	assert.Equal(t, StatusConnecting, state.Status)
}

func TestTransitionConnectStartedWhileConnecting(t *testing.T) {
	state := Transition(State{}, ConnectStarted{})
	again := Transition(state, ConnectStarted{})
	assert.Equal(t, state, again)
}

func TestTransitionBalanceUpdatedOnlyWhenConnected(t *testing.T) {
	state := Transition(State{}, BalanceUpdated{Balance: "9"})
	assert.Empty(t, state.Balance)

	state = Transition(state, ConnectStarted{})
	state = Transition(state, ConnectSucceeded{Attempt: state.attempt, Address: "0x1", Balance: "1"})
	state = Transition(state, BalanceUpdated{Attempt: state.attempt, Balance: "2"})
	assert.Equal(t, "2", state.Balance)
	assert.Equal(t, StatusConnected, state.Status)
}
