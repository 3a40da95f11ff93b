// Package events defines the notifications the settlement engine emits for
// off-chain observers. Each triggering call emits its events exactly once,
// never batched, and a failed call emits nothing.
package events

import "github.com/dicehouse/dicehouse-server/internal/chain"

// Type tags an event payload on the wire.
type Type string

const (
	TypePlayResult           Type = "playResult"
	TypePrizeClaimed         Type = "prizeClaimed"
	TypeFundsDeposited       Type = "fundsDeposited"
	TypeFundsWithdrawn       Type = "fundsWithdrawn"
	TypePauseChanged         Type = "pauseChanged"
	TypeOwnershipTransferred Type = "ownershipTransferred"
)

// Event is a single emitted notification. Payload is one of the *Payload
// structs below, matching Kind.
type Event struct {
	Kind    Type   `json:"kind"`
	TxID    string `json:"tx_id"`
	Time    int64  `json:"time"`
	Payload any    `json:"payload"`
}

// PlayResult reports the outcome of one accepted play, win or lose.
type PlayResult struct {
	Player       chain.Address `json:"player"`
	ChosenNumber uint64        `json:"chosen_number"`
	RolledNumber uint64        `json:"rolled_number"`
	Won          bool          `json:"won"`
}

// PrizeClaimed reports a prize payout to a winning player.
type PrizeClaimed struct {
	Player chain.Address `json:"player"`
	Amount int64         `json:"amount"`
}

// FundsDeposited reports a deposit into the prize pool.
type FundsDeposited struct {
	Depositor chain.Address `json:"depositor"`
	Amount    int64         `json:"amount"`
}

// FundsWithdrawn reports an owner withdrawal, including emergency sweeps.
type FundsWithdrawn struct {
	Owner  chain.Address `json:"owner"`
	Amount int64         `json:"amount"`
}

// PauseChanged reports a pause flag update.
type PauseChanged struct {
	Actor  chain.Address `json:"actor"`
	Paused bool          `json:"paused"`
}

// OwnershipTransferred reports an owner handover.
type OwnershipTransferred struct {
	Previous chain.Address `json:"previous"`
	New      chain.Address `json:"new"`
}

// Emitter receives engine notifications.
type Emitter interface {
	Emit(Event)
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}
