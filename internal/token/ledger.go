// Package token implements the custodied fungible token ledger the
// settlement engine moves funds on. The ledger is the system of record for
// balances; the engine never caches them.
package token

import (
	"context"
	"errors"

	"github.com/dicehouse/dicehouse-server/internal/chain"
)

var (
	// ErrInvalidAmount rejects zero or negative transfer amounts.
	ErrInvalidAmount = errors.New("token: amount must be positive")
	// ErrInvalidAddress rejects the zero address as a transfer party.
	ErrInvalidAddress = errors.New("token: invalid address")
	// ErrInsufficientBalance rejects transfers exceeding the sender balance.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	// ErrInsufficientAllowance rejects pulls exceeding the approved limit.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	// ErrBalanceOverflow rejects credits that would wrap the recipient
	// balance past the integer ceiling.
	ErrBalanceOverflow = errors.New("token: balance overflow")
)

// Ledger is the fixed transfer contract the engine consumes. Every method
// either affirmatively succeeds or returns a non-nil error; there is no
// silent no-op path, so callers can treat nil as funds having moved.
type Ledger interface {
	// BalanceOf returns the live balance of addr.
	BalanceOf(ctx context.Context, addr chain.Address) (int64, error)

	// Transfer moves amount from one balance to another.
	Transfer(ctx context.Context, from, to chain.Address, amount int64) error

	// TransferFrom moves amount out of from on the strength of an
	// allowance previously granted to spender. The allowance is reduced
	// by the transferred amount.
	TransferFrom(ctx context.Context, spender, from, to chain.Address, amount int64) error

	// Approve grants spender the right to pull up to amount from owner.
	// It replaces any prior allowance.
	Approve(ctx context.Context, owner, spender chain.Address, amount int64) error

	// Allowance returns the remaining pull limit spender holds on owner.
	Allowance(ctx context.Context, owner, spender chain.Address) (int64, error)
}
