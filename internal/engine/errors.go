package engine

import "errors"

// Sentinel errors for every way a call can be refused. Each maps to one
// branch of the precondition/validation/authorization taxonomy; transfer
// failures surface as wrapped ledger errors instead.
var (
	// ErrInvalidNumber rejects a chosen number outside [1, MaxNumber].
	ErrInvalidNumber = errors.New("engine: chosen number out of range")

	// ErrInvalidAmount rejects zero or negative amounts.
	ErrInvalidAmount = errors.New("engine: amount must be positive")

	// ErrGamePaused rejects plays while the engine is paused.
	ErrGamePaused = errors.New("engine: game is paused")

	// ErrCooldownActive rejects a play before the caller's cooldown elapsed.
	ErrCooldownActive = errors.New("engine: cooldown not elapsed")

	// ErrInsufficientPrizePool rejects plays the treasury cannot pay out.
	ErrInsufficientPrizePool = errors.New("engine: prize pool cannot cover a win")

	// ErrPoolCapExceeded rejects calls that would leave, or find, the
	// treasury above the configured cap.
	ErrPoolCapExceeded = errors.New("engine: prize pool cap exceeded")

	// ErrInsufficientFunds rejects withdrawals exceeding the treasury.
	ErrInsufficientFunds = errors.New("engine: insufficient treasury funds")

	// ErrNotOwner rejects privileged calls from anyone but the owner.
	ErrNotOwner = errors.New("engine: caller is not the owner")

	// ErrInvalidOwner rejects handing ownership to the zero address.
	ErrInvalidOwner = errors.New("engine: new owner must not be zero")

	// ErrReentrantCall rejects nested entry into any guarded operation.
	ErrReentrantCall = errors.New("engine: reentrant call")
)
