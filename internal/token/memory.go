package token

import (
	"context"
	"math"
	"sync"

	"github.com/dicehouse/dicehouse-server/internal/chain"
)

// MemoryLedger is an in-process Ledger. It backs tests and single-node
// deployments that do not need durable balances.
type MemoryLedger struct {
	mu         sync.Mutex
	balances   map[chain.Address]int64
	allowances map[allowanceKey]int64
}

type allowanceKey struct {
	owner   chain.Address
	spender chain.Address
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances:   make(map[chain.Address]int64),
		allowances: make(map[allowanceKey]int64),
	}
}

// Mint credits addr with amount out of thin air. Genesis/test helper; not
// part of the Ledger contract the engine sees.
func (l *MemoryLedger) Mint(addr chain.Address, amount int64) {
	if addr.IsZero() || amount <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] += amount
}

func (l *MemoryLedger) BalanceOf(_ context.Context, addr chain.Address) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr], nil
}

func (l *MemoryLedger) Transfer(_ context.Context, from, to chain.Address, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if from.IsZero() || to.IsZero() {
		return ErrInvalidAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

func (l *MemoryLedger) TransferFrom(_ context.Context, spender, from, to chain.Address, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if spender.IsZero() || from.IsZero() || to.IsZero() {
		return ErrInvalidAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	key := allowanceKey{owner: from, spender: spender}
	if l.allowances[key] < amount {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	l.allowances[key] -= amount
	return nil
}

func (l *MemoryLedger) Approve(_ context.Context, owner, spender chain.Address, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if owner.IsZero() || spender.IsZero() {
		return ErrInvalidAddress
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey{owner: owner, spender: spender}] = amount
	return nil
}

func (l *MemoryLedger) Allowance(_ context.Context, owner, spender chain.Address) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[allowanceKey{owner: owner, spender: spender}], nil
}

// move assumes l.mu is held.
func (l *MemoryLedger) move(from, to chain.Address, amount int64) error {
	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}
	if l.balances[to] > math.MaxInt64-amount {
		return ErrBalanceOverflow
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
