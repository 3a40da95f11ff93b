// Package engine implements the game ledger and settlement engine: one
// transactional state machine over a custodied token treasury, a per-player
// cooldown map, and contract-wide counters. Every mutating operation either
// fully completes or leaves no observable state change behind.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dicehouse/dicehouse-server/internal/chain"
	"github.com/dicehouse/dicehouse-server/internal/events"
	"github.com/dicehouse/dicehouse-server/internal/token"
)

// Default game constants. Amounts are token base units.
const (
	DefaultPrizeAmount  = int64(10_000)
	DefaultCooldown     = 10 * time.Second
	DefaultMaxPrizePool = int64(1_000_000)
	DefaultMaxNumber    = uint64(6)
)

// Params are fixed at construction and never mutate at runtime.
type Params struct {
	// Treasury is the engine's custody address on the token ledger.
	Treasury chain.Address
	// Owner is the privileged identity at deployment.
	Owner chain.Address
	// PrizeAmount is the fixed payout per winning play.
	PrizeAmount int64
	// Cooldown is the minimum gap between plays by one identity.
	Cooldown time.Duration
	// MaxPrizePool caps the treasury balance deposits may reach.
	MaxPrizePool int64
	// MaxNumber is the highest selectable number (die faces).
	MaxNumber uint64
}

func (p *Params) applyDefaults() {
	if p.PrizeAmount == 0 {
		p.PrizeAmount = DefaultPrizeAmount
	}
	if p.Cooldown == 0 {
		p.Cooldown = DefaultCooldown
	}
	if p.MaxPrizePool == 0 {
		p.MaxPrizePool = DefaultMaxPrizePool
	}
	if p.MaxNumber == 0 {
		p.MaxNumber = DefaultMaxNumber
	}
}

func (p Params) validate() error {
	if p.Treasury.IsZero() {
		return errors.New("engine: treasury address required")
	}
	if p.Owner.IsZero() {
		return errors.New("engine: owner address required")
	}
	if p.PrizeAmount <= 0 {
		return errors.New("engine: prize amount must be positive")
	}
	if p.MaxPrizePool < p.PrizeAmount {
		return errors.New("engine: pool cap below prize amount")
	}
	if p.Cooldown < 0 {
		return errors.New("engine: cooldown must not be negative")
	}
	if p.MaxNumber < 2 {
		return errors.New("engine: max number must be at least 2")
	}
	return nil
}

// Engine owns the aggregate mutable state. All operations take the call
// context and the host Env explicitly; there are no ambient globals.
type Engine struct {
	params  Params
	ledger  token.Ledger
	emitter events.Emitter
	logger  *zap.Logger
	nowFn   func() int64

	// entered is the call-scoped re-entrancy guard: held for the whole
	// duration of every mutating operation, released on all exit paths.
	entered atomic.Bool

	mu         sync.RWMutex
	owner      chain.Address
	paused     bool
	cooldowns  map[chain.Address]int64
	totalGames uint64
	totalWins  uint64
	nonce      uint64
}

// New constructs an engine in the Active state.
func New(params Params, ledger token.Ledger, emitter events.Emitter, logger *zap.Logger) (*Engine, error) {
	params.applyDefaults()
	if err := params.validate(); err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, errors.New("engine: ledger required")
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		params:    params,
		ledger:    ledger,
		emitter:   emitter,
		logger:    logger,
		nowFn:     func() int64 { return time.Now().Unix() },
		owner:     params.Owner,
		cooldowns: make(map[chain.Address]int64),
	}, nil
}

// SetNowFunc overrides the clock used by read-only cooldown queries.
// Mutating operations always use the Env timestamp instead.
func (e *Engine) SetNowFunc(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// Params returns the deployment constants.
func (e *Engine) Params() Params { return e.params }

// enter acquires the re-entrancy guard. A nested call into any guarded
// operation while another is in flight is rejected outright.
func (e *Engine) enter() error {
	if !e.entered.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (e *Engine) exit() { e.entered.Store(false) }

func (e *Engine) requireOwner(caller chain.Address) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if caller != e.owner {
		return ErrNotOwner
	}
	return nil
}

func (e *Engine) emit(env chain.Env, kind events.Type, payload any) {
	e.emitter.Emit(events.Event{
		Kind:    kind,
		TxID:    env.TxID,
		Time:    env.Timestamp,
		Payload: payload,
	})
}

func (e *Engine) wrapTransfer(op string, err error) error {
	return fmt.Errorf("engine: %s transfer failed: %w", op, err)
}
