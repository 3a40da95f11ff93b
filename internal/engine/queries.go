package engine

import (
	"context"
	"time"

	"github.com/dicehouse/dicehouse-server/internal/chain"
)

// Stats is the contract-wide aggregate counter view.
type Stats struct {
	TotalGames     uint64
	TotalWins      uint64
	WinRatePercent uint64
}

// CooldownRemaining returns how long the player must still wait before the
// next play. Zero for unknown players and for anyone whose window elapsed.
func (e *Engine) CooldownRemaining(player chain.Address) time.Duration {
	e.mu.RLock()
	last, ok := e.cooldowns[player]
	now := e.nowFn()
	e.mu.RUnlock()
	if !ok {
		return 0
	}
	remaining := last + cooldownSeconds(e.params.Cooldown) - now
	if remaining <= 0 {
		return 0
	}
	return time.Duration(remaining) * time.Second
}

// ContractBalance returns the live treasury balance.
func (e *Engine) ContractBalance(ctx context.Context) (int64, error) {
	return e.ledger.BalanceOf(ctx, e.params.Treasury)
}

// AvailablePrizes returns how many full prizes the treasury covers.
func (e *Engine) AvailablePrizes(ctx context.Context) (int64, error) {
	balance, err := e.ledger.BalanceOf(ctx, e.params.Treasury)
	if err != nil {
		return 0, err
	}
	return balance / e.params.PrizeAmount, nil
}

// GameStats returns the aggregate counters. Win rate is floor(wins*100/games),
// zero when no game has been played.
func (e *Engine) GameStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := Stats{TotalGames: e.totalGames, TotalWins: e.totalWins}
	if s.TotalGames > 0 {
		s.WinRatePercent = s.TotalWins * 100 / s.TotalGames
	}
	return s
}

// Paused reports the current pause state.
func (e *Engine) Paused() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.paused
}

// Owner returns the current privileged identity.
func (e *Engine) Owner() chain.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.owner
}

func cooldownSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
