package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/dicehouse/dicehouse-server/internal/chain"
	"github.com/dicehouse/dicehouse-server/internal/entropy"
	"github.com/dicehouse/dicehouse-server/internal/events"
)

// PlayOutcome mirrors the emitted play-result notification for in-process
// callers. Chain callers learn the outcome from the event alone.
type PlayOutcome struct {
	Player       chain.Address
	ChosenNumber uint64
	RolledNumber uint64
	Won          bool
	Prize        int64
}

// Play settles one dice roll against the prize pool. The whole call is
// all-or-nothing: every precondition failure, and any prize transfer
// failure, leaves the cooldown map, the counters, and the nonce untouched
// and emits no event.
func (e *Engine) Play(ctx context.Context, env chain.Env, chosen uint64) (*PlayOutcome, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()

	if chosen < 1 || chosen > e.params.MaxNumber {
		return nil, ErrInvalidNumber
	}

	e.mu.RLock()
	paused := e.paused
	last := e.cooldowns[env.Caller]
	nonce := e.nonce
	e.mu.RUnlock()

	if paused {
		return nil, ErrGamePaused
	}
	// First-ever play has last == 0 and always passes.
	if env.Timestamp < last+cooldownSeconds(e.params.Cooldown) {
		return nil, ErrCooldownActive
	}

	balance, err := e.ledger.BalanceOf(ctx, e.params.Treasury)
	if err != nil {
		return nil, e.wrapTransfer("balance check", err)
	}
	if balance < e.params.PrizeAmount {
		return nil, ErrInsufficientPrizePool
	}
	// Guards against the pool having grown past the cap outside deposit,
	// e.g. via a direct token transfer to the treasury.
	if balance > e.params.MaxPrizePool {
		return nil, ErrPoolCapExceeded
	}

	rolled := entropy.Roll(entropy.Sources{
		Beacon:        env.Beacon,
		Timestamp:     env.Timestamp,
		Caller:        env.Caller.String(),
		Nonce:         nonce,
		ChainID:       env.ChainID,
		NativeBalance: env.NativeBalance,
	}, e.params.MaxNumber)
	won := rolled == chosen

	// Settle before committing: if the prize cannot move, nothing else may
	// become visible either.
	if won {
		if err := e.ledger.Transfer(ctx, e.params.Treasury, env.Caller, e.params.PrizeAmount); err != nil {
			return nil, e.wrapTransfer("prize payout", err)
		}
	}

	e.mu.Lock()
	e.cooldowns[env.Caller] = env.Timestamp
	e.totalGames++
	e.nonce++
	if won {
		e.totalWins++
	}
	e.mu.Unlock()

	e.emit(env, events.TypePlayResult, events.PlayResult{
		Player:       env.Caller,
		ChosenNumber: chosen,
		RolledNumber: rolled,
		Won:          won,
	})
	outcome := &PlayOutcome{
		Player:       env.Caller,
		ChosenNumber: chosen,
		RolledNumber: rolled,
		Won:          won,
	}
	if won {
		outcome.Prize = e.params.PrizeAmount
		e.emit(env, events.TypePrizeClaimed, events.PrizeClaimed{
			Player: env.Caller,
			Amount: e.params.PrizeAmount,
		})
	}

	e.logger.Info("play settled",
		zap.String("tx_id", env.TxID),
		zap.String("player", env.Caller.String()),
		zap.Uint64("chosen", chosen),
		zap.Uint64("rolled", rolled),
		zap.Bool("won", won),
	)
	return outcome, nil
}
