package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/dicehouse/dicehouse-server/internal/chain"
	"github.com/dicehouse/dicehouse-server/internal/events"
)

// SetPaused sets the pause flag unconditionally. Setting the same value
// twice is not an error; each call emits its own notification.
func (e *Engine) SetPaused(_ context.Context, env chain.Env, paused bool) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := e.requireOwner(env.Caller); err != nil {
		return err
	}

	e.mu.Lock()
	e.paused = paused
	e.mu.Unlock()

	e.emit(env, events.TypePauseChanged, events.PauseChanged{
		Actor:  env.Caller,
		Paused: paused,
	})
	e.logger.Info("pause state changed",
		zap.String("tx_id", env.TxID),
		zap.Bool("paused", paused),
	)
	return nil
}

// TransferOwnership hands the privileged role to next.
func (e *Engine) TransferOwnership(_ context.Context, env chain.Env, next chain.Address) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := e.requireOwner(env.Caller); err != nil {
		return err
	}
	if next.IsZero() {
		return ErrInvalidOwner
	}

	e.mu.Lock()
	previous := e.owner
	e.owner = next
	e.mu.Unlock()

	e.emit(env, events.TypeOwnershipTransferred, events.OwnershipTransferred{
		Previous: previous,
		New:      next,
	})
	e.logger.Info("ownership transferred",
		zap.String("tx_id", env.TxID),
		zap.String("previous", previous.String()),
		zap.String("new", next.String()),
	)
	return nil
}
