package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/dicehouse/dicehouse-server/internal/chain"
	"github.com/dicehouse/dicehouse-server/internal/events"
)

// Deposit pulls amount from the caller into the treasury on the strength of
// a previously granted allowance. Deposits work in either pause state; the
// cap is checked against the live balance at call time, so two racing
// deposits can jointly overshoot it. That is an accepted soft-cap risk, not
// a safety violation.
func (e *Engine) Deposit(ctx context.Context, env chain.Env, amount int64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if amount <= 0 {
		return ErrInvalidAmount
	}

	balance, err := e.ledger.BalanceOf(ctx, e.params.Treasury)
	if err != nil {
		return e.wrapTransfer("balance check", err)
	}
	// Subtraction form: balance+amount can overflow for huge amounts and
	// slip past the cap.
	if amount > e.params.MaxPrizePool-balance {
		return ErrPoolCapExceeded
	}

	if err := e.ledger.TransferFrom(ctx, e.params.Treasury, env.Caller, e.params.Treasury, amount); err != nil {
		return e.wrapTransfer("deposit pull", err)
	}

	e.emit(env, events.TypeFundsDeposited, events.FundsDeposited{
		Depositor: env.Caller,
		Amount:    amount,
	})
	e.logger.Info("funds deposited",
		zap.String("tx_id", env.TxID),
		zap.String("depositor", env.Caller.String()),
		zap.Int64("amount", amount),
	)
	return nil
}

// Withdraw moves amount from the treasury to the owner. Owner only.
func (e *Engine) Withdraw(ctx context.Context, env chain.Env, amount int64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := e.requireOwner(env.Caller); err != nil {
		return err
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}

	balance, err := e.ledger.BalanceOf(ctx, e.params.Treasury)
	if err != nil {
		return e.wrapTransfer("balance check", err)
	}
	if balance < amount {
		return ErrInsufficientFunds
	}

	if err := e.ledger.Transfer(ctx, e.params.Treasury, env.Caller, amount); err != nil {
		return e.wrapTransfer("withdrawal", err)
	}

	e.emit(env, events.TypeFundsWithdrawn, events.FundsWithdrawn{
		Owner:  env.Caller,
		Amount: amount,
	})
	e.logger.Info("funds withdrawn",
		zap.String("tx_id", env.TxID),
		zap.Int64("amount", amount),
	)
	return nil
}

// EmergencyWithdraw sweeps the entire treasury to the owner in one call.
func (e *Engine) EmergencyWithdraw(ctx context.Context, env chain.Env) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := e.requireOwner(env.Caller); err != nil {
		return err
	}

	balance, err := e.ledger.BalanceOf(ctx, e.params.Treasury)
	if err != nil {
		return e.wrapTransfer("balance check", err)
	}
	if balance <= 0 {
		return ErrInsufficientFunds
	}

	if err := e.ledger.Transfer(ctx, e.params.Treasury, env.Caller, balance); err != nil {
		return e.wrapTransfer("emergency withdrawal", err)
	}

	e.emit(env, events.TypeFundsWithdrawn, events.FundsWithdrawn{
		Owner:  env.Caller,
		Amount: balance,
	})
	e.logger.Warn("treasury swept",
		zap.String("tx_id", env.TxID),
		zap.Int64("amount", balance),
	)
	return nil
}
