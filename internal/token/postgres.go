package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dicehouse/dicehouse-server/internal/chain"
)

// PostgresLedger is a pgx-backed Ledger for deployments that need balances
// to survive restarts. Every transfer runs in a single SQL transaction with
// the touched rows locked, so partial fund movement is never durable.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger wraps an existing connection pool.
func NewPostgresLedger(pool *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{pool: pool}
}

// EnsureSchema creates the ledger tables if they do not exist.
func (l *PostgresLedger) EnsureSchema(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS token_balances (
			address TEXT PRIMARY KEY,
			amount  BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0)
		);
		CREATE TABLE IF NOT EXISTS token_allowances (
			owner   TEXT NOT NULL,
			spender TEXT NOT NULL,
			amount  BIGINT NOT NULL DEFAULT 0 CHECK (amount >= 0),
			PRIMARY KEY (owner, spender)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure token schema: %w", err)
	}
	return nil
}

// Mint credits addr with amount. Genesis/operations helper.
func (l *PostgresLedger) Mint(ctx context.Context, addr chain.Address, amount int64) error {
	if addr.IsZero() {
		return ErrInvalidAddress
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO token_balances (address, amount) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET amount = token_balances.amount + EXCLUDED.amount
	`, addr.String(), amount)
	return err
}

func (l *PostgresLedger) BalanceOf(ctx context.Context, addr chain.Address) (int64, error) {
	var amount int64
	err := l.pool.QueryRow(ctx,
		`SELECT amount FROM token_balances WHERE address = $1`, addr.String(),
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance of %s: %w", addr, err)
	}
	return amount, nil
}

func (l *PostgresLedger) Transfer(ctx context.Context, from, to chain.Address, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if from.IsZero() || to.IsZero() {
		return ErrInvalidAddress
	}
	return l.inTx(ctx, func(tx pgx.Tx) error {
		return move(ctx, tx, from, to, amount)
	})
}

func (l *PostgresLedger) TransferFrom(ctx context.Context, spender, from, to chain.Address, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if spender.IsZero() || from.IsZero() || to.IsZero() {
		return ErrInvalidAddress
	}
	return l.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE token_allowances SET amount = amount - $3
			WHERE owner = $1 AND spender = $2 AND amount >= $3
		`, from.String(), spender.String(), amount)
		if err != nil {
			return fmt.Errorf("consume allowance: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrInsufficientAllowance
		}
		return move(ctx, tx, from, to, amount)
	})
}

func (l *PostgresLedger) Approve(ctx context.Context, owner, spender chain.Address, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if owner.IsZero() || spender.IsZero() {
		return ErrInvalidAddress
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO token_allowances (owner, spender, amount) VALUES ($1, $2, $3)
		ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount
	`, owner.String(), spender.String(), amount)
	return err
}

func (l *PostgresLedger) Allowance(ctx context.Context, owner, spender chain.Address) (int64, error) {
	var amount int64
	err := l.pool.QueryRow(ctx, `
		SELECT amount FROM token_allowances WHERE owner = $1 AND spender = $2
	`, owner.String(), spender.String()).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("allowance %s->%s: %w", owner, spender, err)
	}
	return amount, nil
}

func (l *PostgresLedger) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// move debits from and credits to inside tx. The guarded UPDATE doubles as
// the balance check: zero rows affected means the funds were not there.
func move(ctx context.Context, tx pgx.Tx, from, to chain.Address, amount int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE token_balances SET amount = amount - $2
		WHERE address = $1 AND amount >= $2
	`, from.String(), amount)
	if err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientBalance
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO token_balances (address, amount) VALUES ($1, $2)
		ON CONFLICT (address) DO UPDATE SET amount = token_balances.amount + EXCLUDED.amount
	`, to.String(), amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}
