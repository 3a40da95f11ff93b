package token

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicehouse/dicehouse-server/internal/chain"
)

const (
	alice = chain.Address("dice:alice")
	bob   = chain.Address("dice:bob")
	vault = chain.Address("dice:vault")
)

func TestMemoryLedger_Transfer(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(alice, 1000)

	require.NoError(t, l.Transfer(ctx, alice, bob, 400))

	got, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(600), got)

	got, err = l.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(400), got)
}

func TestMemoryLedger_TransferRejections(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(alice, 100)

	assert.ErrorIs(t, l.Transfer(ctx, alice, bob, 0), ErrInvalidAmount)
	assert.ErrorIs(t, l.Transfer(ctx, alice, bob, -5), ErrInvalidAmount)
	assert.ErrorIs(t, l.Transfer(ctx, alice, chain.ZeroAddress, 10), ErrInvalidAddress)
	assert.ErrorIs(t, l.Transfer(ctx, alice, bob, 101), ErrInsufficientBalance)

	// Failed transfers leave balances untouched.
	got, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)
}

func TestMemoryLedger_AllowancePull(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(alice, 500)

	// No allowance yet.
	assert.ErrorIs(t, l.TransferFrom(ctx, vault, alice, vault, 100), ErrInsufficientAllowance)

	require.NoError(t, l.Approve(ctx, alice, vault, 300))

	remaining, err := l.Allowance(ctx, alice, vault)
	require.NoError(t, err)
	assert.Equal(t, int64(300), remaining)

	require.NoError(t, l.TransferFrom(ctx, vault, alice, vault, 200))

	remaining, err = l.Allowance(ctx, alice, vault)
	require.NoError(t, err)
	assert.Equal(t, int64(100), remaining)

	// Pull above the remaining allowance fails even though the balance covers it.
	assert.ErrorIs(t, l.TransferFrom(ctx, vault, alice, vault, 150), ErrInsufficientAllowance)

	// Pull above the balance fails and does not consume the allowance.
	l2 := NewMemoryLedger()
	l2.Mint(alice, 50)
	require.NoError(t, l2.Approve(ctx, alice, vault, 500))
	assert.ErrorIs(t, l2.TransferFrom(ctx, vault, alice, vault, 100), ErrInsufficientBalance)
	remaining, err = l2.Allowance(ctx, alice, vault)
	require.NoError(t, err)
	assert.Equal(t, int64(500), remaining)
}

func TestMemoryLedger_ApproveReplaces(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	require.NoError(t, l.Approve(ctx, alice, vault, 300))
	require.NoError(t, l.Approve(ctx, alice, vault, 10))

	remaining, err := l.Allowance(ctx, alice, vault)
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining)

	assert.ErrorIs(t, l.Approve(ctx, alice, vault, -1), ErrInvalidAmount)
}

func TestMemoryLedger_CreditOverflowRejected(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(alice, 10)
	l.Mint(bob, math.MaxInt64)

	err := l.Transfer(ctx, alice, bob, 10)
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	// Neither side moved.
	got, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got)
	got, err = l.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	// The pull path shares the same guard and leaves the allowance intact.
	require.NoError(t, l.Approve(ctx, alice, vault, 10))
	l.Mint(vault, math.MaxInt64)
	assert.ErrorIs(t, l.TransferFrom(ctx, vault, alice, vault, 10), ErrBalanceOverflow)
	remaining, err := l.Allowance(ctx, alice, vault)
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining)
}

func TestMemoryLedger_MintIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Mint(chain.ZeroAddress, 100)
	l.Mint(alice, -100)

	got, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, got)
}
