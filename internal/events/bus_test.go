package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus(nil)

	ch1, cancel1 := bus.Subscribe(4)
	ch2, cancel2 := bus.Subscribe(4)
	defer cancel1()
	defer cancel2()

	bus.Emit(Event{Kind: TypePauseChanged, TxID: "tx-1"})

	evt := <-ch1
	assert.Equal(t, TypePauseChanged, evt.Kind)
	evt = <-ch2
	assert.Equal(t, "tx-1", evt.TxID)
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(nil)

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Emit(Event{Kind: TypePlayResult, TxID: "tx-1"})
	// Buffer is full; this must return immediately and drop.
	bus.Emit(Event{Kind: TypePlayResult, TxID: "tx-2"})

	evt := <-ch
	assert.Equal(t, "tx-1", evt.TxID)
	select {
	case extra := <-ch:
		t.Fatalf("expected second event to be dropped, got %q", extra.TxID)
	default:
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus(nil)

	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel() // double cancel is harmless

	_, open := <-ch
	assert.False(t, open)

	// Emitting after cancel must not panic.
	bus.Emit(Event{Kind: TypeFundsDeposited})
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	rec.Emit(Event{Kind: TypePlayResult})
	rec.Emit(Event{Kind: TypePrizeClaimed})

	got := rec.Events()
	require.Len(t, got, 2)
	assert.Equal(t, TypePlayResult, got[0].Kind)
	assert.Equal(t, TypePrizeClaimed, got[1].Kind)

	rec.Reset()
	assert.Empty(t, rec.Events())
}
