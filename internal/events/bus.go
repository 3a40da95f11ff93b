package events

import (
	"sync"

	"go.uber.org/zap"
)

// Bus fans events out to subscribers over buffered channels. The engine's
// emit path must never block on an observer, so a subscriber whose buffer
// is full has the event dropped and logged.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	logger *zap.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Subscribe registers a new subscriber with the given channel buffer size
// and returns its channel plus a cancel function. Cancel closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Emit delivers the event to every subscriber without blocking.
func (b *Bus) Emit(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.logger.Warn("subscriber lagging, event dropped",
				zap.Int("subscriber", id),
				zap.String("kind", string(evt.Kind)),
			)
		}
	}
}

// Recorder collects every emitted event in order. Test helper.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
