package chain

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"
)

// Host serializes call execution and stamps each call with a fresh Env.
//
// The host guarantees the execution model the engine is written against:
// every submitted call runs to completion with exclusive access to all
// shared state before the next call begins. Callers do not control the
// order in which concurrent submissions land.
type Host struct {
	mu      sync.Mutex
	chainID uint64
	beacon  [32]byte
	nowFn   func() int64
	native  int64
	logger  *zap.Logger
}

// NewHost creates a host for the given chain id with a randomly seeded
// beacon chain.
func NewHost(chainID uint64, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Host{
		chainID: chainID,
		nowFn:   func() int64 { return time.Now().Unix() },
		logger:  logger,
	}
	if _, err := rand.Read(h.beacon[:]); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// a time-derived seed so the host can still serve.
		h.beacon = sha3.Sum256([]byte(time.Now().String()))
		logger.Warn("beacon seed fell back to time derivation", zap.Error(err))
	}
	return h
}

// SetNowFunc overrides the host clock. Passing nil restores the wall clock.
func (h *Host) SetNowFunc(now func() int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if now == nil {
		h.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	h.nowFn = now
}

// SetNativeBalance sets the native-currency balance reported in Env.
func (h *Host) SetNativeBalance(v int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.native = v
}

// Now returns the current host time in unix seconds.
func (h *Host) Now() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nowFn()
}

// Exec runs fn under the host lock with a freshly stamped Env. The call is
// atomic from the point of view of any other submission: fn either returns
// before the next call starts or not at all.
func (h *Host) Exec(caller Address, fn func(Env) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	env := Env{
		Caller:        caller,
		Timestamp:     h.nowFn(),
		Beacon:        h.beacon,
		ChainID:       h.chainID,
		TxID:          uuid.NewString(),
		NativeBalance: h.native,
	}
	h.advanceBeacon()

	err := fn(env)
	if err != nil {
		h.logger.Debug("call rejected",
			zap.String("tx_id", env.TxID),
			zap.String("caller", caller.String()),
			zap.Error(err),
		)
	}
	return err
}

// advanceBeacon evolves the beacon as a keccak hash chain so successive
// calls observe distinct values.
func (h *Host) advanceBeacon() {
	h.beacon = sha3.Sum256(h.beacon[:])
}
