package chain

// Address identifies an account on the token ledger. Addresses are opaque
// strings; the engine never parses them beyond equality checks.
type Address string

// ZeroAddress is the empty address. It is never a valid caller or owner.
const ZeroAddress Address = ""

func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == ZeroAddress }

// Env is the read-only execution context stamped onto a single call by the
// host. The engine may read it but never mutates it.
type Env struct {
	// Caller is the identity the call was submitted under.
	Caller Address

	// Timestamp is the host clock at execution time, unix seconds.
	Timestamp int64

	// Beacon is the per-call randomness beacon value. It is observable by
	// whoever produces blocks and must not be treated as unpredictable.
	Beacon [32]byte

	// ChainID identifies the chain the host executes on.
	ChainID uint64

	// TxID uniquely identifies the submitted call.
	TxID string

	// NativeBalance is the host's native-currency balance at call time.
	// It feeds the entropy mix only; it is near-constant across short
	// windows and adds no real unpredictability.
	NativeBalance int64
}
