// Package entropy derives dice rolls from mixed host-environment entropy.
//
// The mix is deliberately weak: every input is observable or influenceable
// by whoever controls block production. That tradeoff buys instant, cheap
// settlement. Keeping the derivation behind this package boundary means a
// verifiable-randomness source can replace it without touching settlement
// logic.
package entropy

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Sources are the entropy inputs mixed into a single roll.
type Sources struct {
	Beacon        [32]byte
	Timestamp     int64
	Caller        string
	Nonce         uint64
	ChainID       uint64
	NativeBalance int64
}

// Roll mixes the sources through keccak-256 and reduces the digest to an
// integer in [1, sides]. Deterministic for identical inputs.
func Roll(src Sources, sides uint64) uint64 {
	if sides == 0 {
		sides = 1
	}

	h := sha3.NewLegacyKeccak256()
	h.Write(src.Beacon[:])

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(src.Timestamp))
	h.Write(buf[:])

	h.Write([]byte(src.Caller))

	binary.BigEndian.PutUint64(buf[:], src.Nonce)
	h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], src.ChainID)
	h.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], uint64(src.NativeBalance))
	h.Write(buf[:])

	digest := h.Sum(nil)
	v := binary.BigEndian.Uint64(digest[:8])
	return v%sides + 1
}
