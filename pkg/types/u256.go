// Copyright 2025 Certen Protocol

package types

import (
	"github.com/holiman/uint256"
)

// U256 is the 256-bit unsigned integer used for epochs, weights and quorums.
type U256 = uint256.Int

// NewU256 returns a U256 holding v.
func NewU256(v uint64) *U256 {
	return uint256.NewInt(v)
}

// U256LE returns the 32-byte little-endian encoding of x. Canonical layouts
// are little-endian throughout the module.
func U256LE(x *U256) []byte {
	be := x.Bytes32()
	out := make([]byte, 32)
	for i := 0; i < 32; i++ {
		out[i] = be[31-i]
	}
	return out
}

// U256FromLE decodes a 32-byte little-endian encoding.
func U256FromLE(b []byte) *U256 {
	var be [32]byte
	n := len(b)
	if n > 32 {
		n = 32
	}
	for i := 0; i < n; i++ {
		be[31-i] = b[i]
	}
	return new(uint256.Int).SetBytes(be[:])
}
