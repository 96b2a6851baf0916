// Copyright 2025 Certen Protocol
//
// Package hasher wraps Keccak-256 and defines the domain-separation tags
// shared by the Merkle layer and the record types. Every hash in the module
// goes through this package so the canonical layouts stay in one place.
package hasher

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"
)

// Hash is a 32-byte Keccak-256 digest.
type Hash [32]byte

// Domain-separation tags. Leaves and internal nodes of the same tree can
// never collide because their first hashed byte differs.
const (
	TagLeaf     byte = 0x00
	TagInternal byte = 0x01
)

// Per-tree ASCII labels, hashed immediately after the leaf tag.
const (
	LabelMessage     = "message"
	LabelVerifierSet = "verifier-set"
)

// Keccak256 hashes the concatenation of the given segments.
func Keccak256(segments ...[]byte) Hash {
	var out Hash
	copy(out[:], crypto.Keccak256(segments...))
	return out
}

// NodeHash computes the internal-node hash for two 32-byte children.
func NodeHash(left, right Hash) Hash {
	return Keccak256([]byte{TagInternal}, left[:], right[:])
}

// Bytes returns the digest as a fresh slice.
func (h Hash) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, h[:])
	return out
}

// Hex returns the lowercase hex encoding without a prefix.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return h.Hex()
}

// IsZero reports whether every byte of the digest is zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// FromBytes copies b into a Hash. Inputs shorter than 32 bytes are
// zero-padded on the right; longer inputs are truncated.
func FromBytes(b []byte) Hash {
	var out Hash
	copy(out[:], b)
	return out
}

// FromHex decodes a hex string into a Hash. The length is not checked:
// like FromBytes, shorter input is zero-padded on the right and longer
// input is truncated.
func FromHex(s string) (Hash, error) {
	var out Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}
