// Copyright 2025 Certen Protocol
//
// Package addr derives the canonical record addresses the gateway keys its
// state by. An address is the Keccak-256 of a typed seed tuple plus a bump
// byte; the bump is the smallest byte that pushes the digest off the native
// signing curve, so no derived address can double as a signing key. Records
// store their bump, which makes re-verification a single hash.
package addr

import (
	"encoding/hex"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"

	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
)

// Address is a 32-byte derived record address.
type Address [32]byte

// Seed tags. Each record family derives under its own tag so tuples from
// different families can never collide.
const (
	SeedGatewayConfig      = "gateway"
	SeedVerifierSetTracker = "gtw-verifier-set"
	SeedVerificationSess   = "gtw-verification"
	SeedIncomingMessage    = "gtw-incoming-message"
	SeedSigningPDA         = "gtw-signing"
	SeedITSRoot            = "its-root"
	SeedTokenManager       = "its-token-manager"
	SeedInterchainToken    = "its-interchain-token"
	SeedFlowSlot           = "its-flow-slot"
)

// ErrNoValidBump is returned when no bump byte lands off-curve. With a
// 256-candidate search the probability is negligible; the error exists so
// the search never loops silently.
var ErrNoValidBump = errors.New("no valid bump found for seed tuple")

// candidate computes the digest for one bump value.
func candidate(seedTag string, parts [][]byte, bump byte) Address {
	segments := make([][]byte, 0, len(parts)+2)
	segments = append(segments, []byte(seedTag))
	segments = append(segments, parts...)
	segments = append(segments, []byte{bump})

	var out Address
	copy(out[:], crypto.Keccak256(segments...))
	return out
}

// offCurve reports whether a cannot be interpreted as the X coordinate of a
// compressed secp256k1 point. Off-curve digests are the only valid derived
// addresses.
func offCurve(a Address) bool {
	compressed := make([]byte, 33)
	compressed[0] = 0x02
	copy(compressed[1:], a[:])
	_, err := crypto.DecompressPubkey(compressed)
	return err != nil
}

// Derive finds the canonical address for a seed tuple, returning the address
// and the bump that produced it.
func Derive(seedTag string, parts ...[]byte) (Address, byte, error) {
	for bump := 0; bump <= 0xff; bump++ {
		a := candidate(seedTag, parts, byte(bump))
		if offCurve(a) {
			return a, byte(bump), nil
		}
	}
	return Address{}, 0, ErrNoValidBump
}

// Verify recomputes the derivation with the recorded bump and checks that it
// produces the expected address and lands off-curve. This is the O(1)
// capability check every record access goes through.
func Verify(expected Address, bump byte, seedTag string, parts ...[]byte) error {
	a := candidate(seedTag, parts, bump)
	if a != expected {
		return gwerrors.New(gwerrors.CodeIntegrityFailed, "derived address does not match recorded bump").
			WithContext("seed_tag", seedTag)
	}
	if !offCurve(a) {
		return gwerrors.New(gwerrors.CodeIntegrityFailed, "derived address lies on the signing curve").
			WithContext("seed_tag", seedTag)
	}
	return nil
}

// Bytes returns the address as a fresh slice.
func (a Address) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, a[:])
	return out
}

// Hex returns the lowercase hex encoding without a prefix.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return a.Hex()
}

// IsZero reports whether every byte of the address is zero.
func (a Address) IsZero() bool {
	return a == Address{}
}

// FromBytes copies b into an Address.
func FromBytes(b []byte) Address {
	var out Address
	copy(out[:], b)
	return out
}
