// Copyright 2025 Certen Protocol
//
// Package ecdsarec verifies recoverable secp256k1 ECDSA signatures the way
// remote verifier committees produce them: 64 bytes of (r, s) followed by a
// one-byte recovery id, with both the 0/1 and the Ethereum-style 27/28
// conventions accepted.
package ecdsarec

import (
	"bytes"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureSize is the canonical recoverable-signature length: r ‖ s ‖ v.
const SignatureSize = 65

// PubkeySize is the compressed secp256k1 public key length.
const PubkeySize = 33

// Signature is a recoverable ECDSA signature with the recovery id at the
// tail.
type Signature [SignatureSize]byte

// Pubkey is a compressed secp256k1 public key.
type Pubkey [PubkeySize]byte

// NormalizeRecoveryID maps Ethereum-style recovery ids (27, 28) down to the
// 0..3 range the recovery routine expects. Values already in range pass
// through unchanged.
func NormalizeRecoveryID(v byte) byte {
	if v >= 27 {
		return v - 27
	}
	return v
}

// Verify recovers the public key that produced sig over messageHash and
// compares it against the claimed compressed key. Returns true only when the
// recovery succeeds and the keys match. Any failure (unparseable key,
// out-of-range recovery id, recovery error) yields false; callers decide
// whether that is an error.
func Verify(pubkey Pubkey, sig Signature, messageHash [32]byte) bool {
	recoveryID := NormalizeRecoveryID(sig[64])
	if recoveryID > 1 {
		return false
	}

	normalized := make([]byte, SignatureSize)
	copy(normalized, sig[:64])
	normalized[64] = recoveryID

	recovered, err := crypto.Ecrecover(messageHash[:], normalized)
	if err != nil {
		return false
	}

	claimed, err := crypto.DecompressPubkey(pubkey[:])
	if err != nil {
		return false
	}

	// Ecrecover returns the 65-byte uncompressed key with the 0x04 tag.
	return bytes.Equal(recovered, crypto.FromECDSAPub(claimed))
}

// RecoverCompressed recovers the signer's compressed public key from sig
// over messageHash.
func RecoverCompressed(sig Signature, messageHash [32]byte) (Pubkey, error) {
	var out Pubkey

	recoveryID := NormalizeRecoveryID(sig[64])
	normalized := make([]byte, SignatureSize)
	copy(normalized, sig[:64])
	normalized[64] = recoveryID

	pub, err := crypto.SigToPub(messageHash[:], normalized)
	if err != nil {
		return out, err
	}
	copy(out[:], crypto.CompressPubkey(pub))
	return out, nil
}

// PubkeyFromBytes copies b into a Pubkey. Returns false when b has the wrong
// length.
func PubkeyFromBytes(b []byte) (Pubkey, bool) {
	var out Pubkey
	if len(b) != PubkeySize {
		return out, false
	}
	copy(out[:], b)
	return out, true
}

// SignatureFromBytes copies b into a Signature. Returns false when b has the
// wrong length.
func SignatureFromBytes(b []byte) (Signature, bool) {
	var out Signature
	if len(b) != SignatureSize {
		return out, false
	}
	copy(out[:], b)
	return out, true
}
