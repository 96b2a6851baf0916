// Copyright 2025 Certen Protocol
//
// Gateway record types. Every record is addressable by a derived canonical
// address and carries the derivation bump so re-verification is a single
// hash. Records are JSON round-tripped into the KV store by the Store.

package gateway

import (
	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/types"
)

// Config is the gateway's singleton root record.
type Config struct {
	DomainSeparator          hasher.Hash  `json:"domain_separator"`
	CurrentEpoch             *types.U256  `json:"current_epoch"`
	PreviousSignersRetention *types.U256  `json:"previous_signers_retention"`
	MinimumRotationDelay     uint64       `json:"minimum_rotation_delay"`
	LastRotationTimestamp    uint64       `json:"last_rotation_timestamp"`
	Operator                 addr.Address `json:"operator"`
	Bump                     uint8        `json:"bump"`
}

// IsEpochValid reports whether a signing set installed at epoch is still
// inside the retention window. The comparison is strict: a set whose age
// equals the retention is already expired.
func (c *Config) IsEpochValid(epoch *types.U256) error {
	if epoch.Gt(c.CurrentEpoch) {
		return ErrUnknownVerifierSet
	}
	elapsed := new(types.U256).Sub(c.CurrentEpoch, epoch)
	if !elapsed.Lt(c.PreviousSignersRetention) {
		return ErrVerifierSetTooOld
	}
	return nil
}

// VerifierSetTracker pins one installed verifier set to the epoch it was
// installed at. Never mutated after creation.
type VerifierSetTracker struct {
	VerifierSetHash hasher.Hash `json:"verifier_set_hash"`
	Epoch           *types.U256 `json:"epoch"`
	Bump            uint8       `json:"bump"`
}

// MaxSignersPerSet bounds the signer bitmap. Committees larger than the
// bitmap cannot be expressed in a session.
const MaxSignersPerSet = 256

// SignatureVerificationSession accumulates signatures for one payload root.
type SignatureVerificationSession struct {
	PayloadMerkleRoot      hasher.Hash `json:"payload_merkle_root"`
	SigningVerifierSetHash hasher.Hash `json:"signing_verifier_set_hash"`
	SignerBitmap           [32]byte    `json:"signer_bitmap"`
	AccumulatedWeight      *types.U256 `json:"accumulated_weight"`
	IsValid                bool        `json:"is_valid"`
	Bump                   uint8       `json:"bump"`
}

// SignerContributed reports whether the bitmap bit for position is set.
func (s *SignatureVerificationSession) SignerContributed(position uint16) bool {
	return s.SignerBitmap[position/8]&(1<<(position%8)) != 0
}

// markSigner sets the bitmap bit for position.
func (s *SignatureVerificationSession) markSigner(position uint16) {
	s.SignerBitmap[position/8] |= 1 << (position % 8)
}

// ContributorCount returns how many distinct signers have contributed.
func (s *SignatureVerificationSession) ContributorCount() int {
	count := 0
	for _, b := range s.SignerBitmap {
		for ; b != 0; b &= b - 1 {
			count++
		}
	}
	return count
}

// MessageStatus is the lifecycle state of an IncomingMessage.
type MessageStatus string

const (
	// MessageApproved means the message may be consumed by its destination.
	MessageApproved MessageStatus = "approved"
	// MessageConsumed means the destination already executed the message.
	MessageConsumed MessageStatus = "consumed"
)

// IncomingMessage is the per-message approval record. The command id it is
// keyed by is the replay key; the record is never deleted.
type IncomingMessage struct {
	CommandID      hasher.Hash   `json:"command_id"`
	MessageHash    hasher.Hash   `json:"message_hash"`
	Status         MessageStatus `json:"status"`
	SigningPDABump uint8         `json:"signing_pda_bump"`
	Bump           uint8         `json:"bump"`
}
