// Copyright 2025 Certen Protocol
//
// Verifier-set model: an ordered multiset of weighted secp256k1 keys with a
// quorum threshold. Two derived forms matter: the flat set hash, used for
// equality checks, and the per-signer Merkle leaves, used to prove that one
// signer belongs to the committee without shipping the whole set.

package types

import (
	"errors"

	"github.com/certen/gmp-gateway/pkg/crypto/ecdsarec"
	"github.com/certen/gmp-gateway/pkg/encode"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/merkle"
)

// Common errors
var (
	ErrEmptyVerifierSet = errors.New("verifier set has no entries")
	ErrZeroQuorum       = errors.New("verifier set quorum must be positive")
	ErrWeightOverflow   = errors.New("verifier set weight summation overflowed")
)

// VerifierSetEntry is one weighted signer.
type VerifierSetEntry struct {
	Pubkey ecdsarec.Pubkey `json:"pubkey"`
	Weight *U256           `json:"weight"`
}

// VerifierSet is the committee that signs cross-chain payloads for one
// epoch. Entry order is load-bearing: it fixes leaf positions.
type VerifierSet struct {
	CreatedAt       uint64             `json:"created_at"`
	Entries         []VerifierSetEntry `json:"entries"`
	Quorum          *U256              `json:"quorum"`
	DomainSeparator hasher.Hash        `json:"domain_separator"`
}

// Validate checks the structural invariants: at least one signer, a positive
// quorum, and a total weight that both fits in 256 bits and reaches the
// quorum.
func (vs *VerifierSet) Validate() error {
	if len(vs.Entries) == 0 {
		return ErrEmptyVerifierSet
	}
	if vs.Quorum == nil || vs.Quorum.IsZero() {
		return ErrZeroQuorum
	}
	total := NewU256(0)
	for _, e := range vs.Entries {
		var overflow bool
		total, overflow = new(U256).AddOverflow(total, e.Weight)
		if overflow {
			return ErrWeightOverflow
		}
	}
	if total.Lt(vs.Quorum) {
		return errors.New("verifier set total weight below quorum")
	}
	return nil
}

// SetHash computes the flat canonical hash of the whole set. Used for
// equality checks between two materialized sets.
func (vs *VerifierSet) SetHash() hasher.Hash {
	w := encode.NewWriter(64 + len(vs.Entries)*72)
	w.U64(vs.CreatedAt)
	w.Raw(U256LE(vs.Quorum))
	w.Raw(vs.DomainSeparator[:])
	w.U32(uint32(len(vs.Entries)))
	for _, e := range vs.Entries {
		w.Raw(e.Pubkey[:])
		w.Raw(U256LE(e.Weight))
	}
	return hasher.Keccak256(w.Bytes())
}

// Leaf returns the Merkle leaf for the signer at the given position.
func (vs *VerifierSet) Leaf(position int) (VerifierSetLeaf, error) {
	if position < 0 || position >= len(vs.Entries) {
		return VerifierSetLeaf{}, errors.New("verifier set leaf position out of range")
	}
	e := vs.Entries[position]
	return VerifierSetLeaf{
		CreatedAt:       vs.CreatedAt,
		Quorum:          new(U256).Set(vs.Quorum),
		DomainSeparator: vs.DomainSeparator,
		Pubkey:          e.Pubkey,
		Weight:          new(U256).Set(e.Weight),
		Position:        uint16(position),
		SetSize:         uint16(len(vs.Entries)),
	}, nil
}

// LeafHashes returns the ordered leaf hashes for the whole set.
func (vs *VerifierSet) LeafHashes() []hasher.Hash {
	out := make([]hasher.Hash, len(vs.Entries))
	for i := range vs.Entries {
		leaf, _ := vs.Leaf(i)
		out[i] = leaf.Hash()
	}
	return out
}

// MerkleTree builds the membership tree over the set's leaves.
func (vs *VerifierSet) MerkleTree() (*merkle.Tree, error) {
	if len(vs.Entries) == 0 {
		return nil, ErrEmptyVerifierSet
	}
	return merkle.BuildTree(vs.LeafHashes())
}

// MerkleRoot computes the membership-tree root. This is the verifier-set
// hash that trackers record and sessions bind to.
func (vs *VerifierSet) MerkleRoot() (hasher.Hash, error) {
	tree, err := vs.MerkleTree()
	if err != nil {
		return hasher.Hash{}, err
	}
	return tree.Root(), nil
}

// VerifierSetLeaf is one signer's membership leaf: enough of the set's
// parameters ride along that quorum and bitmap bounds can be checked from
// the leaf alone once its inclusion proof verifies.
type VerifierSetLeaf struct {
	CreatedAt       uint64          `json:"created_at"`
	Quorum          *U256           `json:"quorum"`
	DomainSeparator hasher.Hash     `json:"domain_separator"`
	Pubkey          ecdsarec.Pubkey `json:"pubkey"`
	Weight          *U256           `json:"weight"`
	Position        uint16          `json:"position"`
	SetSize         uint16          `json:"set_size"`
}

// Hash computes the domain-separated leaf hash.
func (l *VerifierSetLeaf) Hash() hasher.Hash {
	w := encode.NewWriter(176)
	w.U8(hasher.TagLeaf)
	w.Raw([]byte(hasher.LabelVerifierSet))
	w.U64(l.CreatedAt)
	w.Raw(U256LE(l.Quorum))
	w.Raw(l.DomainSeparator[:])
	w.Raw(l.Pubkey[:])
	w.Raw(U256LE(l.Weight))
	w.U16(l.Position)
	return hasher.Keccak256(w.Bytes())
}

// RotationPayloadHash binds a proposed verifier-set root to the committee
// that signs it off, producing the payload root a rotation session is
// keyed by.
func RotationPayloadHash(newVerifierSetRoot, signingVerifierSetHash hasher.Hash) hasher.Hash {
	return hasher.Keccak256(newVerifierSetRoot[:], signingVerifierSetHash[:])
}

// SigningVerifierSetInfo is the per-signature submission: the signer's
// membership leaf, its inclusion proof against the signing set's root, and
// the signature over the payload root.
type SigningVerifierSetInfo struct {
	Leaf      VerifierSetLeaf    `json:"leaf"`
	Proof     *merkle.Proof      `json:"proof"`
	Signature ecdsarec.Signature `json:"signature"`
}
