// Copyright 2025 Certen Protocol
//
// Cross-chain message types and their canonical hashes. The command id is
// the replay key for a message; the leaf hash commits a message to a payload
// Merkle root; the full message hash is what an approved record pins so the
// validate handshake can detect any field drift.

package types

import (
	"github.com/certen/gmp-gateway/pkg/encode"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/merkle"
)

// CrossChainID identifies a message uniquely across all chains: the source
// chain name plus the source chain's own message identifier.
type CrossChainID struct {
	Chain string `json:"chain"`
	ID    string `json:"id"`
}

// Message is a single cross-chain message as committed into a payload
// Merkle root.
type Message struct {
	CCID               CrossChainID `json:"cc_id"`
	SourceAddress      string       `json:"source_address"`
	DestinationChain   string       `json:"destination_chain"`
	DestinationAddress string       `json:"destination_address"`
	PayloadHash        hasher.Hash  `json:"payload_hash"`
}

// CommandID computes the replay key for a (source chain, message id) pair.
func CommandID(sourceChain, messageID string) hasher.Hash {
	w := encode.NewWriter(len(sourceChain) + len(messageID) + 8)
	w.VarString(sourceChain)
	w.VarString(messageID)
	return hasher.Keccak256(w.Bytes())
}

// CommandID returns the replay key for this message.
func (m *Message) CommandID() hasher.Hash {
	return CommandID(m.CCID.Chain, m.CCID.ID)
}

// canonicalBytes lays the message fields out in their canonical order.
func (m *Message) canonicalBytes() []byte {
	w := encode.NewWriter(128)
	w.VarString(m.CCID.Chain)
	w.VarString(m.CCID.ID)
	w.VarString(m.SourceAddress)
	w.VarString(m.DestinationChain)
	w.VarString(m.DestinationAddress)
	w.Raw(m.PayloadHash[:])
	return w.Bytes()
}

// Hash computes the canonical hash of the full message record, bound to the
// gateway's domain separator. This is the hash an IncomingMessage pins.
func (m *Message) Hash(domainSeparator hasher.Hash) hasher.Hash {
	return hasher.Keccak256(domainSeparator[:], m.canonicalBytes())
}

// LeafHash computes the Merkle leaf commitment for this message at the given
// position of a payload batch.
func (m *Message) LeafHash(domainSeparator hasher.Hash, position, setSize uint16) hasher.Hash {
	w := encode.NewWriter(160)
	w.U8(hasher.TagLeaf)
	w.Raw([]byte(hasher.LabelMessage))
	w.Raw(domainSeparator[:])
	w.U16(position)
	w.U16(setSize)
	w.Raw(m.canonicalBytes())
	return hasher.Keccak256(w.Bytes())
}

// MerkleisedMessage pairs a message with its position metadata inside a
// payload batch. The position is load-bearing: it selects the leaf index the
// inclusion proof is verified against.
type MerkleisedMessage struct {
	Message  Message `json:"message"`
	Position uint16  `json:"position"`
	SetSize  uint16  `json:"set_size"`
}

// LeafHash computes the leaf commitment for the wrapped message.
func (mm *MerkleisedMessage) LeafHash(domainSeparator hasher.Hash) hasher.Hash {
	return mm.Message.LeafHash(domainSeparator, mm.Position, mm.SetSize)
}

// BuildMessageBatch computes the payload Merkle tree for an ordered slice of
// messages. Used by tests and by hosts that assemble outgoing batches.
func BuildMessageBatch(domainSeparator hasher.Hash, messages []Message) (*merkle.Tree, []MerkleisedMessage, error) {
	setSize := uint16(len(messages))
	leaves := make([]hasher.Hash, len(messages))
	wrapped := make([]MerkleisedMessage, len(messages))
	for i, m := range messages {
		wrapped[i] = MerkleisedMessage{Message: m, Position: uint16(i), SetSize: setSize}
		leaves[i] = wrapped[i].LeafHash(domainSeparator)
	}
	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, nil, err
	}
	return tree, wrapped, nil
}
