// Copyright 2025 Certen Protocol
//
// Package events defines the outward event surface the off-chain relayer
// consumes. Every event is an ordered list of byte segments written to the
// host log: segment 0 is a fixed ASCII prefix naming the event, the rest are
// field values in the canonical byte layout. Off-chain parsers split by
// segment and decode positionally.
package events

import (
	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/types"
)

// Event prefixes. Fixed ASCII, one per event kind.
const (
	PrefixCallContract     = "call-contract"
	PrefixMessageApproved  = "message-approved"
	PrefixMessageExecuted  = "message-executed"
	PrefixSignersRotated   = "signers-rotated"
	PrefixTokenIDClaimed   = "its-token-id-claimed"
	PrefixLinkTokenStarted = "its-link-token-started"
	PrefixTransferSent     = "its-transfer-sent"
	PrefixTransferReceived = "its-transfer-received"
)

// Event is anything that can be written to the host log as segments.
type Event interface {
	// Prefix returns the ASCII identifier written as segment 0.
	Prefix() string
	// Segments returns the ordered field values, excluding the prefix.
	Segments() [][]byte
}

// HostLogger is the host-runtime sink for event segments.
type HostLogger interface {
	LogData(segments [][]byte) error
}

// Emitter writes typed events through a HostLogger.
type Emitter struct {
	sink HostLogger
}

// NewEmitter wraps a host logger.
func NewEmitter(sink HostLogger) *Emitter {
	return &Emitter{sink: sink}
}

// Emit writes one event. The prefix segment is prepended here so event types
// only describe their fields.
func (e *Emitter) Emit(ev Event) error {
	if e == nil || e.sink == nil {
		return nil
	}
	fields := ev.Segments()
	segments := make([][]byte, 0, len(fields)+1)
	segments = append(segments, []byte(ev.Prefix()))
	segments = append(segments, fields...)
	return e.sink.LogData(segments)
}

// CallContract is emitted when an on-chain caller sends a message outward.
type CallContract struct {
	Sender                     addr.Address
	DestinationChain           string
	DestinationContractAddress string
	Payload                    []byte
	PayloadHash                hasher.Hash
}

// Prefix implements Event.
func (*CallContract) Prefix() string { return PrefixCallContract }

// Segments implements Event.
func (ev *CallContract) Segments() [][]byte {
	return [][]byte{
		ev.Sender.Bytes(),
		[]byte(ev.DestinationChain),
		[]byte(ev.DestinationContractAddress),
		ev.Payload,
		ev.PayloadHash.Bytes(),
	}
}

// MessageApproved is emitted when a message transitions to Approved,
// including repeat approvals of an already-approved message.
type MessageApproved struct {
	CommandID          hasher.Hash
	SourceChain        string
	MessageID          string
	SourceAddress      string
	DestinationAddress string
	PayloadHash        hasher.Hash
}

// Prefix implements Event.
func (*MessageApproved) Prefix() string { return PrefixMessageApproved }

// Segments implements Event.
func (ev *MessageApproved) Segments() [][]byte {
	return [][]byte{
		ev.CommandID.Bytes(),
		[]byte(ev.SourceChain),
		[]byte(ev.MessageID),
		[]byte(ev.SourceAddress),
		[]byte(ev.DestinationAddress),
		ev.PayloadHash.Bytes(),
	}
}

// MessageExecuted is emitted when a message transitions to Consumed.
type MessageExecuted struct {
	CommandID hasher.Hash
}

// Prefix implements Event.
func (*MessageExecuted) Prefix() string { return PrefixMessageExecuted }

// Segments implements Event.
func (ev *MessageExecuted) Segments() [][]byte {
	return [][]byte{ev.CommandID.Bytes()}
}

// SignersRotated is emitted on every successful rotation. The epoch is
// serialized as a 32-byte little-endian word.
type SignersRotated struct {
	Epoch           *types.U256
	VerifierSetHash hasher.Hash
}

// Prefix implements Event.
func (*SignersRotated) Prefix() string { return PrefixSignersRotated }

// Segments implements Event.
func (ev *SignersRotated) Segments() [][]byte {
	return [][]byte{
		types.U256LE(ev.Epoch),
		ev.VerifierSetHash.Bytes(),
	}
}

// MemoryLogger is a HostLogger that records every emitted event. Used by
// tests.
type MemoryLogger struct {
	Entries [][][]byte
}

// LogData implements HostLogger.
func (m *MemoryLogger) LogData(segments [][]byte) error {
	cp := make([][]byte, len(segments))
	for i, s := range segments {
		b := make([]byte, len(s))
		copy(b, s)
		cp[i] = b
	}
	m.Entries = append(m.Entries, cp)
	return nil
}

// Prefixes returns the prefix of every recorded entry, in order.
func (m *MemoryLogger) Prefixes() []string {
	out := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		if len(e) > 0 {
			out[i] = string(e[0])
		}
	}
	return out
}
