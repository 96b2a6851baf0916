// Copyright 2025 Certen Protocol
//
// Positional decoders for the gateway event segments. The relayer-facing
// archive uses these to turn raw host-log entries back into typed events.

package events

import (
	"fmt"

	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/types"
)

// ParseError reports a malformed event entry.
type ParseError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("event parse failed on %q: %s", e.Field, e.Reason)
}

func readSegment(segments [][]byte, idx int, field string) ([]byte, error) {
	if idx >= len(segments) {
		return nil, &ParseError{Field: field, Reason: "missing segment"}
	}
	return segments[idx], nil
}

func read32(segments [][]byte, idx int, field string) (hasher.Hash, error) {
	seg, err := readSegment(segments, idx, field)
	if err != nil {
		return hasher.Hash{}, err
	}
	if len(seg) != 32 {
		return hasher.Hash{}, &ParseError{Field: field, Reason: fmt.Sprintf("want 32 bytes, got %d", len(seg))}
	}
	return hasher.FromBytes(seg), nil
}

// ParseSignersRotated decodes the field segments of a SignersRotated entry
// (prefix already stripped).
func ParseSignersRotated(segments [][]byte) (*SignersRotated, error) {
	epochRaw, err := readSegment(segments, 0, "epoch")
	if err != nil {
		return nil, err
	}
	if len(epochRaw) != 32 {
		return nil, &ParseError{Field: "epoch", Reason: fmt.Sprintf("want 32 bytes, got %d", len(epochRaw))}
	}
	setHash, err := read32(segments, 1, "verifier_set_hash")
	if err != nil {
		return nil, err
	}
	return &SignersRotated{
		Epoch:           types.U256FromLE(epochRaw),
		VerifierSetHash: setHash,
	}, nil
}

// ParseMessageApproved decodes the field segments of a MessageApproved entry.
func ParseMessageApproved(segments [][]byte) (*MessageApproved, error) {
	commandID, err := read32(segments, 0, "command_id")
	if err != nil {
		return nil, err
	}
	sourceChain, err := readSegment(segments, 1, "source_chain")
	if err != nil {
		return nil, err
	}
	messageID, err := readSegment(segments, 2, "message_id")
	if err != nil {
		return nil, err
	}
	sourceAddress, err := readSegment(segments, 3, "source_address")
	if err != nil {
		return nil, err
	}
	destinationAddress, err := readSegment(segments, 4, "destination_address")
	if err != nil {
		return nil, err
	}
	payloadHash, err := read32(segments, 5, "payload_hash")
	if err != nil {
		return nil, err
	}
	return &MessageApproved{
		CommandID:          commandID,
		SourceChain:        string(sourceChain),
		MessageID:          string(messageID),
		SourceAddress:      string(sourceAddress),
		DestinationAddress: string(destinationAddress),
		PayloadHash:        payloadHash,
	}, nil
}

// ParseMessageExecuted decodes the field segments of a MessageExecuted entry.
func ParseMessageExecuted(segments [][]byte) (*MessageExecuted, error) {
	commandID, err := read32(segments, 0, "command_id")
	if err != nil {
		return nil, err
	}
	return &MessageExecuted{CommandID: commandID}, nil
}
