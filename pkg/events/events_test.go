// Copyright 2025 Certen Protocol

package events

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/types"
)

func TestEmitter_PrependsPrefix(t *testing.T) {
	log := &MemoryLogger{}
	emitter := NewEmitter(log)

	ev := &MessageExecuted{CommandID: hasher.Keccak256([]byte("cmd"))}
	require.NoError(t, emitter.Emit(ev))

	require.Len(t, log.Entries, 1)
	require.Equal(t, PrefixMessageExecuted, string(log.Entries[0][0]))
	require.Equal(t, ev.CommandID.Bytes(), log.Entries[0][1])
}

func TestSignersRotated_RoundTrip(t *testing.T) {
	log := &MemoryLogger{}
	emitter := NewEmitter(log)

	in := &SignersRotated{
		Epoch:           types.NewU256(42),
		VerifierSetHash: hasher.Keccak256([]byte("set")),
	}
	require.NoError(t, emitter.Emit(in))

	out, err := ParseSignersRotated(log.Entries[0][1:])
	require.NoError(t, err)
	require.True(t, out.Epoch.Eq(in.Epoch))
	require.Equal(t, in.VerifierSetHash, out.VerifierSetHash)
}

func TestMessageApproved_RoundTrip(t *testing.T) {
	log := &MemoryLogger{}
	emitter := NewEmitter(log)

	in := &MessageApproved{
		CommandID:          hasher.Keccak256([]byte("cmd")),
		SourceChain:        "ETH",
		MessageID:          "0xabc-0",
		SourceAddress:      "0xdead",
		DestinationAddress: "dst1",
		PayloadHash:        hasher.Keccak256([]byte("payload")),
	}
	require.NoError(t, emitter.Emit(in))

	out, err := ParseMessageApproved(log.Entries[0][1:])
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestMessageExecuted_RoundTrip(t *testing.T) {
	in := &MessageExecuted{CommandID: hasher.Keccak256([]byte("cmd"))}
	out, err := ParseMessageExecuted(in.Segments())
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestParse_Malformed(t *testing.T) {
	_, err := ParseMessageExecuted(nil)
	require.Error(t, err)

	_, err = ParseMessageExecuted([][]byte{{0x01, 0x02}})
	require.Error(t, err)

	_, err = ParseSignersRotated([][]byte{make([]byte, 32)})
	require.Error(t, err)

	_, err = ParseMessageApproved([][]byte{make([]byte, 32), []byte("ETH")})
	require.Error(t, err)
}

func TestCallContract_SegmentLayout(t *testing.T) {
	log := &MemoryLogger{}
	emitter := NewEmitter(log)

	sender, _, err := addr.Derive("test-address", []byte("sender"))
	require.NoError(t, err)
	payload := []byte("payload bytes")

	require.NoError(t, emitter.Emit(&CallContract{
		Sender:                     sender,
		DestinationChain:           "ETH",
		DestinationContractAddress: "0xcontract",
		Payload:                    payload,
		PayloadHash:                hasher.Keccak256(payload),
	}))

	entry := log.Entries[0]
	require.Len(t, entry, 6)
	require.Equal(t, PrefixCallContract, string(entry[0]))
	require.Equal(t, sender.Bytes(), entry[1])
	require.Equal(t, "ETH", string(entry[2]))
	require.Equal(t, "0xcontract", string(entry[3]))
	require.Equal(t, payload, entry[4])
	require.Equal(t, hasher.Keccak256(payload).Bytes(), entry[5])
}

func TestNilEmitter_IsSafe(t *testing.T) {
	var emitter *Emitter
	require.NoError(t, emitter.Emit(&MessageExecuted{}))
}
