// Copyright 2025 Certen Protocol

package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/merkle"
)

func messageFixture(i byte) Message {
	return Message{
		CCID:               CrossChainID{Chain: "ETH", ID: "0xabc-" + string('0'+rune(i))},
		SourceAddress:      "0xdeadbeef",
		DestinationChain:   "local",
		DestinationAddress: "1111111111111111111111111111111111111111111111111111111111111111",
		PayloadHash:        hasher.Keccak256([]byte{i}),
	}
}

func TestCommandID_DistinguishesFieldBoundaries(t *testing.T) {
	// Length prefixes keep ("ET", "Habc") and ("ETH", "abc") apart.
	require.NotEqual(t, CommandID("ET", "Habc"), CommandID("ETH", "abc"))
	require.Equal(t, CommandID("ETH", "abc"), CommandID("ETH", "abc"))
}

func TestMessageHash_IncludesDomainSeparator(t *testing.T) {
	m := messageFixture(1)
	d1 := hasher.Keccak256([]byte("domain-1"))
	d2 := hasher.Keccak256([]byte("domain-2"))

	require.NotEqual(t, m.Hash(d1), m.Hash(d2))
	require.Equal(t, m.Hash(d1), m.Hash(d1))
}

func TestMessageHash_SensitiveToEveryField(t *testing.T) {
	domain := hasher.Keccak256([]byte("domain"))
	base := messageFixture(1)

	mutations := []func(*Message){
		func(m *Message) { m.CCID.Chain = "BSC" },
		func(m *Message) { m.CCID.ID = "other" },
		func(m *Message) { m.SourceAddress = "0x00" },
		func(m *Message) { m.DestinationChain = "other" },
		func(m *Message) { m.DestinationAddress = "ffff" },
		func(m *Message) { m.PayloadHash[0] ^= 1 },
	}
	for i, mutate := range mutations {
		m := base
		mutate(&m)
		require.NotEqual(t, base.Hash(domain), m.Hash(domain), "mutation %d did not change the hash", i)
	}
}

func TestLeafHash_PositionMatters(t *testing.T) {
	domain := hasher.Keccak256([]byte("domain"))
	m := messageFixture(1)

	require.NotEqual(t, m.LeafHash(domain, 0, 2), m.LeafHash(domain, 1, 2))
}

func TestBuildMessageBatch_ProofsVerify(t *testing.T) {
	domain := hasher.Keccak256([]byte("domain"))
	messages := []Message{messageFixture(1), messageFixture(2), messageFixture(3)}

	tree, wrapped, err := BuildMessageBatch(domain, messages)
	require.NoError(t, err)
	require.Len(t, wrapped, 3)

	for i, mm := range wrapped {
		require.Equal(t, uint16(i), mm.Position)
		require.Equal(t, uint16(3), mm.SetSize)

		proof, err := tree.GenerateProof(i)
		require.NoError(t, err)
		require.True(t, merkle.VerifyProof(mm.LeafHash(domain), proof, tree.Root()))
	}
}

func TestU256_LittleEndianRoundTrip(t *testing.T) {
	x := NewU256(0xdeadbeef)
	le := U256LE(x)
	require.Len(t, le, 32)
	require.Equal(t, byte(0xef), le[0])
	require.True(t, x.Eq(U256FromLE(le)))
}
