// Copyright 2025 Certen Protocol
//
// End-to-end consume handshake through an executable payload: approve a
// message whose payload hash commits to the executable body, then validate
// it from the destination program's side.

package executable

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/crypto/ecdsarec"
	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
	"github.com/certen/gmp-gateway/pkg/gateway"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/kvdb"
	"github.com/certen/gmp-gateway/pkg/types"
)

func TestValidateCall(t *testing.T) {
	domain := hasher.Keccak256([]byte("exec-test-domain"))

	// One-signer committee at quorum 1.
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	pk, ok := ecdsarec.PubkeyFromBytes(crypto.CompressPubkey(&key.PublicKey))
	require.True(t, ok)
	set := types.VerifierSet{
		CreatedAt:       1700000000,
		Quorum:          types.NewU256(1),
		DomainSeparator: domain,
		Entries:         []types.VerifierSetEntry{{Pubkey: pk, Weight: types.NewU256(1)}},
	}

	gw := gateway.NewProcessor(gateway.NewStore(kvdb.NewMemoryKV()), &gateway.FixedClock{Timestamp: 1700000000}, nil, nil, nil)
	operator, _, err := addr.Derive("test-address", []byte("operator"))
	require.NoError(t, err)
	require.NoError(t, gw.InitializeConfig([]types.VerifierSet{set}, 0, types.NewU256(4), operator, domain))

	program, _, err := addr.Derive("test-address", []byte("program"))
	require.NoError(t, err)

	// The executable payload body determines the message's payload hash.
	exec := &Payload{
		PayloadWithoutAccounts: []byte{0x01, 0x02},
		Accounts:               []AccountRepr{{Address: [32]byte{0x0c}, IsWritable: true}},
		Scheme:                 SchemeBorsh,
		Message: types.Message{
			CCID:               types.CrossChainID{Chain: "ETH", ID: "exec-0"},
			SourceAddress:      "0xsource",
			DestinationChain:   "solana-local",
			DestinationAddress: hex.EncodeToString(program[:]),
		},
	}
	exec.Message.PayloadHash = exec.PayloadHash()

	// Approve through the pipeline.
	tree, wrapped, err := types.BuildMessageBatch(domain, []types.Message{exec.Message})
	require.NoError(t, err)
	payloadRoot := tree.Root()
	require.NoError(t, gw.InitializePayloadVerificationSession(payloadRoot))

	leaf, err := set.Leaf(0)
	require.NoError(t, err)
	raw, err := crypto.Sign(payloadRoot[:], key)
	require.NoError(t, err)
	sig, ok := ecdsarec.SignatureFromBytes(raw)
	require.True(t, ok)
	require.NoError(t, gw.VerifySignature(payloadRoot, &types.SigningVerifierSetInfo{Leaf: leaf, Signature: sig}))

	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)
	require.NoError(t, gw.ApproveMessage(&wrapped[0], proof, payloadRoot))

	// The relayer ships the encoded payload; the program decodes and
	// validates.
	wire, err := exec.Encode()
	require.NoError(t, err)
	received, err := Decode(wire)
	require.NoError(t, err)

	dest, err := received.DestinationProgram()
	require.NoError(t, err)
	require.Equal(t, program, dest)

	require.NoError(t, ValidateCall(gw, received, dest))
	require.ErrorIs(t, ValidateCall(gw, received, dest), gateway.ErrAlreadyConsumed)
}

func TestValidateCall_TamperedBody(t *testing.T) {
	gw := gateway.NewProcessor(gateway.NewStore(kvdb.NewMemoryKV()), &gateway.FixedClock{}, nil, nil, nil)

	program, _, err := addr.Derive("test-address", []byte("program"))
	require.NoError(t, err)

	exec := &Payload{
		PayloadWithoutAccounts: []byte{0x01},
		Scheme:                 SchemeBorsh,
		Message: types.Message{
			CCID:               types.CrossChainID{Chain: "ETH", ID: "exec-1"},
			DestinationAddress: hex.EncodeToString(program[:]),
		},
	}
	exec.Message.PayloadHash = exec.PayloadHash()
	exec.PayloadWithoutAccounts = []byte{0xff}

	err = ValidateCall(gw, exec, program)
	require.True(t, gwerrors.IsCode(err, gwerrors.CodeIntegrityFailed))
}
