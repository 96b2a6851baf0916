// Copyright 2025 Certen Protocol

package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/certen/gmp-gateway/pkg/types"
)

func writeGenesis(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway-genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testPubkeyHex(t *testing.T) string {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return hex.EncodeToString(crypto.CompressPubkey(&key.PublicKey))
}

func TestLoadGenesis(t *testing.T) {
	pk1 := testPubkeyHex(t)
	pk2 := testPubkeyHex(t)

	path := writeGenesis(t, `
domain_separator: "4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d"
previous_signers_retention: 4
minimum_rotation_delay_secs: 3600
operator: "0101010101010101010101010101010101010101010101010101010101010101"
initial_verifier_sets:
  - created_at: 1700000000
    quorum: 43
    signers:
      - pubkey: "`+pk1+`"
        weight: 42
      - pubkey: "`+pk2+`"
        weight: 33
its:
  chain_name: "solana-local"
  trusted_chains: ["ETH", "BSC"]
  operator: "0202020202020202020202020202020202020202020202020202020202020202"
`)

	g, err := LoadGenesis(path)
	require.NoError(t, err)
	require.Equal(t, uint64(4), g.PreviousSignersRetention)
	require.Equal(t, uint64(3600), g.MinimumRotationDelay)
	require.Equal(t, "solana-local", g.ITS.ChainName)
	require.Len(t, g.ITS.TrustedChains, 2)

	domain, err := g.DomainSeparatorHash()
	require.NoError(t, err)
	require.Equal(t, byte(0x4d), domain[0])

	operator, err := g.OperatorAddress()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), operator[0])

	sets, err := g.VerifierSets()
	require.NoError(t, err)
	require.Len(t, sets, 1)
	require.Len(t, sets[0].Entries, 2)
	require.Equal(t, domain, sets[0].DomainSeparator)
	require.True(t, sets[0].Quorum.Eq(types.NewU256(43)))
}

func TestLoadGenesis_InvalidSigner(t *testing.T) {
	path := writeGenesis(t, `
domain_separator: "4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d4d"
previous_signers_retention: 4
minimum_rotation_delay_secs: 3600
operator: "0101010101010101010101010101010101010101010101010101010101010101"
initial_verifier_sets:
  - created_at: 1700000000
    quorum: 1
    signers:
      - pubkey: "zz"
        weight: 1
`)

	g, err := LoadGenesis(path)
	require.NoError(t, err)
	_, err = g.VerifierSets()
	require.Error(t, err)
}

func TestLoadGenesis_MissingFile(t *testing.T) {
	_, err := LoadGenesis(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, cfg.DataDir)
	require.NotEmpty(t, cfg.MetricsAddr)
	require.NoError(t, cfg.Validate())
}
