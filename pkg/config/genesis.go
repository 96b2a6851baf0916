// Copyright 2025 Certen Protocol
//
// Gateway Genesis Loader
//
// The genesis file fixes the gateway's immutable parameters (domain
// separator, retention window, rotation delay, operator) and the ordered
// initial verifier sets, oldest first. Loaded once, at InitializeConfig
// time.

package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/crypto/ecdsarec"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/types"
)

// Genesis is the YAML shape of the gateway genesis file.
type Genesis struct {
	DomainSeparator string `yaml:"domain_separator"` // 32-byte hex

	PreviousSignersRetention uint64 `yaml:"previous_signers_retention"`
	MinimumRotationDelay     uint64 `yaml:"minimum_rotation_delay_secs"`
	Operator                 string `yaml:"operator"` // 32-byte hex address

	InitialVerifierSets []GenesisVerifierSet `yaml:"initial_verifier_sets"`

	ITS GenesisITS `yaml:"its"`
}

// GenesisVerifierSet is one committee, oldest first in the file.
type GenesisVerifierSet struct {
	CreatedAt uint64          `yaml:"created_at"`
	Quorum    uint64          `yaml:"quorum"`
	Signers   []GenesisSigner `yaml:"signers"`
}

// GenesisSigner is one weighted signer of a genesis committee.
type GenesisSigner struct {
	Pubkey string `yaml:"pubkey"` // 33-byte compressed hex
	Weight uint64 `yaml:"weight"`
}

// GenesisITS carries the ITS root parameters.
type GenesisITS struct {
	ChainName     string   `yaml:"chain_name"`
	TrustedChains []string `yaml:"trusted_chains"`
	Operator      string   `yaml:"operator"` // 32-byte hex address
}

// LoadGenesis reads and decodes the genesis file at path.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}

	var g Genesis
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("failed to parse genesis file: %w", err)
	}
	return &g, nil
}

// DomainSeparatorHash decodes the domain separator field.
func (g *Genesis) DomainSeparatorHash() (hasher.Hash, error) {
	h, err := hasher.FromHex(g.DomainSeparator)
	if err != nil {
		return hasher.Hash{}, fmt.Errorf("invalid domain_separator: %w", err)
	}
	return h, nil
}

// OperatorAddress decodes the gateway operator field.
func (g *Genesis) OperatorAddress() (addr.Address, error) {
	return decodeAddress(g.Operator, "operator")
}

// VerifierSets materializes the initial committees in file order, attaching
// the genesis domain separator to each.
func (g *Genesis) VerifierSets() ([]types.VerifierSet, error) {
	domainSeparator, err := g.DomainSeparatorHash()
	if err != nil {
		return nil, err
	}

	out := make([]types.VerifierSet, 0, len(g.InitialVerifierSets))
	for i, gs := range g.InitialVerifierSets {
		vs := types.VerifierSet{
			CreatedAt:       gs.CreatedAt,
			Quorum:          types.NewU256(gs.Quorum),
			DomainSeparator: domainSeparator,
			Entries:         make([]types.VerifierSetEntry, 0, len(gs.Signers)),
		}
		for j, s := range gs.Signers {
			raw, err := hex.DecodeString(s.Pubkey)
			if err != nil {
				return nil, fmt.Errorf("initial set %d signer %d: invalid pubkey hex: %w", i, j, err)
			}
			pk, ok := ecdsarec.PubkeyFromBytes(raw)
			if !ok {
				return nil, fmt.Errorf("initial set %d signer %d: pubkey must be %d bytes", i, j, ecdsarec.PubkeySize)
			}
			vs.Entries = append(vs.Entries, types.VerifierSetEntry{
				Pubkey: pk,
				Weight: types.NewU256(s.Weight),
			})
		}
		if err := vs.Validate(); err != nil {
			return nil, fmt.Errorf("initial set %d: %w", i, err)
		}
		out = append(out, vs)
	}
	return out, nil
}

func decodeAddress(s, field string) (addr.Address, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return addr.Address{}, fmt.Errorf("invalid %s hex: %w", field, err)
	}
	if len(raw) != 32 {
		return addr.Address{}, fmt.Errorf("%s must be 32 bytes, got %d", field, len(raw))
	}
	return addr.FromBytes(raw), nil
}
