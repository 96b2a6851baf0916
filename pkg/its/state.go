// Copyright 2025 Certen Protocol
//
// ITS record types: the root config, per-token managers and per-epoch flow
// slots. Custody of the actual tokens belongs to external collaborators;
// these records carry only the authorization and accounting state.

package its

import (
	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/hasher"
)

// RootConfig is the ITS singleton record.
type RootConfig struct {
	ChainName string `json:"chain_name"`
	Paused    bool   `json:"paused"`
	// TrustedChains maps a remote chain name to the remote ITS contract
	// address inbound transfers must originate from and outbound transfers
	// are addressed to.
	TrustedChains map[string]string `json:"trusted_chains"`
	Operator      addr.Address      `json:"operator"`
	Bump          uint8             `json:"bump"`
}

// TrustedAddress returns the remote ITS address for a chain, if trusted.
func (c *RootConfig) TrustedAddress(chain string) (string, bool) {
	a, ok := c.TrustedChains[chain]
	return a, ok
}

// TokenManagerType selects how the token custodian manages custody. The
// flow-limit logic is identical across types.
type TokenManagerType uint8

const (
	NativeInterchainToken TokenManagerType = iota
	MintBurnFrom
	LockUnlock
	LockUnlockFee
	MintBurn
)

// Valid reports whether t names a known manager type.
func (t TokenManagerType) Valid() bool {
	return t <= MintBurn
}

// String implements fmt.Stringer.
func (t TokenManagerType) String() string {
	switch t {
	case NativeInterchainToken:
		return "native-interchain-token"
	case MintBurnFrom:
		return "mint-burn-from"
	case LockUnlock:
		return "lock-unlock"
	case LockUnlockFee:
		return "lock-unlock-fee"
	case MintBurn:
		return "mint-burn"
	default:
		return "unknown"
	}
}

// Role bits on a token manager.
const (
	RoleMinter      uint8 = 1 << 0
	RoleOperator    uint8 = 1 << 1
	RoleFlowLimiter uint8 = 1 << 2
)

// TokenManager is the per-token authorization record. The token id is
// canonical across all chains; the manager type is immutable after
// registration.
type TokenManager struct {
	TokenID      hasher.Hash      `json:"token_id"`
	Type         TokenManagerType `json:"token_manager_type"`
	TokenAddress addr.Address     `json:"token_address"`
	FlowLimit    uint64           `json:"flow_limit"`
	// Roles maps a holder address (hex) to its role bitmask.
	Roles map[string]uint8 `json:"roles"`
	Bump  uint8            `json:"bump"`
}

// HasRole reports whether holder carries every bit of mask.
func (tm *TokenManager) HasRole(holder addr.Address, mask uint8) bool {
	return tm.Roles[holder.Hex()]&mask == mask
}

// GrantRole adds the bits of mask to holder.
func (tm *TokenManager) GrantRole(holder addr.Address, mask uint8) {
	if tm.Roles == nil {
		tm.Roles = make(map[string]uint8)
	}
	tm.Roles[holder.Hex()] |= mask
}

// InterchainTokenID derives the canonical token id for a (deployer, salt)
// pair. The id is stable across every chain the token is linked on.
func InterchainTokenID(deployer addr.Address, salt [32]byte) hasher.Hash {
	return hasher.Keccak256(deployer[:], salt[:])
}
