// Copyright 2025 Certen Protocol
//
// ITS record store. Same discipline as the gateway store: records keyed by
// derived address under a per-family prefix, JSON round-tripped into the KV
// store, single-writer access from the host's commit path.

package its

import (
	"encoding/json"
	"fmt"

	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/encode"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/kvdb"
)

// Store provides typed access to the ITS records in the KV store.
type Store struct {
	kv kvdb.KV
}

// NewStore creates a new Store instance.
func NewStore(kv kvdb.KV) *Store {
	return &Store{kv: kv}
}

// ====== KV Key Layout ======

var (
	keyRoot          = []byte("its:root")           // -> RootConfig
	keyManagerPrefix = []byte("its:token-manager:") // + derived address -> TokenManager
	keyFlowPrefix    = []byte("its:flow-slot:")     // + derived address -> FlowSlot
)

func recordKey(prefix []byte, a addr.Address) []byte {
	return append(append([]byte(nil), prefix...), a[:]...)
}

// TokenManagerAddress derives the record address for a token id.
func TokenManagerAddress(tokenID hasher.Hash) (addr.Address, byte, error) {
	return addr.Derive(addr.SeedTokenManager, tokenID[:])
}

// FlowSlotAddress derives the record address for a (token id, epoch) pair.
func FlowSlotAddress(tokenID hasher.Hash, epoch uint64) (addr.Address, byte, error) {
	epochBytes := encode.NewWriter(8).U64(epoch).Bytes()
	return addr.Derive(addr.SeedFlowSlot, tokenID[:], epochBytes)
}

// ====== Generic helpers ======

func (s *Store) get(key []byte, out interface{}) (bool, error) {
	raw, err := s.kv.Get(key)
	if err != nil {
		return false, fmt.Errorf("failed to read record: %w", err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return true, nil
}

func (s *Store) set(key []byte, record interface{}) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return s.kv.Set(key, raw)
}

// ====== RootConfig ======

// GetRoot loads the ITS root config; (nil, nil) when uninitialized.
func (s *Store) GetRoot() (*RootConfig, error) {
	var c RootConfig
	found, err := s.get(keyRoot, &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// SetRoot persists the ITS root config.
func (s *Store) SetRoot(c *RootConfig) error {
	return s.set(keyRoot, c)
}

// ====== TokenManager ======

// GetTokenManager loads the manager for a token id; (nil, nil) when absent.
func (s *Store) GetTokenManager(tokenID hasher.Hash) (*TokenManager, error) {
	a, _, err := TokenManagerAddress(tokenID)
	if err != nil {
		return nil, err
	}
	var tm TokenManager
	found, err := s.get(recordKey(keyManagerPrefix, a), &tm)
	if err != nil || !found {
		return nil, err
	}
	return &tm, nil
}

// SetTokenManager persists a manager under its derived address.
func (s *Store) SetTokenManager(tm *TokenManager) error {
	a, _, err := TokenManagerAddress(tm.TokenID)
	if err != nil {
		return err
	}
	return s.set(recordKey(keyManagerPrefix, a), tm)
}

// ====== FlowSlot ======

// GetFlowSlot loads the slot for a (token id, epoch) pair; (nil, nil) when
// absent.
func (s *Store) GetFlowSlot(tokenID hasher.Hash, epoch uint64) (*FlowSlot, error) {
	a, _, err := FlowSlotAddress(tokenID, epoch)
	if err != nil {
		return nil, err
	}
	var slot FlowSlot
	found, err := s.get(recordKey(keyFlowPrefix, a), &slot)
	if err != nil || !found {
		return nil, err
	}
	return &slot, nil
}

// SetFlowSlot persists a slot under its derived address.
func (s *Store) SetFlowSlot(slot *FlowSlot) error {
	a, _, err := FlowSlotAddress(hasher.Hash(slot.TokenID), slot.Epoch)
	if err != nil {
		return err
	}
	return s.set(recordKey(keyFlowPrefix, a), slot)
}
