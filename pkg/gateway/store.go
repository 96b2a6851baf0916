// Copyright 2025 Certen Protocol
//
// Gateway record store. Records are keyed by their derived canonical
// address under a per-family prefix and JSON round-tripped into the KV
// store.
//
// CONCURRENCY: Store assumes single-writer access and is designed to be
// called from the host's transactional commit path only. Cross-invocation
// concurrency is the host's write-set locking, not ours.

package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/kvdb"
)

// Store provides typed access to the gateway records in the KV store.
type Store struct {
	kv kvdb.KV
}

// NewStore creates a new Store instance.
func NewStore(kv kvdb.KV) *Store {
	return &Store{kv: kv}
}

// ====== KV Key Layout ======

var (
	keyConfig        = []byte("gateway:config")            // -> Config
	keyTrackerPrefix = []byte("gateway:tracker:")          // + derived address -> VerifierSetTracker
	keySessionPrefix = []byte("gateway:session:")          // + derived address -> SignatureVerificationSession
	keyMessagePrefix = []byte("gateway:incoming-message:") // + derived address -> IncomingMessage
)

func recordKey(prefix []byte, a addr.Address) []byte {
	return append(append([]byte(nil), prefix...), a[:]...)
}

// TrackerAddress derives the record address for a verifier-set hash.
func TrackerAddress(verifierSetHash hasher.Hash) (addr.Address, byte, error) {
	return addr.Derive(addr.SeedVerifierSetTracker, verifierSetHash[:])
}

// SessionAddress derives the record address for a payload root.
func SessionAddress(payloadMerkleRoot hasher.Hash) (addr.Address, byte, error) {
	return addr.Derive(addr.SeedVerificationSess, payloadMerkleRoot[:])
}

// MessageAddress derives the record address for a command id.
func MessageAddress(commandID hasher.Hash) (addr.Address, byte, error) {
	return addr.Derive(addr.SeedIncomingMessage, commandID[:])
}

// SigningPDA derives the capability address a destination program must hold
// to consume a message.
func SigningPDA(commandID hasher.Hash, callerProgram addr.Address) (addr.Address, byte, error) {
	return addr.Derive(addr.SeedSigningPDA, commandID[:], callerProgram[:])
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

// ====== Config ======

// GetConfig loads the singleton Config; (nil, nil) when uninitialized.
func (s *Store) GetConfig() (*Config, error) {
	var c Config
	found, err := s.get(keyConfig, &c)
	if err != nil || !found {
		return nil, err
	}
	return &c, nil
}

// SetConfig persists the singleton Config.
func (s *Store) SetConfig(c *Config) error {
	return s.set(keyConfig, c)
}

// ====== VerifierSetTracker ======

// GetTracker loads the tracker for a verifier-set hash; (nil, nil) when
// absent.
func (s *Store) GetTracker(verifierSetHash hasher.Hash) (*VerifierSetTracker, error) {
	a, _, err := TrackerAddress(verifierSetHash)
	if err != nil {
		return nil, err
	}
	var t VerifierSetTracker
	found, err := s.get(recordKey(keyTrackerPrefix, a), &t)
	if err != nil || !found {
		return nil, err
	}
	return &t, nil
}

// SetTracker persists a tracker under its derived address.
func (s *Store) SetTracker(t *VerifierSetTracker) error {
	a, _, err := TrackerAddress(t.VerifierSetHash)
	if err != nil {
		return err
	}
	return s.set(recordKey(keyTrackerPrefix, a), t)
}

// ====== SignatureVerificationSession ======

// GetSession loads the session for a payload root; (nil, nil) when absent.
func (s *Store) GetSession(payloadMerkleRoot hasher.Hash) (*SignatureVerificationSession, error) {
	a, _, err := SessionAddress(payloadMerkleRoot)
	if err != nil {
		return nil, err
	}
	var sess SignatureVerificationSession
	found, err := s.get(recordKey(keySessionPrefix, a), &sess)
	if err != nil || !found {
		return nil, err
	}
	return &sess, nil
}

// SetSession persists a session under its derived address.
func (s *Store) SetSession(sess *SignatureVerificationSession) error {
	a, _, err := SessionAddress(sess.PayloadMerkleRoot)
	if err != nil {
		return err
	}
	return s.set(recordKey(keySessionPrefix, a), sess)
}

// ====== IncomingMessage ======

// GetIncomingMessage loads the approval record for a command id; (nil, nil)
// when absent.
func (s *Store) GetIncomingMessage(commandID hasher.Hash) (*IncomingMessage, error) {
	a, _, err := MessageAddress(commandID)
	if err != nil {
		return nil, err
	}
	var m IncomingMessage
	found, err := s.get(recordKey(keyMessagePrefix, a), &m)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

// SetIncomingMessage persists an approval record under its derived address.
func (s *Store) SetIncomingMessage(m *IncomingMessage) error {
	a, _, err := MessageAddress(m.CommandID)
	if err != nil {
		return err
	}
	return s.set(recordKey(keyMessagePrefix, a), m)
}
