// Copyright 2025 Certen Protocol
//
// Gateway processor: the entry point that dispatches every gateway
// operation and enforces the invariants across Config, trackers, sessions
// and incoming messages. Each operation is a single logical commit; a typed
// error means nothing was written.

package gateway

import (
	"encoding/hex"

	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/crypto/ecdsarec"
	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
	"github.com/certen/gmp-gateway/pkg/events"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/logging"
	"github.com/certen/gmp-gateway/pkg/merkle"
	"github.com/certen/gmp-gateway/pkg/metrics"
	"github.com/certen/gmp-gateway/pkg/types"
)

// Processor executes gateway operations against a Store.
type Processor struct {
	store   *Store
	clock   Clock
	emitter *events.Emitter
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewProcessor wires a processor. emitter and m may be nil; logger defaults
// to a discard logger.
func NewProcessor(store *Store, clock Clock, emitter *events.Emitter, m *metrics.Metrics, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Processor{
		store:   store,
		clock:   clock,
		emitter: emitter,
		metrics: m,
		logger:  logger.WithComponent("gateway"),
	}
}

// Store exposes the underlying record store for read-only observation.
func (p *Processor) Store() *Store {
	return p.store
}

// InitializeConfig creates the Config singleton and one tracker per initial
// verifier set, ordered oldest to latest: position i receives epoch i+1 and
// the final set is the latest.
func (p *Processor) InitializeConfig(
	initialSets []types.VerifierSet,
	minimumRotationDelay uint64,
	previousSignersRetention *types.U256,
	operator addr.Address,
	domainSeparator hasher.Hash,
) error {
	existing, err := p.store.GetConfig()
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyInitialized
	}
	if len(initialSets) == 0 {
		return gwerrors.New(gwerrors.CodeInputMalformed, "at least one initial verifier set is required")
	}
	if previousSignersRetention == nil || previousSignersRetention.IsZero() {
		return gwerrors.New(gwerrors.CodeInputMalformed, "previous signers retention must be positive")
	}

	for i := range initialSets {
		vs := &initialSets[i]
		if err := vs.Validate(); err != nil {
			return gwerrors.Wrap(err, gwerrors.CodeInputMalformed, "invalid initial verifier set")
		}
		if vs.DomainSeparator != domainSeparator {
			return gwerrors.New(gwerrors.CodeInputMalformed, "initial verifier set carries a foreign domain separator")
		}
	}

	now := uint64(p.clock.UnixTimestamp())

	for i := range initialSets {
		root, err := initialSets[i].MerkleRoot()
		if err != nil {
			return gwerrors.Wrap(err, gwerrors.CodeInputMalformed, "failed to compute verifier set root")
		}
		prior, err := p.store.GetTracker(root)
		if err != nil {
			return err
		}
		if prior != nil {
			return ErrTrackerAlreadyExists
		}
		_, bump, err := TrackerAddress(root)
		if err != nil {
			return err
		}
		tracker := &VerifierSetTracker{
			VerifierSetHash: root,
			Epoch:           types.NewU256(uint64(i + 1)),
			Bump:            bump,
		}
		if err := p.store.SetTracker(tracker); err != nil {
			return err
		}
	}

	_, configBump, err := addr.Derive(addr.SeedGatewayConfig, domainSeparator[:])
	if err != nil {
		return err
	}
	cfg := &Config{
		DomainSeparator:          domainSeparator,
		CurrentEpoch:             types.NewU256(uint64(len(initialSets))),
		PreviousSignersRetention: new(types.U256).Set(previousSignersRetention),
		MinimumRotationDelay:     minimumRotationDelay,
		LastRotationTimestamp:    now,
		Operator:                 operator,
		Bump:                     configBump,
	}
	if err := p.store.SetConfig(cfg); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.CurrentEpoch.Set(float64(cfg.CurrentEpoch.Uint64()))
	}
	p.logger.Info("gateway config initialized",
		logging.Field{Key: "epoch", Value: cfg.CurrentEpoch.Uint64()},
		logging.Field{Key: "initial_sets", Value: len(initialSets)})
	return nil
}

// InitializePayloadVerificationSession creates the signature accumulator for
// a payload root. Re-opening an existing session is not allowed.
func (p *Processor) InitializePayloadVerificationSession(payloadMerkleRoot hasher.Hash) error {
	if _, err := p.requireConfig(); err != nil {
		return err
	}

	existing, err := p.store.GetSession(payloadMerkleRoot)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrSessionAlreadyExists
	}

	_, bump, err := SessionAddress(payloadMerkleRoot)
	if err != nil {
		return err
	}
	sess := &SignatureVerificationSession{
		PayloadMerkleRoot: payloadMerkleRoot,
		AccumulatedWeight: types.NewU256(0),
		Bump:              bump,
	}
	if err := p.store.SetSession(sess); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.SessionsOpened.Inc()
	}
	return nil
}

// VerifySignature applies one signer's contribution to the session for
// payloadMerkleRoot. Signatures commute: any arrival order yields the same
// terminal state, and a duplicate signer fails without regressing weight.
func (p *Processor) VerifySignature(payloadMerkleRoot hasher.Hash, info *types.SigningVerifierSetInfo) error {
	cfg, err := p.requireConfig()
	if err != nil {
		return err
	}

	sess, err := p.store.GetSession(payloadMerkleRoot)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}

	leaf := &info.Leaf
	if leaf.SetSize == 0 || leaf.Position >= leaf.SetSize || int(leaf.Position) >= MaxSignersPerSet {
		return ErrSignerPositionInvalid
	}
	if leaf.DomainSeparator != cfg.DomainSeparator {
		return gwerrors.New(gwerrors.CodeInputMalformed, "signer leaf carries a foreign domain separator")
	}

	// The membership proof determines which verifier set is signing: folding
	// the leaf through the proof yields the set's Merkle root.
	signingSetHash := merkle.RootFromProof(leaf.Hash(), info.Proof)

	tracker, err := p.store.GetTracker(signingSetHash)
	if err != nil {
		return err
	}
	if tracker == nil {
		return ErrUnknownVerifierSet
	}
	if err := cfg.IsEpochValid(tracker.Epoch); err != nil {
		return err
	}

	// First valid signature binds the session to its signing set.
	if sess.SigningVerifierSetHash.IsZero() {
		sess.SigningVerifierSetHash = signingSetHash
	} else if sess.SigningVerifierSetHash != signingSetHash {
		return ErrVerifierSetMismatch
	}

	if sess.SignerContributed(leaf.Position) {
		return ErrSignerAlreadyContributed
	}

	if !ecdsarec.Verify(leaf.Pubkey, info.Signature, payloadMerkleRoot) {
		if p.metrics != nil {
			p.metrics.SignaturesChecked.WithLabelValues("invalid").Inc()
		}
		return ErrInvalidSignature
	}

	accumulated, overflow := new(types.U256).AddOverflow(sess.AccumulatedWeight, leaf.Weight)
	if overflow {
		return ErrWeightOverflow
	}

	sess.markSigner(leaf.Position)
	sess.AccumulatedWeight = accumulated
	if !sess.IsValid && !accumulated.Lt(leaf.Quorum) {
		sess.IsValid = true
		if p.metrics != nil {
			p.metrics.SessionsValidated.Inc()
		}
	}
	if err := p.store.SetSession(sess); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.SignaturesChecked.WithLabelValues("valid").Inc()
	}
	p.logger.Debug("signature accepted",
		logging.Field{Key: "payload_root", Value: payloadMerkleRoot.Hex()},
		logging.Field{Key: "position", Value: leaf.Position},
		logging.Field{Key: "session_valid", Value: sess.IsValid})
	return nil
}

// ApproveMessage records a message of a validated payload batch as approved.
// Approving an already-approved message is an idempotent success observable
// only through the re-emitted event; approving a consumed message fails.
func (p *Processor) ApproveMessage(mm *types.MerkleisedMessage, proof *merkle.Proof, payloadMerkleRoot hasher.Hash) error {
	cfg, err := p.requireConfig()
	if err != nil {
		return err
	}

	sess, err := p.store.GetSession(payloadMerkleRoot)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if !sess.IsValid {
		return ErrSessionNotValid
	}

	leafHash := mm.LeafHash(cfg.DomainSeparator)
	if !merkle.VerifyProof(leafHash, proof, payloadMerkleRoot) {
		return ErrInvalidMerkleProof
	}

	msg := &mm.Message
	commandID := msg.CommandID()

	record, err := p.store.GetIncomingMessage(commandID)
	if err != nil {
		return err
	}
	if record != nil {
		if record.Status == MessageConsumed {
			return ErrAlreadyConsumed
		}
		// Repeat approval: no state change, event re-emitted for relayers.
		p.emitApproved(commandID, msg)
		return nil
	}

	destination, err := parseProgramAddress(msg.DestinationAddress)
	if err != nil {
		return err
	}
	_, signingBump, err := SigningPDA(commandID, destination)
	if err != nil {
		return err
	}
	_, recordBump, err := MessageAddress(commandID)
	if err != nil {
		return err
	}

	record = &IncomingMessage{
		CommandID:      commandID,
		MessageHash:    msg.Hash(cfg.DomainSeparator),
		Status:         MessageApproved,
		SigningPDABump: signingBump,
		Bump:           recordBump,
	}
	if err := p.store.SetIncomingMessage(record); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.MessagesApproved.Inc()
	}
	p.emitApproved(commandID, msg)
	return nil
}

// RotateSigners installs a new verifier set at the next epoch. The rotation
// must be approved through a session keyed by the rotation payload hash,
// which binds the new set to the committee that signed it off. The operator
// override disables both the latest-only constraint and the cooldown.
func (p *Processor) RotateSigners(
	newVerifierSetMerkleRoot hasher.Hash,
	signingVerifierSetHash hasher.Hash,
	operatorSigner *addr.Address,
) error {
	cfg, err := p.requireConfig()
	if err != nil {
		return err
	}

	payloadHash := types.RotationPayloadHash(newVerifierSetMerkleRoot, signingVerifierSetHash)
	sess, err := p.store.GetSession(payloadHash)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if !sess.IsValid {
		return ErrSessionNotValid
	}
	if sess.SigningVerifierSetHash != signingVerifierSetHash {
		return ErrVerifierSetMismatch
	}

	tracker, err := p.store.GetTracker(signingVerifierSetHash)
	if err != nil {
		return err
	}
	if tracker == nil {
		return ErrUnknownVerifierSet
	}
	if err := cfg.IsEpochValid(tracker.Epoch); err != nil {
		return err
	}

	existing, err := p.store.GetTracker(newVerifierSetMerkleRoot)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrTrackerAlreadyExists
	}

	// The delay and latest-only constraints hold unless the gateway operator
	// co-signed the invocation. The override allows recovery from a bad
	// rotation while still requiring a valid proof from a recent set.
	enforceRotationDelay := true
	if operatorSigner != nil && *operatorSigner == cfg.Operator {
		enforceRotationDelay = false
	}

	isLatest := tracker.Epoch.Eq(cfg.CurrentEpoch)
	if enforceRotationDelay && !isLatest {
		return ErrNotLatestVerifierSet
	}

	now := p.clock.UnixTimestamp()
	if now < 0 || uint64(now) < cfg.LastRotationTimestamp {
		return ErrClockWentBackwards
	}
	if enforceRotationDelay {
		if uint64(now)-cfg.LastRotationTimestamp < cfg.MinimumRotationDelay {
			return ErrRotationCooldownNotDone
		}
	}

	nextEpoch, overflow := new(types.U256).AddOverflow(cfg.CurrentEpoch, types.NewU256(1))
	if overflow {
		return ErrEpochOverflow
	}

	_, trackerBump, err := TrackerAddress(newVerifierSetMerkleRoot)
	if err != nil {
		return err
	}
	newTracker := &VerifierSetTracker{
		VerifierSetHash: newVerifierSetMerkleRoot,
		Epoch:           nextEpoch,
		Bump:            trackerBump,
	}
	if err := p.store.SetTracker(newTracker); err != nil {
		return err
	}

	cfg.CurrentEpoch = nextEpoch
	cfg.LastRotationTimestamp = uint64(now)
	if err := p.store.SetConfig(cfg); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.SignersRotations.Inc()
		p.metrics.CurrentEpoch.Set(float64(nextEpoch.Uint64()))
	}
	if p.emitter != nil {
		_ = p.emitter.Emit(&events.SignersRotated{
			Epoch:           new(types.U256).Set(nextEpoch),
			VerifierSetHash: newVerifierSetMerkleRoot,
		})
	}
	p.logger.Info("verifier set rotated",
		logging.Field{Key: "epoch", Value: nextEpoch.Uint64()},
		logging.Field{Key: "verifier_set_hash", Value: newVerifierSetMerkleRoot.Hex()})
	return nil
}

// ValidateMessage is invoked on behalf of a destination program to prove a
// message was approved and atomically mark it consumed. The caller's
// credential is the signing-PDA derivation for (command id, caller program):
// only the destination can hold it.
func (p *Processor) ValidateMessage(msg *types.Message, callerProgram addr.Address, signingPDA addr.Address) error {
	cfg, err := p.requireConfig()
	if err != nil {
		return err
	}

	commandID := msg.CommandID()
	record, err := p.store.GetIncomingMessage(commandID)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrNotApproved
	}
	if record.Status == MessageConsumed {
		return ErrAlreadyConsumed
	}

	destination, err := parseProgramAddress(msg.DestinationAddress)
	if err != nil {
		return err
	}
	if callerProgram != destination {
		return ErrWrongCaller
	}

	if err := addr.Verify(signingPDA, record.SigningPDABump, addr.SeedSigningPDA, commandID[:], callerProgram[:]); err != nil {
		return ErrWrongCaller
	}

	if msg.Hash(cfg.DomainSeparator) != record.MessageHash {
		return ErrMessageHashMismatch
	}

	record.Status = MessageConsumed
	if err := p.store.SetIncomingMessage(record); err != nil {
		return err
	}

	if p.metrics != nil {
		p.metrics.MessagesExecuted.Inc()
	}
	if p.emitter != nil {
		_ = p.emitter.Emit(&events.MessageExecuted{CommandID: commandID})
	}
	p.logger.Info("message executed",
		logging.Field{Key: "command_id", Value: commandID.Hex()})
	return nil
}

// CallContract emits the outbound event the relayer converts into a message
// for a remote chain. No state is mutated.
func (p *Processor) CallContract(sender addr.Address, destinationChain, destinationContractAddress string, payload []byte) error {
	if _, err := p.requireConfig(); err != nil {
		return err
	}
	if destinationChain == "" || destinationContractAddress == "" {
		return gwerrors.New(gwerrors.CodeInputMalformed, "destination chain and contract address are required")
	}

	payloadHash := hasher.Keccak256(payload)
	if p.emitter != nil {
		if err := p.emitter.Emit(&events.CallContract{
			Sender:                     sender,
			DestinationChain:           destinationChain,
			DestinationContractAddress: destinationContractAddress,
			Payload:                    payload,
			PayloadHash:                payloadHash,
		}); err != nil {
			return err
		}
	}
	return nil
}

// ====== internal helpers ======

func (p *Processor) requireConfig() (*Config, error) {
	cfg, err := p.store.GetConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

func (p *Processor) emitApproved(commandID hasher.Hash, msg *types.Message) {
	if p.emitter == nil {
		return
	}
	_ = p.emitter.Emit(&events.MessageApproved{
		CommandID:          commandID,
		SourceChain:        msg.CCID.Chain,
		MessageID:          msg.CCID.ID,
		SourceAddress:      msg.SourceAddress,
		DestinationAddress: msg.DestinationAddress,
		PayloadHash:        msg.PayloadHash,
	})
}

// parseProgramAddress decodes a destination address string as a 32-byte hex
// program address on this chain.
func parseProgramAddress(s string) (addr.Address, error) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return addr.Address{}, gwerrors.Newf(gwerrors.CodeInputMalformed, "destination address %q is not a 32-byte hex program address", s)
	}
	return addr.FromBytes(raw), nil
}
