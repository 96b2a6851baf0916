// Copyright 2025 Certen Protocol
//
// Gateway processor tests. The fixtures mirror the production flow: a
// weighted committee signs a payload Merkle root, the session accumulates
// signatures, and messages of the batch are approved and later consumed by
// their destination.

package gateway

import (
	goecdsa "crypto/ecdsa"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/certen/gmp-gateway/pkg/addr"
	"github.com/certen/gmp-gateway/pkg/crypto/ecdsarec"
	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
	"github.com/certen/gmp-gateway/pkg/events"
	"github.com/certen/gmp-gateway/pkg/hasher"
	"github.com/certen/gmp-gateway/pkg/kvdb"
	"github.com/certen/gmp-gateway/pkg/types"
)

type committee struct {
	keys []*goecdsa.PrivateKey
	set  types.VerifierSet
}

// newCommittee builds a verifier set with the given weights and quorum.
func newCommittee(t *testing.T, domain hasher.Hash, weights []uint64, quorum uint64) *committee {
	t.Helper()

	c := &committee{
		set: types.VerifierSet{
			CreatedAt:       1700000000,
			Quorum:          types.NewU256(quorum),
			DomainSeparator: domain,
		},
	}
	for _, w := range weights {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		pk, ok := ecdsarec.PubkeyFromBytes(crypto.CompressPubkey(&key.PublicKey))
		require.True(t, ok)
		c.keys = append(c.keys, key)
		c.set.Entries = append(c.set.Entries, types.VerifierSetEntry{Pubkey: pk, Weight: types.NewU256(w)})
	}
	return c
}

func (c *committee) root(t *testing.T) hasher.Hash {
	t.Helper()
	root, err := c.set.MerkleRoot()
	require.NoError(t, err)
	return root
}

// signerInfo produces the VerifySignature submission for signer position.
func (c *committee) signerInfo(t *testing.T, position int, payloadRoot hasher.Hash) *types.SigningVerifierSetInfo {
	t.Helper()

	leaf, err := c.set.Leaf(position)
	require.NoError(t, err)

	tree, err := c.set.MerkleTree()
	require.NoError(t, err)
	proof, err := tree.GenerateProof(position)
	require.NoError(t, err)

	raw, err := crypto.Sign(payloadRoot[:], c.keys[position])
	require.NoError(t, err)
	sig, ok := ecdsarec.SignatureFromBytes(raw)
	require.True(t, ok)

	return &types.SigningVerifierSetInfo{Leaf: leaf, Proof: proof, Signature: sig}
}

type fixture struct {
	proc     *Processor
	store    *Store
	clock    *FixedClock
	log      *events.MemoryLogger
	domain   hasher.Hash
	operator addr.Address
}

func newFixture(t *testing.T, sets []types.VerifierSet, minDelay uint64, retention uint64) *fixture {
	t.Helper()

	f := &fixture{
		store:  NewStore(kvdb.NewMemoryKV()),
		clock:  &FixedClock{Timestamp: 1700000000},
		log:    &events.MemoryLogger{},
		domain: hasher.Keccak256([]byte("test-domain")),
	}
	f.operator = deriveTestAddress("operator")
	f.proc = NewProcessor(f.store, f.clock, events.NewEmitter(f.log), nil, nil)

	require.NoError(t, f.proc.InitializeConfig(
		sets, minDelay, types.NewU256(retention), f.operator, f.domain))
	return f
}

func deriveTestAddress(seed string) addr.Address {
	a, _, _ := addr.Derive("test-address", []byte(seed))
	return a
}

func testDomain() hasher.Hash {
	return hasher.Keccak256([]byte("test-domain"))
}

func destProgram() (addr.Address, string) {
	program := deriveTestAddress("destination-program")
	return program, hex.EncodeToString(program[:])
}

func testMessage(destAddress string) types.Message {
	return types.Message{
		CCID:               types.CrossChainID{Chain: "ETH", ID: "0xabc-0"},
		SourceAddress:      "0xdead000000000000000000000000000000000000000000000000000000beef",
		DestinationChain:   "solana-local",
		DestinationAddress: destAddress,
		PayloadHash:        hasher.Keccak256([]byte{0xfd, 0x07}),
	}
}

// validateSession drives one committee to quorum over payloadRoot.
func validateSession(t *testing.T, f *fixture, c *committee, payloadRoot hasher.Hash, positions ...int) {
	t.Helper()
	require.NoError(t, f.proc.InitializePayloadVerificationSession(payloadRoot))
	for _, pos := range positions {
		require.NoError(t, f.proc.VerifySignature(payloadRoot, c.signerInfo(t, pos, payloadRoot)))
	}
}

func TestInitializeConfig(t *testing.T) {
	domain := testDomain()
	c1 := newCommittee(t, domain, []uint64{10}, 10)
	c2 := newCommittee(t, domain, []uint64{11, 42, 33}, 43)

	f := newFixture(t, []types.VerifierSet{c1.set, c2.set}, 3600, 4)

	cfg, err := f.store.GetConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.True(t, cfg.CurrentEpoch.Eq(types.NewU256(2)))

	// Position i carries epoch i+1.
	tr1, err := f.store.GetTracker(c1.root(t))
	require.NoError(t, err)
	require.True(t, tr1.Epoch.Eq(types.NewU256(1)))
	tr2, err := f.store.GetTracker(c2.root(t))
	require.NoError(t, err)
	require.True(t, tr2.Epoch.Eq(types.NewU256(2)))

	// Re-initialization is rejected.
	err = f.proc.InitializeConfig([]types.VerifierSet{c1.set}, 3600, types.NewU256(4), f.operator, domain)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestSessionLifecycle_InitAndApprove(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	_, destAddress := destProgram()
	msg := testMessage(destAddress)

	tree, wrapped, err := types.BuildMessageBatch(domain, []types.Message{msg})
	require.NoError(t, err)
	payloadRoot := tree.Root()

	require.NoError(t, f.proc.InitializePayloadVerificationSession(payloadRoot))
	require.ErrorIs(t, f.proc.InitializePayloadVerificationSession(payloadRoot), ErrSessionAlreadyExists)

	// Signatures from positions 1 and 2 carry weight 75 >= quorum 43.
	require.NoError(t, f.proc.VerifySignature(payloadRoot, c.signerInfo(t, 1, payloadRoot)))

	sess, err := f.store.GetSession(payloadRoot)
	require.NoError(t, err)
	require.False(t, sess.IsValid)
	require.True(t, sess.AccumulatedWeight.Eq(types.NewU256(42)))

	// Approval before quorum fails.
	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)
	require.ErrorIs(t, f.proc.ApproveMessage(&wrapped[0], proof, payloadRoot), ErrSessionNotValid)

	require.NoError(t, f.proc.VerifySignature(payloadRoot, c.signerInfo(t, 2, payloadRoot)))

	sess, err = f.store.GetSession(payloadRoot)
	require.NoError(t, err)
	require.True(t, sess.IsValid)
	require.True(t, sess.AccumulatedWeight.Eq(types.NewU256(75)))
	require.Equal(t, 2, sess.ContributorCount())

	require.NoError(t, f.proc.ApproveMessage(&wrapped[0], proof, payloadRoot))

	record, err := f.store.GetIncomingMessage(msg.CommandID())
	require.NoError(t, err)
	require.Equal(t, MessageApproved, record.Status)
	require.Equal(t, msg.Hash(domain), record.MessageHash)
	require.Contains(t, f.log.Prefixes(), events.PrefixMessageApproved)
}

func TestVerifySignature_DuplicateSigner(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	payloadRoot := hasher.Keccak256([]byte("payload"))
	require.NoError(t, f.proc.InitializePayloadVerificationSession(payloadRoot))
	require.NoError(t, f.proc.VerifySignature(payloadRoot, c.signerInfo(t, 1, payloadRoot)))

	err := f.proc.VerifySignature(payloadRoot, c.signerInfo(t, 1, payloadRoot))
	require.ErrorIs(t, err, ErrSignerAlreadyContributed)

	// The failed resubmission must not regress the accumulated weight.
	sess, err := f.store.GetSession(payloadRoot)
	require.NoError(t, err)
	require.True(t, sess.AccumulatedWeight.Eq(types.NewU256(42)))
	require.Equal(t, 1, sess.ContributorCount())
}

func TestVerifySignature_BadSignature(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	payloadRoot := hasher.Keccak256([]byte("payload"))
	require.NoError(t, f.proc.InitializePayloadVerificationSession(payloadRoot))

	info := c.signerInfo(t, 1, payloadRoot)
	info.Signature[3] ^= 0xff
	require.ErrorIs(t, f.proc.VerifySignature(payloadRoot, info), ErrInvalidSignature)

	sess, err := f.store.GetSession(payloadRoot)
	require.NoError(t, err)
	require.True(t, sess.AccumulatedWeight.IsZero())
}

func TestVerifySignature_UnknownSet(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	foreign := newCommittee(t, domain, []uint64{50}, 50)
	payloadRoot := hasher.Keccak256([]byte("payload"))
	require.NoError(t, f.proc.InitializePayloadVerificationSession(payloadRoot))

	err := f.proc.VerifySignature(payloadRoot, foreign.signerInfo(t, 0, payloadRoot))
	require.ErrorIs(t, err, ErrUnknownVerifierSet)
}

func TestApproveMessage_IdempotentAndConsumedGuard(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	program, destAddress := destProgram()
	msg := testMessage(destAddress)
	tree, wrapped, err := types.BuildMessageBatch(domain, []types.Message{msg})
	require.NoError(t, err)
	payloadRoot := tree.Root()
	validateSession(t, f, c, payloadRoot, 1, 2)

	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)

	require.NoError(t, f.proc.ApproveMessage(&wrapped[0], proof, payloadRoot))
	approvals := countPrefix(f.log, events.PrefixMessageApproved)

	// Second approval: no state change, one more event.
	require.NoError(t, f.proc.ApproveMessage(&wrapped[0], proof, payloadRoot))
	require.Equal(t, approvals+1, countPrefix(f.log, events.PrefixMessageApproved))

	// Consume, then approval must fail.
	commandID := msg.CommandID()
	signingPDA, _, err := SigningPDA(commandID, program)
	require.NoError(t, err)
	require.NoError(t, f.proc.ValidateMessage(&msg, program, signingPDA))

	require.ErrorIs(t, f.proc.ApproveMessage(&wrapped[0], proof, payloadRoot), ErrAlreadyConsumed)
}

func TestApproveMessage_BadProof(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	_, destAddress := destProgram()
	msgA := testMessage(destAddress)
	msgB := testMessage(destAddress)
	msgB.CCID.ID = "0xabc-1"

	tree, wrapped, err := types.BuildMessageBatch(domain, []types.Message{msgA, msgB})
	require.NoError(t, err)
	payloadRoot := tree.Root()
	validateSession(t, f, c, payloadRoot, 1, 2)

	// Proof for leaf 1 must not approve leaf 0.
	wrongProof, err := tree.GenerateProof(1)
	require.NoError(t, err)
	require.ErrorIs(t, f.proc.ApproveMessage(&wrapped[0], wrongProof, payloadRoot), ErrInvalidMerkleProof)
}

func TestValidateMessage_Handshake(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	program, destAddress := destProgram()
	msg := testMessage(destAddress)
	tree, wrapped, err := types.BuildMessageBatch(domain, []types.Message{msg})
	require.NoError(t, err)
	payloadRoot := tree.Root()
	validateSession(t, f, c, payloadRoot, 1, 2)
	proof, err := tree.GenerateProof(0)
	require.NoError(t, err)
	require.NoError(t, f.proc.ApproveMessage(&wrapped[0], proof, payloadRoot))

	commandID := msg.CommandID()
	signingPDA, _, err := SigningPDA(commandID, program)
	require.NoError(t, err)

	// Unapproved message fails.
	other := msg
	other.CCID.ID = "unseen"
	require.ErrorIs(t, f.proc.ValidateMessage(&other, program, signingPDA), ErrNotApproved)

	// Wrong caller fails.
	intruder := deriveTestAddress("intruder")
	intruderPDA, _, err := SigningPDA(commandID, intruder)
	require.NoError(t, err)
	require.ErrorIs(t, f.proc.ValidateMessage(&msg, intruder, intruderPDA), ErrWrongCaller)

	// Wrong signing PDA fails.
	require.ErrorIs(t, f.proc.ValidateMessage(&msg, program, intruder), ErrWrongCaller)

	// Correct handshake consumes.
	require.NoError(t, f.proc.ValidateMessage(&msg, program, signingPDA))
	record, err := f.store.GetIncomingMessage(commandID)
	require.NoError(t, err)
	require.Equal(t, MessageConsumed, record.Status)
	require.Contains(t, f.log.Prefixes(), events.PrefixMessageExecuted)

	// Second consumption fails and the record stays consumed.
	require.ErrorIs(t, f.proc.ValidateMessage(&msg, program, signingPDA), ErrAlreadyConsumed)
	record, err = f.store.GetIncomingMessage(commandID)
	require.NoError(t, err)
	require.Equal(t, MessageConsumed, record.Status)
}

// rotate drives a full rotation signed by signing committee c.
func rotate(t *testing.T, f *fixture, c *committee, next *committee, operator *addr.Address) error {
	t.Helper()

	newRoot := next.root(t)
	payloadHash := types.RotationPayloadHash(newRoot, c.root(t))
	if sess, _ := f.store.GetSession(payloadHash); sess == nil {
		validateSession(t, f, c, payloadHash, 1, 2)
	}
	return f.proc.RotateSigners(newRoot, c.root(t), operator)
}

func TestRotateSigners_CooldownAndOverride(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	next := newCommittee(t, domain, []uint64{11, 42, 33}, 43)

	// Cooldown from initialization has not elapsed.
	f.clock.Advance(1800)
	require.ErrorIs(t, rotate(t, f, c, next, nil), ErrRotationCooldownNotDone)

	// After the delay the same rotation succeeds.
	f.clock.Advance(1800)
	require.NoError(t, rotate(t, f, c, next, nil))

	cfg, err := f.store.GetConfig()
	require.NoError(t, err)
	require.True(t, cfg.CurrentEpoch.Eq(types.NewU256(2)))
	require.Contains(t, f.log.Prefixes(), events.PrefixSignersRotated)

	// Operator override skips the cooldown.
	third := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f.clock.Advance(10)
	require.ErrorIs(t, rotate(t, f, next, third, nil), ErrRotationCooldownNotDone)
	require.NoError(t, rotate(t, f, next, third, &f.operator))

	cfg, err = f.store.GetConfig()
	require.NoError(t, err)
	require.True(t, cfg.CurrentEpoch.Eq(types.NewU256(3)))
}

func TestRotateSigners_DuplicateTracker(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	f.clock.Advance(3600)

	// Rotating to the already-installed set must fail without mutation.
	payloadHash := types.RotationPayloadHash(c.root(t), c.root(t))
	validateSession(t, f, c, payloadHash, 1, 2)
	err := f.proc.RotateSigners(c.root(t), c.root(t), nil)
	require.ErrorIs(t, err, ErrTrackerAlreadyExists)

	cfg, err := f.store.GetConfig()
	require.NoError(t, err)
	require.True(t, cfg.CurrentEpoch.Eq(types.NewU256(1)))
}

func TestRotateSigners_NotLatest(t *testing.T) {
	domain := testDomain()
	c1 := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	c2 := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c1.set, c2.set}, 0, 4)

	// c1 is epoch 1, c2 (latest) is epoch 2; a rotation signed by c1 fails
	// unless the operator overrides.
	next := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	require.ErrorIs(t, rotate(t, f, c1, next, nil), ErrNotLatestVerifierSet)
	require.NoError(t, rotate(t, f, c1, next, &f.operator))
}

func TestRetentionWindow_ExpiresOldSets(t *testing.T) {
	domain := testDomain()
	c1 := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c1.set}, 0, 2)

	// Rotate twice; with retention 2, epoch 1 falls out of the window once
	// the current epoch reaches 3.
	c2 := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	require.NoError(t, rotate(t, f, c1, c2, nil))
	c3 := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	require.NoError(t, rotate(t, f, c2, c3, nil))

	payloadRoot := hasher.Keccak256([]byte("late payload"))
	require.NoError(t, f.proc.InitializePayloadVerificationSession(payloadRoot))
	err := f.proc.VerifySignature(payloadRoot, c1.signerInfo(t, 1, payloadRoot))
	require.ErrorIs(t, err, ErrVerifierSetTooOld)

	// The newest set still signs fine.
	require.NoError(t, f.proc.VerifySignature(payloadRoot, c3.signerInfo(t, 1, payloadRoot)))
}

func TestCallContract_EmitsEvent(t *testing.T) {
	domain := testDomain()
	c := newCommittee(t, domain, []uint64{11, 42, 33}, 43)
	f := newFixture(t, []types.VerifierSet{c.set}, 3600, 4)

	sender := deriveTestAddress("sender")
	payload := []byte("hello remote chain")
	require.NoError(t, f.proc.CallContract(sender, "ETH", "0xcontract", payload))

	require.Equal(t, 1, countPrefix(f.log, events.PrefixCallContract))
	entry := f.log.Entries[len(f.log.Entries)-1]
	require.Equal(t, hasher.Keccak256(payload).Bytes(), entry[5])

	require.Error(t, f.proc.CallContract(sender, "", "0xcontract", payload))
}

func TestErrorCodes(t *testing.T) {
	require.True(t, gwerrors.IsCode(ErrRotationCooldownNotDone, gwerrors.CodePolicyFailed))
	require.True(t, gwerrors.IsCode(ErrSignerAlreadyContributed, gwerrors.CodeResourceConflict))
	require.True(t, gwerrors.IsCode(ErrInvalidMerkleProof, gwerrors.CodeIntegrityFailed))
	require.True(t, gwerrors.IsCode(ErrInvalidSignature, gwerrors.CodeAuthorizationFailed))
}

func countPrefix(log *events.MemoryLogger, prefix string) int {
	n := 0
	for _, p := range log.Prefixes() {
		if p == prefix {
			n++
		}
	}
	return n
}
