// Copyright 2025 Certen Protocol
//
// Gateway package errors

package gateway

import (
	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
)

// Typed failures for the gateway operations. Each carries the abort code the
// host surfaces to callers.
var (
	ErrAlreadyInitialized = gwerrors.New(gwerrors.CodeResourceConflict, "gateway config already initialized")
	ErrNotInitialized     = gwerrors.New(gwerrors.CodePreconditionFailed, "gateway config not initialized")

	ErrSessionAlreadyExists = gwerrors.New(gwerrors.CodeResourceConflict, "verification session already exists for payload root")
	ErrSessionNotFound      = gwerrors.New(gwerrors.CodePreconditionFailed, "verification session does not exist")
	ErrSessionNotValid      = gwerrors.New(gwerrors.CodePreconditionFailed, "verification session has not reached quorum")

	ErrUnknownVerifierSet       = gwerrors.New(gwerrors.CodeAuthorizationFailed, "signing verifier set is not tracked")
	ErrVerifierSetTooOld        = gwerrors.New(gwerrors.CodePreconditionFailed, "signing verifier set epoch is outside the retention window")
	ErrVerifierSetMismatch      = gwerrors.New(gwerrors.CodePreconditionFailed, "session is bound to a different verifier set")
	ErrNotLatestVerifierSet     = gwerrors.New(gwerrors.CodePreconditionFailed, "rotation proof is not signed by the latest verifier set")
	ErrTrackerAlreadyExists     = gwerrors.New(gwerrors.CodeResourceConflict, "verifier set tracker already initialized")
	ErrSignerAlreadyContributed = gwerrors.New(gwerrors.CodeResourceConflict, "signer already contributed to this session")
	ErrSignerPositionInvalid    = gwerrors.New(gwerrors.CodeInputMalformed, "signer leaf position is out of range")
	ErrInvalidSignature         = gwerrors.New(gwerrors.CodeAuthorizationFailed, "signature does not recover to the claimed signer key")
	ErrInvalidMerkleProof       = gwerrors.New(gwerrors.CodeIntegrityFailed, "merkle proof does not validate against the payload root")

	ErrAlreadyConsumed     = gwerrors.New(gwerrors.CodePreconditionFailed, "incoming message has already been consumed")
	ErrNotApproved         = gwerrors.New(gwerrors.CodePreconditionFailed, "incoming message has not been approved")
	ErrWrongCaller         = gwerrors.New(gwerrors.CodeAuthorizationFailed, "caller is not the message destination")
	ErrMessageHashMismatch = gwerrors.New(gwerrors.CodeIntegrityFailed, "supplied message does not hash to the approved record")

	ErrRotationCooldownNotDone = gwerrors.New(gwerrors.CodePolicyFailed, "minimum rotation delay has not elapsed")
	ErrEpochOverflow           = gwerrors.New(gwerrors.CodeArithmeticFailure, "epoch arithmetic overflowed")
	ErrWeightOverflow          = gwerrors.New(gwerrors.CodeArithmeticFailure, "accumulated weight overflowed")
	ErrClockWentBackwards      = gwerrors.New(gwerrors.CodePreconditionFailed, "host clock is behind the last rotation timestamp")
)
