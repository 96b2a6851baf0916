// Copyright 2025 Certen Protocol
//
// ITS package errors

package its

import (
	gwerrors "github.com/certen/gmp-gateway/pkg/errors"
)

// Typed failures for the ITS operations.
var (
	ErrAlreadyInitialized = gwerrors.New(gwerrors.CodeResourceConflict, "its root config already initialized")
	ErrNotInitialized     = gwerrors.New(gwerrors.CodePreconditionFailed, "its root config not initialized")
	ErrPaused             = gwerrors.New(gwerrors.CodePolicyFailed, "its is paused")
	ErrNotOperator        = gwerrors.New(gwerrors.CodeAuthorizationFailed, "caller is not the its operator")

	ErrUntrustedSourceChain  = gwerrors.New(gwerrors.CodeAuthorizationFailed, "source chain is not trusted")
	ErrUntrustedSourceAddr   = gwerrors.New(gwerrors.CodeAuthorizationFailed, "source address is not the trusted its for its chain")
	ErrLocalDestinationChain = gwerrors.New(gwerrors.CodePolicyFailed, "destination chain equals the local chain")
	ErrUnknownDestination    = gwerrors.New(gwerrors.CodePolicyFailed, "destination chain is not trusted")

	ErrTokenManagerExists   = gwerrors.New(gwerrors.CodeResourceConflict, "token manager already registered for token id")
	ErrTokenManagerNotFound = gwerrors.New(gwerrors.CodePreconditionFailed, "token manager not registered for token id")
	ErrMintMismatch         = gwerrors.New(gwerrors.CodeIntegrityFailed, "token manager record does not match the provided mint account")
	ErrNotTokenOperator     = gwerrors.New(gwerrors.CodeAuthorizationFailed, "caller holds no operator role on the token manager")

	ErrZeroAmount           = gwerrors.New(gwerrors.CodeInputMalformed, "transfer amount must be positive")
	ErrFlowLimitExceeded    = gwerrors.New(gwerrors.CodePolicyFailed, "flow limit exceeded")
	ErrFlowOverflow         = gwerrors.New(gwerrors.CodeArithmeticFailure, "flow accounting overflowed")
	ErrFlowSlotWithoutLimit = gwerrors.New(gwerrors.CodeInputMalformed, "flow slot cannot be created while the flow limit is zero")
)
