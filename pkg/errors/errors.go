// Copyright 2025 Certen Protocol
//
// Package errors provides the typed failure surface for the gateway and the
// ITS subsystem. Every entry-point failure carries one of the codes below so
// hosts and relayers can decide whether a resubmission can ever succeed.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a failure. The set mirrors the transaction abort codes the
// host runtime surfaces to callers.
type Code string

const (
	// CodeInputMalformed covers decoding failures, wrong lengths and invalid
	// selectors. Resubmitting identical input can never succeed.
	CodeInputMalformed Code = "INPUT_MALFORMED"

	// CodePreconditionFailed means current state does not permit the
	// operation (session not valid, message not approved, wrong caller,
	// epoch expired).
	CodePreconditionFailed Code = "PRECONDITION_FAILED"

	// CodeAuthorizationFailed covers signature recovery mismatches, a missing
	// operator signature and trusted-chain check failures.
	CodeAuthorizationFailed Code = "AUTHORIZATION_FAILED"

	// CodeIntegrityFailed covers derivation mismatches, Merkle proof
	// mismatches and hash mismatches.
	CodeIntegrityFailed Code = "INTEGRITY_FAILED"

	// CodeResourceConflict means a record already exists or a signer already
	// contributed.
	CodeResourceConflict Code = "RESOURCE_CONFLICT"

	// CodeArithmeticFailure means a checked arithmetic operation overflowed.
	CodeArithmeticFailure Code = "ARITHMETIC_FAILURE"

	// CodePolicyFailed covers the rotation cooldown, flow-limit violations
	// and the paused flag.
	CodePolicyFailed Code = "POLICY_FAILED"
)

// Error is a structured error with a stable code and optional context.
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates cause with a code and message. The cause stays reachable
// through errors.Is / errors.As.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithDetails returns a copy of e carrying extra detail text.
func (e *Error) WithDetails(details string) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// WithContext returns a copy of e with a context key attached.
func (e *Error) WithContext(key string, value interface{}) *Error {
	clone := *e
	clone.Context = make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	clone.Context[key] = value
	return &clone
}

// CodeOf extracts the Code from err, walking the unwrap chain. Returns the
// empty string when err carries no code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err (or anything it wraps) carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
