package models

import "errors"

// Sentinel errors shared by every layer. Check them with errors.Is.
var (
	// ErrInvalidArgument indicates a malformed or missing required field
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates the referenced entity does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden indicates an ownership or authorization mismatch
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates the request contradicts the current state, e.g. reassigning a doctor
	ErrConflict = errors.New("conflict")

	// ErrInvalidSignature indicates a payment callback failed authenticity checks
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrGateway indicates the payment provider was unreachable or returned an error
	ErrGateway = errors.New("payment gateway error")

	// ErrDownstreamBestEffort marks a failed publish or notify; it is logged, never returned to callers
	ErrDownstreamBestEffort = errors.New("downstream best-effort failure")
)
