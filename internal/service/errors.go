package service

import "errors"

// Sentinel errors for the attempt/grading taxonomy. Handlers branch on these
// with errors.Is and map them to HTTP codes; messages are never matched.
var (
	// ErrNotFound covers a missing attempt, question or snapshot, and an
	// owner check that must not leak existence to a non-owner.
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadySubmitted is the conflict kind: the attempt reached GRADED
	// before this call's conditional transition, including lost races.
	ErrAlreadySubmitted = errors.New("attempt already submitted")

	// ErrNotOwner is returned when the caller is not the attempt owner on
	// the security-sensitive submit path.
	ErrNotOwner = errors.New("attempt does not belong to caller")

	// ErrInvalidInput covers caller errors: empty bundles, empty answer
	// sets, malformed snapshots.
	ErrInvalidInput = errors.New("invalid input")
)
