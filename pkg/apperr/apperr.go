// Package apperr defines the closed set of error kinds recognized across the
// fraudppr engine. Every input-level or numerical failure the engine can
// produce is one of these sentinels, wrapped with context via fmt.Errorf's
// %w verb at the call site. Callers test for a kind with errors.Is.
package apperr

import "errors"

var (
	// ErrMalformedInput indicates a raw edge/seed triple could not be parsed.
	ErrMalformedInput = errors.New("fraudppr: malformed input")

	// ErrEmptyGraph indicates an ingestion produced zero valid edges.
	ErrEmptyGraph = errors.New("fraudppr: empty graph")

	// ErrInvalidAlpha indicates alpha was not strictly inside (0, 1).
	ErrInvalidAlpha = errors.New("fraudppr: alpha must be in (0, 1)")

	// ErrShapeMismatch indicates a matrix/vector dimension disagreement,
	// or an edge index at or beyond N.
	ErrShapeMismatch = errors.New("fraudppr: shape mismatch")

	// ErrSeedOutOfRange indicates a seed index >= N.
	ErrSeedOutOfRange = errors.New("fraudppr: seed out of range")

	// ErrInvalidEdge indicates a negative edge weight was supplied to the
	// incremental updater.
	ErrInvalidEdge = errors.New("fraudppr: invalid edge weight")

	// ErrCancelled indicates a solver was stopped via its cancellation
	// token before converging. The solver itself reports this through
	// RunResult.Cancelled rather than a Go error; the facade surfaces it as
	// this sentinel at the Run boundary instead, since spec.md §6
	// lists Cancelled among the recognized error kinds the hosting UI sees.
	ErrCancelled = errors.New("fraudppr: cancelled")
)
