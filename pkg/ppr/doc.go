// Package ppr implements the Personalized PageRank solvers: power iteration
// (with an optional warm start, which pkg/updater's incremental update uses)
// and Monte-Carlo random-walk approximation. Both share one convention:
// alpha is the teleport probability.
// The Monte-Carlo solver's internal continuation probability (1 - alpha) is
// never exposed past this package's boundary.
package ppr
