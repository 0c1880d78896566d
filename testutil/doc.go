// Package testutil provides shared helpers for auction house tests: a
// manually advanced clock and key generation shortcuts.
package testutil
