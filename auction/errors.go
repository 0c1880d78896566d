package auction

import "errors"

// The house validates every precondition before mutating anything, so each
// operation either commits all of its effects or fails with one of these
// sentinel errors and zero observable state change. Callers classify
// failures with errors.Is.
var (
	// ErrInvalidInput rejects malformed creation or commitment arguments:
	// nil asset registry, non-positive durations, zero deposit, zero digest.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized rejects callers acting on assets or auctions they do
	// not control: creating an auction for an asset they do not own, or
	// claiming a seller payment they are not the seller of.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTimingViolation rejects operations invoked outside their phase
	// window: committing after bidding closed, revealing outside the reveal
	// window, finalizing before it, withdrawing before finalization.
	ErrTimingViolation = errors.New("timing violation")

	// ErrDuplicateAction rejects repeats of one-shot operations: a second
	// commitment, a second reveal, re-finalization, a second withdrawal.
	ErrDuplicateAction = errors.New("duplicate action")

	// ErrIntegrityFailure rejects a reveal whose recomputed digest does not
	// match the stored commitment.
	ErrIntegrityFailure = errors.New("commitment integrity failure")

	// ErrSolvency rejects a reveal claiming a bid larger than the deposit
	// escrowed with the commitment.
	ErrSolvency = errors.New("bid exceeds deposit")

	// ErrTransferFailure indicates the outbound value or asset transfer did
	// not succeed; the operation's state changes are rolled back with it.
	ErrTransferFailure = errors.New("transfer failure")

	// ErrNotFound indicates an unknown auction, or a reveal or withdrawal by
	// an identity that never committed a bid.
	ErrNotFound = errors.New("not found")
)
