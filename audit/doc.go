// Package audit persists the auction house's append-only event trail.
// One record per event, never retracted: auction creation, commitments,
// reveals, finalization, withdrawals and the seller payment.
package audit
