// Package bank provides the value-transfer capability backing the auction
// house's escrow: an account ledger that deposits are debited from at
// commit time and withdrawals are credited back to.
package bank
