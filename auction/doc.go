// Package auction implements a sealed-bid second-price (Vickrey) auction
// house with a commit-reveal bidding protocol and pull-payment escrow.
//
// # Lifecycle
//
// An auction moves strictly forward through four phases:
//
//  1. Bidding: bidders submit a hiding commitment Hash(amount, nonce)
//     together with a deposit at least as large as their bid. One
//     commitment per bidder per auction, never replaceable.
//  2. Reveal: bidders open their commitments. The house verifies the digest
//     and tracks the highest and second-highest qualifying amounts.
//  3. Ended: the reveal window has closed; the auction waits for someone to
//     call FinalizeAuction. Nothing fires on a timer.
//  4. Finalized: the winner (highest revealed bid meeting the reserve) is
//     fixed and pays the second-highest qualifying bid, or the reserve when
//     alone. Deposits become withdrawable.
//
// # Solvency
//
// A reveal claiming more than the escrowed deposit is rejected, so the
// winner's clearing price is always covered by funds the house already
// holds. Across a finalized auction, refunds plus the seller payment always
// equal the deposits collected.
//
// # Re-entrancy
//
// Outbound transfers (refunds, seller payment, the asset move) happen only
// after the corresponding one-way latch is committed. A re-entrant call
// arriving during the transfer observes the latch and is rejected; a failed
// transfer rolls the latch back and fails the whole call.
package auction
