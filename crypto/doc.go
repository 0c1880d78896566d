// Package crypto provides the cryptographic primitives of the auction
// house: Ed25519 participant identities and signatures, and the Keccak-256
// bid commitment scheme used by the commit-reveal protocol.
//
// A commitment binds a bid amount and a secret nonce into a fixed-width
// digest. Publishing the digest hides the amount; opening it later proves
// the amount was fixed before the bidding window closed.
package crypto
