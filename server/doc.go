// Package server exposes the auction house over HTTP.
//
// Mutating endpoints authenticate callers with an Ed25519 signed-request
// envelope; the recovered signer is the seller, bidder or claimant the
// operation acts for. Read endpoints and finalization are public.
//
// Endpoints:
//
//	POST /auctions                       create an auction (signed, seller)
//	GET  /auctions/{id}                  auction snapshot
//	POST /auctions/{id}/commit           sealed commitment (signed, bidder)
//	POST /auctions/{id}/reveal           open a commitment (signed, bidder)
//	POST /auctions/{id}/finalize         settle after the reveal window (anyone)
//	POST /auctions/{id}/withdraw         claim refund (signed, bidder)
//	POST /auctions/{id}/seller-payment   claim clearing price (signed, seller)
//	GET  /auctions/{id}/events           audit trail
//	GET  /commitment?amount=&nonce=      commitment hash helper
package server
