package server

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/sealedbid/auctionhouse/crypto"
)

// Signed provides authentication for API requests. The recovered signer is
// the operation's caller identity: the seller creating an auction, the
// bidder committing or revealing, the party withdrawing.
// Note: Signature covers serialized object + public key to prevent substitution.
type Signed[T any] struct {
	PublicKey crypto.PublicKey `json:"public_key"`
	Signature crypto.Signature `json:"signature"`
	Object    *T               `json:"object"`
}

// NewSigned creates a signed request.
func NewSigned[T any](privkey crypto.PrivateKey, obj *T) (*Signed[T], error) {
	pubkey, err := privkey.PublicKey()
	if err != nil {
		return nil, err
	}

	serializedData, err := SerializeMessage(obj)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(privkey, append(serializedData, pubkey...))
	if err != nil {
		return nil, err
	}

	return &Signed[T]{
		PublicKey: pubkey,
		Signature: signature,
		Object:    obj,
	}, nil
}

// Recover verifies the signature and returns the object and signer's public key.
func (s *Signed[T]) Recover() (*T, crypto.PublicKey, error) {
	if s.Object == nil {
		return nil, nil, errors.New("missing object")
	}

	serializedData, err := SerializeMessage(s.Object)
	if err != nil {
		return nil, nil, err
	}

	ok := s.Signature.Verify(s.PublicKey, append(serializedData, s.PublicKey...))
	if !ok {
		return nil, nil, errors.New("signature not valid")
	}

	return s.Object, s.PublicKey, nil
}

// CreateAuctionRequest opens a new auction; the signer is the seller.
type CreateAuctionRequest struct {
	AssetID        uint64 `json:"asset_id"`
	Reserve        uint64 `json:"reserve"`
	BiddingSeconds int64  `json:"bidding_seconds"`
	RevealSeconds  int64  `json:"reveal_seconds"`
}

// CommitBidRequest submits a sealed commitment; the signer is the bidder.
// AuctionID must match the request path to stop envelope replay against a
// different auction.
type CommitBidRequest struct {
	AuctionID  uint64 `json:"auction_id"`
	Commitment string `json:"commitment"`
	Deposit    uint64 `json:"deposit"`
}

// RevealBidRequest opens a commitment; the signer is the bidder.
type RevealBidRequest struct {
	AuctionID uint64 `json:"auction_id"`
	Amount    uint64 `json:"amount"`
	Nonce     string `json:"nonce"`
}

// WithdrawRequest claims a refund or the seller payment; the signer is the
// claimant.
type WithdrawRequest struct {
	AuctionID uint64 `json:"auction_id"`
}

// DecodeMessage deserializes a message from a JSON reader.
func DecodeMessage[T any](reader io.Reader) (*T, error) {
	var msg T
	err := json.NewDecoder(reader).Decode(&msg)
	return &msg, err
}

// SerializeMessage serializes a message to JSON bytes.
func SerializeMessage[T any](msg *T) ([]byte, error) {
	return json.Marshal(msg)
}
