package auction

import (
	"time"

	"github.com/sealedbid/auctionhouse/crypto"
)

// AuctionID is a sequentially assigned auction identifier. IDs are
// monotonically increasing and never reused.
type AuctionID uint64

// Phase describes where an auction sits in its lifecycle. Transitions are
// strictly forward: Bidding, Reveal, Ended, Finalized.
type Phase string

const (
	// PhaseBidding accepts sealed commitments with deposits.
	PhaseBidding Phase = "bidding"

	// PhaseReveal accepts bid openings against stored commitments.
	PhaseReveal Phase = "reveal"

	// PhaseEnded means the reveal window has closed but nobody has called
	// FinalizeAuction yet.
	PhaseEnded Phase = "ended"

	// PhaseFinalized is terminal: winner and clearing price are fixed and
	// withdrawals are open.
	PhaseFinalized Phase = "finalized"
)

// AssetRegistry is the external ownership registry for the assets being
// auctioned. The house only queries ownership and requests one transfer at
// settlement; custody, approvals and everything else stay with the
// registry's operator. Transfer is assumed to be pre-authorized by the
// seller out of band.
type AssetRegistry interface {
	OwnerOf(assetID uint64) (crypto.PublicKey, error)
	Transfer(from, to crypto.PublicKey, assetID uint64) error
}

// Treasury is the external value-transfer capability backing the escrow.
// Debit locks a bidder's funds into the house at commit time, Credit pays
// funds out during withdrawal. Both are one-shot: the house never retries
// and never depends on the treasury for its own consistency.
type Treasury interface {
	Debit(from crypto.PublicKey, amount uint64) error
	Credit(to crypto.PublicKey, amount uint64) error
}

// Auction is one auction record. Ranking fields are mutated by reveals,
// FinalPrice and Finalized exactly once by settlement; everything else is
// immutable after creation.
type Auction struct {
	ID      AuctionID        `json:"id"`
	Seller  crypto.PublicKey `json:"seller"`
	AssetID uint64           `json:"asset_id"`

	// Reserve is the minimum clearing price for a sale to occur.
	Reserve uint64 `json:"reserve"`

	BiddingEnd time.Time `json:"bidding_end"`
	RevealEnd  time.Time `json:"reveal_end"`

	HighestBid    uint64           `json:"highest_bid"`
	HighestBidder crypto.PublicKey `json:"highest_bidder,omitempty"`
	SecondBid     uint64           `json:"second_bid"`

	// FinalPrice is the clearing price, set exactly once at finalization.
	// Zero when no bid met the reserve.
	FinalPrice uint64 `json:"final_price"`
	Finalized  bool   `json:"finalized"`
	SellerPaid bool   `json:"seller_paid"`
}

// Sold reports whether a sale occurred: meaningful only once Finalized.
func (a *Auction) Sold() bool {
	return a.HighestBid >= a.Reserve && !a.HighestBidder.IsZero()
}

// PhaseAt derives the auction's phase from the stored deadlines.
func (a *Auction) PhaseAt(now time.Time) Phase {
	switch {
	case a.Finalized:
		return PhaseFinalized
	case now.Before(a.BiddingEnd):
		return PhaseBidding
	case now.Before(a.RevealEnd):
		return PhaseReveal
	default:
		return PhaseEnded
	}
}

// Bid is one bidder's sealed bid for one auction: at most one per
// (auction, bidder) pair, ever. Commitment and Deposit are immutable once
// set; Revealed and Withdrawn are one-way latches.
type Bid struct {
	Bidder     crypto.PublicKey `json:"bidder"`
	Commitment crypto.Digest    `json:"commitment"`
	Deposit    uint64           `json:"deposit"`
	Revealed   bool             `json:"revealed"`

	// Amount is the opened bid value, valid only once Revealed.
	Amount    uint64 `json:"amount"`
	Withdrawn bool   `json:"withdrawn"`
}

// Snapshot is a caller-facing copy of an auction's state. Ranking fields
// are disclosed only after finalization so interim standings cannot leak
// through the read surface.
type Snapshot struct {
	Auction
	Phase   Phase `json:"phase"`
	Bidders int   `json:"bidders"`
}
