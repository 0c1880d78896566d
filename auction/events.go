package auction

import "github.com/sealedbid/auctionhouse/crypto"

// Event is one entry of the append-only audit surface. Every state-changing
// operation emits exactly one event; events are never retracted.
type Event interface {
	// Kind names the event type for storage and filtering.
	Kind() string

	// AuctionID identifies the auction the event belongs to.
	AuctionID() AuctionID
}

// EventSink receives audit events. Sinks must not call back into the house.
type EventSink interface {
	Append(ev Event) error
}

// AuctionCreated records a new auction opening for bids.
type AuctionCreated struct {
	ID         AuctionID        `json:"id"`
	Seller     crypto.PublicKey `json:"seller"`
	AssetID    uint64           `json:"asset_id"`
	Reserve    uint64           `json:"reserve"`
	BiddingEnd int64            `json:"bidding_end"`
	RevealEnd  int64            `json:"reveal_end"`
}

func (e AuctionCreated) Kind() string         { return "auction_created" }
func (e AuctionCreated) AuctionID() AuctionID { return e.ID }

// BidCommitted records a sealed commitment with its escrowed deposit.
type BidCommitted struct {
	ID         AuctionID        `json:"id"`
	Bidder     crypto.PublicKey `json:"bidder"`
	Commitment crypto.Digest    `json:"commitment"`
	Deposit    uint64           `json:"deposit"`
}

func (e BidCommitted) Kind() string         { return "bid_committed" }
func (e BidCommitted) AuctionID() AuctionID { return e.ID }

// BidRevealed records a successfully opened bid.
type BidRevealed struct {
	ID     AuctionID        `json:"id"`
	Bidder crypto.PublicKey `json:"bidder"`
	Amount uint64           `json:"amount"`
}

func (e BidRevealed) Kind() string         { return "bid_revealed" }
func (e BidRevealed) AuctionID() AuctionID { return e.ID }

// AuctionFinalized records the terminal outcome. Winner is empty and
// PricePaid zero when no bid met the reserve.
type AuctionFinalized struct {
	ID         AuctionID        `json:"id"`
	Winner     crypto.PublicKey `json:"winner,omitempty"`
	WinningBid uint64           `json:"winning_bid"`
	PricePaid  uint64           `json:"price_paid"`
}

func (e AuctionFinalized) Kind() string         { return "auction_finalized" }
func (e AuctionFinalized) AuctionID() AuctionID { return e.ID }

// WithdrawalPerformed records a bidder's refund leaving escrow.
type WithdrawalPerformed struct {
	ID     AuctionID        `json:"id"`
	User   crypto.PublicKey `json:"user"`
	Amount uint64           `json:"amount"`
}

func (e WithdrawalPerformed) Kind() string         { return "withdrawal_performed" }
func (e WithdrawalPerformed) AuctionID() AuctionID { return e.ID }

// SellerPaid records the seller collecting the clearing price.
type SellerPaid struct {
	ID     AuctionID        `json:"id"`
	Seller crypto.PublicKey `json:"seller"`
	Amount uint64           `json:"amount"`
}

func (e SellerPaid) Kind() string         { return "seller_paid" }
func (e SellerPaid) AuctionID() AuctionID { return e.ID }
