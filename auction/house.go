package auction

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sealedbid/auctionhouse/crypto"
)

// House owns every auction record and runs the sealed-bid second-price
// protocol over them: creation, commitment, reveal, settlement and
// withdrawal. All money stays in escrow with the house between CommitBid
// and Withdraw; the asset never touches the house at all.
//
// Each auction is one unit of mutual exclusion. The house-level mutex only
// guards the auction map and the ID counter, so operations on independent
// auctions do not contend.
type House struct {
	funds Treasury
	clock Clock
	sink  EventSink
	log   *slog.Logger

	mu       sync.Mutex
	nextID   AuctionID
	auctions map[AuctionID]*auctionState
}

// auctionState bundles an auction with its bid ledger under one lock.
type auctionState struct {
	mu      sync.Mutex
	assets  AssetRegistry
	auction Auction
	bids    map[string]*Bid
	bidders []crypto.PublicKey
}

// NewHouse creates an auction house backed by the given treasury. A nil
// clock defaults to time.Now, a nil sink discards events, a nil logger
// falls back to slog.Default.
func NewHouse(funds Treasury, clock Clock, sink EventSink, log *slog.Logger) *House {
	if clock == nil {
		clock = time.Now
	}
	if sink == nil {
		sink = discardSink{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &House{
		funds:    funds,
		clock:    clock,
		sink:     sink,
		log:      log,
		auctions: make(map[AuctionID]*auctionState),
	}
}

type discardSink struct{}

func (discardSink) Append(Event) error { return nil }

// emit appends an audit event. Audit persistence failures are logged but do
// not fail the operation that produced the event: the house state, not the
// audit trail, is authoritative.
func (h *House) emit(ev Event) {
	if err := h.sink.Append(ev); err != nil {
		h.log.Error("audit append failed", "event", ev.Kind(), "auction", ev.AuctionID(), "err", err)
	}
}

func (h *House) lookup(id AuctionID) (*auctionState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.auctions[id]
	if !ok {
		return nil, fmt.Errorf("%w: auction %d", ErrNotFound, id)
	}
	return st, nil
}

// CreateAuction opens a new auction for an asset the seller owns. The asset
// is not escrowed; the seller must separately authorize the registry
// transfer that settlement will request. Returns the new auction's ID.
func (h *House) CreateAuction(seller crypto.PublicKey, assets AssetRegistry, assetID uint64, reserve uint64, biddingDur, revealDur time.Duration) (AuctionID, error) {
	if seller.IsZero() {
		return 0, fmt.Errorf("%w: empty seller identity", ErrInvalidInput)
	}
	if assets == nil {
		return 0, fmt.Errorf("%w: nil asset registry", ErrInvalidInput)
	}
	if biddingDur <= 0 || revealDur <= 0 {
		return 0, fmt.Errorf("%w: durations must be positive", ErrInvalidInput)
	}

	owner, err := assets.OwnerOf(assetID)
	if err != nil {
		return 0, fmt.Errorf("%w: asset %d: %v", ErrInvalidInput, assetID, err)
	}
	if !owner.Equal(seller) {
		return 0, fmt.Errorf("%w: caller does not own asset %d", ErrUnauthorized, assetID)
	}

	now := h.clock()
	biddingEnd := now.Add(biddingDur)
	revealEnd := biddingEnd.Add(revealDur)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.auctions[id] = &auctionState{
		assets: assets,
		auction: Auction{
			ID:         id,
			Seller:     seller,
			AssetID:    assetID,
			Reserve:    reserve,
			BiddingEnd: biddingEnd,
			RevealEnd:  revealEnd,
		},
		bids: make(map[string]*Bid),
	}
	h.mu.Unlock()

	h.emit(AuctionCreated{
		ID:         id,
		Seller:     seller,
		AssetID:    assetID,
		Reserve:    reserve,
		BiddingEnd: biddingEnd.Unix(),
		RevealEnd:  revealEnd.Unix(),
	})
	h.log.Info("auction created", "auction", id, "seller", seller, "asset", assetID, "reserve", reserve)
	return id, nil
}

// CommitBid stores a sealed commitment with its deposit during the bidding
// window. The deposit is debited from the bidder's treasury account in the
// same step; a failed debit leaves no commitment behind. A bidder gets
// exactly one commitment per auction and cannot overwrite or retract it, so
// observing someone else's commitment is useless to a front-runner.
func (h *House) CommitBid(bidder crypto.PublicKey, id AuctionID, commitment crypto.Digest, deposit uint64) error {
	st, err := h.lookup(id)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if bidder.IsZero() {
		return fmt.Errorf("%w: empty bidder identity", ErrInvalidInput)
	}
	if !h.clock().Before(st.auction.BiddingEnd) {
		return fmt.Errorf("%w: bidding closed for auction %d", ErrTimingViolation, id)
	}
	if deposit == 0 {
		return fmt.Errorf("%w: deposit must be positive", ErrInvalidInput)
	}
	if commitment.IsZero() {
		return fmt.Errorf("%w: zero commitment", ErrInvalidInput)
	}
	if _, exists := st.bids[bidder.String()]; exists {
		return fmt.Errorf("%w: bidder already committed to auction %d", ErrDuplicateAction, id)
	}

	if err := h.funds.Debit(bidder, deposit); err != nil {
		return fmt.Errorf("%w: deposit debit: %v", ErrTransferFailure, err)
	}

	st.bids[bidder.String()] = &Bid{
		Bidder:     bidder,
		Commitment: commitment,
		Deposit:    deposit,
	}
	st.bidders = append(st.bidders, bidder)

	h.emit(BidCommitted{ID: id, Bidder: bidder, Commitment: commitment, Deposit: deposit})
	h.log.Info("bid committed", "auction", id, "bidder", bidder, "deposit", deposit)
	return nil
}

// RevealBid opens a commitment during the reveal window. The digest is
// recomputed from the claimed amount and nonce and must match the stored
// commitment exactly; a mismatch fails the call with no state change rather
// than counting as a reveal of anything.
//
// A qualifying amount updates the running first/second ranking with strict
// comparisons: an amount equal to the current highest or second-highest
// does not displace the earlier reveal.
func (h *House) RevealBid(bidder crypto.PublicKey, id AuctionID, amount uint64, nonce crypto.Nonce) error {
	st, err := h.lookup(id)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := h.clock()
	if now.Before(st.auction.BiddingEnd) || !now.Before(st.auction.RevealEnd) {
		return fmt.Errorf("%w: outside reveal window of auction %d", ErrTimingViolation, id)
	}

	bid, ok := st.bids[bidder.String()]
	if !ok {
		return fmt.Errorf("%w: no commitment from bidder in auction %d", ErrNotFound, id)
	}
	if bid.Revealed {
		return fmt.Errorf("%w: bid already revealed", ErrDuplicateAction)
	}
	if amount > bid.Deposit {
		return fmt.Errorf("%w: amount %d exceeds deposit %d", ErrSolvency, amount, bid.Deposit)
	}
	if crypto.Commitment(amount, nonce) != bid.Commitment {
		return fmt.Errorf("%w: digest does not match commitment", ErrIntegrityFailure)
	}

	bid.Revealed = true
	bid.Amount = amount

	a := &st.auction
	if amount >= a.Reserve {
		if amount > a.HighestBid {
			a.SecondBid = a.HighestBid
			a.HighestBid = amount
			a.HighestBidder = bidder
		} else if amount > a.SecondBid {
			a.SecondBid = amount
		}
	}

	h.emit(BidRevealed{ID: id, Bidder: bidder, Amount: amount})
	h.log.Info("bid revealed", "auction", id, "bidder", bidder, "amount", amount)
	return nil
}

// FinalizeAuction settles an auction once the reveal window has closed.
// Anyone may call it. If the highest revealed bid met the reserve, the
// winner pays the second-highest qualifying bid, or the reserve when no
// second bid qualifies, and the asset is transferred to them. No qualifying
// bid is a legitimate terminal outcome, not an error.
//
// The finalized latch is committed before the asset transfer is requested,
// so a re-entrant call during the transfer fails on the latch. If the
// transfer itself fails, the latch is rolled back with it and finalization
// can be retried.
func (h *House) FinalizeAuction(id AuctionID) error {
	st, err := h.lookup(id)
	if err != nil {
		return err
	}

	st.mu.Lock()
	a := &st.auction
	if h.clock().Before(a.RevealEnd) {
		st.mu.Unlock()
		return fmt.Errorf("%w: reveal window still open for auction %d", ErrTimingViolation, id)
	}
	if a.Finalized {
		st.mu.Unlock()
		return fmt.Errorf("%w: auction %d already finalized", ErrDuplicateAction, id)
	}

	if !a.Sold() {
		a.Finalized = true
		st.mu.Unlock()

		h.emit(AuctionFinalized{ID: id})
		h.log.Info("auction finalized without sale", "auction", id)
		return nil
	}

	price := a.SecondBid
	if price < a.Reserve {
		// Sole qualifying bidder pays the reserve, not zero.
		price = a.Reserve
	}
	a.Finalized = true
	a.FinalPrice = price
	winner, winningBid := a.HighestBidder, a.HighestBid
	seller, assetID := a.Seller, a.AssetID
	st.mu.Unlock()

	if err := st.assets.Transfer(seller, winner, assetID); err != nil {
		st.mu.Lock()
		a.Finalized = false
		a.FinalPrice = 0
		st.mu.Unlock()
		return fmt.Errorf("%w: asset transfer: %v", ErrTransferFailure, err)
	}

	h.emit(AuctionFinalized{ID: id, Winner: winner, WinningBid: winningBid, PricePaid: price})
	h.log.Info("auction finalized", "auction", id, "winner", winner, "winning_bid", winningBid, "price", price)
	return nil
}

// Withdraw releases a bidder's escrowed funds after finalization. The
// winner of a sale gets their deposit minus the clearing price, everyone
// else gets their full deposit back. Pull payment: nothing is pushed at
// finalization, each bidder claims exactly once.
//
// The withdrawn latch is committed before the treasury credit, closing the
// re-entrancy window; if the credit fails, the latch rolls back with it.
func (h *House) Withdraw(bidder crypto.PublicKey, id AuctionID) (uint64, error) {
	st, err := h.lookup(id)
	if err != nil {
		return 0, err
	}

	st.mu.Lock()
	a := &st.auction
	if !a.Finalized {
		st.mu.Unlock()
		return 0, fmt.Errorf("%w: auction %d not finalized", ErrTimingViolation, id)
	}
	bid, ok := st.bids[bidder.String()]
	if !ok || bid.Deposit == 0 {
		st.mu.Unlock()
		return 0, fmt.Errorf("%w: no deposit to withdraw from auction %d", ErrNotFound, id)
	}
	if bid.Withdrawn {
		st.mu.Unlock()
		return 0, fmt.Errorf("%w: deposit already withdrawn", ErrDuplicateAction)
	}

	refund := bid.Deposit
	if a.Sold() && bidder.Equal(a.HighestBidder) {
		if a.FinalPrice >= refund {
			refund = 0
		} else {
			refund -= a.FinalPrice
		}
	}
	bid.Withdrawn = true
	st.mu.Unlock()

	if refund > 0 {
		if err := h.funds.Credit(bidder, refund); err != nil {
			st.mu.Lock()
			bid.Withdrawn = false
			st.mu.Unlock()
			return 0, fmt.Errorf("%w: refund credit: %v", ErrTransferFailure, err)
		}
	}

	h.emit(WithdrawalPerformed{ID: id, User: bidder, Amount: refund})
	h.log.Info("withdrawal performed", "auction", id, "bidder", bidder, "amount", refund)
	return refund, nil
}

// WithdrawSellerPayment releases the clearing price to the seller of a
// finalized, sold auction. Same latch-before-transfer ordering and rollback
// semantics as Withdraw.
func (h *House) WithdrawSellerPayment(caller crypto.PublicKey, id AuctionID) (uint64, error) {
	st, err := h.lookup(id)
	if err != nil {
		return 0, err
	}

	st.mu.Lock()
	a := &st.auction
	if !caller.Equal(a.Seller) {
		st.mu.Unlock()
		return 0, fmt.Errorf("%w: caller is not the seller of auction %d", ErrUnauthorized, id)
	}
	if !a.Finalized {
		st.mu.Unlock()
		return 0, fmt.Errorf("%w: auction %d not finalized", ErrTimingViolation, id)
	}
	if a.SellerPaid {
		st.mu.Unlock()
		return 0, fmt.Errorf("%w: seller already paid", ErrDuplicateAction)
	}
	if !a.Sold() {
		st.mu.Unlock()
		return 0, fmt.Errorf("%w: no sale occurred in auction %d", ErrInvalidInput, id)
	}

	amount := a.FinalPrice
	a.SellerPaid = true
	st.mu.Unlock()

	if err := h.funds.Credit(caller, amount); err != nil {
		st.mu.Lock()
		a.SellerPaid = false
		st.mu.Unlock()
		return 0, fmt.Errorf("%w: seller credit: %v", ErrTransferFailure, err)
	}

	h.emit(SellerPaid{ID: id, Seller: caller, Amount: amount})
	h.log.Info("seller paid", "auction", id, "seller", caller, "amount", amount)
	return amount, nil
}

// Auction returns a snapshot of an auction's public state. Ranking fields
// are zeroed until finalization so the read surface cannot leak interim
// standings during the reveal window.
func (h *House) Auction(id AuctionID) (Snapshot, error) {
	st, err := h.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	snap := Snapshot{
		Auction: st.auction,
		Phase:   st.auction.PhaseAt(h.clock()),
		Bidders: len(st.bidders),
	}
	if !st.auction.Finalized {
		snap.HighestBid = 0
		snap.HighestBidder = nil
		snap.SecondBid = 0
	}
	return snap, nil
}

// Bid returns a copy of one bidder's bid record.
func (h *House) Bid(id AuctionID, bidder crypto.PublicKey) (Bid, error) {
	st, err := h.lookup(id)
	if err != nil {
		return Bid{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	bid, ok := st.bids[bidder.String()]
	if !ok {
		return Bid{}, fmt.Errorf("%w: no bid from bidder in auction %d", ErrNotFound, id)
	}
	return *bid, nil
}

// Participants returns the auction's bidders in commitment order. The list
// exists for iteration and auditing only; ranking never depends on it.
func (h *House) Participants(id AuctionID) ([]crypto.PublicKey, error) {
	st, err := h.lookup(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]crypto.PublicKey, len(st.bidders))
	copy(out, st.bidders)
	return out, nil
}
