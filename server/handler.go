package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sealedbid/auctionhouse/auction"
	"github.com/sealedbid/auctionhouse/audit"
	"github.com/sealedbid/auctionhouse/crypto"
)

// Handler exposes the auction house over HTTP. Mutating endpoints carry a
// Signed envelope; the recovered signer is the caller identity passed to
// the house. Finalization is deliberately unauthenticated: anyone may
// settle an auction whose reveal window has closed.
type Handler struct {
	house  *auction.House
	assets auction.AssetRegistry
	store  audit.Store
	log    *slog.Logger
}

// NewHandler creates the API handler. The asset registry is the one new
// auctions are created against.
func NewHandler(house *auction.House, assets auction.AssetRegistry, store audit.Store, log *slog.Logger) *Handler {
	return &Handler{
		house:  house,
		assets: assets,
		store:  store,
		log:    log,
	}
}

// RegisterRoutes registers the auction API with the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auctions", h.createAuction)
	r.Get("/auctions/{id}", h.getAuction)
	r.Post("/auctions/{id}/commit", h.commitBid)
	r.Post("/auctions/{id}/reveal", h.revealBid)
	r.Post("/auctions/{id}/finalize", h.finalizeAuction)
	r.Post("/auctions/{id}/withdraw", h.withdraw)
	r.Post("/auctions/{id}/seller-payment", h.sellerPayment)
	r.Get("/auctions/{id}/events", h.auctionEvents)
	r.Get("/commitment", h.commitment)
}

// writeError maps the house's error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auction.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auction.ErrInvalidInput),
		errors.Is(err, auction.ErrIntegrityFailure),
		errors.Is(err, auction.ErrSolvency):
		status = http.StatusBadRequest
	case errors.Is(err, auction.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, auction.ErrTimingViolation),
		errors.Is(err, auction.ErrDuplicateAction):
		status = http.StatusConflict
	case errors.Is(err, auction.ErrTransferFailure):
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func auctionIDParam(r *http.Request) (auction.AuctionID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid auction id %q", raw)
	}
	return auction.AuctionID(id), nil
}

func (h *Handler) createAuction(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	signedReq, err := DecodeMessage[Signed[CreateAuctionRequest]](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	req, seller, err := signedReq.Recover()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to recover signer: %v", err), http.StatusForbidden)
		return
	}

	id, err := h.house.CreateAuction(seller, h.assets, req.AssetID, req.Reserve,
		time.Duration(req.BiddingSeconds)*time.Second,
		time.Duration(req.RevealSeconds)*time.Second)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]uint64{"auction_id": uint64(id)})
}

func (h *Handler) getAuction(w http.ResponseWriter, r *http.Request) {
	id, err := auctionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.house.Auction(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, snap)
}

func (h *Handler) commitBid(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id, err := auctionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	signedReq, err := DecodeMessage[Signed[CommitBidRequest]](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	req, bidder, err := signedReq.Recover()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to recover signer: %v", err), http.StatusForbidden)
		return
	}

	if auction.AuctionID(req.AuctionID) != id {
		http.Error(w, "auction id mismatch between path and signed body", http.StatusBadRequest)
		return
	}

	digest, err := crypto.DigestFromString(req.Commitment)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid commitment: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.house.CommitBid(bidder, id, digest, req.Deposit); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "committed"})
}

func (h *Handler) revealBid(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id, err := auctionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	signedReq, err := DecodeMessage[Signed[RevealBidRequest]](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	req, bidder, err := signedReq.Recover()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to recover signer: %v", err), http.StatusForbidden)
		return
	}

	if auction.AuctionID(req.AuctionID) != id {
		http.Error(w, "auction id mismatch between path and signed body", http.StatusBadRequest)
		return
	}

	nonce, err := crypto.NonceFromString(req.Nonce)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid nonce: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.house.RevealBid(bidder, id, req.Amount, nonce); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "revealed"})
}

func (h *Handler) finalizeAuction(w http.ResponseWriter, r *http.Request) {
	id, err := auctionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.house.FinalizeAuction(id); err != nil {
		writeError(w, err)
		return
	}

	snap, err := h.house.Auction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, snap)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id, err := auctionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	signedReq, err := DecodeMessage[Signed[WithdrawRequest]](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	req, bidder, err := signedReq.Recover()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to recover signer: %v", err), http.StatusForbidden)
		return
	}

	if auction.AuctionID(req.AuctionID) != id {
		http.Error(w, "auction id mismatch between path and signed body", http.StatusBadRequest)
		return
	}

	refund, err := h.house.Withdraw(bidder, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]uint64{"refund": refund})
}

func (h *Handler) sellerPayment(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	id, err := auctionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	signedReq, err := DecodeMessage[Signed[WithdrawRequest]](r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	req, seller, err := signedReq.Recover()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to recover signer: %v", err), http.StatusForbidden)
		return
	}

	if auction.AuctionID(req.AuctionID) != id {
		http.Error(w, "auction id mismatch between path and signed body", http.StatusBadRequest)
		return
	}

	amount, err := h.house.WithdrawSellerPayment(seller, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]uint64{"amount": amount})
}

func (h *Handler) auctionEvents(w http.ResponseWriter, r *http.Request) {
	id, err := auctionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Existence check first so unknown auctions 404 rather than return an
	// empty trail.
	if _, err := h.house.Auction(id); err != nil {
		writeError(w, err)
		return
	}

	records, err := h.store.ByAuction(id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load events: %v", err), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}

	writeJSON(w, records)
}

// commitment is the pure hash helper: it computes the exact digest the
// house will verify at reveal time, so a prospective bidder can prepare a
// commitment without trusting any other tooling.
func (h *Handler) commitment(w http.ResponseWriter, r *http.Request) {
	amountStr := r.URL.Query().Get("amount")
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid amount %q", amountStr), http.StatusBadRequest)
		return
	}

	nonce, err := crypto.NonceFromString(r.URL.Query().Get("nonce"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid nonce: %v", err), http.StatusBadRequest)
		return
	}

	digest := crypto.Commitment(amount, nonce)
	writeJSON(w, map[string]string{"commitment": digest.String()})
}
