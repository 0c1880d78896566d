package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealedbid/auctionhouse/assets"
	"github.com/sealedbid/auctionhouse/auction"
	"github.com/sealedbid/auctionhouse/audit"
	"github.com/sealedbid/auctionhouse/bank"
	"github.com/sealedbid/auctionhouse/crypto"
	"github.com/sealedbid/auctionhouse/server"
	"github.com/sealedbid/auctionhouse/testutil"
)

const webAssetID = uint64(3)

type webFixture struct {
	t          *testing.T
	clock      *testutil.ManualClock
	ledger     *bank.Ledger
	registry   *assets.InMemoryRegistry
	router     *chi.Mux
	sellerPub  crypto.PublicKey
	sellerPriv crypto.PrivateKey
}

func newWebFixture(t *testing.T) *webFixture {
	t.Helper()

	clock := testutil.NewManualClock(time.Unix(1_700_000_000, 0))
	ledger := bank.NewLedger()
	registry := assets.NewInMemoryRegistry()
	store := audit.NewInMemoryStore(clock.Clock())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sellerPub, sellerPriv := testutil.MustKeyPair(t)
	registry.Mint(webAssetID, sellerPub)

	house := auction.NewHouse(ledger, clock.Clock(), store, log)
	handler := server.NewHandler(house, registry, store, log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	return &webFixture{
		t:          t,
		clock:      clock,
		ledger:     ledger,
		registry:   registry,
		router:     router,
		sellerPub:  sellerPub,
		sellerPriv: sellerPriv,
	}
}

func postSigned[T any](t *testing.T, router http.Handler, path string, priv crypto.PrivateKey, obj *T) *httptest.ResponseRecorder {
	t.Helper()

	signed, err := server.NewSigned(priv, obj)
	require.NoError(t, err)
	payload, err := json.Marshal(signed)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (f *webFixture) get(path string) *httptest.ResponseRecorder {
	f.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *webFixture) createAuction(reserve uint64) uint64 {
	f.t.Helper()
	rec := postSigned(f.t, f.router, "/auctions", f.sellerPriv, &server.CreateAuctionRequest{
		AssetID:        webAssetID,
		Reserve:        reserve,
		BiddingSeconds: 600,
		RevealSeconds:  300,
	})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]uint64
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["auction_id"]
}

func TestHandler_FullLifecycle(t *testing.T) {
	f := newWebFixture(t)
	id := f.createAuction(100)

	bidderPub, bidderPriv := testutil.MustKeyPair(t)
	f.ledger.Mint(bidderPub, 200)

	nonce := testutil.MustNonce(t)
	digest := crypto.Commitment(150, nonce)

	rec := postSigned(t, f.router, fmt.Sprintf("/auctions/%d/commit", id), bidderPriv, &server.CommitBidRequest{
		AuctionID:  id,
		Commitment: digest.String(),
		Deposit:    200,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f.clock.Advance(600 * time.Second)
	rec = postSigned(t, f.router, fmt.Sprintf("/auctions/%d/reveal", id), bidderPriv, &server.RevealBidRequest{
		AuctionID: id,
		Amount:    150,
		Nonce:     nonce.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f.clock.Advance(300 * time.Second)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/auctions/%d/finalize", id), nil)
	frec := httptest.NewRecorder()
	f.router.ServeHTTP(frec, req)
	require.Equal(t, http.StatusOK, frec.Code, frec.Body.String())

	var snap auction.Snapshot
	require.NoError(t, json.Unmarshal(frec.Body.Bytes(), &snap))
	assert.True(t, snap.Finalized)
	assert.Equal(t, uint64(100), snap.FinalPrice, "sole qualifying bid pays the reserve")
	assert.Equal(t, bidderPub.String(), snap.HighestBidder.String())

	rec = postSigned(t, f.router, fmt.Sprintf("/auctions/%d/withdraw", id), bidderPriv, &server.WithdrawRequest{AuctionID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var refund map[string]uint64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refund))
	assert.Equal(t, uint64(100), refund["refund"])

	rec = postSigned(t, f.router, fmt.Sprintf("/auctions/%d/seller-payment", id), f.sellerPriv, &server.WithdrawRequest{AuctionID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var paid map[string]uint64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &paid))
	assert.Equal(t, uint64(100), paid["amount"])

	rec = f.get(fmt.Sprintf("/auctions/%d/events", id))
	require.Equal(t, http.StatusOK, rec.Code)
	var records []audit.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 6)
	assert.Equal(t, "auction_created", records[0].Kind)
	assert.Equal(t, "seller_paid", records[5].Kind)
}

func TestHandler_CreateAuctionByNonOwner(t *testing.T) {
	f := newWebFixture(t)
	_, strangerPriv := testutil.MustKeyPair(t)

	rec := postSigned(t, f.router, "/auctions", strangerPriv, &server.CreateAuctionRequest{
		AssetID:        webAssetID,
		Reserve:        100,
		BiddingSeconds: 600,
		RevealSeconds:  300,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_TamperedSignature(t *testing.T) {
	f := newWebFixture(t)
	id := f.createAuction(100)

	_, bidderPriv := testutil.MustKeyPair(t)
	signed, err := server.NewSigned(bidderPriv, &server.CommitBidRequest{
		AuctionID:  id,
		Commitment: crypto.Commitment(150, testutil.MustNonce(t)).String(),
		Deposit:    200,
	})
	require.NoError(t, err)

	// Raise the deposit after signing. The signature no longer covers the
	// object, so recovery must fail.
	signed.Object.Deposit = 500
	payload, err := json.Marshal(signed)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/auctions/%d/commit", id), bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_AuctionIDMismatch(t *testing.T) {
	f := newWebFixture(t)
	id := f.createAuction(100)

	bidderPub, bidderPriv := testutil.MustKeyPair(t)
	f.ledger.Mint(bidderPub, 200)

	rec := postSigned(t, f.router, fmt.Sprintf("/auctions/%d/commit", id), bidderPriv, &server.CommitBidRequest{
		AuctionID:  id + 1,
		Commitment: crypto.Commitment(150, testutil.MustNonce(t)).String(),
		Deposit:    200,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "signed envelope must not replay against another auction")
}

func TestHandler_ErrorStatusMapping(t *testing.T) {
	f := newWebFixture(t)
	id := f.createAuction(100)

	rec := f.get("/auctions/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.get("/auctions/999/events")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.get("/auctions/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Finalize before the reveal window closes.
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/auctions/%d/finalize", id), nil)
	frec := httptest.NewRecorder()
	f.router.ServeHTTP(frec, req)
	assert.Equal(t, http.StatusConflict, frec.Code)

	// Underfunded deposit surfaces as an upstream transfer failure.
	bidderPub, bidderPriv := testutil.MustKeyPair(t)
	f.ledger.Mint(bidderPub, 10)
	rec = postSigned(t, f.router, fmt.Sprintf("/auctions/%d/commit", id), bidderPriv, &server.CommitBidRequest{
		AuctionID:  id,
		Commitment: crypto.Commitment(150, testutil.MustNonce(t)).String(),
		Deposit:    200,
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandler_CommitAfterBiddingCloses(t *testing.T) {
	f := newWebFixture(t)
	id := f.createAuction(100)

	bidderPub, bidderPriv := testutil.MustKeyPair(t)
	f.ledger.Mint(bidderPub, 200)
	f.clock.Advance(601 * time.Second)

	rec := postSigned(t, f.router, fmt.Sprintf("/auctions/%d/commit", id), bidderPriv, &server.CommitBidRequest{
		AuctionID:  id,
		Commitment: crypto.Commitment(150, testutil.MustNonce(t)).String(),
		Deposit:    200,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_InvalidCommitmentEncoding(t *testing.T) {
	f := newWebFixture(t)
	id := f.createAuction(100)

	bidderPub, bidderPriv := testutil.MustKeyPair(t)
	f.ledger.Mint(bidderPub, 200)

	rec := postSigned(t, f.router, fmt.Sprintf("/auctions/%d/commit", id), bidderPriv, &server.CommitBidRequest{
		AuctionID:  id,
		Commitment: "not-hex",
		Deposit:    200,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CommitmentHelper(t *testing.T) {
	f := newWebFixture(t)

	nonce := testutil.MustNonce(t)
	rec := f.get(fmt.Sprintf("/commitment?amount=120&nonce=%s", nonce.String()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, crypto.Commitment(120, nonce).String(), resp["commitment"])

	rec = f.get("/commitment?amount=abc&nonce=" + nonce.String())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.get("/commitment?amount=120&nonce=zz")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSigned_RoundTrip(t *testing.T) {
	_, priv := testutil.MustKeyPair(t)

	obj := &server.RevealBidRequest{AuctionID: 4, Amount: 77, Nonce: "aa"}
	signed, err := server.NewSigned(priv, obj)
	require.NoError(t, err)

	recovered, signer, err := signed.Recover()
	require.NoError(t, err)
	assert.Equal(t, obj, recovered)

	expected, err := priv.PublicKey()
	require.NoError(t, err)
	assert.True(t, signer.Equal(expected))
}

func TestSigned_MissingObject(t *testing.T) {
	var signed server.Signed[server.WithdrawRequest]
	_, _, err := signed.Recover()
	assert.Error(t, err)
}
