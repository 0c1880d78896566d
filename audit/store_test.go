package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealedbid/auctionhouse/auction"
)

func TestInMemoryStore_AppendAssignsSequence(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	s := NewInMemoryStore(func() time.Time { return at })

	require.NoError(t, s.Append(auction.AuctionCreated{ID: 1, Reserve: 100}))
	require.NoError(t, s.Append(auction.BidRevealed{ID: 1, Amount: 120}))

	records := s.All()
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].Seq)
	assert.Equal(t, int64(2), records[1].Seq)
	assert.Equal(t, "auction_created", records[0].Kind)
	assert.Equal(t, "bid_revealed", records[1].Kind)
	assert.Equal(t, at, records[0].At)
}

func TestInMemoryStore_ByAuctionFilters(t *testing.T) {
	s := NewInMemoryStore(nil)

	require.NoError(t, s.Append(auction.AuctionCreated{ID: 1}))
	require.NoError(t, s.Append(auction.AuctionCreated{ID: 2}))
	require.NoError(t, s.Append(auction.AuctionFinalized{ID: 1, PricePaid: 120}))

	records, err := s.ByAuction(1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "auction_created", records[0].Kind)
	assert.Equal(t, "auction_finalized", records[1].Kind)
	for _, rec := range records {
		assert.Equal(t, auction.AuctionID(1), rec.AuctionID)
	}

	records, err = s.ByAuction(3)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInMemoryStore_PayloadRoundTrip(t *testing.T) {
	s := NewInMemoryStore(nil)

	ev := auction.AuctionFinalized{ID: 4, WinningBid: 180, PricePaid: 120}
	require.NoError(t, s.Append(ev))

	records, err := s.ByAuction(4)
	require.NoError(t, err)
	require.Len(t, records, 1)

	var decoded auction.AuctionFinalized
	require.NoError(t, json.Unmarshal(records[0].Payload, &decoded))
	assert.Equal(t, ev, decoded)
}

func TestPostgresConfig_ConnectionString(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "auction",
		Password: "secret",
		Database: "auctionhouse",
	}
	assert.Equal(t,
		"host=db.internal port=5432 user=auction password=secret dbname=auctionhouse sslmode=disable",
		cfg.ConnectionString())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.ConnectionString(), "sslmode=require")
}
