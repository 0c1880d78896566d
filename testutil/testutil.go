package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/sealedbid/auctionhouse/auction"
	"github.com/sealedbid/auctionhouse/crypto"
)

// ManualClock is a deterministic clock for driving an auction across phase
// boundaries in tests. It only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to an absolute instant.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Clock adapts the manual clock to the house's Clock dependency.
func (c *ManualClock) Clock() auction.Clock {
	return c.Now
}

// MustKeyPair generates a key pair or fails the test.
func MustKeyPair(t *testing.T) (crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	return pub, priv
}

// MustNonce generates a random nonce or fails the test.
func MustNonce(t *testing.T) crypto.Nonce {
	t.Helper()
	nonce, err := crypto.NewNonce()
	if err != nil {
		t.Fatalf("generate nonce: %v", err)
	}
	return nonce
}
