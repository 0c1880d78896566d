package bank

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sealedbid/auctionhouse/crypto"
)

// ErrInsufficientFunds is returned when a debit exceeds the account balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger is an in-memory account ledger implementing the auction house's
// treasury dependency. Debits move funds out of a bidder's account into
// house escrow; credits pay withdrawals back out. Balances never go
// negative, which is what makes a commit's deposit an actual escrow rather
// than a promise.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]uint64

	// failNext, when set, makes the next Credit fail. Tests use this to
	// exercise withdrawal rollback.
	failNext bool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]uint64)}
}

// Mint funds an account out of thin air. Demo and test helper.
func (l *Ledger) Mint(account crypto.PublicKey, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[account.String()] += amount
}

// Balance returns an account's current balance.
func (l *Ledger) Balance(account crypto.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[account.String()]
}

// Debit removes funds from an account, failing without effect if the
// balance does not cover the amount.
func (l *Ledger) Debit(from crypto.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := from.String()
	if l.balances[key] < amount {
		return fmt.Errorf("%w: account %s has %d, needs %d", ErrInsufficientFunds, key, l.balances[key], amount)
	}
	l.balances[key] -= amount
	return nil
}

// Credit adds funds to an account.
func (l *Ledger) Credit(to crypto.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failNext {
		l.failNext = false
		return errors.New("credit rejected")
	}
	l.balances[to.String()] += amount
	return nil
}

// FailNextCredit arms a one-shot credit failure.
func (l *Ledger) FailNextCredit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNext = true
}
