package assets

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sealedbid/auctionhouse/crypto"
)

// ErrUnknownAsset is returned when an asset ID has never been minted.
var ErrUnknownAsset = errors.New("unknown asset")

// InMemoryRegistry is a process-local implementation of the auction house's
// asset registry dependency. It backs the demo deployment and the tests;
// production deployments are expected to bridge to whatever system actually
// records ownership.
type InMemoryRegistry struct {
	mu     sync.Mutex
	owners map[uint64]crypto.PublicKey

	// failNext, when set, makes the next Transfer fail. Tests use this to
	// exercise settlement rollback.
	failNext bool
}

// NewInMemoryRegistry creates an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{owners: make(map[uint64]crypto.PublicKey)}
}

// Mint records initial ownership of an asset.
func (r *InMemoryRegistry) Mint(assetID uint64, owner crypto.PublicKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[assetID] = owner
}

// OwnerOf returns the current owner of an asset.
func (r *InMemoryRegistry) OwnerOf(assetID uint64) (crypto.PublicKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[assetID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAsset, assetID)
	}
	return owner, nil
}

// Transfer moves an asset between owners. It fails if from is not the
// current owner, mirroring a registry that only honors authorized moves.
func (r *InMemoryRegistry) Transfer(from, to crypto.PublicKey, assetID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext {
		r.failNext = false
		return errors.New("transfer rejected")
	}

	owner, ok := r.owners[assetID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownAsset, assetID)
	}
	if !owner.Equal(from) {
		return fmt.Errorf("asset %d not owned by %s", assetID, from)
	}
	r.owners[assetID] = to
	return nil
}

// FailNextTransfer arms a one-shot transfer failure.
func (r *InMemoryRegistry) FailNextTransfer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = true
}
