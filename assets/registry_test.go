package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealedbid/auctionhouse/crypto"
)

func newOwner(t *testing.T) crypto.PublicKey {
	t.Helper()
	pub, _, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return pub
}

func TestRegistry_MintAndOwnerOf(t *testing.T) {
	r := NewInMemoryRegistry()
	owner := newOwner(t)

	_, err := r.OwnerOf(1)
	assert.ErrorIs(t, err, ErrUnknownAsset)

	r.Mint(1, owner)
	got, err := r.OwnerOf(1)
	require.NoError(t, err)
	assert.True(t, got.Equal(owner))
}

func TestRegistry_Transfer(t *testing.T) {
	r := NewInMemoryRegistry()
	alice := newOwner(t)
	bob := newOwner(t)
	r.Mint(1, alice)

	require.NoError(t, r.Transfer(alice, bob, 1))

	got, err := r.OwnerOf(1)
	require.NoError(t, err)
	assert.True(t, got.Equal(bob))
}

func TestRegistry_TransferAuthorization(t *testing.T) {
	r := NewInMemoryRegistry()
	alice := newOwner(t)
	bob := newOwner(t)
	r.Mint(1, alice)

	err := r.Transfer(bob, alice, 1)
	assert.Error(t, err, "only the current owner can be the transfer source")

	err = r.Transfer(alice, bob, 2)
	assert.ErrorIs(t, err, ErrUnknownAsset)

	got, err := r.OwnerOf(1)
	require.NoError(t, err)
	assert.True(t, got.Equal(alice), "failed transfers must not move the asset")
}

func TestRegistry_FailNextTransferIsOneShot(t *testing.T) {
	r := NewInMemoryRegistry()
	alice := newOwner(t)
	bob := newOwner(t)
	r.Mint(1, alice)

	r.FailNextTransfer()
	assert.Error(t, r.Transfer(alice, bob, 1))

	got, err := r.OwnerOf(1)
	require.NoError(t, err)
	assert.True(t, got.Equal(alice))

	require.NoError(t, r.Transfer(alice, bob, 1))
}
