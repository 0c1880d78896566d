package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// DigestSize is the width of a bid commitment digest in bytes.
const DigestSize = 32

// NonceSize is the width of the blinding nonce in bytes.
const NonceSize = 32

// Digest is a 256-bit bid commitment: a hiding, binding fingerprint of a
// bid amount and a secret nonce. Bidders publish a Digest during the
// bidding window and open it during the reveal window.
type Digest [DigestSize]byte

// IsZero reports whether the digest is all zeroes. The zero digest is never
// a valid commitment.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String returns a hex-encoded string representation of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// DigestFromString parses a hex-encoded commitment digest.
func DigestFromString(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	if len(raw) != DigestSize {
		return d, fmt.Errorf("digest must be %d bytes, got %d", DigestSize, len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// Nonce is the secret blinding value mixed into a commitment. A bidder
// keeps the nonce private until reveal; without it the digest reveals
// nothing about the amount.
type Nonce [NonceSize]byte

// NewNonce generates a cryptographically random nonce.
func NewNonce() (Nonce, error) {
	var n Nonce
	if _, err := rand.Read(n[:]); err != nil {
		return n, err
	}
	return n, nil
}

// String returns a hex-encoded string representation of the nonce.
func (n Nonce) String() string {
	return hex.EncodeToString(n[:])
}

// NonceFromString parses a hex-encoded nonce.
func NonceFromString(s string) (Nonce, error) {
	var n Nonce
	raw, err := hex.DecodeString(s)
	if err != nil {
		return n, err
	}
	if len(raw) != NonceSize {
		return n, fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(raw))
	}
	copy(n[:], raw)
	return n, nil
}

// Commitment computes the bid commitment digest for an amount and nonce:
// Keccak-256 over the amount left-padded to 32 big-endian bytes followed by
// the 32-byte nonce. The exact same encoding is used when a bidder prepares
// a commitment off-line and when the house verifies a reveal; any deviation
// makes every reveal fail.
func Commitment(amount uint64, nonce Nonce) Digest {
	var buf [DigestSize + NonceSize]byte
	binary.BigEndian.PutUint64(buf[24:32], amount)
	copy(buf[32:], nonce[:])

	var d Digest
	h := sha3.NewLegacyKeccak256()
	h.Write(buf[:])
	h.Sum(d[:0])
	return d
}
