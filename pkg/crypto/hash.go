// Package crypto provides the hash functions, edwards25519 keys and
// signatures, and one-time (ghost) key derivation used by safe transactions.
package crypto

import (
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Blake3Hash computes a BLAKE3-256 hash of the input data. Transaction
// payload hashes use it.
func Blake3Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// NewHash computes a SHA3-256 hash of the input data. Address and invoice
// checksums and ghost key scalars use it.
func NewHash(data []byte) types.Hash {
	return sha3.Sum256(data)
}

// Checksum returns the first four bytes of NewHash(prefix || payload).
func Checksum(prefix string, payload []byte) []byte {
	data := make([]byte, 0, len(prefix)+len(payload))
	data = append(data, prefix...)
	data = append(data, payload...)
	h := NewHash(data)
	return h[:4]
}
