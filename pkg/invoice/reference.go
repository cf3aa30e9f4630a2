package invoice

import "github.com/Klingon-tech/klingnet-safe/pkg/types"

// ReferenceKind tags a reference on the wire.
type ReferenceKind byte

const (
	// ReferenceHash points at an existing transaction.
	ReferenceHash ReferenceKind = 0
	// ReferenceIndex points at an earlier entry of the same invoice.
	ReferenceIndex ReferenceKind = 1
)

// Reference is either a transaction hash or an entry index.
type Reference struct {
	Kind  ReferenceKind
	Hash  types.Hash
	Index uint8
}

// HashReference references a transaction by hash.
func HashReference(h types.Hash) Reference {
	return Reference{Kind: ReferenceHash, Hash: h}
}

// IndexReference references an earlier entry by position.
func IndexReference(i uint8) Reference {
	return Reference{Kind: ReferenceIndex, Index: i}
}
