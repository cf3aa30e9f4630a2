package safe

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/address"
	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// DeriveGhostKeys derives the one-time keys of output index for a group of
// single-key members, using a fresh ephemeral key whose public half is the mask.
func DeriveGhostKeys(members []*address.SingleKeyAddress, index uint16) (*GhostKeySet, error) {
	r, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("ephemeral key: %w", err)
	}
	return deriveGhostKeys(r, members, index)
}

func deriveGhostKeys(r crypto.PrivateKey, members []*address.SingleKeyAddress, index uint16) (*GhostKeySet, error) {
	set := &GhostKeySet{Mask: r.Public(), Keys: make([]crypto.Key, len(members))}
	for i, m := range members {
		k, err := crypto.DeriveGhostPublicKey(r, m.PublicViewKey, m.PublicSpendKey, uint64(index))
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		set.Keys[i] = k
	}
	return set, nil
}

// GhostView recovers the view part of the one-time private key of output
// index from its mask, for holders of the private view key.
func GhostView(mask crypto.Key, view crypto.PrivateKey, index uint16) (crypto.PrivateKey, error) {
	return crypto.DeriveGhostPrivateKey(mask, view, crypto.PrivateKey{}, uint64(index))
}

// outputHint is the deterministic ghost key request hint of output index.
func outputHint(traceID string, index int) (string, error) {
	return types.UniqueIdentifier(traceID, fmt.Sprintf("OUTPUT:%d", index))
}
