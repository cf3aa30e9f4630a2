package crypto

import (
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// hashScalar maps a shared secret and an output index to a scalar:
// two rounds of a SHA3-256 chain, each reduced from 64 bytes.
func hashScalar(k Key, outputIndex uint64) *edwards25519.Scalar {
	data := append(k[:], binary.AppendUvarint(nil, outputIndex)...)

	var src [64]byte
	hash := NewHash(data)
	copy(src[:32], hash[:])
	hash = NewHash(hash[:])
	copy(src[32:], hash[:])
	s, _ := edwards25519.NewScalar().SetUniformBytes(src[:])

	hash = NewHash(s.Bytes())
	copy(src[:32], hash[:])
	hash = NewHash(hash[:])
	copy(src[32:], hash[:])
	x, _ := edwards25519.NewScalar().SetUniformBytes(src[:])
	return x
}

func point(k Key) (*edwards25519.Point, error) {
	p, err := edwards25519.NewIdentityPoint().SetBytes(k[:])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid public key %s", types.ErrValidation, k)
	}
	return p, nil
}

// KeyMultPubPriv returns the Diffie-Hellman product priv·pub.
func KeyMultPubPriv(pub Key, priv PrivateKey) (Key, error) {
	p, err := point(pub)
	if err != nil {
		return Key{}, err
	}
	v := edwards25519.NewIdentityPoint().ScalarMult(priv.scalar(), p)
	var out Key
	copy(out[:], v.Bytes())
	return out, nil
}

// DeriveGhostPublicKey computes the one-time key for the recipient with
// public view key A and public spend key B at the given output index, using
// the sender's ephemeral scalar r: Hs(r·A, index)·G + B.
func DeriveGhostPublicKey(r PrivateKey, A, B Key, outputIndex uint64) (Key, error) {
	shared, err := KeyMultPubPriv(A, r)
	if err != nil {
		return Key{}, err
	}
	spend, err := point(B)
	if err != nil {
		return Key{}, err
	}
	x := hashScalar(shared, outputIndex)
	p := edwards25519.NewIdentityPoint().ScalarBaseMult(x)
	p.Add(p, spend)
	var out Key
	copy(out[:], p.Bytes())
	return out, nil
}

// DeriveGhostPrivateKey recovers the one-time private key from the output
// mask R and the recipient's private view key a and spend key b:
// Hs(a·R, index) + b.
func DeriveGhostPrivateKey(R Key, a, b PrivateKey, outputIndex uint64) (PrivateKey, error) {
	shared, err := KeyMultPubPriv(R, a)
	if err != nil {
		return PrivateKey{}, err
	}
	x := hashScalar(shared, outputIndex)
	return privateKeyFromScalar(edwards25519.NewScalar().Add(x, b.scalar())), nil
}
