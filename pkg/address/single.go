package address

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
)

// PublicKeySize is the size of a single-key address payload: spend key then view key.
const PublicKeySize = 64

// SingleKeyAddress identifies a recipient by its public spend and view keys.
type SingleKeyAddress struct {
	PublicSpendKey crypto.Key
	PublicViewKey  crypto.Key
}

func (*SingleKeyAddress) isAddress() {}

// NewSingleKeyAddress returns the address for a spend/view key pair.
func NewSingleKeyAddress(spend, view crypto.Key) *SingleKeyAddress {
	return &SingleKeyAddress{PublicSpendKey: spend, PublicViewKey: view}
}

// PublicKey returns spend ‖ view.
func (a *SingleKeyAddress) PublicKey() [PublicKeySize]byte {
	var pub [PublicKeySize]byte
	copy(pub[:32], a.PublicSpendKey[:])
	copy(pub[32:], a.PublicViewKey[:])
	return pub
}

// String returns the XIN form of the address.
func (a *SingleKeyAddress) String() string {
	return EncodePublicKey(a.PublicKey())
}

// ParseSingleKeyAddress decodes an XIN address string.
func ParseSingleKeyAddress(s string) (*SingleKeyAddress, error) {
	pub, err := DecodePublicKey(s)
	if err != nil {
		return nil, err
	}
	a := &SingleKeyAddress{}
	copy(a.PublicSpendKey[:], pub[:32])
	copy(a.PublicViewKey[:], pub[32:])
	return a, nil
}

// EncodePublicKey renders a 64-byte public key as an XIN string.
func EncodePublicKey(pub [PublicKeySize]byte) string {
	return encodeChecked(SingleKeyPrefix, pub[:])
}

// DecodePublicKey is the inverse of EncodePublicKey.
func DecodePublicKey(s string) ([PublicKeySize]byte, error) {
	var pub [PublicKeySize]byte
	payload, err := decodeChecked(SingleKeyPrefix, s)
	if err != nil {
		return pub, err
	}
	if len(payload) != PublicKeySize {
		return pub, fmt.Errorf("%w: public key must be %d bytes, got %d",
			ErrInvalidAddress, PublicKeySize, len(payload))
	}
	copy(pub[:], payload)
	return pub, nil
}
