// Package address implements the XIN single-key and MIX group address formats.
package address

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// String prefixes.
const (
	SingleKeyPrefix = "XIN"
	GroupPrefix     = "MIX"
)

// ChecksumSize is the number of checksum bytes appended before base58 encoding.
const ChecksumSize = 4

var (
	// ErrInvalidAddressChecksum is returned when the embedded checksum does not match.
	ErrInvalidAddressChecksum = fmt.Errorf("%w: invalid address checksum", types.ErrChecksum)
	// ErrInvalidAddress is returned for strings that are not a well-formed address.
	ErrInvalidAddress = fmt.Errorf("%w: invalid address", types.ErrFormat)
)

// Address is either a *SingleKeyAddress or a *GroupAddress.
type Address interface {
	String() string
	isAddress()
}

// Parse decodes an address string, dispatching on its prefix.
func Parse(s string) (Address, error) {
	switch {
	case strings.HasPrefix(s, SingleKeyPrefix):
		return ParseSingleKeyAddress(s)
	case strings.HasPrefix(s, GroupPrefix):
		return ParseGroupAddress(s)
	default:
		return nil, fmt.Errorf("%w: unknown prefix in %q", ErrInvalidAddress, s)
	}
}

func encodeChecked(prefix string, payload []byte) string {
	data := make([]byte, 0, len(payload)+ChecksumSize)
	data = append(data, payload...)
	data = append(data, crypto.Checksum(prefix, payload)...)
	return prefix + base58.Encode(data)
}

func decodeChecked(prefix, s string) ([]byte, error) {
	if !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("%w: missing %s prefix", ErrInvalidAddress, prefix)
	}
	data := base58.Decode(s[len(prefix):])
	if len(data) <= ChecksumSize {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	payload := data[:len(data)-ChecksumSize]
	if !bytes.Equal(crypto.Checksum(prefix, payload), data[len(payload):]) {
		return nil, ErrInvalidAddressChecksum
	}
	return payload, nil
}
