// Package encoding provides the big-endian integer primitives and the
// cursor-based encoder/decoder used by every safe wire format.
package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// MaxEncodingInt is the largest value WriteInt accepts. It doubles as the
// aggregated-signature sentinel in the transaction signature section.
const MaxEncodingInt = 0xFFFF

// EncodeUint16 returns the 2-byte big-endian form of v.
func EncodeUint16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

// EncodeUint32 returns the 4-byte big-endian form of v.
func EncodeUint32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// EncodeUint64 returns the 8-byte big-endian form of v.
func EncodeUint64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

// DecodeUint16 reads a big-endian uint16 from the start of b.
func DecodeUint16(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, shortBuffer(2, len(b))
	}
	return binary.BigEndian.Uint16(b), nil
}

// DecodeUint32 reads a big-endian uint32 from the start of b.
func DecodeUint32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, shortBuffer(4, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

// DecodeUint64 reads a big-endian uint64 from the start of b.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, shortBuffer(8, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// EncodeVarInt returns the minimal big-endian representation of v: no
// leading zero byte, and zero encodes as an empty slice.
func EncodeVarInt(v uint64) []byte {
	b := binary.BigEndian.AppendUint64(nil, v)
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	return b
}

// DecodeVarInt is the inverse of EncodeVarInt. It rejects non-minimal input
// and values wider than 64 bits.
func DecodeVarInt(b []byte) (uint64, error) {
	if len(b) > 8 {
		return 0, fmt.Errorf("%w: varint of %d bytes overflows uint64", types.ErrFormat, len(b))
	}
	if len(b) > 0 && b[0] == 0 {
		return 0, fmt.Errorf("%w: varint has a leading zero byte", types.ErrFormat)
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

func shortBuffer(want, have int) error {
	return fmt.Errorf("%w: need %d bytes, %d remaining", types.ErrFormat, want, have)
}
