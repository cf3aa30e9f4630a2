package encoding

import (
	"bytes"
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Decoder consumes big-endian fields from a byte slice. Every read fails
// with types.ErrFormat when the buffer is shorter than the field.
type Decoder struct {
	buf []byte
	off int
}

// NewDecoder returns a decoder positioned at the start of b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Remaining returns the number of unread bytes.
func (dec *Decoder) Remaining() int {
	return len(dec.buf) - dec.off
}

// Offset returns the current cursor position.
func (dec *Decoder) Offset() int {
	return dec.off
}

// Read consumes exactly n bytes and returns a copy of them.
func (dec *Decoder) Read(n int) ([]byte, error) {
	if n < 0 || dec.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, %d remaining",
			types.ErrFormat, n, dec.off, dec.Remaining())
	}
	out := make([]byte, n)
	copy(out, dec.buf[dec.off:dec.off+n])
	dec.off += n
	return out, nil
}

// ReadInto fills dst from the buffer.
func (dec *Decoder) ReadInto(dst []byte) error {
	b, err := dec.Read(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// ReadByte consumes one byte.
func (dec *Decoder) ReadByte() (byte, error) {
	b, err := dec.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 consumes a big-endian uint16.
func (dec *Decoder) ReadUint16() (uint16, error) {
	b, err := dec.Read(2)
	if err != nil {
		return 0, err
	}
	return DecodeUint16(b)
}

// ReadUint32 consumes a big-endian uint32.
func (dec *Decoder) ReadUint32() (uint32, error) {
	b, err := dec.Read(4)
	if err != nil {
		return 0, err
	}
	return DecodeUint32(b)
}

// ReadUint64 consumes a big-endian uint64.
func (dec *Decoder) ReadUint64() (uint64, error) {
	b, err := dec.Read(8)
	if err != nil {
		return 0, err
	}
	return DecodeUint64(b)
}

// ReadInt consumes a uint16 count or index.
func (dec *Decoder) ReadInt() (int, error) {
	v, err := dec.ReadUint16()
	return int(v), err
}

// ReadBytes consumes a uint16 length prefix and that many bytes. A zero
// length yields nil.
func (dec *Decoder) ReadBytes() ([]byte, error) {
	l, err := dec.ReadInt()
	if err != nil {
		return nil, err
	}
	if l == 0 {
		return nil, nil
	}
	return dec.Read(l)
}

// ReadInteger consumes a length-prefixed varint amount.
func (dec *Decoder) ReadInteger() (types.Integer, error) {
	b, err := dec.ReadBytes()
	if err != nil {
		return types.Integer{}, err
	}
	if len(b) > 0 && b[0] == 0 {
		return types.Integer{}, fmt.Errorf("%w: amount has a leading zero byte", types.ErrFormat)
	}
	return types.IntegerFromBytes(b), nil
}

// ReadMagic consumes a two-byte record marker and reports whether the record
// is present. Anything other than Magic or Null is a format error.
func (dec *Decoder) ReadMagic() (bool, error) {
	b, err := dec.Read(2)
	if err != nil {
		return false, err
	}
	switch {
	case bytes.Equal(b, Magic):
		return true, nil
	case bytes.Equal(b, Null):
		return false, nil
	default:
		return false, fmt.Errorf("%w: invalid record marker %x at offset %d", types.ErrFormat, b, dec.off-2)
	}
}

// ExpectEOF fails if unread bytes remain.
func (dec *Decoder) ExpectEOF() error {
	if r := dec.Remaining(); r != 0 {
		return fmt.Errorf("%w: %d unexpected trailing bytes", types.ErrFormat, r)
	}
	return nil
}
