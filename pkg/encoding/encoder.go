package encoding

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Two-byte markers in front of optional records.
var (
	Magic = []byte{0x77, 0x77}
	Null  = []byte{0x00, 0x00}
)

// Encoder appends big-endian fields to a growing buffer. Write methods
// return an error only when a value does not fit its field width.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded bytes.
func (enc *Encoder) Bytes() []byte {
	return enc.buf
}

// Len returns the number of bytes written so far.
func (enc *Encoder) Len() int {
	return len(enc.buf)
}

// Write appends raw bytes.
func (enc *Encoder) Write(b []byte) {
	enc.buf = append(enc.buf, b...)
}

// WriteByte appends a single byte. It satisfies io.ByteWriter and never
// fails; encoders inside this module call WriteUint8.
func (enc *Encoder) WriteByte(c byte) error {
	enc.WriteUint8(c)
	return nil
}

// WriteUint8 appends a single byte.
func (enc *Encoder) WriteUint8(v uint8) {
	enc.buf = append(enc.buf, v)
}

// WriteUint16 appends a big-endian uint16.
func (enc *Encoder) WriteUint16(v uint16) {
	enc.buf = binary.BigEndian.AppendUint16(enc.buf, v)
}

// WriteUint32 appends a big-endian uint32.
func (enc *Encoder) WriteUint32(v uint32) {
	enc.buf = binary.BigEndian.AppendUint32(enc.buf, v)
}

// WriteUint64 appends a big-endian uint64.
func (enc *Encoder) WriteUint64(v uint64) {
	enc.buf = binary.BigEndian.AppendUint64(enc.buf, v)
}

// WriteInt appends a count or index as uint16.
func (enc *Encoder) WriteInt(v int) error {
	if v < 0 || v > MaxEncodingInt {
		return fmt.Errorf("%w: %d does not fit in uint16", types.ErrValidation, v)
	}
	enc.WriteUint16(uint16(v))
	return nil
}

// WriteBytes appends a uint16 length prefix followed by b.
func (enc *Encoder) WriteBytes(b []byte) error {
	if err := enc.WriteInt(len(b)); err != nil {
		return err
	}
	enc.Write(b)
	return nil
}

// WriteInteger appends an amount as a length-prefixed minimal varint.
func (enc *Encoder) WriteInteger(x types.Integer) error {
	return enc.WriteBytes(x.Bytes())
}

// WriteMagic appends the present-record marker.
func (enc *Encoder) WriteMagic() {
	enc.Write(Magic)
}

// WriteNull appends the absent-record marker.
func (enc *Encoder) WriteNull() {
	enc.Write(Null)
}
