package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places carried by an Integer.
const Precision = 8

// Integer is a non-negative asset amount with fixed precision. It is stored
// as the amount multiplied by 10^Precision.
type Integer struct {
	i *big.Int
}

// NewInteger returns an Integer holding x whole units.
func NewInteger(x uint64) Integer {
	v := new(big.Int).SetUint64(x)
	return Integer{i: v.Mul(v, big.NewInt(1e8))}
}

// NewIntegerFromString parses a decimal amount such as "0.5" or "12.34567891".
// Digits beyond Precision are rounded half away from zero.
func NewIntegerFromString(s string) (Integer, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Integer{}, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	if d.Sign() < 0 {
		return Integer{}, fmt.Errorf("%w: negative amount %q", ErrValidation, s)
	}
	return Integer{i: d.Shift(Precision).Round(0).BigInt()}, nil
}

// IntegerFromBytes builds an Integer from its minimal big-endian wire form.
func IntegerFromBytes(b []byte) Integer {
	return Integer{i: new(big.Int).SetBytes(b)}
}

func (x Integer) value() *big.Int {
	if x.i == nil {
		return new(big.Int)
	}
	return x.i
}

// Bytes returns the minimal big-endian representation; zero is empty.
func (x Integer) Bytes() []byte {
	return x.value().Bytes()
}

// Units returns a copy of the amount scaled by 10^Precision.
func (x Integer) Units() *big.Int {
	return new(big.Int).Set(x.value())
}

// Add returns x + y.
func (x Integer) Add(y Integer) Integer {
	return Integer{i: new(big.Int).Add(x.value(), y.value())}
}

// Sub returns x - y, failing if the result would be negative.
func (x Integer) Sub(y Integer) (Integer, error) {
	if x.Cmp(y) < 0 {
		return Integer{}, fmt.Errorf("%w: %s - %s is negative", ErrValidation, x, y)
	}
	return Integer{i: new(big.Int).Sub(x.value(), y.value())}, nil
}

// Cmp compares x and y and returns -1, 0 or +1.
func (x Integer) Cmp(y Integer) int {
	return x.value().Cmp(y.value())
}

// Sign returns 0 for zero and 1 for a positive amount.
func (x Integer) Sign() int {
	return x.value().Sign()
}

// IsZero returns true if the amount is zero.
func (x Integer) IsZero() bool {
	return x.Sign() == 0
}

// String renders the amount with exactly Precision decimals, e.g. "1.50000000".
func (x Integer) String() string {
	return decimal.NewFromBigInt(x.value(), -Precision).StringFixed(Precision)
}

// MarshalJSON encodes the amount as a decimal string.
func (x Integer) MarshalJSON() ([]byte, error) {
	return json.Marshal(x.String())
}

// UnmarshalJSON decodes a decimal string amount.
func (x *Integer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewIntegerFromString(s)
	if err != nil {
		return err
	}
	*x = parsed
	return nil
}
