package types

import "fmt"

// Outpoint references a specific output of a ledger transaction.
type Outpoint struct {
	Hash  Hash   `json:"transaction_hash"`
	Index uint16 `json:"output_index"`
}

// IsZero returns true if the outpoint has a zero hash and zero index.
func (o Outpoint) IsZero() bool {
	return o.Hash.IsZero() && o.Index == 0
}

// String returns "hash:index" in hex.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash.String(), o.Index)
}
