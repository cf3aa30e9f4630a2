package tx

import (
	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Builder constructs transactions incrementally.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a builder for a version-5 transaction of asset.
func NewBuilder(asset types.Hash) *Builder {
	return &Builder{tx: NewTransaction(asset)}
}

// AddInput adds an input spending output index of transaction hash.
func (b *Builder) AddInput(hash types.Hash, index uint16) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, &Input{Hash: hash, Index: index})
	return b
}

// AddScriptOutput adds an output locked to keys under a threshold script.
func (b *Builder) AddScriptOutput(amount types.Integer, keys []crypto.Key, mask crypto.Key, threshold uint8) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, &Output{
		Type:   OutputTypeScript,
		Amount: amount,
		Keys:   keys,
		Mask:   mask,
		Script: types.NewThresholdScript(threshold),
	})
	return b
}

// AddWithdrawalOutput adds a withdrawal-submit output.
func (b *Builder) AddWithdrawalOutput(amount types.Integer, w WithdrawalData) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, &Output{
		Type:       OutputTypeWithdrawalSubmit,
		Amount:     amount,
		Withdrawal: &w,
	})
	return b
}

// AddReference adds a referenced transaction hash.
func (b *Builder) AddReference(h types.Hash) *Builder {
	b.tx.References = append(b.tx.References, h)
	return b
}

// SetExtra sets the extra bytes.
func (b *Builder) SetExtra(extra []byte) *Builder {
	b.tx.Extra = extra
	return b
}

// Build returns the constructed transaction.
// Does NOT validate; Marshal validates before encoding.
func (b *Builder) Build() *Transaction {
	return b.tx
}
