// Package tx defines safe transactions and their canonical binary encoding.
package tx

import (
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Transaction versions.
const (
	// TxVersionReferences is the first version that carries references.
	TxVersionReferences = 4
	// TxVersionHashSignature is the version produced by the builder.
	TxVersionHashSignature = 5
)

// Output types.
const (
	OutputTypeScript           = 0x00
	OutputTypeWithdrawalSubmit = 0xA1
)

// ExtraSizeStorageCapacity is the largest extra the network will store.
const ExtraSizeStorageCapacity = 4 * 1024 * 1024

// Transaction is a version-5 safe transaction. The signature section holds
// either SignaturesMap (one map per input, keyed by one-time key index) or
// AggregatedSignature, never both.
type Transaction struct {
	Version             uint8                          `json:"version"`
	Asset               types.Hash                     `json:"asset"`
	Inputs              []*Input                       `json:"inputs"`
	Outputs             []*Output                      `json:"outputs"`
	References          []types.Hash                   `json:"references,omitempty"`
	Extra               []byte                         `json:"-"`
	SignaturesMap       []map[uint16]*crypto.Signature `json:"signatures,omitempty"`
	AggregatedSignature *AggregatedSignature           `json:"aggregated_signature,omitempty"`
}

// Input spends an output, or carries a deposit, mint or genesis record.
type Input struct {
	Hash    types.Hash   `json:"hash"`
	Index   uint16       `json:"index"`
	Genesis []byte       `json:"-"`
	Deposit *DepositData `json:"deposit,omitempty"`
	Mint    *MintData    `json:"mint,omitempty"`
}

// DepositData describes an external chain deposit.
type DepositData struct {
	Chain           types.Hash    `json:"chain"`
	AssetKey        string        `json:"asset_key"`
	TransactionHash string        `json:"transaction_hash"`
	OutputIndex     uint64        `json:"output_index"`
	Amount          types.Integer `json:"amount"`
}

// MintData describes a mint batch.
type MintData struct {
	Group  string        `json:"group"`
	Batch  uint64        `json:"batch"`
	Amount types.Integer `json:"amount"`
}

// Output locks Amount to the one-time Keys under Script.
type Output struct {
	Type       uint8           `json:"type"`
	Amount     types.Integer   `json:"amount"`
	Keys       []crypto.Key    `json:"keys"`
	Mask       crypto.Key      `json:"mask"`
	Script     types.Script    `json:"script"`
	Withdrawal *WithdrawalData `json:"withdrawal,omitempty"`
}

// WithdrawalData is the destination of a withdrawal-submit output.
type WithdrawalData struct {
	Chain    types.Hash `json:"chain"`
	AssetKey string     `json:"asset_key"`
	Address  string     `json:"address"`
	Tag      string     `json:"tag"`
}

// AggregatedSignature is one signature over the payload hash together with
// the ascending indices of the keys that produced it.
type AggregatedSignature struct {
	Signature crypto.Signature `json:"signature"`
	Signers   []int            `json:"signers"`
}

// NewTransaction returns an empty version-5 transaction for asset.
func NewTransaction(asset types.Hash) *Transaction {
	return &Transaction{Version: TxVersionHashSignature, Asset: asset}
}

// Hash returns the BLAKE3 hash of the full encoding, signatures included.
// For an unsigned transaction it equals PayloadHash.
func (tx *Transaction) Hash() (types.Hash, error) {
	b, err := tx.Marshal()
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Blake3Hash(b), nil
}

// PayloadHash returns the BLAKE3 hash of the encoding without signatures.
// This is the transaction hash that signatures commit to.
func (tx *Transaction) PayloadHash() (types.Hash, error) {
	b, err := tx.PayloadMarshal()
	if err != nil {
		return types.Hash{}, err
	}
	return crypto.Blake3Hash(b), nil
}

// Hex returns the hex encoding of Marshal.
func (tx *Transaction) Hex() (string, error) {
	b, err := tx.Marshal()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Clone returns a deep copy.
func (tx *Transaction) Clone() *Transaction {
	c := &Transaction{
		Version:    tx.Version,
		Asset:      tx.Asset,
		References: slices.Clone(tx.References),
		Extra:      slices.Clone(tx.Extra),
	}
	for _, in := range tx.Inputs {
		ci := &Input{Hash: in.Hash, Index: in.Index, Genesis: slices.Clone(in.Genesis)}
		if in.Deposit != nil {
			d := *in.Deposit
			ci.Deposit = &d
		}
		if in.Mint != nil {
			m := *in.Mint
			ci.Mint = &m
		}
		c.Inputs = append(c.Inputs, ci)
	}
	for _, out := range tx.Outputs {
		co := &Output{
			Type:   out.Type,
			Amount: out.Amount,
			Keys:   slices.Clone(out.Keys),
			Mask:   out.Mask,
			Script: slices.Clone(out.Script),
		}
		if out.Withdrawal != nil {
			w := *out.Withdrawal
			co.Withdrawal = &w
		}
		c.Outputs = append(c.Outputs, co)
	}
	for _, sm := range tx.SignaturesMap {
		c.SignaturesMap = append(c.SignaturesMap, maps.Clone(sm))
	}
	if tx.AggregatedSignature != nil {
		c.AggregatedSignature = &AggregatedSignature{
			Signature: tx.AggregatedSignature.Signature,
			Signers:   slices.Clone(tx.AggregatedSignature.Signers),
		}
	}
	return c
}

// transactionJSON adds the hex-encoded byte fields to the JSON form.
type transactionJSON struct {
	Hash        types.Hash `json:"hash"`
	PayloadHash types.Hash `json:"payload_hash"`
	*txAlias
	Extra string `json:"extra"`
}

type txAlias Transaction

// MarshalJSON renders the transaction with its hashes and hex extra.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	h, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	ph, err := tx.PayloadHash()
	if err != nil {
		return nil, err
	}
	return json.Marshal(transactionJSON{
		Hash:        h,
		PayloadHash: ph,
		txAlias:     (*txAlias)(tx),
		Extra:       hex.EncodeToString(tx.Extra),
	})
}

type inputJSON struct {
	*inputAlias
	Genesis *string `json:"genesis,omitempty"`
}

type inputAlias Input

// MarshalJSON encodes the input with a hex genesis field.
func (in *Input) MarshalJSON() ([]byte, error) {
	j := inputJSON{inputAlias: (*inputAlias)(in)}
	if len(in.Genesis) > 0 {
		g := hex.EncodeToString(in.Genesis)
		j.Genesis = &g
	}
	return json.Marshal(j)
}
