// Package safe builds and signs safe transactions: it checks that the spent
// outputs belong to one group, nets amounts into change, resolves one-time
// keys for every output and signs each input with its recovered key.
package safe

import (
	"context"
	"errors"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// ErrLedgerUnavailable wraps failures of the ledger service. Callers may retry.
var ErrLedgerUnavailable = errors.New("ledger service unavailable")

// UTXO is an unspent output owned by a group of receivers.
type UTXO struct {
	TransactionHash    types.Hash    `json:"transaction_hash"`
	OutputIndex        uint16        `json:"output_index"`
	Asset              types.Hash    `json:"asset"`
	Amount             types.Integer `json:"amount"`
	Keys               []crypto.Key  `json:"keys"`
	Mask               crypto.Key    `json:"mask"`
	Receivers          []string      `json:"receivers"`
	ReceiversThreshold uint8         `json:"receivers_threshold"`
}

// Outpoint returns the output reference.
func (u *UTXO) Outpoint() types.Outpoint {
	return types.Outpoint{Hash: u.TransactionHash, Index: u.OutputIndex}
}

// GhostKeyRequest asks the ledger for one-time keys of an identifier group.
type GhostKeyRequest struct {
	Receivers []string `json:"receivers"`
	Index     uint16   `json:"index"`
	Hint      string   `json:"hint"`
}

// GhostKeySet is the mask and one key per receiver for one output index.
type GhostKeySet struct {
	Mask crypto.Key   `json:"mask"`
	Keys []crypto.Key `json:"keys"`
}

// TransactionRequest is the ledger's record of an unsigned transaction. Views
// holds one private view key per input.
type TransactionRequest struct {
	RequestID       string              `json:"request_id"`
	TransactionHash types.Hash          `json:"transaction_hash"`
	State           string              `json:"state"`
	Views           []crypto.PrivateKey `json:"views"`
}

// Receipt reports a submitted transaction.
type Receipt struct {
	RequestID       string     `json:"request_id"`
	TransactionHash types.Hash `json:"transaction_hash"`
	State           string     `json:"state"`
}

// GhostKeyIssuer issues one-time keys for identifier groups. Responses are in
// request order.
type GhostKeyIssuer interface {
	IssueGhostKeys(ctx context.Context, requests []*GhostKeyRequest) ([]*GhostKeySet, error)
}

// LedgerService is the remote ledger used to fund, register and submit transactions.
type LedgerService interface {
	GhostKeyIssuer
	ListUnspentOutputs(ctx context.Context, asset types.Hash, members []string, threshold uint8) ([]*UTXO, error)
	CreateTransactionRequest(ctx context.Context, requestID, raw string) (*TransactionRequest, error)
	SubmitTransaction(ctx context.Context, requestID, raw string) (*Receipt, error)
}
