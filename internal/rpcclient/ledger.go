package rpcclient

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-safe/pkg/safe"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
)

// Ledger method names.
const (
	MethodListOutputs       = "safe_listOutputs"
	MethodGhostKeys         = "safe_ghostKeys"
	MethodCreateRequest     = "safe_createRequest"
	MethodSubmitTransaction = "safe_submitTransaction"
)

var _ safe.LedgerService = (*Client)(nil)

// ListOutputsParams is the parameter object of safe_listOutputs.
type ListOutputsParams struct {
	Asset     types.Hash `json:"asset"`
	Members   []string   `json:"members"`
	Threshold uint8      `json:"threshold"`
}

// GhostKeysParams is the parameter object of safe_ghostKeys.
type GhostKeysParams struct {
	Requests []*safe.GhostKeyRequest `json:"requests"`
}

// RawTransactionParams carries a hex transaction for a request id.
type RawTransactionParams struct {
	RequestID string `json:"request_id"`
	Raw       string `json:"raw"`
}

// ListUnspentOutputs returns the unspent outputs of asset owned by the group.
func (c *Client) ListUnspentOutputs(ctx context.Context, asset types.Hash, members []string, threshold uint8) ([]*safe.UTXO, error) {
	var utxos []*safe.UTXO
	err := c.Call(ctx, MethodListOutputs, ListOutputsParams{
		Asset:     asset,
		Members:   members,
		Threshold: threshold,
	}, &utxos)
	if err != nil {
		return nil, err
	}
	return utxos, nil
}

// IssueGhostKeys requests one-time keys for identifier groups in one call.
func (c *Client) IssueGhostKeys(ctx context.Context, requests []*safe.GhostKeyRequest) ([]*safe.GhostKeySet, error) {
	var sets []*safe.GhostKeySet
	if err := c.Call(ctx, MethodGhostKeys, GhostKeysParams{Requests: requests}, &sets); err != nil {
		return nil, err
	}
	if len(sets) != len(requests) {
		return nil, fmt.Errorf("%w: got %d key sets for %d requests", safe.ErrLedgerUnavailable, len(sets), len(requests))
	}
	return sets, nil
}

// CreateTransactionRequest registers an unsigned transaction with the ledger.
func (c *Client) CreateTransactionRequest(ctx context.Context, requestID, raw string) (*safe.TransactionRequest, error) {
	var req safe.TransactionRequest
	err := c.Call(ctx, MethodCreateRequest, RawTransactionParams{RequestID: requestID, Raw: raw}, &req)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// SubmitTransaction sends a signed transaction for a request.
func (c *Client) SubmitTransaction(ctx context.Context, requestID, raw string) (*safe.Receipt, error) {
	var receipt safe.Receipt
	err := c.Call(ctx, MethodSubmitTransaction, RawTransactionParams{RequestID: requestID, Raw: raw}, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
