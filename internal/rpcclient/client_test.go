package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Klingon-tech/klingnet-safe/pkg/crypto"
	"github.com/Klingon-tech/klingnet-safe/pkg/safe"
	"github.com/Klingon-tech/klingnet-safe/pkg/types"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// handlerFunc answers one decoded JSON-RPC request with a result or an error.
type handlerFunc func(method string, params json.RawMessage) (interface{}, *rpcError)

func newTestServer(t *testing.T, h handlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			ID     int             `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, rerr := h(req.Method, req.Params)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rerr != nil {
			resp["error"] = rerr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	c := New(srv.URL)
	t.Cleanup(func() {
		c.Close()
		srv.Close()
	})
	return c
}

func testKey(t *testing.T) crypto.Key {
	t.Helper()
	k, err := crypto.GenerateKey()
	require.NoError(t, err)
	return k.Public()
}

func TestListUnspentOutputs(t *testing.T) {
	asset := crypto.NewHash([]byte("asset"))
	key := testKey(t)
	members := []string{"7ed9292d-7c95-4333-a48a-8c640064186a"}

	c := newTestServer(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		assert.Equal(t, MethodListOutputs, method)
		var p ListOutputsParams
		assert.NoError(t, json.Unmarshal(params, &p))
		assert.Equal(t, asset, p.Asset)
		assert.Equal(t, members, p.Members)
		assert.Equal(t, uint8(1), p.Threshold)
		return []*safe.UTXO{{
			TransactionHash:    crypto.NewHash([]byte("tx")),
			OutputIndex:        3,
			Asset:              asset,
			Amount:             types.NewInteger(250),
			Keys:               []crypto.Key{key},
			Mask:               key,
			Receivers:          members,
			ReceiversThreshold: 1,
		}}, nil
	})

	utxos, err := c.ListUnspentOutputs(context.Background(), asset, members, 1)
	require.NoError(t, err)
	require.Len(t, utxos, 1)
	assert.Equal(t, uint16(3), utxos[0].OutputIndex)
	assert.Equal(t, "250.00000000", utxos[0].Amount.String())
	assert.Equal(t, key, utxos[0].Keys[0])
}

func TestIssueGhostKeys(t *testing.T) {
	key := testKey(t)
	c := newTestServer(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		assert.Equal(t, MethodGhostKeys, method)
		var p GhostKeysParams
		assert.NoError(t, json.Unmarshal(params, &p))
		sets := make([]*safe.GhostKeySet, len(p.Requests))
		for i := range p.Requests {
			sets[i] = &safe.GhostKeySet{Mask: key, Keys: []crypto.Key{key}}
		}
		return sets, nil
	})

	sets, err := c.IssueGhostKeys(context.Background(), []*safe.GhostKeyRequest{
		{Receivers: []string{"a"}, Index: 0, Hint: "h0"},
		{Receivers: []string{"b"}, Index: 1, Hint: "h1"},
	})
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, key, sets[1].Mask)
}

func TestIssueGhostKeys_CountMismatch(t *testing.T) {
	c := newTestServer(t, func(string, json.RawMessage) (interface{}, *rpcError) {
		return []*safe.GhostKeySet{}, nil
	})
	_, err := c.IssueGhostKeys(context.Background(), []*safe.GhostKeyRequest{{Receivers: []string{"a"}}})
	assert.ErrorIs(t, err, safe.ErrLedgerUnavailable)
}

func TestCreateAndSubmit(t *testing.T) {
	view, err := crypto.GenerateKey()
	require.NoError(t, err)
	txHash := crypto.NewHash([]byte("tx"))

	c := newTestServer(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		var p RawTransactionParams
		assert.NoError(t, json.Unmarshal(params, &p))
		assert.Equal(t, "req-1", p.RequestID)
		assert.Equal(t, "77770005", p.Raw)
		switch method {
		case MethodCreateRequest:
			return map[string]interface{}{
				"request_id":       p.RequestID,
				"transaction_hash": txHash.String(),
				"state":            "initial",
				"views":            []string{view.Hex()},
			}, nil
		case MethodSubmitTransaction:
			return safe.Receipt{RequestID: p.RequestID, TransactionHash: txHash, State: "pending"}, nil
		}
		return nil, &rpcError{Code: -32601, Message: "method not found"}
	})

	req, err := c.CreateTransactionRequest(context.Background(), "req-1", "77770005")
	require.NoError(t, err)
	assert.Equal(t, txHash, req.TransactionHash)
	require.Len(t, req.Views, 1)
	assert.Equal(t, view.Public(), req.Views[0].Public())

	receipt, err := c.SubmitTransaction(context.Background(), "req-1", "77770005")
	require.NoError(t, err)
	assert.Equal(t, "pending", receipt.State)
}

func TestCall_RPCError(t *testing.T) {
	c := newTestServer(t, func(string, json.RawMessage) (interface{}, *rpcError) {
		return nil, &rpcError{Code: -32000, Message: "insufficient outputs"}
	})

	err := c.Call(context.Background(), "safe_anything", nil, nil)
	var rerr *RPCError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, -32000, rerr.Code)
	assert.False(t, errors.Is(err, safe.ErrLedgerUnavailable))
}

func TestCall_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c := New(endpoint)
	defer c.Close()
	err := c.Call(context.Background(), MethodListOutputs, nil, nil)
	assert.ErrorIs(t, err, safe.ErrLedgerUnavailable)
}

func TestCall_ContextCanceled(t *testing.T) {
	c := newTestServer(t, func(string, json.RawMessage) (interface{}, *rpcError) {
		return "ok", nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Call(ctx, MethodListOutputs, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCall_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	c := New(srv.URL)
	defer func() {
		c.Close()
		srv.Close()
	}()

	for i := 0; i < 21; i++ {
		err := c.Call(context.Background(), MethodListOutputs, nil, nil)
		require.ErrorIs(t, err, safe.ErrLedgerUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, c.cb.State())

	err := c.Call(context.Background(), MethodListOutputs, nil, nil)
	assert.ErrorIs(t, err, safe.ErrLedgerUnavailable)
	assert.Contains(t, err.Error(), gobreaker.ErrOpenState.Error())
	assert.Equal(t, int32(21), hits.Load())
}
