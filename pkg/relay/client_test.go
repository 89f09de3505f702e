package relay

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

type rpcRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     int             `json:"id"`
}

// newRelayer serves JSON-RPC, answering each call with handle's result or error.
func newRelayer(t *testing.T, handle func(method string, params json.RawMessage) (any, map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode rpc request: %v", err)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		result, rpcErr := handle(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string) *Client {
	return NewClient(Config{URL: url, APIKey: "secret", Timeout: time.Second}, zap.NewNop())
}

func testRequest() *bridge.Request {
	return &bridge.Request{
		ID:            "req-1",
		DomainID:      "example.eth",
		SourceChain:   1,
		TargetChain:   137,
		Amount:        big.NewInt(10_000),
		Fee:           big.NewInt(15),
		TargetAddress: "0x52908400098527886E0F7030069857D2E4169EE7",
	}
}

func TestClient_Submit(t *testing.T) {
	srv := newRelayer(t, func(method string, params json.RawMessage) (any, map[string]any) {
		assert.Equal(t, methodSubmitTransfer, method)
		var p TransferParams
		assert.NoError(t, json.Unmarshal(params, &p))
		assert.Equal(t, "req-1", p.RequestID)
		assert.Equal(t, "10000", p.Amount)
		assert.Equal(t, "15", p.Fee)
		return SubmitResult{TxHash: "0xabc"}, nil
	})

	ack, err := newTestClient(srv.URL).SubmitBridgeTransaction(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "0xabc", ack.TxHash)
}

func TestClient_SubmitEmptyAck(t *testing.T) {
	srv := newRelayer(t, func(string, json.RawMessage) (any, map[string]any) {
		return SubmitResult{}, nil
	})

	_, err := newTestClient(srv.URL).SubmitBridgeTransaction(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrEmptyAck)
}

func TestClient_RPCError(t *testing.T) {
	srv := newRelayer(t, func(string, json.RawMessage) (any, map[string]any) {
		return nil, map[string]any{"code": -32000, "message": "route paused"}
	})

	_, err := newTestClient(srv.URL).SubmitBridgeTransaction(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "route paused")
}

func TestClient_CheckStatus(t *testing.T) {
	statuses := map[string]string{"req-1": "confirmed", "req-2": "pending", "req-3": "exploded"}
	srv := newRelayer(t, func(method string, params json.RawMessage) (any, map[string]any) {
		assert.Equal(t, methodGetTransferStatus, method)
		var ids []string
		if err := json.Unmarshal(params, &ids); err != nil || len(ids) != 1 {
			return nil, map[string]any{"code": -32602, "message": "invalid params"}
		}
		return StatusResult{Status: statuses[ids[0]]}, nil
	})
	c := newTestClient(srv.URL)
	ctx := context.Background()

	st, err := c.CheckBridgeStatus(ctx, &bridge.Request{ID: "req-1"})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusConfirmed, st)

	st, err = c.CheckBridgeStatus(ctx, &bridge.Request{ID: "req-2"})
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusPending, st)

	_, err = c.CheckBridgeStatus(ctx, &bridge.Request{ID: "req-3"})
	assert.Error(t, err)
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CheckBridgeStatus(ctx, &bridge.Request{ID: "req-1"})
	assert.ErrorIs(t, err, context.Canceled)
}
