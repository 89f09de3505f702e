package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
	"github.com/chainsafe/crosschain-bridge/pkg/chain"
)

func newBridgeTestServer(t *testing.T, mutating ...func(http.Handler) http.Handler) (http.Handler, *testEnv) {
	t.Helper()
	env := newTestEnv(t, true)
	env.fund(t, chain.Polygon, 1_000_000)
	r := chi.NewRouter()
	RegisterRoutes(r, env.svc, zap.NewNop(), mutating...)
	return r, env
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func initiateBody(source, target uint64, amount, addr string) string {
	b, _ := json.Marshal(map[string]any{
		"domain_id":      "example.eth",
		"source_chain":   source,
		"target_chain":   target,
		"amount":         amount,
		"target_address": addr,
	})
	return string(b)
}

func TestBridgeHTTP_InitiateAndGet(t *testing.T) {
	h, _ := newBridgeTestServer(t)

	rec := do(h, http.MethodPost, "/bridge", initiateBody(chain.Ethereum, chain.Polygon, "10000", recipient))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d: %s", http.StatusAccepted, rec.Code, rec.Body.String())
	}
	var created bridge.RequestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if created.Status != bridge.StatusPending || created.Fee != "15" || created.EstimatedMinutes != 25 {
		t.Fatalf("unexpected response: %+v", created)
	}

	rec = do(h, http.MethodGet, "/bridge/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	rec = do(h, http.MethodGet, "/bridge/pending", "")
	var pending struct {
		Requests []bridge.RequestResponse `json:"requests"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if len(pending.Requests) != 1 || pending.Requests[0].ID != created.ID {
		t.Fatalf("unexpected pending list: %+v", pending)
	}
}

func TestBridgeHTTP_InitiateErrors(t *testing.T) {
	h, _ := newBridgeTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"missing fields", `{"amount":"1"}`, http.StatusBadRequest},
		{"non numeric amount", initiateBody(chain.Ethereum, chain.Polygon, "1.5", recipient), http.StatusBadRequest},
		{"zero amount", initiateBody(chain.Ethereum, chain.Polygon, "0", recipient), http.StatusBadRequest},
		{"same chain", initiateBody(chain.Polygon, chain.Polygon, "10", recipient), http.StatusBadRequest},
		{"unsupported chain", initiateBody(chain.Ethereum, 77, "10", recipient), http.StatusBadRequest},
		{"bad address", initiateBody(chain.Ethereum, chain.Polygon, "10", "0x123"), http.StatusBadRequest},
		{"insufficient liquidity", initiateBody(chain.Ethereum, chain.Base, "10", recipient), http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/bridge", tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestBridgeHTTP_NotFound(t *testing.T) {
	h, _ := newBridgeTestServer(t)

	rec := do(h, http.MethodGet, "/bridge/does-not-exist", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestBridgeHTTP_HistoryAndVolume(t *testing.T) {
	h, env := newBridgeTestServer(t)

	rec := do(h, http.MethodPost, "/bridge", initiateBody(chain.Ethereum, chain.Polygon, "500", recipient))
	var created bridge.RequestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if _, err := env.store.Resolve(t.Context(), created.ID, bridge.StatusConfirmed, created.CreatedAt); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	rec = do(h, http.MethodGet, "/bridge/history/"+recipient, "")
	var history struct {
		Requests []bridge.RequestResponse `json:"requests"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if len(history.Requests) != 1 || history.Requests[0].Status != bridge.StatusConfirmed {
		t.Fatalf("unexpected history: %+v", history)
	}

	rec = do(h, http.MethodGet, "/bridge/volume", "")
	var volume bridge.VolumeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &volume); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if volume.Total != "500" || volume.ByChain["137"] != "500" {
		t.Fatalf("unexpected volume: %+v", volume)
	}
}

func TestBridgeHTTP_Estimate(t *testing.T) {
	h, _ := newBridgeTestServer(t)

	rec := do(h, http.MethodGet, "/estimate?source=1&target=137&amount=10000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var est bridge.EstimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &est); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if est.Fee != "15" || est.EstimatedMinutes != 25 {
		t.Fatalf("unexpected estimate: %+v", est)
	}

	for _, q := range []string{"source=x&target=137&amount=1", "source=1&target=137&amount=-1", "source=1&target=5&amount=1"} {
		rec := do(h, http.MethodGet, "/estimate?"+q, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", q, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestBridgeHTTP_MiddlewareGuardsInitiateOnly(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	h, _ := newBridgeTestServer(t, deny)

	if rec := do(h, http.MethodPost, "/bridge", initiateBody(chain.Ethereum, chain.Polygon, "1", recipient)); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d, got %d", http.StatusTooManyRequests, rec.Code)
	}
	if rec := do(h, http.MethodGet, "/bridge/volume", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}
