package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

func newLiquidityTestServer(t *testing.T, mutating ...func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	r := chi.NewRouter()
	RegisterRoutes(r, svc, zap.NewNop(), mutating...)
	return r
}

func doJSON(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
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

func decodePool(t *testing.T, rec *httptest.ResponseRecorder) liquidity.PoolResponse {
	t.Helper()
	var got liquidity.PoolResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	return got
}

func TestLiquidityHTTP_GetUnfundedChain(t *testing.T) {
	h := newLiquidityTestServer(t)

	rec := doJSON(h, http.MethodGet, "/liquidity/999", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	got := decodePool(t, rec)
	if !got.Synthetic {
		t.Fatal("expected synthetic pool")
	}
	if got.Available != "750000000000000000000" {
		t.Fatalf("unexpected available %q", got.Available)
	}
}

func TestLiquidityHTTP_AddThenRemove(t *testing.T) {
	h := newLiquidityTestServer(t)

	rec := doJSON(h, http.MethodPost, "/liquidity/137/add", `{"amount":"1000"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("add: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if got := decodePool(t, rec); got.Total != "1000" || got.Providers != 1 || got.Synthetic {
		t.Fatalf("unexpected pool after add: %+v", got)
	}

	rec = doJSON(h, http.MethodPost, "/liquidity/137/remove", `{"amount":"400"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if got := decodePool(t, rec); got.Available != "600" {
		t.Fatalf("expected available 600, got %s", got.Available)
	}

	rec = doJSON(h, http.MethodPost, "/liquidity/137/remove", `{"amount":"601"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("overdraw: expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}

	rec = doJSON(h, http.MethodGet, "/liquidity", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var list struct {
		Pools []liquidity.PoolResponse `json:"pools"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list.Pools) != 1 || list.Pools[0].ChainID != 137 {
		t.Fatalf("unexpected pools: %+v", list.Pools)
	}
}

func TestLiquidityHTTP_BadInput(t *testing.T) {
	h := newLiquidityTestServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "bad chain id", path: "/liquidity/abc/add", body: `{"amount":"1"}`},
		{name: "invalid json", path: "/liquidity/1/add", body: `{`},
		{name: "missing amount", path: "/liquidity/1/add", body: `{}`},
		{name: "negative amount", path: "/liquidity/1/add", body: `{"amount":"-1"}`},
		{name: "fractional amount", path: "/liquidity/1/remove", body: `{"amount":"1.5"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(h, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func TestLiquidityHTTP_MutationsUseGuard(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	h := newLiquidityTestServer(t, deny)

	if rec := doJSON(h, http.MethodPost, "/liquidity/1/add", `{"amount":"1"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected guarded add to be rejected, got %d", rec.Code)
	}
	if rec := doJSON(h, http.MethodGet, "/liquidity/1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected reads to bypass guard, got %d", rec.Code)
	}
}
