package pg

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge/store"
	"github.com/chainsafe/crosschain-bridge/pkg/pgutil"
	mghelper "github.com/chainsafe/crosschain-bridge/pkg/pgutil/migrations"
)

func setupStore(t *testing.T) (context.Context, *pgStore) {
	t.Helper()

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := mghelper.CreateSchema(ctx, db, &RequestDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return ctx, &pgStore{db: db}
}

func newRequest(id string, created time.Time, addr string) *bridge.Request {
	amount, _ := new(big.Int).SetString("1000000000000000000000", 10)
	return &bridge.Request{
		ID:               id,
		DomainID:         "example.eth",
		SourceChain:      1,
		TargetChain:      137,
		Amount:           amount,
		Fee:              big.NewInt(10),
		TargetAddress:    addr,
		Status:           bridge.StatusPending,
		EstimatedMinutes: 5,
		Reserved:         true,
		CreatedAt:        created.UTC().Truncate(time.Microsecond),
	}
}

func TestPGStore_CreateAndGet(t *testing.T) {
	ctx, s := setupStore(t)

	req := newRequest("req-1", time.Now(), "0xAbCd")
	if err := s.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	got, err := s.GetRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if got.Amount.Cmp(req.Amount) != 0 {
		t.Fatalf("amount mismatch: got %s want %s", got.Amount, req.Amount)
	}
	if got.Status != bridge.StatusPending || !got.Reserved || got.SourceTxHash != "" {
		t.Fatalf("unexpected request: %+v", got)
	}

	if _, err := s.GetRequest(ctx, "missing"); !errors.Is(err, bridge.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestPGStore_ResolveOnlyFromPending(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.CreateRequest(ctx, newRequest("req-1", time.Now(), "0x1")); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	got, err := s.Resolve(ctx, "req-1", bridge.StatusConfirmed, time.Now())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Status != bridge.StatusConfirmed || got.ResolvedAt == nil {
		t.Fatalf("unexpected resolved request: %+v", got)
	}

	if _, err := s.Resolve(ctx, "req-1", bridge.StatusFailed, time.Now()); !errors.Is(err, bridge.ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
	if _, err := s.Resolve(ctx, "missing", bridge.StatusFailed, time.Now()); !errors.Is(err, bridge.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestPGStore_ResolveReturnsUpdatedRow(t *testing.T) {
	ctx, s := setupStore(t)

	req := newRequest("req-1", time.Now(), "0xAbCd")
	if err := s.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	at := time.Now().UTC().Truncate(time.Microsecond)

	got, err := s.Resolve(ctx, "req-1", bridge.StatusFailed, at)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.ID != "req-1" || got.Status != bridge.StatusFailed {
		t.Fatalf("unexpected resolved request: %+v", got)
	}
	if got.Amount.Cmp(req.Amount) != 0 || got.TargetChain != req.TargetChain || !got.Reserved {
		t.Fatalf("resolved row lost request fields: %+v", got)
	}
	if got.TargetAddress != "0xAbCd" {
		t.Fatalf("expected target address 0xAbCd, got %q", got.TargetAddress)
	}
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(at) {
		t.Fatalf("expected resolved_at %v, got %v", at, got.ResolvedAt)
	}
}

func TestPGStore_BeginSubmissionOnce(t *testing.T) {
	ctx, s := setupStore(t)

	if err := s.CreateRequest(ctx, newRequest("req-1", time.Now(), "0x1")); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}
	at := time.Now().UTC().Truncate(time.Microsecond)

	if err := s.BeginSubmission(ctx, "req-1", at); err != nil {
		t.Fatalf("BeginSubmission failed: %v", err)
	}
	if err := s.BeginSubmission(ctx, "req-1", at); !errors.Is(err, bridge.ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if err := s.BeginSubmission(ctx, "missing", at); !errors.Is(err, bridge.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}

	got, err := s.GetRequest(ctx, "req-1")
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(at) {
		t.Fatalf("expected submitted_at %v, got %v", at, got.SubmittedAt)
	}
}

func TestPGStore_ListRequests(t *testing.T) {
	ctx, s := setupStore(t)
	t0 := time.Now()

	for i, addr := range []string{"0xAAA", "0xaaa", "0xBBB"} {
		req := newRequest(string(rune('a'+i)), t0.Add(time.Duration(i)*time.Second), addr)
		if err := s.CreateRequest(ctx, req); err != nil {
			t.Fatalf("CreateRequest failed: %v", err)
		}
	}
	if _, err := s.Resolve(ctx, "a", bridge.StatusConfirmed, t0); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := s.MarkSubmitted(ctx, "b", "0xfeed"); err != nil {
		t.Fatalf("MarkSubmitted failed: %v", err)
	}

	pending, err := s.ListRequests(ctx, store.WithStatus(bridge.StatusPending))
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "b" || pending[1].ID != "c" {
		t.Fatalf("unexpected pending list: %+v", pending)
	}
	if pending[0].SourceTxHash != "0xfeed" {
		t.Fatalf("expected tx hash on b, got %q", pending[0].SourceTxHash)
	}

	history, err := s.ListRequests(ctx, store.WithTargetAddress("0xaAa"), store.WithStatus(bridge.StatusConfirmed))
	if err != nil {
		t.Fatalf("ListRequests failed: %v", err)
	}
	if len(history) != 1 || history[0].ID != "a" {
		t.Fatalf("unexpected history: %+v", history)
	}
}
