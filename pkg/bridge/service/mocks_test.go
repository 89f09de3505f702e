package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge/store"
)

// MockSubmitter is a mock implementation of bridge.Submitter
type MockSubmitter struct {
	SubmitBridgeTransactionFunc func(ctx context.Context, req *bridge.Request) (*bridge.Ack, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockSubmitter) SubmitBridgeTransaction(ctx context.Context, req *bridge.Request) (*bridge.Ack, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req.ID)
	m.mu.Unlock()
	if m.SubmitBridgeTransactionFunc != nil {
		return m.SubmitBridgeTransactionFunc(ctx, req)
	}
	return &bridge.Ack{TxHash: "0x" + req.ID}, nil
}

func (m *MockSubmitter) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockOracle is a mock implementation of bridge.StatusOracle
type MockOracle struct {
	CheckBridgeStatusFunc func(ctx context.Context, req *bridge.Request) (bridge.Status, error)

	mu    sync.Mutex
	calls int
}

func (m *MockOracle) CheckBridgeStatus(ctx context.Context, req *bridge.Request) (bridge.Status, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.CheckBridgeStatusFunc != nil {
		return m.CheckBridgeStatusFunc(ctx, req)
	}
	return bridge.StatusPending, nil
}

func (m *MockOracle) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockTracker records tracked requests
type MockTracker struct {
	mu      sync.Mutex
	tracked []*bridge.Request
}

func (m *MockTracker) Track(req *bridge.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracked = append(m.tracked, req)
}

func (m *MockTracker) Tracked() []*bridge.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*bridge.Request(nil), m.tracked...)
}

// failingStore wraps a store and fails selected operations
type failingStore struct {
	store.Store
	CreateErr  error
	BeginErr   error
	MarkErr    error
	ResolveErr error
	// ResolveLostErr is returned after the wrapped store committed the transition.
	ResolveLostErr error
}

func (s *failingStore) BeginSubmission(ctx context.Context, id string, at time.Time) error {
	if s.BeginErr != nil {
		return s.BeginErr
	}
	return s.Store.BeginSubmission(ctx, id, at)
}

func (s *failingStore) MarkSubmitted(ctx context.Context, id, txHash string) error {
	if s.MarkErr != nil {
		return s.MarkErr
	}
	return s.Store.MarkSubmitted(ctx, id, txHash)
}

func (s *failingStore) CreateRequest(ctx context.Context, req *bridge.Request) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	return s.Store.CreateRequest(ctx, req)
}

func (s *failingStore) Resolve(ctx context.Context, id string, status bridge.Status, at time.Time) (*bridge.Request, error) {
	if s.ResolveErr != nil {
		return nil, s.ResolveErr
	}
	if s.ResolveLostErr != nil {
		if _, err := s.Store.Resolve(ctx, id, status, at); err != nil {
			return nil, err
		}
		return nil, s.ResolveLostErr
	}
	return s.Store.Resolve(ctx, id, status, at)
}

// recordingListener collects resolved requests
type recordingListener struct {
	mu       sync.Mutex
	resolved []*bridge.Request
}

func (l *recordingListener) BridgeResolved(_ context.Context, req *bridge.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolved = append(l.resolved, req)
}

func (l *recordingListener) Resolved() []*bridge.Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*bridge.Request(nil), l.resolved...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var errBoom = errors.New("boom")
