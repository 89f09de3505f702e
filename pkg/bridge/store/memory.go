package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

type memoryStore struct {
	mu       sync.RWMutex
	requests map[string]*bridge.Request
}

// NewMemoryStore returns an in-process Store.
func NewMemoryStore() Store {
	return &memoryStore{requests: make(map[string]*bridge.Request)}
}

func (s *memoryStore) CreateRequest(ctx context.Context, req *bridge.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.ID]; exists {
		return fmt.Errorf("bridge request %s already exists", req.ID)
	}
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *memoryStore) GetRequest(_ context.Context, id string) (*bridge.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, bridge.ErrRequestNotFound
	}
	return r.Clone(), nil
}

func (s *memoryStore) ListRequests(_ context.Context, opts ...QueryOption) ([]*bridge.Request, error) {
	o := Apply(opts...)

	s.mu.RLock()
	out := make([]*bridge.Request, 0)
	for _, r := range s.requests {
		if o.Status != nil && r.Status != *o.Status {
			continue
		}
		if o.TargetAddress != nil && !strings.EqualFold(r.TargetAddress, *o.TargetAddress) {
			continue
		}
		if o.TargetChain != nil && r.TargetChain != *o.TargetChain {
			continue
		}
		out = append(out, r.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) BeginSubmission(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return bridge.ErrRequestNotFound
	}
	if r.SubmittedAt != nil || r.SourceTxHash != "" {
		return bridge.ErrAlreadySubmitted
	}
	submittedAt := at
	r.SubmittedAt = &submittedAt
	return nil
}

func (s *memoryStore) MarkSubmitted(ctx context.Context, id, txHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return bridge.ErrRequestNotFound
	}
	r.SourceTxHash = txHash
	return nil
}

func (s *memoryStore) Resolve(ctx context.Context, id string, status bridge.Status, at time.Time) (*bridge.Request, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("cannot resolve to non-terminal status %q", status)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, bridge.ErrRequestNotFound
	}
	if r.Status != bridge.StatusPending {
		return nil, bridge.ErrNotPending
	}
	r.Status = status
	resolvedAt := at
	r.ResolvedAt = &resolvedAt
	return r.Clone(), nil
}
