// Package store persists liquidity pools.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

// Store defines liquidity pool persistence. GetPool returns
// liquidity.ErrPoolNotFound for chains without a pool.
type Store interface {
	GetPool(ctx context.Context, chainID uint64) (*liquidity.Pool, error)
	SavePool(ctx context.Context, pool *liquidity.Pool) error
	ListPools(ctx context.Context) ([]*liquidity.Pool, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	pools map[uint64]*liquidity.Pool
}

// NewMemoryStore returns an in-process Store. Pools are copied on the way in
// and out so callers never share state with the store.
func NewMemoryStore() Store {
	return &memoryStore{pools: make(map[uint64]*liquidity.Pool)}
}

func (s *memoryStore) GetPool(_ context.Context, chainID uint64) (*liquidity.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pools[chainID]
	if !ok {
		return nil, liquidity.ErrPoolNotFound
	}
	return p.Clone(), nil
}

func (s *memoryStore) SavePool(_ context.Context, pool *liquidity.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pools[pool.ChainID] = pool.Clone()
	return nil
}

func (s *memoryStore) ListPools(_ context.Context) ([]*liquidity.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*liquidity.Pool, 0, len(s.pools))
	for _, p := range s.pools {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out, nil
}
