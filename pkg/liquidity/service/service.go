// Package service implements liquidity pool management.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/crosschain-bridge/pkg/app/errors"
	"github.com/chainsafe/crosschain-bridge/pkg/chain"
	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

const defaultDecimals = 18

// Store is the narrow persistence interface used by the liquidity service.
type Store interface {
	GetPool(ctx context.Context, chainID uint64) (*liquidity.Pool, error)
	SavePool(ctx context.Context, pool *liquidity.Pool) error
	ListPools(ctx context.Context) ([]*liquidity.Pool, error)
}

// ChainLookup resolves chain descriptors, used for currency precision.
type ChainLookup interface {
	Get(id uint64) (chain.Descriptor, bool)
}

// Service manages per-chain liquidity pools.
//
// Reserve, Release and Consume are used by the bridge to lock liquidity for
// in-flight requests and settle it once they resolve.
type Service interface {
	GetLiquidity(ctx context.Context, chainID uint64) (*liquidity.Pool, error)
	ListPools(ctx context.Context) ([]*liquidity.Pool, error)
	AddLiquidity(ctx context.Context, chainID uint64, amount *big.Int) (*liquidity.Pool, error)
	RemoveLiquidity(ctx context.Context, chainID uint64, amount *big.Int) (*liquidity.Pool, error)
	Reserve(ctx context.Context, chainID uint64, amount *big.Int) error
	Release(ctx context.Context, chainID uint64, amount *big.Int) error
	Consume(ctx context.Context, chainID uint64, amount *big.Int) error
}

type liquidityService struct {
	store     Store
	chains    ChainLookup
	preferred map[uint64]struct{}
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// NewService creates a liquidity service. Pools on preferred chains receive
// a yield bonus.
func NewService(store Store, chains ChainLookup, preferred []uint64, logger *zap.Logger) Service {
	pref := make(map[uint64]struct{}, len(preferred))
	for _, id := range preferred {
		pref[id] = struct{}{}
	}
	return &liquidityService{
		store:     store,
		chains:    chains,
		preferred: pref,
		logger:    logger,
		now:       time.Now,
		locks:     make(map[uint64]*sync.Mutex),
	}
}

func (s *liquidityService) GetLiquidity(ctx context.Context, chainID uint64) (*liquidity.Pool, error) {
	pool, err := s.store.GetPool(ctx, chainID)
	if errors.Is(err, liquidity.ErrPoolNotFound) {
		s.logger.Warn("No liquidity recorded, returning synthetic pool",
			zap.Uint64("chain_id", chainID),
		)
		return liquidity.Placeholder(chainID, s.decimals(chainID)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	return pool, nil
}

func (s *liquidityService) ListPools(ctx context.Context) ([]*liquidity.Pool, error) {
	pools, err := s.store.ListPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	return pools, nil
}

func (s *liquidityService) AddLiquidity(ctx context.Context, chainID uint64, amount *big.Int) (*liquidity.Pool, error) {
	return s.mutate(ctx, chainID, amount, func(p *liquidity.Pool) error {
		p.Add(amount)
		return nil
	})
}

func (s *liquidityService) RemoveLiquidity(ctx context.Context, chainID uint64, amount *big.Int) (*liquidity.Pool, error) {
	return s.mutate(ctx, chainID, amount, func(p *liquidity.Pool) error {
		return p.Remove(amount)
	})
}

func (s *liquidityService) Reserve(ctx context.Context, chainID uint64, amount *big.Int) error {
	_, err := s.mutate(ctx, chainID, amount, func(p *liquidity.Pool) error {
		return p.Reserve(amount)
	})
	return err
}

func (s *liquidityService) Release(ctx context.Context, chainID uint64, amount *big.Int) error {
	_, err := s.mutate(ctx, chainID, amount, func(p *liquidity.Pool) error {
		return p.Release(amount)
	})
	return err
}

func (s *liquidityService) Consume(ctx context.Context, chainID uint64, amount *big.Int) error {
	_, err := s.mutate(ctx, chainID, amount, func(p *liquidity.Pool) error {
		return p.Consume(amount)
	})
	return err
}

// mutate applies fn to the chain's pool under the chain lock and writes the
// result through to the store before the lock is released. A failing fn
// leaves the stored pool untouched.
func (s *liquidityService) mutate(
	ctx context.Context,
	chainID uint64,
	amount *big.Int,
	fn func(p *liquidity.Pool) error,
) (*liquidity.Pool, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, apperrors.BadRequestError(chain.ErrInvalidAmount, "amount must be a positive integer")
	}
	if !chain.ValidID(chainID) {
		return nil, apperrors.BadRequestError(chain.ErrInvalidChainID, "invalid chain id")
	}

	unlock := s.lock(chainID)
	defer unlock()

	pool, err := s.store.GetPool(ctx, chainID)
	switch {
	case errors.Is(err, liquidity.ErrPoolNotFound):
		pool = liquidity.NewPool(chainID)
	case err != nil:
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}

	if err := fn(pool); err != nil {
		return nil, s.mapPoolError(chainID, err)
	}

	pool.APY = s.yield(pool)
	pool.UpdatedAt = s.now().UTC()

	if err := s.store.SavePool(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to save pool: %w", err)
	}
	return pool.Clone(), nil
}

func (s *liquidityService) mapPoolError(chainID uint64, err error) error {
	switch {
	case errors.Is(err, liquidity.ErrInsufficientLiquidity):
		return apperrors.UnprocessableError(
			fmt.Errorf("chain %d: %w", chainID, err),
			fmt.Sprintf("insufficient liquidity on chain %d", chainID),
		)
	case errors.Is(err, liquidity.ErrInsufficientLocked):
		return fmt.Errorf("chain %d: %w", chainID, err)
	default:
		return err
	}
}

func (s *liquidityService) lock(chainID uint64) func() {
	s.mu.Lock()
	l, ok := s.locks[chainID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chainID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *liquidityService) yield(p *liquidity.Pool) decimal.Decimal {
	_, preferred := s.preferred[p.ChainID]
	return liquidity.ComputeAPY(p.Total, s.decimals(p.ChainID), preferred)
}

func (s *liquidityService) decimals(chainID uint64) int {
	if s.chains == nil {
		return defaultDecimals
	}
	d, ok := s.chains.Get(chainID)
	if !ok {
		return defaultDecimals
	}
	return d.NativeCurrency.Decimals
}
