// Package pg implements the liquidity pool store on PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/chainsafe/crosschain-bridge/pkg/chain"
	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
	"github.com/chainsafe/crosschain-bridge/pkg/liquidity/store"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the liquidity store
func NewStore(db *bun.DB) store.Store {
	return &pgStore{db: db}
}

func (s *pgStore) GetPool(ctx context.Context, chainID uint64) (*liquidity.Pool, error) {
	dao := new(PoolDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("chain_id = ?", int64(chainID)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, liquidity.ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	return fromPoolDao(dao)
}

func (s *pgStore) SavePool(ctx context.Context, pool *liquidity.Pool) error {
	if !chain.ValidID(pool.ChainID) {
		return fmt.Errorf("pool %d: %w", pool.ChainID, chain.ErrInvalidChainID)
	}
	_, err := s.db.NewInsert().
		Model(toPoolDao(pool)).
		On("CONFLICT (chain_id) DO UPDATE").
		Set("total = EXCLUDED.total").
		Set("available = EXCLUDED.available").
		Set("locked = EXCLUDED.locked").
		Set("apy = EXCLUDED.apy").
		Set("providers = EXCLUDED.providers").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save pool: %w", err)
	}
	return nil
}

func (s *pgStore) ListPools(ctx context.Context) ([]*liquidity.Pool, error) {
	var daos []PoolDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("chain_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	pools := make([]*liquidity.Pool, 0, len(daos))
	for i := range daos {
		p, err := fromPoolDao(&daos[i])
		if err != nil {
			return nil, fmt.Errorf("pool %d: %w", daos[i].ChainID, err)
		}
		pools = append(pools, p)
	}
	return pools, nil
}
