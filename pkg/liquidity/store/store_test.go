package store

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetPool(ctx, 137)
	assert.ErrorIs(t, err, liquidity.ErrPoolNotFound)

	p := liquidity.NewPool(137)
	p.Add(big.NewInt(100))
	require.NoError(t, s.SavePool(ctx, p))

	// mutating the caller's copy must not leak into the store
	p.Add(big.NewInt(1))

	got, err := s.GetPool(ctx, 137)
	require.NoError(t, err)
	assert.Equal(t, "100", got.Total.String())

	got.Available.SetInt64(0)
	again, err := s.GetPool(ctx, 137)
	require.NoError(t, err)
	assert.Equal(t, "100", again.Available.String())

	require.NoError(t, s.SavePool(ctx, liquidity.NewPool(10)))
	pools, err := s.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 2)
	assert.Equal(t, uint64(10), pools[0].ChainID)
	assert.Equal(t, uint64(137), pools[1].ChainID)
}
