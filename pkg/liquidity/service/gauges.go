package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/chainsafe/crosschain-bridge/internal/metrics"
	"github.com/chainsafe/crosschain-bridge/pkg/chain"
	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

// PoolLister lists the recorded pools.
type PoolLister interface {
	ListPools(ctx context.Context) ([]*liquidity.Pool, error)
}

// RefreshGauges sets the pool balance and yield gauges from the recorded
// pools. Synthetic pools are not reported. It returns the number of pools exported.
func RefreshGauges(ctx context.Context, pools PoolLister, chains ChainLookup) (int, error) {
	list, err := pools.ListPools(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pools: %w", err)
	}

	n := 0
	for _, p := range list {
		if p.Synthetic {
			continue
		}
		decimals := defaultDecimals
		if d, ok := chains.Get(p.ChainID); ok {
			decimals = d.NativeCurrency.Decimals
		}
		label := strconv.FormatUint(p.ChainID, 10)

		metrics.PoolLiquidity.WithLabelValues(label, "total").Set(chain.ToUnits(p.Total, decimals).InexactFloat64())
		metrics.PoolLiquidity.WithLabelValues(label, "available").Set(chain.ToUnits(p.Available, decimals).InexactFloat64())
		metrics.PoolLiquidity.WithLabelValues(label, "locked").Set(chain.ToUnits(p.Locked, decimals).InexactFloat64())
		metrics.PoolAPY.WithLabelValues(label).Set(p.APY.InexactFloat64())
		n++
	}
	return n, nil
}
