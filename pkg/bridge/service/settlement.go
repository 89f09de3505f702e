package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

// Settlement settles the liquidity reserved for a request once it resolves:
// delivered amounts are consumed from the target pool, reservations of failed
// or expired requests are released.
type Settlement struct {
	pools  Liquidity
	logger *zap.Logger
}

// NewSettlement creates the liquidity settlement listener.
func NewSettlement(pools Liquidity, logger *zap.Logger) *Settlement {
	return &Settlement{pools: pools, logger: logger}
}

// BridgeResolved implements bridge.Listener.
func (s *Settlement) BridgeResolved(ctx context.Context, req *bridge.Request) {
	if !req.Reserved {
		return
	}

	var err error
	action := "release"
	switch req.Status {
	case bridge.StatusConfirmed:
		action = "consume"
		err = s.pools.Consume(ctx, req.TargetChain, req.Amount)
	case bridge.StatusFailed, bridge.StatusExpired:
		err = s.pools.Release(ctx, req.TargetChain, req.Amount)
	default:
		return
	}

	if err != nil {
		s.logger.Error("Failed to settle reserved liquidity",
			zap.String("request_id", req.ID),
			zap.String("action", action),
			zap.Uint64("chain_id", req.TargetChain),
			zap.Stringer("amount", req.Amount),
			zap.Error(err),
		)
	}
}
