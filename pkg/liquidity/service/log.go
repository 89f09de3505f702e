package service

import (
	"context"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

const serviceName = "LiquidityService"

// logService wraps Service with logging of every liquidity mutation
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the liquidity Service.
// Read-only calls are passed through without logging.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) GetLiquidity(ctx context.Context, chainID uint64) (*liquidity.Pool, error) {
	return ls.svc.GetLiquidity(ctx, chainID)
}

func (ls *logService) ListPools(ctx context.Context) ([]*liquidity.Pool, error) {
	return ls.svc.ListPools(ctx)
}

func (ls *logService) AddLiquidity(ctx context.Context, chainID uint64, amount *big.Int) (pool *liquidity.Pool, err error) {
	defer ls.logPoolCall("AddLiquidity", chainID, amount, time.Now(), &pool, &err)
	return ls.svc.AddLiquidity(ctx, chainID, amount)
}

func (ls *logService) RemoveLiquidity(ctx context.Context, chainID uint64, amount *big.Int) (pool *liquidity.Pool, err error) {
	defer ls.logPoolCall("RemoveLiquidity", chainID, amount, time.Now(), &pool, &err)
	return ls.svc.RemoveLiquidity(ctx, chainID, amount)
}

func (ls *logService) Reserve(ctx context.Context, chainID uint64, amount *big.Int) (err error) {
	defer ls.logCall("Reserve", chainID, amount, time.Now(), &err)
	return ls.svc.Reserve(ctx, chainID, amount)
}

func (ls *logService) Release(ctx context.Context, chainID uint64, amount *big.Int) (err error) {
	defer ls.logCall("Release", chainID, amount, time.Now(), &err)
	return ls.svc.Release(ctx, chainID, amount)
}

func (ls *logService) Consume(ctx context.Context, chainID uint64, amount *big.Int) (err error) {
	defer ls.logCall("Consume", chainID, amount, time.Now(), &err)
	return ls.svc.Consume(ctx, chainID, amount)
}

func (ls *logService) logPoolCall(method string, chainID uint64, amount *big.Int, start time.Time, pool **liquidity.Pool, err *error) {
	if *err != nil || *pool == nil {
		ls.logCall(method, chainID, amount, start, err)
		return
	}
	p := *pool
	ls.logger.Info(method+" completed",
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Uint64("chain_id", chainID),
		zap.Stringer("amount", amount),
		zap.Stringer("total", p.Total),
		zap.Stringer("available", p.Available),
		zap.Stringer("locked", p.Locked),
		zap.Stringer("apy", p.APY),
		zap.Duration("duration", time.Since(start)),
	)
}

func (ls *logService) logCall(method string, chainID uint64, amount *big.Int, start time.Time, err *error) {
	fields := []zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Uint64("chain_id", chainID),
		zap.Stringer("amount", amount),
		zap.Duration("duration", time.Since(start)),
	}
	if *err != nil {
		ls.logger.Error(method+" failed", append(fields, zap.Error(*err))...)
		return
	}
	ls.logger.Info(method+" completed", fields...)
}
