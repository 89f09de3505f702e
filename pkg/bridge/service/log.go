package service

import (
	"context"
	"math/big"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/chainsafe/crosschain-bridge/pkg/app/errors"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

const serviceName = "BridgeService"

const addressDisplaySize = 12

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the bridge Service.
// It logs method entry/exit, duration and errors. Client errors are logged at
// warn level, everything else at error level.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// Initiate wraps the service method with logging
func (ls *logService) Initiate(ctx context.Context, t *bridge.Transfer) (req *bridge.Request, err error) {
	start := time.Now()

	ls.logger.Info("Initiate started",
		zap.String("service", serviceName),
		zap.String("method", "Initiate"),
		zap.String("domain_id", t.DomainID),
		zap.Uint64("source_chain", t.SourceChain),
		zap.Uint64("target_chain", t.TargetChain),
		zap.Stringer("amount", t.Amount),
		zap.String("target_address", shortAddress(t.TargetAddress)),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logError("Initiate", duration, err,
				zap.Uint64("source_chain", t.SourceChain),
				zap.Uint64("target_chain", t.TargetChain),
			)
			return
		}
		ls.logger.Info("Initiate completed",
			zap.String("service", serviceName),
			zap.String("method", "Initiate"),
			zap.String("request_id", req.ID),
			zap.Stringer("fee", req.Fee),
			zap.Int("estimated_minutes", req.EstimatedMinutes),
			zap.Bool("reserved", req.Reserved),
			zap.Duration("duration", duration),
		)
	}()

	return ls.svc.Initiate(ctx, t)
}

// GetRequest wraps the service method with logging
func (ls *logService) GetRequest(ctx context.Context, id string) (req *bridge.Request, err error) {
	defer ls.logQuery("GetRequest", time.Now(), &err, zap.String("request_id", id))
	return ls.svc.GetRequest(ctx, id)
}

// PendingRequests wraps the service method with logging
func (ls *logService) PendingRequests(ctx context.Context) (reqs []*bridge.Request, err error) {
	defer ls.logQuery("PendingRequests", time.Now(), &err)
	return ls.svc.PendingRequests(ctx)
}

// UserHistory wraps the service method with logging
func (ls *logService) UserHistory(ctx context.Context, address string) (reqs []*bridge.Request, err error) {
	defer ls.logQuery("UserHistory", time.Now(), &err, zap.String("address", shortAddress(address)))
	return ls.svc.UserHistory(ctx, address)
}

// TotalVolume wraps the service method with logging
func (ls *logService) TotalVolume(ctx context.Context) (v *bridge.Volume, err error) {
	defer ls.logQuery("TotalVolume", time.Now(), &err)
	return ls.svc.TotalVolume(ctx)
}

// Estimate wraps the service method with logging
func (ls *logService) Estimate(ctx context.Context, source, target uint64, amount *big.Int) (e *Estimate, err error) {
	defer ls.logQuery("Estimate", time.Now(), &err,
		zap.Uint64("source_chain", source),
		zap.Uint64("target_chain", target),
	)
	return ls.svc.Estimate(ctx, source, target, amount)
}

// logQuery logs failures, and successes at debug level
func (ls *logService) logQuery(method string, start time.Time, err *error, fields ...zap.Field) {
	duration := time.Since(start)
	if *err != nil {
		ls.logError(method, duration, *err, fields...)
		return
	}
	ls.logger.Debug(method+" completed", append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Duration("duration", duration),
	}, fields...)...)
}

func (ls *logService) logError(method string, duration time.Duration, err error, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Duration("duration", duration),
		zap.Error(err),
	}, fields...)
	if apperrors.IsInternalError(err) {
		ls.logger.Error(method+" failed", all...)
		return
	}
	ls.logger.Warn(method+" rejected", all...)
}

// shortAddress keeps the head of an address for correlation without logging it in full
func shortAddress(addr string) string {
	if len(addr) <= addressDisplaySize {
		return addr
	}
	return addr[:addressDisplaySize] + "..."
}
