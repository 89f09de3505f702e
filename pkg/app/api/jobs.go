package api

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	apphttp "github.com/chainsafe/crosschain-bridge/pkg/app/http"
	"github.com/chainsafe/crosschain-bridge/pkg/config"
	liquidityservice "github.com/chainsafe/crosschain-bridge/pkg/liquidity/service"
)

const (
	limiterPruneSchedule = "@every 10m"
	limiterMaxIdle       = 30 * time.Minute
)

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

func newScheduler(logger *zap.Logger) *cron.Cron {
	cl := cronLogger{logger: logger.Named("cron").Sugar()}
	return cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
}

// scheduleJobs registers the pool gauge refresh and rate limiter cleanup.
func scheduleJobs(
	c *cron.Cron,
	cfg *config.Config,
	pools liquidityservice.PoolLister,
	chains liquidityservice.ChainLookup,
	limiter *apphttp.RateLimiter,
	logger *zap.Logger,
) error {
	if cfg.Monitoring.Enabled && cfg.Monitoring.RefreshInterval > 0 {
		interval := cfg.Monitoring.RefreshInterval
		spec := fmt.Sprintf("@every %s", interval)
		if _, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			n, err := liquidityservice.RefreshGauges(ctx, pools, chains)
			if err != nil {
				logger.Warn("Failed to refresh pool gauges", zap.Error(err))
				return
			}
			logger.Debug("Refreshed pool gauges", zap.Int("pools", n))
		}); err != nil {
			return fmt.Errorf("schedule pool gauge refresh: %w", err)
		}
	}

	if _, err := c.AddFunc(limiterPruneSchedule, func() {
		if removed := limiter.Prune(limiterMaxIdle); removed > 0 {
			logger.Debug("Pruned idle rate limiters", zap.Int("removed", removed))
		}
	}); err != nil {
		return fmt.Errorf("schedule rate limiter prune: %w", err)
	}
	return nil
}
