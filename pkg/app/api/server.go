// Package api implements app.Runner for the bridge server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/chainsafe/crosschain-bridge/pkg/app/http"
	"github.com/chainsafe/crosschain-bridge/pkg/auth"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
	bridgeservice "github.com/chainsafe/crosschain-bridge/pkg/bridge/service"
	bridgestore "github.com/chainsafe/crosschain-bridge/pkg/bridge/store"
	bridgepg "github.com/chainsafe/crosschain-bridge/pkg/bridge/store/pg"
	"github.com/chainsafe/crosschain-bridge/pkg/chain"
	"github.com/chainsafe/crosschain-bridge/pkg/config"
	"github.com/chainsafe/crosschain-bridge/pkg/events"
	"github.com/chainsafe/crosschain-bridge/pkg/fee"
	liquidityservice "github.com/chainsafe/crosschain-bridge/pkg/liquidity/service"
	liquiditystore "github.com/chainsafe/crosschain-bridge/pkg/liquidity/store"
	liquiditypg "github.com/chainsafe/crosschain-bridge/pkg/liquidity/store/pg"
	"github.com/chainsafe/crosschain-bridge/pkg/oracle"
	"github.com/chainsafe/crosschain-bridge/pkg/pgutil"
	"github.com/chainsafe/crosschain-bridge/pkg/relay"
)

const apiPrefix = "/api/v1"

// Server holds cfg to init the bridge server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new bridge server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

type stores struct {
	requests bridgestore.Store
	pools    liquiditystore.Store
	close    func()
}

// Run wires the services, starts the request monitor and background jobs and
// serves HTTP until an OS shutdown signal is received.
func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("bridge server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting bridge server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("oracle_mode", cfg.Oracle.Mode),
	)

	registry, err := buildRegistry(&cfg.Chains)
	if err != nil {
		return err
	}
	logger.Info("Loaded chain catalog", zap.Int("chains", len(registry.List())))

	st, err := s.openStores(logger)
	if err != nil {
		return err
	}
	defer st.close()

	pools := liquidityservice.NewLog(
		liquidityservice.NewService(st.pools, registry, cfg.Liquidity.PreferredChains, logger),
		logger,
	)

	submitter, statusOracle, err := newOracle(&cfg.Oracle, registry, logger)
	if err != nil {
		return err
	}

	listeners := []bridge.Listener{bridgeservice.NewSettlement(pools, logger)}
	if cfg.Events.Enabled() {
		publisher := s.openPublisher(ctx, logger)
		defer func() { _ = publisher.Close() }()
		listeners = append(listeners, publisher)
	}

	monitor := bridgeservice.NewMonitor(st.requests, submitter, statusOracle, bridgeservice.MonitorConfig{
		PollInterval:       cfg.Bridge.PollInterval,
		TickInterval:       cfg.Bridge.TickInterval,
		MaxConcurrentPolls: cfg.Bridge.MaxConcurrentPolls,
		RequestTTL:         cfg.Bridge.RequestTTL,
		SubmitTimeout:      cfg.Bridge.SubmitTimeout,
	}, logger, listeners...)
	if err := monitor.Start(ctx); err != nil {
		return fmt.Errorf("start bridge monitor: %w", err)
	}
	// stopped explicitly below; kept as a safety net
	defer monitor.Stop()

	bridgeSvc := bridgeservice.NewLog(
		bridgeservice.NewService(
			st.requests,
			registry,
			pools,
			fee.NewEstimator(registry),
			monitor,
			bridgeservice.Config{ReserveLiquidity: cfg.Bridge.ReserveLiquidity},
			logger,
		),
		logger,
	)

	limiter := apphttp.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
	validator := auth.NewJWTValidator(cfg.Auth.OperatorJWTSecret, cfg.Auth.Issuer)
	if !validator.IsConfigured() {
		logger.Warn("Operator JWT secret not set, liquidity mutations are unauthenticated")
	}

	scheduler := newScheduler(logger)
	if err := scheduleJobs(scheduler, cfg, pools, registry, limiter, logger); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	router := newRouter(cfg, routes{
		registry:  registry,
		bridge:    bridgeSvc,
		liquidity: pools,
		limiter:   limiter,
		operator:  validator,
	}, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, cfg.Server.Options())

	// stop tracking before the stores close
	monitor.Stop()

	return err
}

func (s *Server) openStores(logger *zap.Logger) (*stores, error) {
	if !s.cfg.Database.Enabled {
		logger.Warn("Database disabled, bridge state is kept in memory")
		return &stores{
			requests: bridgestore.NewMemoryStore(),
			pools:    liquiditystore.NewMemoryStore(),
			close:    func() {},
		}, nil
	}

	db, err := pgutil.ConnectDB(&s.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	logger.Info("Connected to database",
		zap.String("host", s.cfg.Database.Host),
		zap.String("database", s.cfg.Database.Database),
	)
	return &stores{
		requests: bridgepg.NewStore(db),
		pools:    liquiditypg.NewStore(db),
		close:    func() { _ = db.Close() },
	}, nil
}

func (s *Server) openPublisher(ctx context.Context, logger *zap.Logger) *events.Publisher {
	ec := s.cfg.Events
	publisher := events.NewPublisher(events.Config{
		Addr:     ec.RedisAddr,
		Password: ec.RedisPassword,
		DB:       ec.RedisDB,
		Channel:  ec.Channel,
	}, logger)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := publisher.Ping(pingCtx); err != nil {
		logger.Warn("Redis not reachable at startup", zap.Error(err))
	} else {
		logger.Info("Publishing completion events", zap.String("redis", ec.RedisAddr))
	}
	return publisher
}

// buildRegistry loads the catalog file, or the built-in chains when none is
// set, and applies inline overrides.
func buildRegistry(cfg *config.ChainsConfig) (*chain.Registry, error) {
	descriptors := chain.DefaultChains()
	if cfg.CatalogFile != "" {
		loaded, err := chain.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		descriptors = loaded
	}

	registry := chain.NewRegistry(descriptors...)
	for i, d := range cfg.List {
		n, err := chain.Normalize(d)
		if err != nil {
			return nil, fmt.Errorf("chains.list[%d]: %w", i, err)
		}
		registry.Register(n)
	}
	return registry, nil
}

// newOracle selects how bridge transactions are submitted and observed.
// In evm mode, EVM chains with an RPC endpoint are read directly and every
// other chain falls back to the relay.
func newOracle(cfg *config.OracleConfig, registry *chain.Registry, logger *zap.Logger) (bridge.Submitter, bridge.StatusOracle, error) {
	switch cfg.Mode {
	case config.OracleModeSimulated:
		logger.Warn("Using simulated oracle, no transactions reach any chain")
		sim := oracle.NewSimulated(cfg.ConfirmRate, cfg.FailRate, cfg.Seed)
		return sim, sim, nil

	case config.OracleModeRelay:
		client := newRelayClient(cfg, logger)
		return client, client, nil

	case config.OracleModeEVM:
		client := newRelayClient(cfg, logger)
		router := oracle.NewRouter(client)
		for _, d := range registry.ListByFamily(chain.FamilyEVM) {
			if d.RPCURL == "" {
				continue
			}
			evm, err := oracle.DialEVM(d.RPCURL, cfg.Confirmations, logger)
			if err != nil {
				return nil, nil, fmt.Errorf("dial %s rpc: %w", d.Name, err)
			}
			router.Route(d.ID, evm)
			logger.Info("Reading bridge status from chain RPC",
				zap.Uint64("chain_id", d.ID),
				zap.Uint64("confirmations", cfg.Confirmations),
			)
		}
		return client, router, nil
	}
	return nil, nil, fmt.Errorf("unknown oracle mode %q", cfg.Mode)
}

func newRelayClient(cfg *config.OracleConfig, logger *zap.Logger) *relay.Client {
	logger.Info("Using bridge relay", zap.String("url", cfg.RelayURL))
	return relay.NewClient(relay.Config{
		URL:     cfg.RelayURL,
		APIKey:  cfg.RelayAPIKey,
		Timeout: cfg.RelayTimeout,
	}, logger)
}

type routes struct {
	registry  *chain.Registry
	bridge    bridgeservice.Service
	liquidity liquidityservice.Service
	limiter   *apphttp.RateLimiter
	operator  *auth.JWTValidator
}

func newRouter(cfg *config.Config, rt routes, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	// the rate limiter keys on RemoteAddr, which RealIP rewrites from client headers
	if cfg.Server.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(apphttp.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route(apiPrefix, func(r chi.Router) {
		chain.RegisterRoutes(r, rt.registry)
		liquidityservice.RegisterRoutes(r, rt.liquidity, logger, rt.limiter.Handler, rt.operator.Middleware(logger))
		bridgeservice.RegisterRoutes(r, rt.bridge, logger, rt.limiter.Handler)
	})

	return r
}
