// Package service implements bridge request management: validation,
// liquidity reservation, persistence and asynchronous monitoring.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/internal/metrics"
	apperrors "github.com/chainsafe/crosschain-bridge/pkg/app/errors"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge/store"
	"github.com/chainsafe/crosschain-bridge/pkg/chain"
	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

// Store is the persistence interface used by the bridge service and monitor.
type Store interface {
	CreateRequest(ctx context.Context, req *bridge.Request) error
	GetRequest(ctx context.Context, id string) (*bridge.Request, error)
	ListRequests(ctx context.Context, opts ...store.QueryOption) ([]*bridge.Request, error)
	BeginSubmission(ctx context.Context, id string, at time.Time) error
	MarkSubmitted(ctx context.Context, id, txHash string) error
	Resolve(ctx context.Context, id string, status bridge.Status, at time.Time) (*bridge.Request, error)
}

// Liquidity is the subset of the liquidity service the bridge depends on.
type Liquidity interface {
	GetLiquidity(ctx context.Context, chainID uint64) (*liquidity.Pool, error)
	Reserve(ctx context.Context, chainID uint64, amount *big.Int) error
	Release(ctx context.Context, chainID uint64, amount *big.Int) error
	Consume(ctx context.Context, chainID uint64, amount *big.Int) error
}

// ChainLookup resolves chain descriptors.
type ChainLookup interface {
	Get(id uint64) (chain.Descriptor, bool)
}

// FeeEstimator computes fees and completion times.
type FeeEstimator interface {
	EstimateFee(amount *big.Int, source, target uint64) *big.Int
	EstimateTime(source, target uint64) int
}

// Tracker takes ownership of an accepted request: it submits it and follows
// it until it reaches a terminal status.
type Tracker interface {
	Track(req *bridge.Request)
}

// Estimate is the quoted cost and duration of a transfer.
type Estimate struct {
	Fee              *big.Int
	EstimatedMinutes int
}

// Service manages bridge requests.
type Service interface {
	Initiate(ctx context.Context, t *bridge.Transfer) (*bridge.Request, error)
	GetRequest(ctx context.Context, id string) (*bridge.Request, error)
	PendingRequests(ctx context.Context) ([]*bridge.Request, error)
	UserHistory(ctx context.Context, address string) ([]*bridge.Request, error)
	TotalVolume(ctx context.Context) (*bridge.Volume, error)
	Estimate(ctx context.Context, source, target uint64, amount *big.Int) (*Estimate, error)
}

// Config holds the bridge service settings.
type Config struct {
	// ReserveLiquidity locks the transfer amount on the target pool while the
	// request is pending.
	ReserveLiquidity bool
}

type bridgeService struct {
	store   Store
	chains  ChainLookup
	pools   Liquidity
	fees    FeeEstimator
	tracker Tracker
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string
}

// NewService creates a bridge service. Accepted requests are handed to tracker.
func NewService(
	store Store,
	chains ChainLookup,
	pools Liquidity,
	fees FeeEstimator,
	tracker Tracker,
	cfg Config,
	logger *zap.Logger,
) Service {
	return &bridgeService{
		store:   store,
		chains:  chains,
		pools:   pools,
		fees:    fees,
		tracker: tracker,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

func (s *bridgeService) Initiate(ctx context.Context, t *bridge.Transfer) (*bridge.Request, error) {
	if err := s.validate(t); err != nil {
		return nil, err
	}

	pool, err := s.pools.GetLiquidity(ctx, t.TargetChain)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to read target liquidity")
	}
	if pool.RealAvailable().Cmp(t.Amount) < 0 {
		return nil, insufficientLiquidity(t.TargetChain, liquidity.ErrInsufficientLiquidity)
	}

	req := &bridge.Request{
		ID:               s.newID(),
		DomainID:         t.DomainID,
		SourceChain:      t.SourceChain,
		TargetChain:      t.TargetChain,
		Amount:           new(big.Int).Set(t.Amount),
		Fee:              s.fees.EstimateFee(t.Amount, t.SourceChain, t.TargetChain),
		TargetAddress:    t.TargetAddress,
		Status:           bridge.StatusPending,
		EstimatedMinutes: s.fees.EstimateTime(t.SourceChain, t.TargetChain),
		CreatedAt:        s.now().UTC(),
	}

	if s.cfg.ReserveLiquidity {
		if err := s.pools.Reserve(ctx, req.TargetChain, req.Amount); err != nil {
			if errors.Is(err, liquidity.ErrInsufficientLiquidity) {
				return nil, insufficientLiquidity(req.TargetChain, err)
			}
			return nil, fmt.Errorf("failed to reserve liquidity: %w", err)
		}
		req.Reserved = true
	}

	if err := s.store.CreateRequest(ctx, req); err != nil {
		if req.Reserved {
			if relErr := s.pools.Release(context.WithoutCancel(ctx), req.TargetChain, req.Amount); relErr != nil {
				s.logger.Error("Failed to release reservation of unpersisted request",
					zap.String("request_id", req.ID),
					zap.Uint64("chain_id", req.TargetChain),
					zap.Error(relErr),
				)
			}
		}
		return nil, fmt.Errorf("failed to persist bridge request: %w", err)
	}

	metrics.RequestsInitiated.WithLabelValues(
		strconv.FormatUint(req.SourceChain, 10),
		strconv.FormatUint(req.TargetChain, 10),
	).Inc()

	s.tracker.Track(req.Clone())
	return req, nil
}

func (s *bridgeService) validate(t *bridge.Transfer) error {
	if t.Amount == nil || t.Amount.Sign() <= 0 {
		return apperrors.BadRequestError(bridge.ErrInvalidAmount, "amount must be greater than zero")
	}
	if t.SourceChain == t.TargetChain {
		return apperrors.BadRequestError(bridge.ErrSameChain, "source and target chain must differ")
	}
	if _, ok := s.chains.Get(t.SourceChain); !ok {
		return unsupportedChain(t.SourceChain)
	}
	target, ok := s.chains.Get(t.TargetChain)
	if !ok {
		return unsupportedChain(t.TargetChain)
	}
	if strings.TrimSpace(t.TargetAddress) == "" {
		return apperrors.BadRequestError(bridge.ErrInvalidAddress, "target address is required")
	}
	if target.IsEVM() && !common.IsHexAddress(t.TargetAddress) {
		return apperrors.BadRequestError(
			fmt.Errorf("%w: %s", bridge.ErrInvalidAddress, t.TargetAddress),
			fmt.Sprintf("target address is not a valid address on %s", target.Name),
		)
	}
	return nil
}

func (s *bridgeService) GetRequest(ctx context.Context, id string) (*bridge.Request, error) {
	req, err := s.store.GetRequest(ctx, id)
	if errors.Is(err, bridge.ErrRequestNotFound) {
		return nil, apperrors.ResourceNotFoundError(err, fmt.Sprintf("bridge request %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bridge request: %w", err)
	}
	return req, nil
}

func (s *bridgeService) PendingRequests(ctx context.Context) ([]*bridge.Request, error) {
	reqs, err := s.store.ListRequests(ctx, store.WithStatus(bridge.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return reqs, nil
}

func (s *bridgeService) UserHistory(ctx context.Context, address string) ([]*bridge.Request, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperrors.BadRequestError(bridge.ErrInvalidAddress, "address is required")
	}
	reqs, err := s.store.ListRequests(ctx,
		store.WithTargetAddress(address),
		store.WithStatus(bridge.StatusConfirmed),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list user history: %w", err)
	}
	return reqs, nil
}

func (s *bridgeService) TotalVolume(ctx context.Context) (*bridge.Volume, error) {
	reqs, err := s.store.ListRequests(ctx, store.WithStatus(bridge.StatusConfirmed))
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed requests: %w", err)
	}
	v := bridge.NewVolume()
	for _, r := range reqs {
		v.Add(r.TargetChain, r.Amount)
	}
	return v, nil
}

func (s *bridgeService) Estimate(_ context.Context, source, target uint64, amount *big.Int) (*Estimate, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, apperrors.BadRequestError(bridge.ErrInvalidAmount, "amount must be greater than zero")
	}
	if !s.hasChain(source) {
		return nil, unsupportedChain(source)
	}
	if !s.hasChain(target) {
		return nil, unsupportedChain(target)
	}
	return &Estimate{
		Fee:              s.fees.EstimateFee(amount, source, target),
		EstimatedMinutes: s.fees.EstimateTime(source, target),
	}, nil
}

func (s *bridgeService) hasChain(id uint64) bool {
	_, ok := s.chains.Get(id)
	return ok
}

func unsupportedChain(id uint64) error {
	return apperrors.NotSupportedError(
		fmt.Errorf("chain %d: %w", id, bridge.ErrUnsupportedChain),
		fmt.Sprintf("chain %d is not supported", id),
	)
}

func insufficientLiquidity(id uint64, err error) error {
	return apperrors.UnprocessableError(
		fmt.Errorf("chain %d: %w", id, err),
		fmt.Sprintf("insufficient liquidity on chain %d", id),
	)
}
