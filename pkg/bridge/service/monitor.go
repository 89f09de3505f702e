package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chainsafe/crosschain-bridge/internal/metrics"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge/store"
)

// MonitorConfig holds the request monitor settings.
type MonitorConfig struct {
	// PollInterval is the minimum time between two status checks of a request.
	PollInterval time.Duration
	// TickInterval is how often the scheduler looks for due requests.
	TickInterval time.Duration
	// MaxConcurrentPolls bounds the status checks running at once.
	MaxConcurrentPolls int
	// RequestTTL expires requests still pending after this long. Zero disables expiry.
	RequestTTL time.Duration
	// SubmitTimeout bounds a single submission call.
	SubmitTimeout time.Duration
}

func (c *MonitorConfig) setDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.MaxConcurrentPolls <= 0 {
		c.MaxConcurrentPolls = 8
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = 30 * time.Second
	}
}

type tracked struct {
	req      *bridge.Request
	nextPoll time.Time
	inFlight bool

	submitting  bool
	retrySubmit bool
	// resolveFailed is set once a status transition returned an error, which
	// may have hidden a committed write.
	resolveFailed bool
}

// Monitor submits accepted requests and follows them to a terminal status.
// A single scheduler goroutine finds due requests on every tick and checks
// them on a bounded pool of workers; a request never has more than one
// check in flight.
type Monitor struct {
	store     Store
	submitter bridge.Submitter
	oracle    bridge.StatusOracle
	listeners []bridge.Listener
	cfg       MonitorConfig
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	tracked map[string]*tracked

	ctx     context.Context
	cancel  context.CancelFunc
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewMonitor creates a request monitor. Listeners are notified, in order,
// after each request is resolved.
func NewMonitor(
	store Store,
	submitter bridge.Submitter,
	oracle bridge.StatusOracle,
	cfg MonitorConfig,
	logger *zap.Logger,
	listeners ...bridge.Listener,
) *Monitor {
	cfg.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		store:     store,
		submitter: submitter,
		oracle:    oracle,
		listeners: listeners,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		tracked:   make(map[string]*tracked),
		ctx:       ctx,
		cancel:    cancel,
		stopCh:    make(chan struct{}),
	}
}

// AddListener registers an additional completion listener. It must be called
// before Start.
func (m *Monitor) AddListener(l bridge.Listener) {
	m.listeners = append(m.listeners, l)
}

// Start resumes every pending request found in the store and starts the scheduler.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("Starting bridge monitor",
		zap.Duration("poll_interval", m.cfg.PollInterval),
		zap.Int("max_concurrent_polls", m.cfg.MaxConcurrentPolls),
		zap.Duration("request_ttl", m.cfg.RequestTTL),
	)

	pending, err := m.store.ListRequests(ctx, store.WithStatus(bridge.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to load pending requests: %w", err)
	}
	for _, req := range pending {
		m.Track(req)
	}

	m.mu.Lock()
	m.started = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run()

	m.logger.Info("Bridge monitor started", zap.Int("resumed", len(pending)))
	return nil
}

// Stop cancels in-flight submissions and checks and waits for them to return.
func (m *Monitor) Stop() {
	m.logger.Info("Stopping bridge monitor")
	m.cancel()
	m.mu.Lock()
	if m.started {
		close(m.stopCh)
		m.started = false
	}
	m.mu.Unlock()
	m.wg.Wait()
	m.logger.Info("Bridge monitor stopped")
}

// Track starts following req. Requests that were never submitted are
// submitted first; requests with a recorded attempt are only polled.
// Tracking an already tracked request is a no-op.
func (m *Monitor) Track(req *bridge.Request) {
	if req.Status.IsTerminal() {
		return
	}

	m.mu.Lock()
	if _, ok := m.tracked[req.ID]; ok {
		m.mu.Unlock()
		return
	}
	t := &tracked{
		req:        req.Clone(),
		nextPoll:   m.now().Add(m.cfg.PollInterval),
		submitting: req.SourceTxHash == "" && req.SubmittedAt == nil,
	}
	m.tracked[req.ID] = t
	metrics.PendingRequests.Set(float64(len(m.tracked)))
	m.mu.Unlock()

	if t.submitting {
		m.startSubmit(t.req.Clone())
	}
}

func (m *Monitor) startSubmit(req *bridge.Request) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.submit(m.ctx, req)
	}()
}

// Tracked returns the number of requests being followed.
func (m *Monitor) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracked)
}

func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.tick(m.ctx)
		}
	}
}

// tick checks every due request and expires overdue ones, then waits for
// the round to finish.
func (m *Monitor) tick(ctx context.Context) {
	now := m.now()

	var due, expired, resubmit []*bridge.Request
	m.mu.Lock()
	for _, t := range m.tracked {
		if t.inFlight || t.submitting {
			continue
		}
		switch {
		case m.cfg.RequestTTL > 0 && now.Sub(t.req.CreatedAt) >= m.cfg.RequestTTL:
			t.inFlight = true
			expired = append(expired, t.req.Clone())
		case now.Before(t.nextPoll):
			// not due
		case t.retrySubmit:
			t.retrySubmit = false
			t.submitting = true
			resubmit = append(resubmit, t.req.Clone())
		default:
			t.inFlight = true
			due = append(due, t.req.Clone())
		}
	}
	m.mu.Unlock()

	for _, req := range resubmit {
		m.startSubmit(req)
	}

	if len(due) == 0 && len(expired) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(m.cfg.MaxConcurrentPolls)
	for _, req := range expired {
		g.Go(func() error {
			m.logger.Info("Bridge request expired",
				zap.String("request_id", req.ID),
				zap.Duration("ttl", m.cfg.RequestTTL),
			)
			m.resolve(ctx, req, bridge.StatusExpired)
			return nil
		})
	}
	for _, req := range due {
		g.Go(func() error {
			m.poll(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Monitor) poll(ctx context.Context, req *bridge.Request) {
	pctx, cancel := context.WithTimeout(ctx, m.cfg.PollInterval)
	status, err := m.oracle.CheckBridgeStatus(pctx, req)
	cancel()

	if ctx.Err() != nil {
		m.reschedule(req.ID)
		return
	}
	if err != nil {
		metrics.OracleErrors.WithLabelValues(chainLabel(req.SourceChain)).Inc()
		m.logger.Warn("Bridge status check failed, will retry",
			zap.String("request_id", req.ID),
			zap.Uint64("source_chain", req.SourceChain),
			zap.Error(err),
		)
		m.reschedule(req.ID)
		return
	}

	if status == bridge.StatusPending {
		m.reschedule(req.ID)
		return
	}
	if !status.IsTerminal() {
		metrics.OracleErrors.WithLabelValues(chainLabel(req.SourceChain)).Inc()
		m.logger.Warn("Bridge status check returned unknown status",
			zap.String("request_id", req.ID),
			zap.String("status", string(status)),
		)
		m.reschedule(req.ID)
		return
	}

	m.resolve(ctx, req, status)
}

// submit records the attempt before sending, so a request whose outcome is
// unknown after a crash or shutdown is polled on restart instead of being
// sent twice.
func (m *Monitor) submit(ctx context.Context, req *bridge.Request) {
	at := m.now().UTC()
	err := m.store.BeginSubmission(ctx, req.ID, at)
	switch {
	case errors.Is(err, bridge.ErrAlreadySubmitted):
		m.logger.Warn("Bridge request already submitted, following by status",
			zap.String("request_id", req.ID),
		)
		m.submissionDone(req.ID, "", at)
		return
	case errors.Is(err, bridge.ErrRequestNotFound):
		m.untrack(req.ID)
		return
	case err != nil:
		if ctx.Err() != nil {
			m.untrack(req.ID)
			return
		}
		m.logger.Error("Failed to record submission attempt, will retry",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
		m.update(req.ID, func(t *tracked) {
			t.submitting = false
			t.retrySubmit = true
			t.nextPoll = m.now().Add(m.cfg.PollInterval)
		})
		return
	}
	req.SubmittedAt = &at

	sctx, cancel := context.WithTimeout(ctx, m.cfg.SubmitTimeout)
	ack, err := m.submitter.SubmitBridgeTransaction(sctx, req)
	cancel()

	switch {
	case err == nil:
		m.recordAck(ctx, req, ack)
	case ctx.Err() != nil:
		m.logger.Warn("Bridge submission interrupted, outcome unknown",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
		m.untrack(req.ID)
	case isTimeout(err):
		metrics.SubmissionErrors.WithLabelValues(chainLabel(req.SourceChain)).Inc()
		m.logger.Warn("Bridge submission timed out, following by status",
			zap.String("request_id", req.ID),
			zap.Uint64("source_chain", req.SourceChain),
			zap.Duration("timeout", m.cfg.SubmitTimeout),
			zap.Error(err),
		)
		m.submissionDone(req.ID, "", at)
	default:
		metrics.SubmissionErrors.WithLabelValues(chainLabel(req.SourceChain)).Inc()
		m.logger.Error("Bridge submission failed",
			zap.String("request_id", req.ID),
			zap.Uint64("source_chain", req.SourceChain),
			zap.Error(err),
		)
		m.resolve(ctx, req, bridge.StatusFailed)
	}
}

// recordAck stores the acknowledgement even when ctx was cancelled while the
// submitter was returning it.
func (m *Monitor) recordAck(ctx context.Context, req *bridge.Request, ack *bridge.Ack) {
	var txHash string
	if ack != nil {
		txHash = ack.TxHash
	}
	if txHash != "" {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.SubmitTimeout)
		err := m.store.MarkSubmitted(wctx, req.ID, txHash)
		cancel()
		if err != nil {
			m.logger.Error("Failed to record submission",
				zap.String("request_id", req.ID),
				zap.String("tx_hash", txHash),
				zap.Error(err),
			)
		}
	}

	m.logger.Info("Bridge request submitted",
		zap.String("request_id", req.ID),
		zap.String("tx_hash", txHash),
	)

	if ctx.Err() != nil {
		m.untrack(req.ID)
		return
	}
	m.submissionDone(req.ID, txHash, *req.SubmittedAt)
}

func (m *Monitor) submissionDone(id, txHash string, at time.Time) {
	m.update(id, func(t *tracked) {
		t.submitting = false
		if txHash != "" {
			t.req.SourceTxHash = txHash
		}
		if t.req.SubmittedAt == nil {
			t.req.SubmittedAt = &at
		}
	})
}

// resolve performs the conditional pending -> status transition and, when it
// wins, notifies listeners. The request stops being tracked unless the store
// failed.
func (m *Monitor) resolve(ctx context.Context, req *bridge.Request, status bridge.Status) {
	resolved, err := m.store.Resolve(ctx, req.ID, status, m.now().UTC())
	if errors.Is(err, bridge.ErrNotPending) && m.hadResolveFailure(req.ID) {
		resolved, err = m.recoverResolved(ctx, req.ID)
	}
	switch {
	case errors.Is(err, bridge.ErrNotPending), errors.Is(err, bridge.ErrRequestNotFound):
		m.logger.Warn("Bridge request no longer pending, dropping",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
		m.untrack(req.ID)
		return
	case err != nil:
		m.logger.Error("Failed to resolve bridge request",
			zap.String("request_id", req.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		m.update(req.ID, func(t *tracked) { t.resolveFailed = true })
		m.reschedule(req.ID)
		return
	}

	m.untrack(req.ID)

	metrics.RequestsTotal.WithLabelValues(string(status)).Inc()
	if resolved.ResolvedAt != nil {
		metrics.RequestDuration.WithLabelValues(string(status)).
			Observe(resolved.ResolvedAt.Sub(resolved.CreatedAt).Seconds())
	}

	m.logger.Info("Bridge request resolved",
		zap.String("request_id", resolved.ID),
		zap.String("status", string(resolved.Status)),
		zap.Uint64("source_chain", resolved.SourceChain),
		zap.Uint64("target_chain", resolved.TargetChain),
		zap.String("amount", resolved.Amount.String()),
	)

	lctx := context.WithoutCancel(ctx)
	for _, l := range m.listeners {
		l.BridgeResolved(lctx, resolved.Clone())
	}
}

// recoverResolved returns the stored request when an earlier failed
// transition turns out to have been committed.
func (m *Monitor) recoverResolved(ctx context.Context, id string) (*bridge.Request, error) {
	current, err := m.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.IsTerminal() {
		return nil, bridge.ErrNotPending
	}
	m.logger.Warn("Bridge request resolution was committed by an earlier attempt",
		zap.String("request_id", id),
		zap.String("status", string(current.Status)),
	)
	return current, nil
}

func (m *Monitor) hadResolveFailure(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tracked[id]
	return ok && t.resolveFailed
}

func (m *Monitor) update(id string, fn func(t *tracked)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tracked[id]; ok {
		fn(t)
	}
}

// reschedule returns a request to polling after a check or a failed transition.
func (m *Monitor) reschedule(id string) {
	m.update(id, func(t *tracked) {
		t.inFlight = false
		t.submitting = false
		t.nextPoll = m.now().Add(m.cfg.PollInterval)
	})
}

func (m *Monitor) untrack(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tracked, id)
	metrics.PendingRequests.Set(float64(len(m.tracked)))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func chainLabel(id uint64) string {
	return strconv.FormatUint(id, 10)
}
