// Package events publishes bridge completion events to Redis.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-bridge/internal/metrics"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "bridge:completed"

// Config holds the publisher settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Event is the JSON payload published for every resolved request.
type Event struct {
	RequestID     string     `json:"request_id"`
	Status        string     `json:"status"`
	DomainID      string     `json:"domain_id"`
	SourceChain   uint64     `json:"source_chain"`
	TargetChain   uint64     `json:"target_chain"`
	Amount        string     `json:"amount"`
	Fee           string     `json:"fee"`
	TargetAddress string     `json:"target_address"`
	SourceTxHash  string     `json:"source_tx_hash,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

// NewEvent builds the event for req.
func NewEvent(req *bridge.Request) *Event {
	return &Event{
		RequestID:     req.ID,
		Status:        string(req.Status),
		DomainID:      req.DomainID,
		SourceChain:   req.SourceChain,
		TargetChain:   req.TargetChain,
		Amount:        req.Amount.String(),
		Fee:           req.Fee.String(),
		TargetAddress: req.TargetAddress,
		SourceTxHash:  req.SourceTxHash,
		CreatedAt:     req.CreatedAt,
		ResolvedAt:    req.ResolvedAt,
	}
}

// Publisher is a bridge.Listener that PUBLISHes completion events.
type Publisher struct {
	pool    *redis.Pool
	channel string
	logger  *zap.Logger
}

func timeoutDialOptions(cfg Config) []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
		redis.DialPassword(cfg.Password),
		redis.DialDatabase(cfg.DB),
	}
}

// NewPublisher creates a publisher with a connection pool to cfg.Addr.
func NewPublisher(cfg Config, logger *zap.Logger) *Publisher {
	pool := &redis.Pool{
		MaxIdle:     5,
		IdleTimeout: 5 * time.Minute,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", cfg.Addr, timeoutDialOptions(cfg)...)
		},
	}
	return newPublisher(pool, cfg.Channel, logger)
}

func newPublisher(pool *redis.Pool, channel string, logger *zap.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{pool: pool, channel: channel, logger: logger}
}

// Ping checks the connection to Redis.
func (p *Publisher) Ping(ctx context.Context) error {
	conn, err := p.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("PING"); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Publish sends the event for req and returns the number of subscribers that received it.
func (p *Publisher) Publish(ctx context.Context, req *bridge.Request) (int, error) {
	payload, err := json.Marshal(NewEvent(req))
	if err != nil {
		return 0, fmt.Errorf("failed to encode event: %w", err)
	}

	conn, err := p.pool.GetContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer conn.Close()

	receivers, err := redis.Int(conn.Do("PUBLISH", p.channel, payload))
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}
	return receivers, nil
}

// BridgeResolved implements bridge.Listener. Failures are logged and counted.
func (p *Publisher) BridgeResolved(ctx context.Context, req *bridge.Request) {
	receivers, err := p.Publish(ctx, req)
	if err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		p.logger.Error("Failed to publish bridge event",
			zap.String("request_id", req.ID),
			zap.String("channel", p.channel),
			zap.Error(err),
		)
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
	p.logger.Debug("Published bridge event",
		zap.String("request_id", req.ID),
		zap.String("status", string(req.Status)),
		zap.Int("receivers", receivers),
	)
}

// Close releases the connection pool.
func (p *Publisher) Close() error {
	return p.pool.Close()
}
