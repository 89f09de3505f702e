package oracle

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

// Simulated is a development stand-in for both the submitter and the status
// oracle. Every check confirms with probability ConfirmRate, fails with
// probability FailRate and otherwise stays pending.
type Simulated struct {
	ConfirmRate float64
	FailRate    float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulated creates a simulated bridge seeded with seed.
func NewSimulated(confirmRate, failRate float64, seed int64) *Simulated {
	return &Simulated{
		ConfirmRate: confirmRate,
		FailRate:    failRate,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

// SubmitBridgeTransaction implements bridge.Submitter with a fabricated hash.
func (s *Simulated) SubmitBridgeTransaction(ctx context.Context, _ *bridge.Request) (*bridge.Ack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.New()
	return &bridge.Ack{TxHash: "0x" + strings.Repeat("0", 32) + strings.ReplaceAll(id.String(), "-", "")}, nil
}

// CheckBridgeStatus implements bridge.StatusOracle.
func (s *Simulated) CheckBridgeStatus(ctx context.Context, _ *bridge.Request) (bridge.Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	roll := s.rnd.Float64()
	s.mu.Unlock()

	switch {
	case roll < s.ConfirmRate:
		return bridge.StatusConfirmed, nil
	case roll < s.ConfirmRate+s.FailRate:
		return bridge.StatusFailed, nil
	default:
		return bridge.StatusPending, nil
	}
}
