// Package bridge defines bridge requests, their lifecycle and the external
// collaborators that submit and confirm them.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrSameChain        = errors.New("source and target chain must differ")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidAddress   = errors.New("invalid target address")
	ErrRequestNotFound  = errors.New("bridge request not found")
	// ErrNotPending is returned when a terminal transition is attempted on a
	// request that already left the pending state.
	ErrNotPending = errors.New("bridge request is not pending")
	// ErrAlreadySubmitted is returned when a second submission attempt is
	// recorded for a request.
	ErrAlreadySubmitted = errors.New("bridge request already submitted")
	// ErrInsufficientLiquidity aliases the liquidity error so callers can match
	// either name.
	ErrInsufficientLiquidity = liquidity.ErrInsufficientLiquidity
)

// Status is the lifecycle state of a bridge request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
)

// IsTerminal reports whether no further transition can happen from s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusFailed, StatusExpired:
		return true
	default:
		return false
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown bridge status %q", s)
	}
	return st, nil
}

// Request is one transfer of a domain asset from SourceChain to TargetChain.
// Amount and Fee are in the smallest unit of the asset. The fee is charged on
// top of the amount.
type Request struct {
	ID               string
	DomainID         string
	SourceChain      uint64
	TargetChain      uint64
	Amount           *big.Int
	Fee              *big.Int
	TargetAddress    string
	Status           Status
	EstimatedMinutes int
	// SourceTxHash is the submission acknowledgement, empty until submitted.
	SourceTxHash string
	// SubmittedAt is set before the first submission attempt. A request with
	// SubmittedAt set may already be on its way and is never submitted again.
	SubmittedAt *time.Time
	// Reserved is set when Amount was locked on the target pool at creation.
	Reserved   bool
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// Clone returns a deep copy of r.
func (r *Request) Clone() *Request {
	c := *r
	if r.Amount != nil {
		c.Amount = new(big.Int).Set(r.Amount)
	}
	if r.Fee != nil {
		c.Fee = new(big.Int).Set(r.Fee)
	}
	if r.SubmittedAt != nil {
		t := *r.SubmittedAt
		c.SubmittedAt = &t
	}
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// Transfer is a validated intent to bridge Amount of DomainID.
type Transfer struct {
	DomainID      string
	SourceChain   uint64
	TargetChain   uint64
	Amount        *big.Int
	TargetAddress string
}

// Volume is the sum of confirmed amounts, overall and per target chain.
type Volume struct {
	Total   *big.Int
	ByChain map[uint64]*big.Int
}

// NewVolume returns an empty Volume.
func NewVolume() *Volume {
	return &Volume{Total: new(big.Int), ByChain: make(map[uint64]*big.Int)}
}

// Add accounts a confirmed transfer of amount to target.
func (v *Volume) Add(target uint64, amount *big.Int) {
	v.Total.Add(v.Total, amount)
	bucket, ok := v.ByChain[target]
	if !ok {
		bucket = new(big.Int)
		v.ByChain[target] = bucket
	}
	bucket.Add(bucket, amount)
}

// Ack acknowledges a submitted transfer.
type Ack struct {
	TxHash string
}

// Submitter hands a transfer to the on-chain bridge mechanism.
type Submitter interface {
	SubmitBridgeTransaction(ctx context.Context, req *Request) (*Ack, error)
}

// StatusOracle reports the on-chain status of a submitted transfer. An error
// means the status is unknown and the request should be checked again later.
type StatusOracle interface {
	CheckBridgeStatus(ctx context.Context, req *Request) (Status, error)
}

// Listener is notified once for every request that reaches a terminal status.
type Listener interface {
	BridgeResolved(ctx context.Context, req *Request)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, req *Request)

// BridgeResolved calls f.
func (f ListenerFunc) BridgeResolved(ctx context.Context, req *Request) {
	f(ctx, req)
}
