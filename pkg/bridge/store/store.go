// Package store persists bridge requests.
package store

import (
	"context"
	"time"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

// Store defines bridge request persistence. Requests are append-only: the only
// mutations are recording the submission attempt and hash and the single
// terminal transition out of pending.
type Store interface {
	CreateRequest(ctx context.Context, req *bridge.Request) error
	GetRequest(ctx context.Context, id string) (*bridge.Request, error)
	// ListRequests returns matching requests ordered by creation time, oldest first.
	ListRequests(ctx context.Context, opts ...QueryOption) ([]*bridge.Request, error)
	// BeginSubmission records that a submission is about to be sent. It returns
	// bridge.ErrAlreadySubmitted if an attempt was already recorded.
	BeginSubmission(ctx context.Context, id string, at time.Time) error
	MarkSubmitted(ctx context.Context, id, txHash string) error
	// Resolve moves a pending request to status. It returns bridge.ErrNotPending
	// if the request already left pending and bridge.ErrRequestNotFound if it
	// does not exist.
	Resolve(ctx context.Context, id string, status bridge.Status, at time.Time) (*bridge.Request, error)
}

// QueryOptions defines filters for listing requests
type QueryOptions struct {
	Status        *bridge.Status
	TargetAddress *string
	TargetChain   *uint64
}

// QueryOption is a functional option for listing requests
type QueryOption func(*QueryOptions)

// WithStatus filters by status
func WithStatus(status bridge.Status) QueryOption {
	return func(opts *QueryOptions) {
		opts.Status = &status
	}
}

// WithTargetAddress filters by recipient address, case-insensitively
func WithTargetAddress(address string) QueryOption {
	return func(opts *QueryOptions) {
		opts.TargetAddress = &address
	}
}

// WithTargetChain filters by target chain
func WithTargetChain(chainID uint64) QueryOption {
	return func(opts *QueryOptions) {
		opts.TargetChain = &chainID
	}
}

// Apply builds QueryOptions from opts.
func Apply(opts ...QueryOption) *QueryOptions {
	o := &QueryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
