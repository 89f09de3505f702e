// Package pg implements the bridge request store on PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge/store"
	"github.com/chainsafe/crosschain-bridge/pkg/chain"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the bridge request store
func NewStore(db *bun.DB) store.Store {
	return &pgStore{db: db}
}

func (s *pgStore) CreateRequest(ctx context.Context, req *bridge.Request) error {
	if !chain.ValidID(req.SourceChain) || !chain.ValidID(req.TargetChain) {
		return fmt.Errorf("bridge request %s: %w", req.ID, chain.ErrInvalidChainID)
	}
	_, err := s.db.NewInsert().
		Model(toRequestDao(req)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create bridge request: %w", err)
	}
	return nil
}

func (s *pgStore) GetRequest(ctx context.Context, id string) (*bridge.Request, error) {
	dao := new(RequestDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bridge.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get bridge request: %w", err)
	}
	return fromRequestDao(dao)
}

func (s *pgStore) ListRequests(ctx context.Context, opts ...store.QueryOption) ([]*bridge.Request, error) {
	o := store.Apply(opts...)

	var daos []RequestDao
	query := s.db.NewSelect().Model(&daos)
	if o.Status != nil {
		query = query.Where("status = ?", string(*o.Status))
	}
	if o.TargetAddress != nil {
		query = query.Where("lower(target_address) = ?", strings.ToLower(*o.TargetAddress))
	}
	if o.TargetChain != nil {
		query = query.Where("target_chain = ?", int64(*o.TargetChain))
	}
	if err := query.Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list bridge requests: %w", err)
	}

	out := make([]*bridge.Request, 0, len(daos))
	for i := range daos {
		r, err := fromRequestDao(&daos[i])
		if err != nil {
			return nil, fmt.Errorf("bridge request %s: %w", daos[i].ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *pgStore) BeginSubmission(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.NewUpdate().
		Model((*RequestDao)(nil)).
		Set("submitted_at = ?", at).
		Where("id = ?", id).
		Where("submitted_at IS NULL").
		Where("source_tx_hash IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record bridge submission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetRequest(ctx, id); err != nil {
			return err
		}
		return bridge.ErrAlreadySubmitted
	}
	return nil
}

func (s *pgStore) MarkSubmitted(ctx context.Context, id, txHash string) error {
	res, err := s.db.NewUpdate().
		Model((*RequestDao)(nil)).
		Set("source_tx_hash = ?", txHash).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark bridge request submitted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return bridge.ErrRequestNotFound
	}
	return nil
}

// Resolve updates and returns the row in one statement, so a committed
// transition is never reported as a failure by a later read.
func (s *pgStore) Resolve(ctx context.Context, id string, status bridge.Status, at time.Time) (*bridge.Request, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("cannot resolve to non-terminal status %q", status)
	}

	dao := new(RequestDao)
	err := s.db.NewUpdate().
		Model(dao).
		Set("status = ?", string(status)).
		Set("resolved_at = ?", at).
		Where("id = ?", id).
		Where("status = ?", string(bridge.StatusPending)).
		Returning("*").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		// GetRequest reports not-found when the id is unknown.
		if _, err := s.GetRequest(ctx, id); err != nil {
			return nil, err
		}
		return nil, bridge.ErrNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bridge request: %w", err)
	}
	return fromRequestDao(dao)
}
