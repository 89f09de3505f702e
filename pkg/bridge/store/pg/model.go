package pg

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

// RequestDao maps to the 'bridge_requests' table.
type RequestDao struct {
	bun.BaseModel    `bun:"table:bridge_requests,alias:br"`
	ID               string     `bun:"id,pk"`
	DomainID         string     `bun:"domain_id,notnull,type:varchar(255)"`
	SourceChain      int64      `bun:"source_chain,notnull"`
	TargetChain      int64      `bun:"target_chain,notnull"`
	Amount           string     `bun:"amount,notnull,type:numeric(78,0)"`
	Fee              string     `bun:"fee,notnull,type:numeric(78,0)"`
	TargetAddress    string     `bun:"target_address,notnull,type:varchar(128)"`
	Status           string     `bun:"status,notnull,type:varchar(20),default:'pending'"`
	EstimatedMinutes int        `bun:"estimated_minutes,notnull,default:0"`
	SourceTxHash     *string    `bun:"source_tx_hash,type:varchar(255)"`
	SubmittedAt      *time.Time `bun:"submitted_at"`
	Reserved         bool       `bun:"reserved,notnull,default:false"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	ResolvedAt       *time.Time `bun:"resolved_at"`
}

func toRequestDao(r *bridge.Request) *RequestDao {
	dao := &RequestDao{
		ID:               r.ID,
		DomainID:         r.DomainID,
		SourceChain:      int64(r.SourceChain),
		TargetChain:      int64(r.TargetChain),
		Amount:           r.Amount.String(),
		Fee:              r.Fee.String(),
		TargetAddress:    r.TargetAddress,
		Status:           string(r.Status),
		EstimatedMinutes: r.EstimatedMinutes,
		Reserved:         r.Reserved,
		CreatedAt:        r.CreatedAt,
		SubmittedAt:      r.SubmittedAt,
		ResolvedAt:       r.ResolvedAt,
	}
	if r.SourceTxHash != "" {
		dao.SourceTxHash = &r.SourceTxHash
	}
	return dao
}

func fromRequestDao(dao *RequestDao) (*bridge.Request, error) {
	status, err := bridge.ParseStatus(dao.Status)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(dao.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	fee, err := decimal.NewFromString(dao.Fee)
	if err != nil {
		return nil, fmt.Errorf("fee: %w", err)
	}

	r := &bridge.Request{
		ID:               dao.ID,
		DomainID:         dao.DomainID,
		SourceChain:      uint64(dao.SourceChain),
		TargetChain:      uint64(dao.TargetChain),
		Amount:           amount.BigInt(),
		Fee:              fee.BigInt(),
		TargetAddress:    dao.TargetAddress,
		Status:           status,
		EstimatedMinutes: dao.EstimatedMinutes,
		Reserved:         dao.Reserved,
		CreatedAt:        dao.CreatedAt,
		SubmittedAt:      dao.SubmittedAt,
		ResolvedAt:       dao.ResolvedAt,
	}
	if dao.SourceTxHash != nil {
		r.SourceTxHash = *dao.SourceTxHash
	}
	return r, nil
}
