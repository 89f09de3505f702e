package pg

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

// PoolDao maps to the 'liquidity_pools' table.
type PoolDao struct {
	bun.BaseModel `bun:"table:liquidity_pools,alias:lp"`
	ChainID       int64     `bun:"chain_id,pk"`
	Total         string    `bun:"total,notnull,type:numeric(78,0)"`
	Available     string    `bun:"available,notnull,type:numeric(78,0)"`
	Locked        string    `bun:"locked,notnull,type:numeric(78,0)"`
	APY           string    `bun:"apy,notnull,type:numeric(10,4)"`
	Providers     int       `bun:"providers,notnull,default:0"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func toPoolDao(p *liquidity.Pool) *PoolDao {
	return &PoolDao{
		ChainID:   int64(p.ChainID),
		Total:     p.Total.String(),
		Available: p.Available.String(),
		Locked:    p.Locked.String(),
		APY:       p.APY.String(),
		Providers: p.Providers,
		UpdatedAt: p.UpdatedAt,
	}
}

func fromPoolDao(dao *PoolDao) (*liquidity.Pool, error) {
	p := &liquidity.Pool{
		ChainID:   uint64(dao.ChainID),
		Providers: dao.Providers,
		UpdatedAt: dao.UpdatedAt,
	}

	var err error
	if p.Total, err = parseNumeric(dao.Total); err != nil {
		return nil, fmt.Errorf("total: %w", err)
	}
	if p.Available, err = parseNumeric(dao.Available); err != nil {
		return nil, fmt.Errorf("available: %w", err)
	}
	if p.Locked, err = parseNumeric(dao.Locked); err != nil {
		return nil, fmt.Errorf("locked: %w", err)
	}
	if p.APY, err = decimal.NewFromString(dao.APY); err != nil {
		return nil, fmt.Errorf("apy: %w", err)
	}
	return p, nil
}

// parseNumeric accepts postgres numeric text, which may carry a ".0" scale suffix.
func parseNumeric(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return d.BigInt(), nil
}
