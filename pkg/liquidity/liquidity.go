// Package liquidity models the per-chain liquidity pools that back bridge
// transfers on their destination chain.
package liquidity

import (
	"errors"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainsafe/crosschain-bridge/pkg/chain"
)

var (
	// ErrInsufficientLiquidity is returned when a pool cannot cover an amount.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrInsufficientLocked is returned when releasing or consuming more than is locked.
	ErrInsufficientLocked = errors.New("insufficient locked liquidity")
	// ErrPoolNotFound is returned by stores for chains with no recorded pool.
	ErrPoolNotFound = errors.New("liquidity pool not found")
)

// Yield curve, in percent.
var (
	baseAPY         = decimal.NewFromInt(10)
	thinPoolBonus   = decimal.NewFromInt(10)
	mediumPoolBonus = decimal.NewFromInt(5)
	preferredBonus  = decimal.NewFromInt(2)

	thinPoolCeiling   = decimal.NewFromInt(100)
	mediumPoolCeiling = decimal.NewFromInt(500)
)

// Placeholder pool, in whole currency units.
var (
	placeholderTotal     = decimal.NewFromInt(1000)
	placeholderAvailable = decimal.NewFromInt(750)
	placeholderLocked    = decimal.NewFromInt(250)
	placeholderAPY       = decimal.RequireFromString("12.5")
)

const placeholderProviders = 10

// Pool is the liquidity held for one chain. Amounts are in the smallest unit of
// the chain's native currency. Total always equals Available + Locked.
type Pool struct {
	ChainID   uint64
	Total     *big.Int
	Available *big.Int
	Locked    *big.Int
	APY       decimal.Decimal
	Providers int
	// Synthetic marks placeholder data returned for chains without a real pool.
	Synthetic bool
	UpdatedAt time.Time
}

// NewPool returns an empty pool for chainID.
func NewPool(chainID uint64) *Pool {
	return &Pool{
		ChainID:   chainID,
		Total:     new(big.Int),
		Available: new(big.Int),
		Locked:    new(big.Int),
	}
}

// Placeholder returns the deterministic synthetic pool reported for chains
// that have never been funded.
func Placeholder(chainID uint64, decimals int) *Pool {
	return &Pool{
		ChainID:   chainID,
		Total:     chain.FromUnits(placeholderTotal, decimals),
		Available: chain.FromUnits(placeholderAvailable, decimals),
		Locked:    chain.FromUnits(placeholderLocked, decimals),
		APY:       placeholderAPY,
		Providers: placeholderProviders,
		Synthetic: true,
	}
}

// Clone returns a deep copy of p.
func (p *Pool) Clone() *Pool {
	c := *p
	c.Total = new(big.Int).Set(p.Total)
	c.Available = new(big.Int).Set(p.Available)
	c.Locked = new(big.Int).Set(p.Locked)
	return &c
}

// Balanced reports whether Total == Available + Locked and no field is negative.
func (p *Pool) Balanced() bool {
	if p.Total.Sign() < 0 || p.Available.Sign() < 0 || p.Locked.Sign() < 0 {
		return false
	}
	sum := new(big.Int).Add(p.Available, p.Locked)
	return sum.Cmp(p.Total) == 0
}

// RealAvailable is the liquidity a transfer can actually draw on. Synthetic
// pools hold nothing.
func (p *Pool) RealAvailable() *big.Int {
	if p.Synthetic {
		return new(big.Int)
	}
	return new(big.Int).Set(p.Available)
}

// Add deposits amount into the pool as available liquidity from a new provider.
func (p *Pool) Add(amount *big.Int) {
	p.Total.Add(p.Total, amount)
	p.Available.Add(p.Available, amount)
	p.Providers++
}

// Remove withdraws available liquidity from the pool.
func (p *Pool) Remove(amount *big.Int) error {
	if p.Available.Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}
	p.Total.Sub(p.Total, amount)
	p.Available.Sub(p.Available, amount)
	return nil
}

// Reserve moves amount from available to locked.
func (p *Pool) Reserve(amount *big.Int) error {
	if p.Available.Cmp(amount) < 0 {
		return ErrInsufficientLiquidity
	}
	p.Available.Sub(p.Available, amount)
	p.Locked.Add(p.Locked, amount)
	return nil
}

// Release moves amount from locked back to available.
func (p *Pool) Release(amount *big.Int) error {
	if p.Locked.Cmp(amount) < 0 {
		return ErrInsufficientLocked
	}
	p.Locked.Sub(p.Locked, amount)
	p.Available.Add(p.Available, amount)
	return nil
}

// Consume removes locked liquidity that was delivered on the chain.
func (p *Pool) Consume(amount *big.Int) error {
	if p.Locked.Cmp(amount) < 0 {
		return ErrInsufficientLocked
	}
	p.Locked.Sub(p.Locked, amount)
	p.Total.Sub(p.Total, amount)
	return nil
}

// ComputeAPY returns the annualized yield for a pool holding total (smallest
// unit) on a chain with the given decimals. Thin pools earn more, and preferred
// chains get a flat bonus.
func ComputeAPY(total *big.Int, decimals int, preferred bool) decimal.Decimal {
	apy := baseAPY
	units := chain.ToUnits(total, decimals)
	switch {
	case units.LessThan(thinPoolCeiling):
		apy = apy.Add(thinPoolBonus)
	case units.LessThan(mediumPoolCeiling):
		apy = apy.Add(mediumPoolBonus)
	}
	if preferred {
		apy = apy.Add(preferredBonus)
	}
	return apy
}
