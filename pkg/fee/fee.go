// Package fee estimates the cost and duration of a bridge transfer.
package fee

import (
	"math/big"

	"github.com/chainsafe/crosschain-bridge/pkg/chain"
)

const (
	// baseRateBps is the bridge fee in basis points of the transferred amount.
	baseRateBps = 10
	bpsDenom    = 10_000

	// base-layer surcharge, as a percentage multiplier (150/100 = 1.5x)
	baseLayerFeeNum   = 150
	baseLayerFeeDenom = 100

	baseMinutes        = 15
	baseLayerMinutes   = 10
	crossFamilyMinutes = 20
)

// ChainLookup resolves chain descriptors.
type ChainLookup interface {
	Get(id uint64) (chain.Descriptor, bool)
}

// Estimator computes bridge fees and completion times. It has no state beyond
// the chain catalog and is safe for concurrent use.
type Estimator struct {
	chains ChainLookup
}

// NewEstimator creates a fee estimator backed by chains.
func NewEstimator(chains ChainLookup) *Estimator {
	return &Estimator{chains: chains}
}

// EstimateFee returns the fee, in the amount's smallest unit, for moving amount
// from source to target. The fee is charged on top of the amount.
func (e *Estimator) EstimateFee(amount *big.Int, source, target uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return new(big.Int)
	}

	fee := new(big.Int).Mul(amount, big.NewInt(baseRateBps))
	fee.Quo(fee, big.NewInt(bpsDenom))

	if e.touchesBaseLayer(source, target) {
		fee.Mul(fee, big.NewInt(baseLayerFeeNum))
		fee.Quo(fee, big.NewInt(baseLayerFeeDenom))
	}
	return fee
}

// EstimateTime returns the expected completion time in minutes.
func (e *Estimator) EstimateTime(source, target uint64) int {
	minutes := baseMinutes
	if e.touchesBaseLayer(source, target) {
		minutes += baseLayerMinutes
	}
	if e.crossFamily(source, target) {
		minutes += crossFamilyMinutes
	}
	return minutes
}

func (e *Estimator) touchesBaseLayer(source, target uint64) bool {
	src, _ := e.chains.Get(source)
	dst, _ := e.chains.Get(target)
	return src.BaseLayer || dst.BaseLayer
}

// unknown chains are treated as same-family
func (e *Estimator) crossFamily(source, target uint64) bool {
	src, okSrc := e.chains.Get(source)
	dst, okDst := e.chains.Get(target)
	if !okSrc || !okDst {
		return false
	}
	return src.Family != dst.Family
}
