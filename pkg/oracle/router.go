package oracle

import (
	"context"
	"fmt"

	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
)

// Router dispatches status checks by the request's source chain.
type Router struct {
	routes   map[uint64]bridge.StatusOracle
	fallback bridge.StatusOracle
}

// NewRouter creates a router. fallback may be nil, in which case requests from
// unrouted chains fail the check.
func NewRouter(fallback bridge.StatusOracle) *Router {
	return &Router{routes: make(map[uint64]bridge.StatusOracle), fallback: fallback}
}

// Route sets the oracle for chainID. It must not be called concurrently with
// CheckBridgeStatus.
func (r *Router) Route(chainID uint64, o bridge.StatusOracle) {
	r.routes[chainID] = o
}

// CheckBridgeStatus implements bridge.StatusOracle. Requests without a source
// transaction hash go to the fallback when there is one, since chain oracles
// can only follow a known transaction.
func (r *Router) CheckBridgeStatus(ctx context.Context, req *bridge.Request) (bridge.Status, error) {
	if req.SourceTxHash == "" && r.fallback != nil {
		return r.fallback.CheckBridgeStatus(ctx, req)
	}
	if o, ok := r.routes[req.SourceChain]; ok {
		return o.CheckBridgeStatus(ctx, req)
	}
	if r.fallback != nil {
		return r.fallback.CheckBridgeStatus(ctx, req)
	}
	return "", fmt.Errorf("no status oracle for chain %d", req.SourceChain)
}
