package liquidity

import (
	"time"
)

// AmountRequest is the body of add/remove liquidity calls.
type AmountRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

// PoolResponse is the JSON view of a Pool. Amounts are decimal strings.
type PoolResponse struct {
	ChainID   uint64     `json:"chain_id"`
	Total     string     `json:"total"`
	Available string     `json:"available"`
	Locked    string     `json:"locked"`
	APY       string     `json:"apy"`
	Providers int        `json:"providers"`
	Synthetic bool       `json:"synthetic"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NewPoolResponse converts p to its JSON view.
func NewPoolResponse(p *Pool) *PoolResponse {
	resp := &PoolResponse{
		ChainID:   p.ChainID,
		Total:     p.Total.String(),
		Available: p.Available.String(),
		Locked:    p.Locked.String(),
		APY:       p.APY.String(),
		Providers: p.Providers,
		Synthetic: p.Synthetic,
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}
