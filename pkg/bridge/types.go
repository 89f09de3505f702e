package bridge

import (
	"sort"
	"strconv"
	"time"
)

// InitiateRequest is the JSON body of a bridge initiation call.
type InitiateRequest struct {
	DomainID      string `json:"domain_id" validate:"required,max=255"`
	SourceChain   uint64 `json:"source_chain" validate:"required"`
	TargetChain   uint64 `json:"target_chain" validate:"required"`
	Amount        string `json:"amount" validate:"required,numeric"`
	TargetAddress string `json:"target_address" validate:"required,max=128"`
}

// RequestResponse is the JSON view of a Request.
type RequestResponse struct {
	ID               string     `json:"id"`
	DomainID         string     `json:"domain_id"`
	SourceChain      uint64     `json:"source_chain"`
	TargetChain      uint64     `json:"target_chain"`
	Amount           string     `json:"amount"`
	Fee              string     `json:"fee"`
	TargetAddress    string     `json:"target_address"`
	Status           Status     `json:"status"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	SourceTxHash     string     `json:"source_tx_hash,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
}

// NewRequestResponse converts r to its JSON view.
func NewRequestResponse(r *Request) *RequestResponse {
	return &RequestResponse{
		ID:               r.ID,
		DomainID:         r.DomainID,
		SourceChain:      r.SourceChain,
		TargetChain:      r.TargetChain,
		Amount:           r.Amount.String(),
		Fee:              r.Fee.String(),
		TargetAddress:    r.TargetAddress,
		Status:           r.Status,
		EstimatedMinutes: r.EstimatedMinutes,
		SourceTxHash:     r.SourceTxHash,
		CreatedAt:        r.CreatedAt,
		ResolvedAt:       r.ResolvedAt,
	}
}

// NewRequestResponses converts a slice of requests.
func NewRequestResponses(reqs []*Request) []*RequestResponse {
	out := make([]*RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, NewRequestResponse(r))
	}
	return out
}

// VolumeResponse is the JSON view of a Volume. Per-chain keys are decimal chain ids.
type VolumeResponse struct {
	Total   string            `json:"total"`
	ByChain map[string]string `json:"by_chain"`
}

// NewVolumeResponse converts v to its JSON view.
func NewVolumeResponse(v *Volume) *VolumeResponse {
	resp := &VolumeResponse{
		Total:   v.Total.String(),
		ByChain: make(map[string]string, len(v.ByChain)),
	}
	ids := make([]uint64, 0, len(v.ByChain))
	for id := range v.ByChain {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		resp.ByChain[strconv.FormatUint(id, 10)] = v.ByChain[id].String()
	}
	return resp
}

// EstimateResponse is the JSON view of a fee/time estimate.
type EstimateResponse struct {
	SourceChain      uint64 `json:"source_chain"`
	TargetChain      uint64 `json:"target_chain"`
	Amount           string `json:"amount"`
	Fee              string `json:"fee"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}
