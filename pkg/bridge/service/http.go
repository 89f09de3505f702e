package service

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/crosschain-bridge/pkg/app/errors"
	apphttp "github.com/chainsafe/crosschain-bridge/pkg/app/http"
	"github.com/chainsafe/crosschain-bridge/pkg/bridge"
	"github.com/chainsafe/crosschain-bridge/pkg/chain"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the bridge and estimate endpoints on the given chi
// router. Initiation is wrapped with the supplied middlewares.
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger, mutating ...func(http.Handler) http.Handler) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Route("/bridge", func(r chi.Router) {
		r.With(mutating...).Post("/", apphttp.HandleError(h.initiate))
		r.Get("/pending", apphttp.HandleError(h.pending))
		r.Get("/volume", apphttp.HandleError(h.volume))
		r.Get("/history/{address}", apphttp.HandleError(h.history))
		r.Get("/{id}", apphttp.HandleError(h.get))
	})
	r.Get("/estimate", apphttp.HandleError(h.estimate))
}

func (h *HTTP) initiate(w http.ResponseWriter, r *http.Request) error {
	var req bridge.InitiateRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	amount, err := chain.ParseAmount(req.Amount)
	if err != nil {
		return apperrors.BadRequestError(err, "amount must be a positive integer")
	}

	created, err := h.service.Initiate(r.Context(), &bridge.Transfer{
		DomainID:      req.DomainID,
		SourceChain:   req.SourceChain,
		TargetChain:   req.TargetChain,
		Amount:        amount,
		TargetAddress: req.TargetAddress,
	})
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusAccepted, bridge.NewRequestResponse(created))
	return nil
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) error {
	req, err := h.service.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, bridge.NewRequestResponse(req))
	return nil
}

func (h *HTTP) pending(w http.ResponseWriter, r *http.Request) error {
	reqs, err := h.service.PendingRequests(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{"requests": bridge.NewRequestResponses(reqs)})
	return nil
}

func (h *HTTP) history(w http.ResponseWriter, r *http.Request) error {
	reqs, err := h.service.UserHistory(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{"requests": bridge.NewRequestResponses(reqs)})
	return nil
}

func (h *HTTP) volume(w http.ResponseWriter, r *http.Request) error {
	v, err := h.service.TotalVolume(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, bridge.NewVolumeResponse(v))
	return nil
}

func (h *HTTP) estimate(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	source, err := strconv.ParseUint(q.Get("source"), 10, 64)
	if err != nil {
		return apperrors.BadRequestError(err, "invalid source")
	}
	target, err := strconv.ParseUint(q.Get("target"), 10, 64)
	if err != nil {
		return apperrors.BadRequestError(err, "invalid target")
	}
	amount, err := chain.ParseAmount(q.Get("amount"))
	if err != nil {
		return apperrors.BadRequestError(err, "amount must be a positive integer")
	}

	est, err := h.service.Estimate(r.Context(), source, target, amount)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, &bridge.EstimateResponse{
		SourceChain:      source,
		TargetChain:      target,
		Amount:           amount.String(),
		Fee:              est.Fee.String(),
		EstimatedMinutes: est.EstimatedMinutes,
	})
	return nil
}
