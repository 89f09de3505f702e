package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/crosschain-bridge/pkg/app/errors"
	apphttp "github.com/chainsafe/crosschain-bridge/pkg/app/http"
	"github.com/chainsafe/crosschain-bridge/pkg/chain"
	"github.com/chainsafe/crosschain-bridge/pkg/liquidity"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the liquidity endpoints on the given chi router.
// Mutating endpoints are wrapped with the supplied middlewares (operator auth,
// rate limiting).
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger, mutating ...func(http.Handler) http.Handler) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Route("/liquidity", func(r chi.Router) {
		r.Get("/", apphttp.HandleError(h.list))
		r.Get("/{chainID}", apphttp.HandleError(h.get))

		r.Group(func(r chi.Router) {
			r.Use(mutating...)
			r.Post("/{chainID}/add", apphttp.HandleError(h.add))
			r.Post("/{chainID}/remove", apphttp.HandleError(h.remove))
		})
	})
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) error {
	pools, err := h.service.ListPools(r.Context())
	if err != nil {
		return err
	}
	resp := make([]*liquidity.PoolResponse, 0, len(pools))
	for _, p := range pools {
		resp = append(resp, liquidity.NewPoolResponse(p))
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{"pools": resp})
	return nil
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) error {
	chainID, err := apphttp.ChainIDParam(r, "chainID")
	if err != nil {
		return err
	}
	pool, err := h.service.GetLiquidity(r.Context(), chainID)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, liquidity.NewPoolResponse(pool))
	return nil
}

func (h *HTTP) add(w http.ResponseWriter, r *http.Request) error {
	chainID, req, err := h.parseAmountRequest(r)
	if err != nil {
		return err
	}
	amount, err := chain.ParseAmount(req.Amount)
	if err != nil {
		return apperrors.BadRequestError(err, "amount must be a positive integer")
	}
	pool, err := h.service.AddLiquidity(r.Context(), chainID, amount)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, liquidity.NewPoolResponse(pool))
	return nil
}

func (h *HTTP) remove(w http.ResponseWriter, r *http.Request) error {
	chainID, req, err := h.parseAmountRequest(r)
	if err != nil {
		return err
	}
	amount, err := chain.ParseAmount(req.Amount)
	if err != nil {
		return apperrors.BadRequestError(err, "amount must be a positive integer")
	}
	pool, err := h.service.RemoveLiquidity(r.Context(), chainID, amount)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, liquidity.NewPoolResponse(pool))
	return nil
}

func (h *HTTP) parseAmountRequest(r *http.Request) (uint64, *liquidity.AmountRequest, error) {
	chainID, err := apphttp.ChainIDParam(r, "chainID")
	if err != nil {
		return 0, nil, err
	}
	var req liquidity.AmountRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return 0, nil, err
	}
	return chainID, &req, nil
}
