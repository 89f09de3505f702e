package chain

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/chainsafe/crosschain-bridge/pkg/app/errors"
	apphttp "github.com/chainsafe/crosschain-bridge/pkg/app/http"
)

// RoutesResponse lists the chains reachable from a source chain.
type RoutesResponse struct {
	Source  uint64   `json:"source"`
	Targets []uint64 `json:"targets"`
}

// RegisterRoutes registers the read-only chain catalog endpoints.
func RegisterRoutes(r chi.Router, registry *Registry) {
	r.Route("/chains", func(r chi.Router) {
		r.Get("/", apphttp.HandleError(func(w http.ResponseWriter, r *http.Request) error {
			family := r.URL.Query().Get("family")
			if family == "" {
				apphttp.WriteJSON(w, http.StatusOK, map[string]any{"chains": registry.List()})
				return nil
			}
			f, err := ParseFamily(family)
			if err != nil {
				return apperrors.BadRequestError(err, fmt.Sprintf("unknown family %q", family))
			}
			apphttp.WriteJSON(w, http.StatusOK, map[string]any{"chains": registry.ListByFamily(f)})
			return nil
		}))

		r.Get("/{chainID}", apphttp.HandleError(func(w http.ResponseWriter, r *http.Request) error {
			d, err := lookup(registry, r)
			if err != nil {
				return err
			}
			apphttp.WriteJSON(w, http.StatusOK, d)
			return nil
		}))

		r.Get("/{chainID}/routes", apphttp.HandleError(func(w http.ResponseWriter, r *http.Request) error {
			d, err := lookup(registry, r)
			if err != nil {
				return err
			}
			apphttp.WriteJSON(w, http.StatusOK, &RoutesResponse{Source: d.ID, Targets: registry.Routes(d.ID)})
			return nil
		}))
	})
}

func lookup(registry *Registry, r *http.Request) (Descriptor, error) {
	id, err := apphttp.ChainIDParam(r, "chainID")
	if err != nil {
		return Descriptor{}, err
	}
	d, ok := registry.Get(id)
	if !ok {
		return Descriptor{}, apperrors.ResourceNotFoundError(nil, fmt.Sprintf("chain %d not found", id))
	}
	return d, nil
}
