package account

import (
	"net/http"
	"strconv"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/core/events"
	"github.com/frahmantamala/lead-management/internal/transport"
	"github.com/go-chi/chi"
)

// Invalidator drops cached access contexts so a deactivation takes effect
// on the principal's next request instead of lingering until logout.
type Invalidator interface {
	InvalidatePrincipal(principalID int64)
}

type Handler struct {
	*transport.BaseHandler
	Repo        RepositoryAPI
	invalidator Invalidator
	bus         *events.EventBus
}

func NewHandler(repo RepositoryAPI, invalidator Invalidator, bus *events.EventBus) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Repo:        repo,
		invalidator: invalidator,
		bus:         bus,
	}
}

// List returns every principal, active or deactivated. Super-admin only,
// enforced by the route guard.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	principals, err := h.Repo.List(r.Context())
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"principals": principals})
}

// Deactivate soft-deletes the account and drops its cached access contexts,
// so any live session is refused on its next request.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	principalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid principal id")
		return
	}

	access, ok := internal.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if access.Principal.ID == principalID {
		h.WriteError(w, http.StatusBadRequest, "cannot deactivate own account")
		return
	}

	if err := h.Repo.Deactivate(r.Context(), principalID); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	if h.invalidator != nil {
		h.invalidator.InvalidatePrincipal(principalID)
	}

	if h.bus != nil {
		h.bus.Publish(r.Context(), events.NewAuditEvent(events.EventPrincipalDeactivated, map[string]interface{}{
			"principal_id":   principalID,
			"deactivated_by": access.Principal.ID,
		}))
	}

	w.WriteHeader(http.StatusNoContent)
}
