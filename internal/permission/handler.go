package permission

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     svc,
	}
}

// GetGrants lists the explicit grant rows for a principal. Super-admin only
// (enforced by the route guard); super-admin targets simply show no rows.
func (h *Handler) GetGrants(w http.ResponseWriter, r *http.Request) {
	principalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid principal id")
		return
	}

	caps, err := h.Service.Capabilities(r.Context(), principalID, false)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GrantsResponse{
		PrincipalID: principalID,
		Permissions: caps,
	})
}

// ReplaceGrants is the bulk update: delete-then-insert of the full desired
// set, attributed to the reviewing super-admin.
func (h *Handler) ReplaceGrants(w http.ResponseWriter, r *http.Request) {
	principalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid principal id")
		return
	}

	var dto SetGrantsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	access, ok := internal.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.Service.SetCapabilities(r.Context(), principalID, dto.Permissions, access.Principal.ID); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GrantsResponse{
		PrincipalID: principalID,
		Permissions: dto.Permissions,
	})
}
