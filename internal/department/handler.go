package department

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
	Repo    RepositoryAPI
}

func NewHandler(svc ServiceAPI, repo RepositoryAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     svc,
		Repo:        repo,
	}
}

func (h *Handler) GetGrants(w http.ResponseWriter, r *http.Request) {
	principalID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid principal id")
		return
	}

	grants, err := h.Repo.ListGrants(r.Context(), principalID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	departments := make([]string, 0, len(grants))
	for _, g := range grants {
		departments = append(departments, g.Department)
	}

	h.WriteJSON(w, http.StatusOK, GrantsResponse{
		PrincipalID: principalID,
		Departments: departments,
	})
}

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

	if err := h.Service.ReplaceDepartments(r.Context(), principalID, dto.Departments, access.Principal.ID); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, GrantsResponse{
		PrincipalID: principalID,
		Departments: dto.Departments,
	})
}
