package lead

import (
	"net/http"
	"strconv"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Repo RepositoryAPI
}

func NewHandler(repo RepositoryAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Repo:        repo,
	}
}

// List returns lead assignments narrowed to the caller's department scope.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	access, ok := internal.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	assignments, err := h.Repo.ListVisible(r.Context(), access.Departments, limit, offset)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"assignments": assignments})
}

// ConsultingSummary feeds the consulting dashboard with per-department
// assignment counts, scoped the same way as the listings.
func (h *Handler) ConsultingSummary(w http.ResponseWriter, r *http.Request) {
	access, ok := internal.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summaries, err := h.Repo.SummaryByDepartment(r.Context(), access.Departments)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"summary": summaries})
}
