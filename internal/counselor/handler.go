package counselor

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/permission"
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

// List returns the counselor directory narrowed to the caller's department
// scope. Phone numbers are masked unless the caller holds phone_unmask.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	access, ok := internal.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	counselors, err := h.Repo.ListVisible(r.Context(), access.Departments)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	if !access.HasCapability(permission.CapPhoneUnmask) {
		for i := range counselors {
			counselors[i].Phone = maskPhone(counselors[i].Phone)
		}
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"counselors": counselors})
}

// maskPhone keeps the last four digits.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
