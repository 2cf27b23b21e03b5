package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/permission"
)

// AccessGuard re-checks the session's cached capability set before a
// privileged route renders or executes. A mismatch is an explicit
// forbidden outcome, never a silent no-op.
type AccessGuard struct {
	logger *slog.Logger
}

func NewAccessGuard(logger *slog.Logger) *AccessGuard {
	return &AccessGuard{logger: logger}
}

// RequireSuperAdmin gates the admin surfaces: address review, grant
// management, settings. The check runs before any data access, so a
// non-super-admin never sees a filtered-but-200 response.
func (g *AccessGuard) RequireSuperAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := internal.AccessFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !access.Principal.IsSuperAdmin {
				g.logger.WarnContext(r.Context(), "access denied: super admin required",
					"principal_id", access.Principal.ID,
					"path", r.URL.Path)
				http.Error(w, "Forbidden: super admin privileges required", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability gates a route on one capability. The settings
// capability is special-cased to super-admins regardless of grants; it is
// a hard rule because settings controls who can grant permissions.
func (g *AccessGuard) RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := internal.AccessFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if capability == permission.CapSettings {
				if !access.CanManageSettings() {
					g.logger.WarnContext(r.Context(), "access denied: settings is super-admin exclusive",
						"principal_id", access.Principal.ID)
					http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !access.HasCapability(capability) {
				g.logger.WarnContext(r.Context(), "access denied: missing capability",
					"principal_id", access.Principal.ID,
					"required_capability", capability,
					"held_capabilities", access.Capabilities)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
