package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/lead-management/internal/account"
	"github.com/frahmantamala/lead-management/internal/admission"
	"github.com/frahmantamala/lead-management/internal/auth"
	"github.com/frahmantamala/lead-management/internal/counselor"
	"github.com/frahmantamala/lead-management/internal/department"
	"github.com/frahmantamala/lead-management/internal/lead"
	"github.com/frahmantamala/lead-management/internal/permission"
	"github.com/frahmantamala/lead-management/internal/transport/middleware"
	"github.com/frahmantamala/lead-management/internal/transport/swagger"
	"github.com/go-chi/chi"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	Account    *account.Handler
	Admission  *admission.Handler
	Permission *permission.Handler
	Department *department.Handler
	Counselor  *counselor.Handler
	Lead       *lead.Handler
}

// RegisterAllRoutes mounts the API. Every privileged route sits behind the
// auth middleware; the admin surfaces additionally require super-admin
// before any data access, so a missing credential or a plain admin gets
// 401/403 and never a filtered-but-200 response.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, guard *auth.AccessGuard, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
			// verify-address is pre-session: the caller has no token yet,
			// the gate decision is keyed on (principal, source address).
			sr.Post("/verify-address", h.Admission.VerifyAddress)
		})

		// Protected routes that require an admitted session
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.Auth.Me)

			pr.Group(func(cr chi.Router) {
				cr.Use(guard.RequireCapability(permission.CapCounselors))
				cr.Get("/counselors", h.Counselor.List)
			})

			pr.Group(func(ar chi.Router) {
				ar.Use(guard.RequireCapability(permission.CapAssignments))
				ar.Get("/assignments", h.Lead.List)
			})

			pr.Group(func(mr chi.Router) {
				mr.Use(guard.RequireCapability(permission.CapConsultingMonitor))
				mr.Get("/consulting/summary", h.Lead.ConsultingSummary)
			})

			// Admin surfaces: super-admin only, checked before any data access
			pr.Route("/admin", func(adm chi.Router) {
				adm.Use(guard.RequireSuperAdmin())

				adm.Route("/address-requests", func(rr chi.Router) {
					rr.Get("/", h.Admission.ListRequests)
					rr.Patch("/{id}", h.Admission.ReviewRequest)
				})

				adm.Route("/approved-addresses", func(aa chi.Router) {
					aa.Get("/", h.Admission.ListApprovedAddresses)
					aa.Post("/", h.Admission.AddApprovedAddress)
					aa.Patch("/{id}", h.Admission.UpdateApprovedAddress)
					aa.Delete("/{id}", h.Admission.DeleteApprovedAddress)
				})

				adm.Route("/principals", func(pp chi.Router) {
					pp.Get("/", h.Account.List)
					pp.Delete("/{id}", h.Account.Deactivate)

					pp.Route("/{id}", func(pg chi.Router) {
						pg.Get("/permissions", h.Permission.GetGrants)
						pg.Put("/permissions", h.Permission.ReplaceGrants)
						pg.Get("/departments", h.Department.GetGrants)
						pg.Put("/departments", h.Department.ReplaceGrants)
					})
				})
			})
		})
	})
}
