package auth_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/auth"
	"github.com/frahmantamala/lead-management/internal/core/principal"
	"github.com/frahmantamala/lead-management/internal/permission"
)

var _ = Describe("AccessGuard", func() {
	var (
		guard *auth.AccessGuard
		next  http.Handler
	)

	requestWithAccess := func(access *principal.AccessContext) *http.Request {
		r := httptest.NewRequest("GET", "/admin/address-requests", nil)
		if access != nil {
			r = r.WithContext(internal.ContextWithAccess(r.Context(), access))
		}
		return r
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		guard = auth.NewAccessGuard(logger)
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	Describe("RequireSuperAdmin", func() {
		It("should pass a super admin through", func() {
			rec := httptest.NewRecorder()
			r := requestWithAccess(&principal.AccessContext{
				Principal: &principal.Principal{ID: 1, IsSuperAdmin: true},
			})

			guard.RequireSuperAdmin()(next).ServeHTTP(rec, r)

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should return 403 for a regular admin before the handler runs", func() {
			handlerRan := false
			probe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerRan = true
			})

			rec := httptest.NewRecorder()
			r := requestWithAccess(&principal.AccessContext{
				Principal:    &principal.Principal{ID: 10},
				Capabilities: permission.GrantableCapabilities(),
			})

			guard.RequireSuperAdmin()(probe).ServeHTTP(rec, r)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(handlerRan).To(BeFalse())
		})

		It("should return 401 without an access context", func() {
			rec := httptest.NewRecorder()
			r := requestWithAccess(nil)

			guard.RequireSuperAdmin()(next).ServeHTTP(rec, r)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("RequireCapability", func() {
		It("should pass a holder of the capability", func() {
			rec := httptest.NewRecorder()
			r := requestWithAccess(&principal.AccessContext{
				Principal:    &principal.Principal{ID: 10},
				Capabilities: []string{permission.CapCounselors},
			})

			guard.RequireCapability(permission.CapCounselors)(next).ServeHTTP(rec, r)

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should return 403 for a missing capability", func() {
			rec := httptest.NewRecorder()
			r := requestWithAccess(&principal.AccessContext{
				Principal:    &principal.Principal{ID: 10},
				Capabilities: []string{permission.CapLeads},
			})

			guard.RequireCapability(permission.CapCounselors)(next).ServeHTTP(rec, r)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("should pass a super admin without grant rows", func() {
			rec := httptest.NewRecorder()
			r := requestWithAccess(&principal.AccessContext{
				Principal: &principal.Principal{ID: 1, IsSuperAdmin: true},
			})

			guard.RequireCapability(permission.CapCounselors)(next).ServeHTTP(rec, r)

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		Context("for the settings capability", func() {
			It("should refuse even a principal whose cached set claims settings", func() {
				rec := httptest.NewRecorder()
				r := requestWithAccess(&principal.AccessContext{
					Principal:    &principal.Principal{ID: 10},
					Capabilities: []string{permission.CapSettings},
				})

				guard.RequireCapability(permission.CapSettings)(next).ServeHTTP(rec, r)

				Expect(rec.Code).To(Equal(http.StatusForbidden))
			})

			It("should pass a super admin", func() {
				rec := httptest.NewRecorder()
				r := requestWithAccess(&principal.AccessContext{
					Principal: &principal.Principal{ID: 1, IsSuperAdmin: true},
				})

				guard.RequireCapability(permission.CapSettings)(next).ServeHTTP(rec, r)

				Expect(rec.Code).To(Equal(http.StatusOK))
			})
		})
	})
})
