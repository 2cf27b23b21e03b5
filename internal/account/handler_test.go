package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/account"
	"github.com/frahmantamala/lead-management/internal/core/principal"
)

func TestAccount(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Account Suite")
}

type mockAccountRepository struct {
	principals      map[int64]*principal.Principal
	listError       error
	deactivateError error
}

func newMockAccountRepository() *mockAccountRepository {
	return &mockAccountRepository{principals: make(map[int64]*principal.Principal)}
}

func (m *mockAccountRepository) GetByEmail(ctx context.Context, email string) (*principal.Principal, error) {
	for _, p := range m.principals {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, internal.ErrPrincipalNotFound
}

func (m *mockAccountRepository) GetByID(ctx context.Context, id int64) (*principal.Principal, error) {
	if p, ok := m.principals[id]; ok {
		return p, nil
	}
	return nil, internal.ErrPrincipalNotFound
}

func (m *mockAccountRepository) List(ctx context.Context) ([]principal.Principal, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]principal.Principal, 0, len(m.principals))
	for _, p := range m.principals {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockAccountRepository) Deactivate(ctx context.Context, id int64) error {
	if m.deactivateError != nil {
		return m.deactivateError
	}
	p, ok := m.principals[id]
	if !ok {
		return internal.ErrPrincipalNotFound
	}
	now := time.Now()
	p.IsActive = false
	p.DeactivatedAt = &now
	return nil
}

type recordingInvalidator struct {
	invalidated []int64
}

func (r *recordingInvalidator) InvalidatePrincipal(principalID int64) {
	r.invalidated = append(r.invalidated, principalID)
}

var _ = Describe("AccountHandler", func() {
	var (
		handler     *account.Handler
		mockRepo    *mockAccountRepository
		invalidator *recordingInvalidator
		router      *chi.Mux
	)

	superAdmin := &principal.AccessContext{
		Principal: &principal.Principal{ID: 1, IsSuperAdmin: true},
	}

	serve := func(method, target string, access *principal.AccessContext) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(method, target, nil)
		if access != nil {
			r = r.WithContext(internal.ContextWithAccess(r.Context(), access))
		}
		router.ServeHTTP(rec, r)
		return rec
	}

	BeforeEach(func() {
		mockRepo = newMockAccountRepository()
		mockRepo.principals[1] = &principal.Principal{ID: 1, Email: "root@mail.com", IsSuperAdmin: true, IsActive: true}
		mockRepo.principals[20] = &principal.Principal{ID: 20, Email: "admin2@mail.com", IsActive: true}

		invalidator = &recordingInvalidator{}
		handler = account.NewHandler(mockRepo, invalidator, nil)

		router = chi.NewRouter()
		router.Get("/admin/principals", handler.List)
		router.Delete("/admin/principals/{id}", handler.Deactivate)
	})

	Describe("List", func() {
		It("should return all principals", func() {
			rec := serve("GET", "/admin/principals", superAdmin)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var body struct {
				Principals []principal.Principal `json:"principals"`
			}
			err := json.Unmarshal(rec.Body.Bytes(), &body)
			Expect(err).ToNot(HaveOccurred())
			Expect(body.Principals).To(HaveLen(2))
		})
	})

	Describe("Deactivate", func() {
		It("should soft-delete the account and drop its cached sessions", func() {
			rec := serve("DELETE", "/admin/principals/20", superAdmin)

			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(mockRepo.principals[20].IsActive).To(BeFalse())
			Expect(mockRepo.principals[20].DeactivatedAt).ToNot(BeNil())
			Expect(invalidator.invalidated).To(Equal([]int64{20}))
		})

		It("should return 404 for an unknown principal", func() {
			rec := serve("DELETE", "/admin/principals/999", superAdmin)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(invalidator.invalidated).To(BeEmpty())
		})

		It("should refuse self-deactivation", func() {
			rec := serve("DELETE", "/admin/principals/1", superAdmin)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(mockRepo.principals[1].IsActive).To(BeTrue())
			Expect(invalidator.invalidated).To(BeEmpty())
		})

		It("should return 400 for a malformed id", func() {
			rec := serve("DELETE", "/admin/principals/not-a-number", superAdmin)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 401 without an access context", func() {
			rec := serve("DELETE", "/admin/principals/20", nil)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(mockRepo.principals[20].IsActive).To(BeTrue())
		})
	})
})
