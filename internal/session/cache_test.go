package session_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/lead-management/internal/core/principal"
	"github.com/frahmantamala/lead-management/internal/session"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Suite")
}

var _ = Describe("Cache", func() {
	var cache *session.Cache

	access := func(principalID int64, sessionID string) *principal.AccessContext {
		return &principal.AccessContext{
			Principal: &principal.Principal{ID: principalID},
			SessionID: sessionID,
		}
	}

	BeforeEach(func() {
		cache = session.NewCache()
	})

	It("should return stored entries", func() {
		cache.Put("s1", access(10, "s1"))

		got, ok := cache.Get("s1")
		Expect(ok).To(BeTrue())
		Expect(got.Principal.ID).To(Equal(int64(10)))
	})

	It("should miss on unknown sessions", func() {
		_, ok := cache.Get("nope")
		Expect(ok).To(BeFalse())
	})

	It("should drop a single session", func() {
		cache.Put("s1", access(10, "s1"))
		cache.Drop("s1")

		_, ok := cache.Get("s1")
		Expect(ok).To(BeFalse())
	})

	Describe("InvalidatePrincipal", func() {
		It("should drop every session of the principal and nothing else", func() {
			cache.Put("s1", access(10, "s1"))
			cache.Put("s2", access(10, "s2"))
			cache.Put("s3", access(20, "s3"))

			cache.InvalidatePrincipal(10)

			_, ok := cache.Get("s1")
			Expect(ok).To(BeFalse())
			_, ok = cache.Get("s2")
			Expect(ok).To(BeFalse())
			_, ok = cache.Get("s3")
			Expect(ok).To(BeTrue())
		})

		It("should be a no-op for a principal with no sessions", func() {
			cache.Put("s1", access(10, "s1"))

			cache.InvalidatePrincipal(99)

			_, ok := cache.Get("s1")
			Expect(ok).To(BeTrue())
		})
	})
})
