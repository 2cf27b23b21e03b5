package admission_test

import (
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/lead-management/internal/admission"
)

var _ = Describe("RemoteAddress", func() {
	It("should prefer the first X-Forwarded-For entry", func() {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2, 10.0.0.3")
		r.Header.Set("X-Real-IP", "198.51.100.1")
		r.RemoteAddr = "192.0.2.1:5555"

		Expect(admission.RemoteAddress(r)).To(Equal("203.0.113.7"))
	})

	It("should trim whitespace around forwarded entries", func() {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", "  203.0.113.7 , 10.0.0.2")

		Expect(admission.RemoteAddress(r)).To(Equal("203.0.113.7"))
	})

	It("should fall back to X-Real-IP", func() {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Real-IP", "198.51.100.1")
		r.RemoteAddr = "192.0.2.1:5555"

		Expect(admission.RemoteAddress(r)).To(Equal("198.51.100.1"))
	})

	It("should fall back to the host part of RemoteAddr", func() {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "192.0.2.1:5555"

		Expect(admission.RemoteAddress(r)).To(Equal("192.0.2.1"))
	})

	It("should default to loopback when nothing is available", func() {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = ""

		Expect(admission.RemoteAddress(r)).To(Equal("127.0.0.1"))
	})
})
