package auth_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/admission"
	"github.com/frahmantamala/lead-management/internal/auth"
	"github.com/frahmantamala/lead-management/internal/core/events"
	"github.com/frahmantamala/lead-management/internal/core/principal"
	"github.com/frahmantamala/lead-management/internal/session"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

// Mock account store for testing
type mockAccountRepository struct {
	byEmail map[string]*principal.Principal
	byID    map[int64]*principal.Principal
}

func newMockAccountRepository() *mockAccountRepository {
	return &mockAccountRepository{
		byEmail: make(map[string]*principal.Principal),
		byID:    make(map[int64]*principal.Principal),
	}
}

func (m *mockAccountRepository) add(p *principal.Principal) {
	m.byEmail[p.Email] = p
	m.byID[p.ID] = p
}

func (m *mockAccountRepository) GetByEmail(ctx context.Context, email string) (*principal.Principal, error) {
	p, ok := m.byEmail[email]
	if !ok {
		return nil, internal.ErrPrincipalNotFound
	}
	return p, nil
}

func (m *mockAccountRepository) GetByID(ctx context.Context, id int64) (*principal.Principal, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, internal.ErrPrincipalNotFound
	}
	return p, nil
}

func (m *mockAccountRepository) List(ctx context.Context) ([]principal.Principal, error) {
	var out []principal.Principal
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockAccountRepository) Deactivate(ctx context.Context, id int64) error {
	if p, ok := m.byID[id]; ok {
		p.IsActive = false
	}
	return nil
}

// Mock session store for testing
type mockSessionRepository struct {
	sessions       map[string]*session.Session
	terminateError error
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{sessions: make(map[string]*session.Session)}
}

func (m *mockSessionRepository) Create(ctx context.Context, s *session.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (m *mockSessionRepository) Terminate(ctx context.Context, id string, at time.Time) error {
	if m.terminateError != nil {
		return m.terminateError
	}
	if s, ok := m.sessions[id]; ok {
		s.State = session.StateTerminated
		s.TerminatedAt = &at
	}
	return nil
}

// Mock gate with a scripted decision
type mockGate struct {
	result admission.Result
	err    error
	calls  int
}

func (m *mockGate) Admit(ctx context.Context, p *principal.Principal, address string) (admission.Result, error) {
	m.calls++
	return m.result, m.err
}

// Mock resolvers returning scripted sets
type mockPermissionResolver struct {
	caps  map[int64][]string
	calls int
}

func (m *mockPermissionResolver) Capabilities(ctx context.Context, principalID int64, isSuperAdmin bool) ([]string, error) {
	m.calls++
	return m.caps[principalID], nil
}

type mockDepartmentResolver struct {
	departments map[int64][]string
}

func (m *mockDepartmentResolver) AccessibleDepartments(ctx context.Context, p *principal.Principal) ([]string, error) {
	return m.departments[p.ID], nil
}

// Stub token generator with reversible fake tokens
type stubTokenGenerator struct {
	claims map[string]*auth.Claims
	nextID int
}

func newStubTokenGenerator() *stubTokenGenerator {
	return &stubTokenGenerator{claims: make(map[string]*auth.Claims)}
}

func (s *stubTokenGenerator) generate(kind, userID, email, sessionID string) (string, error) {
	s.nextID++
	token := fmt.Sprintf("%s-%d", kind, s.nextID)
	s.claims[token] = &auth.Claims{UserID: userID, Email: email, SessionID: sessionID}
	return token, nil
}

func (s *stubTokenGenerator) GenerateAccessToken(userID, email, sessionID string) (string, error) {
	return s.generate("access", userID, email, sessionID)
}

func (s *stubTokenGenerator) GenerateRefreshToken(userID, email, sessionID string) (string, error) {
	return s.generate("refresh", userID, email, sessionID)
}

func (s *stubTokenGenerator) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims, ok := s.claims[tokenString]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

var _ = Describe("AuthService", func() {
	var (
		service      *auth.Service
		accounts     *mockAccountRepository
		sessions     *mockSessionRepository
		gate         *mockGate
		permissions  *mockPermissionResolver
		departments  *mockDepartmentResolver
		tokens       *stubTokenGenerator
		cache        *session.Cache
		ctx          context.Context
		activeAdmin  *principal.Principal
		passwordHash string
	)

	BeforeEach(func() {
		accounts = newMockAccountRepository()
		sessions = newMockSessionRepository()
		gate = &mockGate{result: admission.Result{Decision: admission.DecisionAllowed}}
		permissions = &mockPermissionResolver{caps: make(map[int64][]string)}
		departments = &mockDepartmentResolver{departments: make(map[int64][]string)}
		tokens = newStubTokenGenerator()
		cache = session.NewCache()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)

		service = auth.NewService(accounts, tokens, gate, permissions, departments, sessions, cache, bus, logger)
		ctx = context.Background()

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
		Expect(err).ToNot(HaveOccurred())
		passwordHash = string(hash)

		activeAdmin = &principal.Principal{
			ID:           10,
			Email:        "admin@mail.com",
			Role:         principal.RoleAdmin,
			IsActive:     true,
			PasswordHash: passwordHash,
		}
		accounts.add(activeAdmin)
		permissions.caps[10] = []string{"leads", "counselors"}
		departments.departments[10] = []string{"Sales"}
	})

	Describe("Login", func() {
		Context("when admitted", func() {
			It("should return tokens and the resolved access context", func() {
				result, err := service.Login(ctx, auth.LoginDTO{Email: "admin@mail.com", Password: "password"}, "10.0.0.1")

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Admission.Allowed()).To(BeTrue())
				Expect(result.Tokens).ToNot(BeNil())
				Expect(result.Tokens.AccessToken).ToNot(BeEmpty())
				Expect(result.Access).ToNot(BeNil())
				Expect(result.Access.Capabilities).To(ConsistOf("leads", "counselors"))
				Expect(result.Access.Departments).To(ConsistOf("Sales"))
			})

			It("should create an active session row and cache the access", func() {
				result, err := service.Login(ctx, auth.LoginDTO{Email: "admin@mail.com", Password: "password"}, "10.0.0.1")
				Expect(err).ToNot(HaveOccurred())

				sess := sessions.sessions[result.Access.SessionID]
				Expect(sess).ToNot(BeNil())
				Expect(sess.State).To(Equal(session.StateActive))
				Expect(sess.IPAddress).To(Equal("10.0.0.1"))

				cached, ok := cache.Get(result.Access.SessionID)
				Expect(ok).To(BeTrue())
				Expect(cached.Principal.ID).To(Equal(activeAdmin.ID))
			})
		})

		Context("when the gate holds the login", func() {
			BeforeEach(func() {
				gate.result = admission.Result{
					Decision:       admission.DecisionPending,
					Message:        "address approval pending review",
					PendingRequest: true,
				}
			})

			It("should return no tokens and no access", func() {
				result, err := service.Login(ctx, auth.LoginDTO{Email: "admin@mail.com", Password: "password"}, "10.0.0.1")

				Expect(err).ToNot(HaveOccurred())
				Expect(result.Admission.Allowed()).To(BeFalse())
				Expect(result.Admission.PendingRequest).To(BeTrue())
				Expect(result.Tokens).To(BeNil())
				Expect(result.Access).To(BeNil())
			})

			It("should record a gated session for audit", func() {
				_, err := service.Login(ctx, auth.LoginDTO{Email: "admin@mail.com", Password: "password"}, "10.0.0.1")
				Expect(err).ToNot(HaveOccurred())

				Expect(sessions.sessions).To(HaveLen(1))
				for _, sess := range sessions.sessions {
					Expect(sess.State).To(Equal(session.StateGated))
				}
			})
		})

		Context("when credentials are wrong", func() {
			It("should fail the same way for a bad password and an unknown account", func() {
				_, badPassword := service.Login(ctx, auth.LoginDTO{Email: "admin@mail.com", Password: "wrong"}, "10.0.0.1")
				_, unknown := service.Login(ctx, auth.LoginDTO{Email: "ghost@mail.com", Password: "password"}, "10.0.0.1")

				Expect(badPassword).To(Equal(internal.ErrInvalidCredentials))
				Expect(unknown).To(Equal(internal.ErrInvalidCredentials))
			})

			It("should not consult the gate", func() {
				_, err := service.Login(ctx, auth.LoginDTO{Email: "admin@mail.com", Password: "wrong"}, "10.0.0.1")

				Expect(err).To(HaveOccurred())
				Expect(gate.calls).To(Equal(0))
			})
		})

		Context("when validation fails", func() {
			It("should reject an empty email", func() {
				_, err := service.Login(ctx, auth.LoginDTO{Password: "password"}, "10.0.0.1")

				var verr auth.ValidationError
				Expect(errors.As(err, &verr)).To(BeTrue())
			})
		})
	})

	Describe("ResolveAccess", func() {
		var sessionID string

		BeforeEach(func() {
			result, err := service.Login(ctx, auth.LoginDTO{Email: "admin@mail.com", Password: "password"}, "10.0.0.1")
			Expect(err).ToNot(HaveOccurred())
			sessionID = result.Access.SessionID
		})

		It("should serve repeated lookups from the cache", func() {
			resolveCallsAfterLogin := permissions.calls

			for i := 0; i < 3; i++ {
				access, err := service.ResolveAccess(ctx, sessionID)
				Expect(err).ToNot(HaveOccurred())
				Expect(access.Capabilities).To(ConsistOf("leads", "counselors"))
			}

			Expect(permissions.calls).To(Equal(resolveCallsAfterLogin))
		})

		It("should recompute after the principal is invalidated", func() {
			permissions.caps[10] = []string{"leads"}
			cache.InvalidatePrincipal(10)

			access, err := service.ResolveAccess(ctx, sessionID)

			Expect(err).ToNot(HaveOccurred())
			Expect(access.Capabilities).To(ConsistOf("leads"))
		})

		It("should refuse a terminated session", func() {
			err := service.Logout(ctx, sessionID)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.ResolveAccess(ctx, sessionID)
			Expect(err).To(Equal(internal.ErrSessionTerminated))
		})

		It("should refuse a deactivated principal on recompute", func() {
			cache.Drop(sessionID)
			activeAdmin.IsActive = false

			_, err := service.ResolveAccess(ctx, sessionID)
			Expect(err).To(Equal(internal.ErrSessionTerminated))
		})

		It("should refuse an unknown session", func() {
			_, err := service.ResolveAccess(ctx, "no-such-session")
			Expect(err).To(Equal(internal.ErrSessionTerminated))
		})
	})

	Describe("RefreshTokens", func() {
		var refreshToken string

		BeforeEach(func() {
			result, err := service.Login(ctx, auth.LoginDTO{Email: "admin@mail.com", Password: "password"}, "10.0.0.1")
			Expect(err).ToNot(HaveOccurred())
			refreshToken = result.Tokens.RefreshToken
		})

		It("should rotate the pair for an active session", func() {
			pair, err := service.RefreshTokens(ctx, refreshToken)

			Expect(err).ToNot(HaveOccurred())
			Expect(pair.AccessToken).ToNot(BeEmpty())
			Expect(pair.RefreshToken).ToNot(Equal(refreshToken))
		})

		It("should refuse after logout", func() {
			claims, err := tokens.ValidateToken(refreshToken)
			Expect(err).ToNot(HaveOccurred())

			err = service.Logout(ctx, claims.SessionID)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RefreshTokens(ctx, refreshToken)
			Expect(err).To(Equal(internal.ErrSessionTerminated))
		})

		It("should refuse a garbage token", func() {
			_, err := service.RefreshTokens(ctx, "not-a-token")
			Expect(err).To(Equal(auth.ErrInvalidToken))
		})
	})

	Describe("Logout", func() {
		var sessionID string

		BeforeEach(func() {
			result, err := service.Login(ctx, auth.LoginDTO{Email: "admin@mail.com", Password: "password"}, "10.0.0.1")
			Expect(err).ToNot(HaveOccurred())
			sessionID = result.Access.SessionID
		})

		It("should terminate the session and drop the cache entry", func() {
			err := service.Logout(ctx, sessionID)
			Expect(err).ToNot(HaveOccurred())

			sess := sessions.sessions[sessionID]
			Expect(sess.State).To(Equal(session.StateTerminated))
			Expect(sess.TerminatedAt).ToNot(BeNil())

			_, ok := cache.Get(sessionID)
			Expect(ok).To(BeFalse())
		})

		It("should still drop the cache when the store write fails", func() {
			sessions.terminateError = errors.New("db gone")

			err := service.Logout(ctx, sessionID)

			Expect(err).To(HaveOccurred())
			_, ok := cache.Get(sessionID)
			Expect(ok).To(BeFalse())
		})
	})
})

var _ = Describe("JWTTokenGenerator", func() {
	var generator *auth.JWTTokenGenerator

	BeforeEach(func() {
		generator = auth.NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	})

	It("should round-trip access token claims", func() {
		token, err := generator.GenerateAccessToken("10", "admin@mail.com", "sess-1")
		Expect(err).ToNot(HaveOccurred())

		claims, err := generator.ValidateToken(token)
		Expect(err).ToNot(HaveOccurred())
		Expect(claims.UserID).To(Equal("10"))
		Expect(claims.Email).To(Equal("admin@mail.com"))
		Expect(claims.SessionID).To(Equal("sess-1"))
	})

	It("should round-trip refresh token claims", func() {
		token, err := generator.GenerateRefreshToken("10", "admin@mail.com", "sess-1")
		Expect(err).ToNot(HaveOccurred())

		claims, err := generator.ValidateToken(token)
		Expect(err).ToNot(HaveOccurred())
		Expect(claims.SessionID).To(Equal("sess-1"))
	})

	It("should reject a token signed with a different secret", func() {
		other := auth.NewJWTTokenGenerator("other-secret", "other-refresh", 15*time.Minute, 24*time.Hour)
		token, err := other.GenerateAccessToken("10", "admin@mail.com", "sess-1")
		Expect(err).ToNot(HaveOccurred())

		_, err = generator.ValidateToken(token)
		Expect(err).To(Equal(auth.ErrInvalidToken))
	})
})

var _ = Describe("HashPassword", func() {
	It("should produce a hash that verifies against the password", func() {
		hash, err := auth.HashPassword("password", bcrypt.MinCost)
		Expect(err).ToNot(HaveOccurred())

		err = bcrypt.CompareHashAndPassword([]byte(hash), []byte("password"))
		Expect(err).ToNot(HaveOccurred())

		err = bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong"))
		Expect(err).To(HaveOccurred())
	})

	It("should honor the configured cost", func() {
		hash, err := auth.HashPassword("password", bcrypt.MinCost)
		Expect(err).ToNot(HaveOccurred())

		cost, err := bcrypt.Cost([]byte(hash))
		Expect(err).ToNot(HaveOccurred())
		Expect(cost).To(Equal(bcrypt.MinCost))
	})
})
