package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/account"
	"github.com/frahmantamala/lead-management/internal/admission"
	"github.com/frahmantamala/lead-management/internal/core/events"
	"github.com/frahmantamala/lead-management/internal/core/principal"
	"github.com/frahmantamala/lead-management/internal/session"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdmissionGate is the facade's view of the address gate: login is the only
// place it is consulted.
type AdmissionGate interface {
	Admit(ctx context.Context, p *principal.Principal, address string) (admission.Result, error)
}

// PermissionResolver maps a principal to its capability set.
type PermissionResolver interface {
	Capabilities(ctx context.Context, principalID int64, isSuperAdmin bool) ([]string, error)
}

// DepartmentResolver maps a principal to its visible department labels.
type DepartmentResolver interface {
	AccessibleDepartments(ctx context.Context, p *principal.Principal) ([]string, error)
}

// LoginResult is the facade outcome: tokens only when the gate admitted.
type LoginResult struct {
	Admission admission.Result
	Tokens    *AuthTokens
	Access    *principal.AccessContext
}

// ServiceAPI is the session/access facade, the only surface UI and API
// code talk to. It fails closed: no token, no capability set, and no
// department scope unless every check passed.
type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO, address string) (*LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	ResolveAccess(ctx context.Context, sessionID string) (*principal.AccessContext, error)
	Logout(ctx context.Context, sessionID string) error
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type Service struct {
	accounts    account.RepositoryAPI
	tokens      TokenGenerator
	gate        AdmissionGate
	permissions PermissionResolver
	departments DepartmentResolver
	sessions    session.RepositoryAPI
	cache       *session.Cache
	bus         *events.EventBus
	logger      *slog.Logger
}

func NewService(
	accounts account.RepositoryAPI,
	tokens TokenGenerator,
	gate AdmissionGate,
	permissions PermissionResolver,
	departments DepartmentResolver,
	sessions session.RepositoryAPI,
	cache *session.Cache,
	bus *events.EventBus,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts:    accounts,
		tokens:      tokens,
		gate:        gate,
		permissions: permissions,
		departments: departments,
		sessions:    sessions,
		cache:       cache,
		bus:         bus,
		logger:      logger,
	}
}

// Login runs the full admission pipeline: credentials, then the address
// gate, then capability and department resolution. A pending or denied
// gate decision yields a gated session with no tokens and no resolved
// access.
func (s *Service) Login(ctx context.Context, dto LoginDTO, address string) (*LoginResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.accounts.GetByEmail(ctx, dto.Email)
	if err != nil {
		// Same generic failure whether the account or the password was
		// wrong; the response never says which.
		s.logger.Warn("login failed: unknown account", "email", dto.Email)
		return nil, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("login failed: password mismatch", "principal_id", p.ID)
		return nil, internal.ErrInvalidCredentials
	}

	result, err := s.gate.Admit(ctx, p, address)
	if err != nil {
		return nil, err
	}

	if !result.Allowed() {
		// Gated: the session is recorded for audit but holds nothing.
		gated := &session.Session{
			ID:          uuid.NewString(),
			PrincipalID: p.ID,
			State:       session.StateGated,
			IPAddress:   address,
			CreatedAt:   time.Now(),
		}
		if serr := s.sessions.Create(ctx, gated); serr != nil {
			s.logger.Warn("failed to record gated session", "principal_id", p.ID, "error", serr)
		}

		s.logger.Info("login gated",
			"principal_id", p.ID,
			"address", address,
			"decision", result.Decision)

		return &LoginResult{Admission: result}, nil
	}

	sess := &session.Session{
		ID:          uuid.NewString(),
		PrincipalID: p.ID,
		State:       session.StateActive,
		IPAddress:   address,
		CreatedAt:   time.Now(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.logger.Error("failed to create session", "principal_id", p.ID, "error", err)
		return nil, err
	}

	access, err := s.resolveAccess(ctx, p, sess.ID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(sess.ID, access)

	userID := strconv.FormatInt(p.ID, 10)
	accessToken, err := s.tokens.GenerateAccessToken(userID, p.Email, sess.ID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(userID, p.Email, sess.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login admitted",
		"principal_id", p.ID,
		"session_id", sess.ID,
		"address", address)

	return &LoginResult{
		Admission: result,
		Tokens:    &AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken},
		Access:    access,
	}, nil
}

// RefreshTokens rotates the token pair for a still-active session.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsActive() {
		return nil, internal.ErrSessionTerminated
	}

	accessToken, err := s.tokens.GenerateAccessToken(claims.UserID, claims.Email, claims.SessionID)
	if err != nil {
		return nil, err
	}
	newRefreshToken, err := s.tokens.GenerateRefreshToken(claims.UserID, claims.Email, claims.SessionID)
	if err != nil {
		return nil, err
	}

	return &AuthTokens{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// ResolveAccess returns the session's access context: the cached resolution
// when present, otherwise a fresh computation. Grant edits drop the cache
// entry, so staleness lasts at most until the next request.
func (s *Service) ResolveAccess(ctx context.Context, sessionID string) (*principal.AccessContext, error) {
	if access, ok := s.cache.Get(sessionID); ok {
		return access, nil
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsActive() {
		return nil, internal.ErrSessionTerminated
	}

	p, err := s.accounts.GetByID(ctx, sess.PrincipalID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		s.logger.Warn("access resolution for deactivated principal", "principal_id", p.ID)
		return nil, internal.ErrSessionTerminated
	}

	access, err := s.resolveAccess(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(sessionID, access)
	return access, nil
}

func (s *Service) resolveAccess(ctx context.Context, p *principal.Principal, sessionID string) (*principal.AccessContext, error) {
	caps, err := s.permissions.Capabilities(ctx, p.ID, p.IsSuperAdmin)
	if err != nil {
		return nil, err
	}

	departments, err := s.departments.AccessibleDepartments(ctx, p)
	if err != nil {
		return nil, err
	}

	return &principal.AccessContext{
		Principal:    p,
		SessionID:    sessionID,
		Capabilities: caps,
		Departments:  departments,
	}, nil
}

// Logout is a best-effort multi-step teardown: the session row, the cached
// access context, and the audit trail are each handled even if another
// step fails. From the caller's perspective the user is logged out either
// way; failures are logged and aggregated.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	var errs []error

	if err := s.sessions.Terminate(ctx, sessionID, time.Now()); err != nil {
		s.logger.Error("logout: failed to terminate session record",
			"session_id", sessionID, "error", err)
		errs = append(errs, err)
	}

	s.cache.Drop(sessionID)

	s.bus.Publish(ctx, events.NewAuditEvent(events.EventSessionTerminated, map[string]interface{}{
		"session_id": sessionID,
	}))

	return errors.Join(errs...)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// HashPassword creates a bcrypt hash for provisioning flows.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
