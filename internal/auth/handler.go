package auth

import (
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/admission"
	"github.com/frahmantamala/lead-management/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(nil),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	address := admission.RemoteAddress(r)

	result, err := h.Service.Login(r.Context(), dto, address)
	if err != nil {
		if verr, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.WriteDomainError(w, err)
		return
	}

	resp := LoginResponse{
		Allowed:           result.Admission.Allowed(),
		HasPendingRequest: result.Admission.PendingRequest,
		Message:           result.Admission.Message,
		Tokens:            result.Tokens,
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		switch err {
		case ErrInvalidToken, ErrTokenExpired:
			h.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			h.WriteDomainError(w, err)
		}
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout tears the session down. The teardown is best-effort: even if a
// step fails server-side, the caller is logged out and gets 204.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	claims, err := h.Service.ValidateAccessToken(token)
	if err != nil {
		h.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	if err := h.Service.Logout(r.Context(), claims.SessionID); err != nil {
		h.Logger.Error("logout teardown incomplete", "session_id", claims.SessionID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller's resolved access context: principal, capability
// set, and department scope.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	access, ok := internal.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.WriteJSON(w, http.StatusOK, access)
}

// AuthMiddleware resolves the bearer token to an access context and stores
// it on the request. Everything privileged sits behind this.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		access, err := h.Service.ResolveAccess(r.Context(), claims.SessionID)
		if err != nil {
			h.Logger.Warn("access resolution failed",
				"session_id", claims.SessionID,
				"error", err)
			h.WriteError(w, http.StatusUnauthorized, "session is no longer active")
			return
		}

		ctx := internal.ContextWithAccess(r.Context(), access)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
