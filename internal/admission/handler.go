package admission

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/transport"
	"github.com/go-chi/chi"
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

// VerifyAddress implements POST /auth/verify-address. The source address is
// derived from headers per the RemoteAddress precedence; the body only
// names the principal.
func (h *Handler) VerifyAddress(w http.ResponseWriter, r *http.Request) {
	var dto VerifyAddressDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	address := RemoteAddress(r)

	result, err := h.Service.VerifyAddress(r.Context(), dto.PrincipalID, address)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, VerifyAddressResponse{
		Allowed:           result.Allowed(),
		HasPendingRequest: result.PendingRequest,
		Message:           result.Message,
	})
}

// ListRequests implements GET /admin/address-requests?status=...
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = StatusPending
	}
	switch status {
	case StatusPending, StatusApproved, StatusRejected, "all":
	default:
		h.WriteError(w, http.StatusBadRequest, "status must be pending, approved, rejected or all")
		return
	}

	requests, err := h.Service.ListRequests(r.Context(), status)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	out := make([]RequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, RequestResponse{
			ID:              req.ID,
			PrincipalID:     req.PrincipalID,
			PrincipalName:   req.PrincipalName,
			PrincipalEmail:  req.PrincipalEmail,
			IPAddress:       req.IPAddress,
			Status:          req.Status,
			ReviewedBy:      req.ReviewedBy,
			ReviewedAt:      req.ReviewedAt,
			RejectionReason: req.RejectionReason,
			CreatedAt:       req.CreatedAt,
		})
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": out})
}

// ReviewRequest implements PATCH /admin/address-requests/{id}.
func (h *Handler) ReviewRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var dto ReviewDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	access, ok := internal.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, err := h.Service.Review(r.Context(), requestID, dto, access.Principal.ID)
	if err != nil {
		if verr, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, verr.Error())
			return
		}
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, req)
}

// ListApprovedAddresses implements GET /admin/approved-addresses.
func (h *Handler) ListApprovedAddresses(w http.ResponseWriter, r *http.Request) {
	var principalID int64
	if raw := r.URL.Query().Get("principal_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid principal_id")
			return
		}
		principalID = parsed
	}

	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	addresses, err := h.Service.ListApprovedAddresses(r.Context(), principalID, includeInactive)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"addresses": addresses})
}

// AddApprovedAddress implements POST /admin/approved-addresses.
func (h *Handler) AddApprovedAddress(w http.ResponseWriter, r *http.Request) {
	var dto AddAddressDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	access, ok := internal.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addr, err := h.Service.AddApprovedAddress(r.Context(), dto, access.Principal.ID)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, addr)
}

// UpdateApprovedAddress implements PATCH /admin/approved-addresses/{id}.
func (h *Handler) UpdateApprovedAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid address id")
		return
	}

	var dto UpdateAddressDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.UpdateApprovedAddress(r.Context(), addressID, dto); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteApprovedAddress implements DELETE /admin/approved-addresses/{id}.
// permanent=false soft-deactivates, permanent=true removes the row.
func (h *Handler) DeleteApprovedAddress(w http.ResponseWriter, r *http.Request) {
	addressID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid address id")
		return
	}

	permanent := r.URL.Query().Get("permanent") == "true"

	if err := h.Service.DeleteApprovedAddress(r.Context(), addressID, permanent); err != nil {
		h.WriteDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
