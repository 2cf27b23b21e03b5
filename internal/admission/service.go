package admission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/core/events"
	"github.com/frahmantamala/lead-management/internal/core/principal"
)

// PrincipalGetter looks up the principal behind a verify-address call.
type PrincipalGetter interface {
	GetByID(ctx context.Context, id int64) (*principal.Principal, error)
}

// ServiceAPI is the gate contract consumed by the session facade and the
// admin handlers.
type ServiceAPI interface {
	Admit(ctx context.Context, p *principal.Principal, address string) (Result, error)
	VerifyAddress(ctx context.Context, principalID int64, address string) (Result, error)
	Review(ctx context.Context, requestID int64, dto ReviewDTO, reviewedBy int64) (*ApprovalRequest, error)
	ListRequests(ctx context.Context, status string) ([]RequestWithPrincipal, error)
	ListApprovedAddresses(ctx context.Context, principalID int64, includeInactive bool) ([]ApprovedAddress, error)
	AddApprovedAddress(ctx context.Context, dto AddAddressDTO, approvedBy int64) (*ApprovedAddress, error)
	UpdateApprovedAddress(ctx context.Context, addressID int64, dto UpdateAddressDTO) error
	DeleteApprovedAddress(ctx context.Context, addressID int64, permanent bool) error
}

type Service struct {
	repo         RepositoryAPI
	principals   PrincipalGetter
	bus          *events.EventBus
	logger       *slog.Logger
	queryTimeout time.Duration
}

func NewService(repo RepositoryAPI, principals PrincipalGetter, bus *events.EventBus, logger *slog.Logger, queryTimeout time.Duration) *Service {
	return &Service{
		repo:         repo,
		principals:   principals,
		bus:          bus,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

// retryOnce re-runs a timed-out store call a single time before surfacing a
// transient failure. Anything other than a deadline error is returned
// as-is.
func (s *Service) retryOnce(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := func() error {
		tctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
		return fn(tctx)
	}

	err := attempt()
	if err == nil || !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	s.logger.Warn("store call timed out, retrying once", "op", op)
	if err = attempt(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return internal.NewTransientError("store call timed out", err)
		}
		return err
	}
	return nil
}

// Admit decides, in strict short-circuit order, whether the principal may
// proceed past login from the given source address:
//
//  1. inactive account: denied
//  2. super-admin: allowed, categorically exempt, no registry writes
//  3. active approved address: allowed (best-effort last-used touch)
//  4. existing pending request: pending, idempotent under retry
//  5. otherwise: insert a pending request, return pending
func (s *Service) Admit(ctx context.Context, p *principal.Principal, address string) (Result, error) {
	if !p.IsActive {
		s.logger.Warn("admission denied: account deactivated",
			"principal_id", p.ID,
			"address", address)
		s.bus.Publish(ctx, events.NewAuditEvent(events.EventAdmissionDenied, map[string]interface{}{
			"principal_id": p.ID,
			"address":      address,
			"reason":       "account deactivated",
		}))
		return Result{Decision: DecisionDenied, Message: "account deactivated"}, nil
	}

	// Deliberate escape hatch for bootstrap and recovery: a super-admin is
	// never gated and never touches the registry.
	if p.IsSuperAdmin {
		return Result{Decision: DecisionAllowed, Message: "super admin access"}, nil
	}

	var approved *ApprovedAddress
	err := s.retryOnce(ctx, "find approved address", func(ctx context.Context) error {
		var ferr error
		approved, ferr = s.repo.FindActiveApprovedAddress(ctx, p.ID, address)
		return ferr
	})
	if err != nil {
		return Result{}, err
	}

	if approved != nil {
		// The touch is best-effort: failing to record last_used_at must
		// never turn an allowed login into a failure.
		if terr := s.repo.TouchLastUsed(ctx, approved.ID, time.Now()); terr != nil {
			s.logger.Warn("failed to update last_used_at",
				"approved_address_id", approved.ID,
				"error", terr)
		}
		return Result{Decision: DecisionAllowed, Message: "address approved"}, nil
	}

	var pending *ApprovalRequest
	err = s.retryOnce(ctx, "find pending request", func(ctx context.Context) error {
		var ferr error
		pending, ferr = s.repo.FindPendingRequest(ctx, p.ID, address)
		return ferr
	})
	if err != nil {
		return Result{}, err
	}

	if pending != nil {
		s.logger.Info("admission pending: approval request already open",
			"principal_id", p.ID,
			"address", address,
			"request_id", pending.ID)
		return Result{
			Decision:       DecisionPending,
			Message:        "address approval pending review",
			PendingRequest: true,
		}, nil
	}

	var created bool
	err = s.retryOnce(ctx, "create pending request", func(ctx context.Context) error {
		var cerr error
		created, cerr = s.repo.CreatePendingRequest(ctx, p.ID, address)
		return cerr
	})
	if err != nil {
		return Result{}, err
	}

	if created {
		s.logger.Info("admission pending: approval request created",
			"principal_id", p.ID,
			"address", address)
		s.bus.Publish(ctx, events.NewAuditEvent(events.EventAdmissionRequestCreated, map[string]interface{}{
			"principal_id": p.ID,
			"address":      address,
		}))
	}
	// created==false means a concurrent admission for the same pair won the
	// insert; the outcome is the same pending hold either way.

	return Result{
		Decision:       DecisionPending,
		Message:        "address approval requested, wait for review",
		PendingRequest: true,
	}, nil
}

// VerifyAddress is the Admit entry point keyed by principal id, used by the
// public verify endpoint. Unknown principals are reported as denied without
// distinguishing "no such principal" from "deactivated".
func (s *Service) VerifyAddress(ctx context.Context, principalID int64, address string) (Result, error) {
	p, err := s.principals.GetByID(ctx, principalID)
	if err != nil {
		s.logger.Warn("verify-address for unknown principal", "principal_id", principalID, "error", err)
		return Result{}, internal.ErrPrincipalNotFound
	}
	return s.Admit(ctx, p, address)
}

// Review applies a super-admin decision to a pending request. Approve is a
// two-step write across request and registry; the registry upsert failing
// triggers a compensating revert of the request to pending so the system
// never claims approved without a live ApprovedAddress row.
func (s *Service) Review(ctx context.Context, requestID int64, dto ReviewDTO, reviewedBy int64) (*ApprovalRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, internal.ErrRequestNotFound
	}
	if req.Status != StatusPending {
		s.logger.Warn("review replayed on processed request",
			"request_id", requestID,
			"status", req.Status,
			"reviewed_by", reviewedBy)
		return nil, internal.ErrAlreadyProcessed
	}

	now := time.Now()

	if dto.Action == ActionReject {
		updated, err := s.repo.MarkReviewed(ctx, requestID, StatusRejected, reviewedBy, now, dto.RejectionReason)
		if err != nil {
			return nil, err
		}
		if !updated {
			return nil, internal.ErrAlreadyProcessed
		}

		s.logger.Info("address request rejected",
			"request_id", requestID,
			"principal_id", req.PrincipalID,
			"address", req.IPAddress,
			"reviewed_by", reviewedBy)
		s.publishReviewed(ctx, req, StatusRejected, reviewedBy)

		return s.repo.GetRequest(ctx, requestID)
	}

	updated, err := s.repo.MarkReviewed(ctx, requestID, StatusApproved, reviewedBy, now, nil)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, internal.ErrAlreadyProcessed
	}

	description := ""
	if dto.Description != nil {
		description = *dto.Description
	}

	addr := &ApprovedAddress{
		PrincipalID: req.PrincipalID,
		IPAddress:   req.IPAddress,
		Description: description,
		ApprovedBy:  reviewedBy,
		ApprovedAt:  now,
		IsActive:    true,
	}

	if err := s.repo.UpsertApprovedAddress(ctx, addr); err != nil {
		// Compensating action: the two writes are not atomic across
		// stores, so the request must go back to pending.
		if rerr := s.repo.RevertToPending(ctx, requestID); rerr != nil {
			s.logger.Error("PARTIAL WRITE: approve upsert failed and revert failed, request stuck approved without address",
				"request_id", requestID,
				"principal_id", req.PrincipalID,
				"upsert_error", err,
				"revert_error", rerr)
		} else {
			s.logger.Error("PARTIAL WRITE: approve upsert failed, request reverted to pending",
				"request_id", requestID,
				"principal_id", req.PrincipalID,
				"error", err)
		}
		return nil, internal.ErrPartialWrite.WithCause(err)
	}

	s.logger.Info("address request approved",
		"request_id", requestID,
		"principal_id", req.PrincipalID,
		"address", req.IPAddress,
		"reviewed_by", reviewedBy)
	s.publishReviewed(ctx, req, StatusApproved, reviewedBy)

	return s.repo.GetRequest(ctx, requestID)
}

func (s *Service) publishReviewed(ctx context.Context, req *ApprovalRequest, outcome string, reviewedBy int64) {
	s.bus.Publish(ctx, events.NewAuditEvent(events.EventAdmissionReviewed, map[string]interface{}{
		"request_id":   req.ID,
		"principal_id": req.PrincipalID,
		"address":      req.IPAddress,
		"outcome":      outcome,
		"reviewed_by":  reviewedBy,
	}))
}

func (s *Service) ListRequests(ctx context.Context, status string) ([]RequestWithPrincipal, error) {
	return s.repo.ListRequests(ctx, status)
}

func (s *Service) ListApprovedAddresses(ctx context.Context, principalID int64, includeInactive bool) ([]ApprovedAddress, error) {
	return s.repo.ListApprovedAddresses(ctx, principalID, includeInactive)
}

// AddApprovedAddress is the manual path: a super-admin whitelisting an
// address without a request having been filed.
func (s *Service) AddApprovedAddress(ctx context.Context, dto AddAddressDTO, approvedBy int64) (*ApprovedAddress, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.principals.GetByID(ctx, dto.PrincipalID); err != nil {
		return nil, internal.ErrPrincipalNotFound
	}

	addr := &ApprovedAddress{
		PrincipalID: dto.PrincipalID,
		IPAddress:   dto.IPAddress,
		Description: dto.Description,
		ApprovedBy:  approvedBy,
		ApprovedAt:  time.Now(),
		IsActive:    true,
	}

	if err := s.repo.UpsertApprovedAddress(ctx, addr); err != nil {
		s.logger.Error("failed to add approved address",
			"principal_id", dto.PrincipalID,
			"address", dto.IPAddress,
			"error", err)
		return nil, err
	}

	s.logger.Info("approved address added manually",
		"principal_id", dto.PrincipalID,
		"address", dto.IPAddress,
		"approved_by", approvedBy)

	return addr, nil
}

func (s *Service) UpdateApprovedAddress(ctx context.Context, addressID int64, dto UpdateAddressDTO) error {
	updated, err := s.repo.UpdateApprovedAddress(ctx, addressID, dto.Description, dto.IsActive)
	if err != nil {
		return err
	}
	if !updated {
		return internal.ErrAddressNotFound
	}
	return nil
}

// DeleteApprovedAddress removes an entry. permanent=false soft-deactivates
// so the row stays for audit; permanent=true removes it entirely.
func (s *Service) DeleteApprovedAddress(ctx context.Context, addressID int64, permanent bool) error {
	deleted, err := s.repo.DeleteApprovedAddress(ctx, addressID, permanent)
	if err != nil {
		return err
	}
	if !deleted {
		return internal.ErrAddressNotFound
	}

	s.logger.Info("approved address removed",
		"approved_address_id", addressID,
		"permanent", permanent)
	return nil
}
