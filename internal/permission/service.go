package permission

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/lead-management/internal/core/events"
)

// Invalidator drops cached access contexts for a principal after a grant
// change so the next navigation recomputes. Stale-until-next-request is the
// documented consistency model; there is no live push.
type Invalidator interface {
	InvalidatePrincipal(principalID int64)
}

type Service struct {
	repo        RepositoryAPI
	invalidator Invalidator
	bus         *events.EventBus
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, invalidator Invalidator, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		invalidator: invalidator,
		bus:         bus,
		logger:      logger,
	}
}

// Capabilities maps a principal to the concrete capability set it holds:
// the full enumeration for super-admins, the explicit grant rows otherwise,
// and the empty set for principals with no grants.
func (s *Service) Capabilities(ctx context.Context, principalID int64, isSuperAdmin bool) ([]string, error) {
	if isSuperAdmin {
		return AllCapabilities(), nil
	}

	grants, err := s.repo.ListGrants(ctx, principalID)
	if err != nil {
		s.logger.Error("failed to load permission grants", "principal_id", principalID, "error", err)
		return nil, err
	}

	caps := make([]string, 0, len(grants))
	for _, g := range grants {
		caps = append(caps, g.PermissionType)
	}

	if len(caps) == 0 {
		// Empty set is a legitimate resolution, but it must be visible in
		// logs: silent over-restriction is as much a regression as silent
		// under-restriction.
		s.logger.Warn("principal resolved to empty capability set", "principal_id", principalID)
	}

	return caps, nil
}

func (s *Service) HasCapability(ctx context.Context, principalID int64, isSuperAdmin bool, capability string) (bool, error) {
	caps, err := s.Capabilities(ctx, principalID, isSuperAdmin)
	if err != nil {
		return false, err
	}
	for _, c := range caps {
		if c == capability {
			return true, nil
		}
	}
	return false, nil
}

// SetCapabilities replaces the principal's full grant set in one atomic
// unit: delete-then-insert inside a single transaction. The settings
// capability is rejected outright, it is super-admin-exclusive and not
// representable as a grant row.
func (s *Service) SetCapabilities(ctx context.Context, principalID int64, desired []string, grantedBy int64) error {
	deduped := make([]string, 0, len(desired))
	seen := make(map[string]struct{}, len(desired))
	for _, capability := range desired {
		if !IsGrantable(capability) {
			s.logger.Warn("rejected non-grantable permission type",
				"principal_id", principalID,
				"permission_type", capability,
				"granted_by", grantedBy)
			return ErrNotGrantable.WithDetails(map[string]string{"permission_type": capability})
		}
		if _, dup := seen[capability]; dup {
			continue
		}
		seen[capability] = struct{}{}
		deduped = append(deduped, capability)
	}

	if err := s.repo.ReplaceGrants(ctx, principalID, deduped, grantedBy); err != nil {
		s.logger.Error("failed to replace permission grants",
			"principal_id", principalID,
			"granted_by", grantedBy,
			"error", err)
		return err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidatePrincipal(principalID)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewAuditEvent(events.EventPermissionsReplaced, map[string]interface{}{
			"principal_id": principalID,
			"granted_by":   grantedBy,
			"grants":       deduped,
		}))
	}

	s.logger.Info("permission grants replaced",
		"principal_id", principalID,
		"granted_by", grantedBy,
		"grant_count", len(deduped))

	return nil
}
