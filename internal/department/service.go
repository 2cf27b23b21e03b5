package department

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/lead-management/internal/core/events"
	"github.com/frahmantamala/lead-management/internal/core/principal"
)

// Invalidator drops cached access contexts for a principal after a grant
// change; the next navigation recomputes the scope.
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

// AccessibleDepartments resolves the set of department labels a principal
// may see. Super-admins get the live aggregate of departments present among
// active data subjects; everyone else gets explicit grants plus, for
// admins, their own home department. The result is a deduplicated set,
// never used for display ordering.
func (s *Service) AccessibleDepartments(ctx context.Context, p *principal.Principal) ([]string, error) {
	if p.IsSuperAdmin {
		departments, err := s.repo.ListActiveDepartments(ctx)
		if err != nil {
			s.logger.Error("failed to list active departments", "principal_id", p.ID, "error", err)
			return nil, err
		}
		return departments, nil
	}

	grants, err := s.repo.ListGrants(ctx, p.ID)
	if err != nil {
		s.logger.Error("failed to load department grants", "principal_id", p.ID, "error", err)
		return nil, err
	}

	seen := make(map[string]struct{}, len(grants)+1)
	departments := make([]string, 0, len(grants)+1)
	for _, g := range grants {
		if _, dup := seen[g.Department]; dup {
			continue
		}
		seen[g.Department] = struct{}{}
		departments = append(departments, g.Department)
	}

	if p.Role == principal.RoleAdmin && p.HomeDepartment != nil && *p.HomeDepartment != "" {
		if _, dup := seen[*p.HomeDepartment]; !dup {
			departments = append(departments, *p.HomeDepartment)
		}
	}

	if len(departments) == 0 {
		// An empty scope restricts queries to unassigned rows only. Logged
		// so over-restriction never happens silently.
		s.logger.Warn("principal resolved to empty department scope", "principal_id", p.ID)
	}

	return departments, nil
}

// ReplaceDepartments atomically swaps the principal's grant set and
// invalidates any cached scope.
func (s *Service) ReplaceDepartments(ctx context.Context, principalID int64, departments []string, grantedBy int64) error {
	seen := make(map[string]struct{}, len(departments))
	deduped := make([]string, 0, len(departments))
	for _, d := range departments {
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		deduped = append(deduped, d)
	}

	if err := s.repo.ReplaceGrants(ctx, principalID, deduped); err != nil {
		s.logger.Error("failed to replace department grants",
			"principal_id", principalID,
			"granted_by", grantedBy,
			"error", err)
		return err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidatePrincipal(principalID)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.NewAuditEvent(events.EventDepartmentsReplaced, map[string]interface{}{
			"principal_id": principalID,
			"granted_by":   grantedBy,
			"departments":  deduped,
		}))
	}

	s.logger.Info("department grants replaced",
		"principal_id", principalID,
		"granted_by", grantedBy,
		"department_count", len(deduped))

	return nil
}
