package department

import (
	"context"

	"github.com/frahmantamala/lead-management/internal/core/principal"
)

// Grant is one department label a principal may see. Owned by the
// authorization subsystem; the data-query layer consumes the resolved set
// but never mutates it.
type Grant struct {
	ID          int64  `json:"id" gorm:"primaryKey"`
	PrincipalID int64  `json:"principal_id" gorm:"column:principal_id"`
	Department  string `json:"department"`
}

func (Grant) TableName() string {
	return "department_grants"
}

// RepositoryAPI is the store contract. ReplaceGrants must be atomic per
// principal; ListActiveDepartments is the live system-wide aggregate used
// for super-admin scope.
type RepositoryAPI interface {
	ListGrants(ctx context.Context, principalID int64) ([]Grant, error)
	ReplaceGrants(ctx context.Context, principalID int64, departments []string) error
	ListActiveDepartments(ctx context.Context) ([]string, error)
}

// ServiceAPI maps a principal to the departments whose data it may see.
type ServiceAPI interface {
	AccessibleDepartments(ctx context.Context, p *principal.Principal) ([]string, error)
	ReplaceDepartments(ctx context.Context, principalID int64, departments []string, grantedBy int64) error
}
