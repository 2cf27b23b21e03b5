package account

import (
	"context"

	"github.com/frahmantamala/lead-management/internal/core/principal"
)

// RepositoryAPI fronts the principal store. Principals are never hard
// deleted while referenced by historical records; Deactivate is the only
// removal path.
type RepositoryAPI interface {
	GetByEmail(ctx context.Context, email string) (*principal.Principal, error)
	GetByID(ctx context.Context, id int64) (*principal.Principal, error)
	List(ctx context.Context) ([]principal.Principal, error)
	Deactivate(ctx context.Context, id int64) error
}
