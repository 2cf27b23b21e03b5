package postgres

import (
	"context"

	"github.com/frahmantamala/lead-management/internal/department"
	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) ListGrants(ctx context.Context, principalID int64) ([]department.Grant, error) {
	var grants []department.Grant
	err := r.db.WithContext(ctx).
		Where("principal_id = ?", principalID).
		Find(&grants).Error
	return grants, err
}

// ReplaceGrants swaps the full set for one principal inside a single
// transaction.
func (r *DepartmentRepository) ReplaceGrants(ctx context.Context, principalID int64, departments []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("principal_id = ?", principalID).
			Delete(&department.Grant{}).Error; err != nil {
			return err
		}

		if len(departments) == 0 {
			return nil
		}

		grants := make([]department.Grant, 0, len(departments))
		for _, d := range departments {
			grants = append(grants, department.Grant{
				PrincipalID: principalID,
				Department:  d,
			})
		}

		return tx.Create(&grants).Error
	})
}

// ListActiveDepartments is the live aggregate behind super-admin scope: the
// distinct department labels across all department-tagged rows, not just
// counselors. A department that only exists on lead assignments (emptied of
// counselors, or never staffed) must still be visible to super-admins,
// otherwise those rows silently vanish from their views.
func (r *DepartmentRepository) ListActiveDepartments(ctx context.Context) ([]string, error) {
	var departments []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT department FROM counselors WHERE is_active = ? AND department IS NOT NULL
		UNION
		SELECT department FROM lead_assignments WHERE department IS NOT NULL
		ORDER BY department`, true).
		Scan(&departments).Error
	return departments, err
}
