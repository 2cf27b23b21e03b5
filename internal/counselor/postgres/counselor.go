package postgres

import (
	"context"

	"github.com/frahmantamala/lead-management/internal/counselor"
	"github.com/frahmantamala/lead-management/internal/department"
	"gorm.io/gorm"
)

type CounselorRepository struct {
	db *gorm.DB
}

func NewCounselorRepository(db *gorm.DB) counselor.RepositoryAPI {
	return &CounselorRepository{db: db}
}

func (r *CounselorRepository) ListVisible(ctx context.Context, allowedDepartments []string) ([]counselor.Counselor, error) {
	var counselors []counselor.Counselor
	err := r.db.WithContext(ctx).
		Scopes(department.Scope(allowedDepartments, "department")).
		Where("is_active = ?", true).
		Order("name").
		Find(&counselors).Error
	return counselors, err
}
