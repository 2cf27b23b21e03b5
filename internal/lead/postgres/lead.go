package postgres

import (
	"context"

	"github.com/frahmantamala/lead-management/internal/department"
	"github.com/frahmantamala/lead-management/internal/lead"
	"gorm.io/gorm"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) lead.RepositoryAPI {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) ListVisible(ctx context.Context, allowedDepartments []string, limit, offset int) ([]lead.Assignment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var assignments []lead.Assignment
	err := r.db.WithContext(ctx).
		Scopes(department.Scope(allowedDepartments, "department")).
		Order("assigned_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&assignments).Error
	return assignments, err
}

func (r *LeadRepository) SummaryByDepartment(ctx context.Context, allowedDepartments []string) ([]lead.DepartmentSummary, error) {
	var summaries []lead.DepartmentSummary
	err := r.db.WithContext(ctx).
		Model(&lead.Assignment{}).
		Scopes(department.Scope(allowedDepartments, "department")).
		Select("department, COUNT(*) AS total, COUNT(CASE WHEN status = 'contracted' THEN 1 END) AS contracted").
		Group("department").
		Order("department").
		Find(&summaries).Error
	return summaries, err
}
