package lead

import (
	"context"
	"time"
)

// Assignment links a lead to a counselor within a department. Department
// may be NULL while a lead awaits triage; such rows remain visible to
// every admin.
type Assignment struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	LeadName    string    `json:"lead_name" gorm:"column:lead_name"`
	LeadPhone   string    `json:"lead_phone" gorm:"column:lead_phone"`
	CounselorID *int64    `json:"counselor_id,omitempty" gorm:"column:counselor_id"`
	Department  *string   `json:"department,omitempty"`
	Status      string    `json:"status"`
	AssignedAt  time.Time `json:"assigned_at" gorm:"column:assigned_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Assignment) TableName() string {
	return "lead_assignments"
}

// DepartmentSummary is one consulting-dashboard row: assignment volume per
// visible department.
type DepartmentSummary struct {
	Department *string `json:"department"`
	Total      int64   `json:"total"`
	Contracted int64   `json:"contracted"`
}

// RepositoryAPI lists assignments and aggregates dashboard numbers, both
// narrowed to the caller's department scope.
type RepositoryAPI interface {
	ListVisible(ctx context.Context, allowedDepartments []string, limit, offset int) ([]Assignment, error)
	SummaryByDepartment(ctx context.Context, allowedDepartments []string) ([]DepartmentSummary, error)
}
