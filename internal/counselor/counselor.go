package counselor

import (
	"context"
	"time"
)

// Counselor is a department-tagged data subject. Department may be NULL
// for counselors not yet assigned anywhere; those stay visible to every
// admin for triage.
type Counselor struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Department *string   `json:"department,omitempty"`
	IsActive   bool      `json:"is_active" gorm:"column:is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Counselor) TableName() string {
	return "counselors"
}

// RepositoryAPI lists counselors narrowed to the caller's department
// scope. The repository supplies its own column name to the shared scope
// refinement.
type RepositoryAPI interface {
	ListVisible(ctx context.Context, allowedDepartments []string) ([]Counselor, error)
}
