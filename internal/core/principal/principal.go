package principal

import "time"

const (
	RoleAdmin     = "admin"
	RoleCounselor = "counselor"
)

// Principal is an authenticated identity, distinct from the raw credential.
type Principal struct {
	ID             int64      `json:"id" gorm:"primaryKey"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name" gorm:"column:display_name"`
	Role           string     `json:"role"`
	IsSuperAdmin   bool       `json:"is_super_admin" gorm:"column:is_super_admin"`
	IsActive       bool       `json:"is_active" gorm:"column:is_active"`
	HomeDepartment *string    `json:"home_department,omitempty" gorm:"column:home_department"`
	PasswordHash   string     `json:"-" gorm:"column:password_hash"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeactivatedAt  *time.Time `json:"deactivated_at,omitempty" gorm:"column:deactivated_at"`
}

func (Principal) TableName() string {
	return "principals"
}

// AccessContext is the immutable per-session resolution of who the caller
// is and what they may touch. It is computed once at login, cached for the
// session, and recomputed when grants change.
type AccessContext struct {
	Principal    *Principal `json:"principal"`
	SessionID    string     `json:"session_id"`
	Capabilities []string   `json:"capabilities"`
	Departments  []string   `json:"departments"`
}

// HasCapability reports whether the session holds the named capability.
// Super-admins implicitly hold every capability.
func (a *AccessContext) HasCapability(name string) bool {
	if a.Principal != nil && a.Principal.IsSuperAdmin {
		return true
	}
	for _, c := range a.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}

// CanManageSettings is a hard rule, not a grantable capability: only
// super-admins may reach system settings because settings controls who can
// grant permissions in the first place.
func (a *AccessContext) CanManageSettings() bool {
	return a.Principal != nil && a.Principal.IsSuperAdmin
}
