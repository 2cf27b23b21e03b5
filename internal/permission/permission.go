package permission

import (
	"context"
	"time"

	"github.com/frahmantamala/lead-management/internal"
)

// Capability is one named, independently grantable administrative action
// category. The enumeration is closed: adding a capability is a code
// change, never runtime configuration.
const (
	CapLeads             = "leads"
	CapCounselors        = "counselors"
	CapAssignments       = "assignments"
	CapUpload            = "upload"
	CapConsultingMonitor = "consulting_monitor"
	CapSettings          = "settings"
	CapPhoneUnmask       = "phone_unmask"
)

// AllCapabilities is the full closed enumeration, the set a super-admin
// implicitly holds.
func AllCapabilities() []string {
	return []string{
		CapLeads,
		CapCounselors,
		CapAssignments,
		CapUpload,
		CapConsultingMonitor,
		CapSettings,
		CapPhoneUnmask,
	}
}

// GrantableCapabilities excludes settings: the settings surface controls
// who can grant permissions, so it is reserved for super-admins and can
// never be handed out as a row.
func GrantableCapabilities() []string {
	return []string{
		CapLeads,
		CapCounselors,
		CapAssignments,
		CapUpload,
		CapConsultingMonitor,
		CapPhoneUnmask,
	}
}

func IsGrantable(capability string) bool {
	for _, c := range GrantableCapabilities() {
		if c == capability {
			return true
		}
	}
	return false
}

// Grant is one capability held by one principal. Set semantics: presence
// implies the capability, absence implies denial. Super-admins never have
// rows here.
type Grant struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	PrincipalID    int64     `json:"principal_id" gorm:"column:principal_id"`
	PermissionType string    `json:"permission_type" gorm:"column:permission_type"`
	GrantedBy      int64     `json:"granted_by" gorm:"column:granted_by"`
	GrantedAt      time.Time `json:"granted_at" gorm:"column:granted_at"`
}

func (Grant) TableName() string {
	return "permission_grants"
}

// RepositoryAPI is the store contract. ReplaceGrants must be atomic:
// concurrent readers observe the grant set fully-old or fully-new, never
// interleaved.
type RepositoryAPI interface {
	ListGrants(ctx context.Context, principalID int64) ([]Grant, error)
	ReplaceGrants(ctx context.Context, principalID int64, types []string, grantedBy int64) error
}

// ServiceAPI resolves capabilities for a principal and replaces grant sets.
type ServiceAPI interface {
	Capabilities(ctx context.Context, principalID int64, isSuperAdmin bool) ([]string, error)
	HasCapability(ctx context.Context, principalID int64, isSuperAdmin bool, capability string) (bool, error)
	SetCapabilities(ctx context.Context, principalID int64, desired []string, grantedBy int64) error
}

var (
	ErrNotGrantable = internal.NewValidationError("permission type is not grantable", internal.ErrCodeNotGrantable)
)
