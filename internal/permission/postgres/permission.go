package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/lead-management/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) ListGrants(ctx context.Context, principalID int64) ([]permission.Grant, error) {
	var grants []permission.Grant
	err := r.db.WithContext(ctx).
		Where("principal_id = ?", principalID).
		Find(&grants).Error
	return grants, err
}

// ReplaceGrants deletes the prior set and inserts the desired set inside a
// single transaction, so concurrent readers see fully-old or fully-new
// grants and a partial failure leaves the prior set intact.
func (r *PermissionRepository) ReplaceGrants(ctx context.Context, principalID int64, types []string, grantedBy int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("principal_id = ?", principalID).
			Delete(&permission.Grant{}).Error; err != nil {
			return err
		}

		if len(types) == 0 {
			return nil
		}

		now := time.Now()
		grants := make([]permission.Grant, 0, len(types))
		for _, t := range types {
			grants = append(grants, permission.Grant{
				PrincipalID:    principalID,
				PermissionType: t,
				GrantedBy:      grantedBy,
				GrantedAt:      now,
			})
		}

		return tx.Create(&grants).Error
	})
}
