package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/lead-management/internal"
	"github.com/frahmantamala/lead-management/internal/account"
	"github.com/frahmantamala/lead-management/internal/core/principal"
	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) account.RepositoryAPI {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*principal.Principal, error) {
	var p principal.Principal
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrPrincipalNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*principal.Principal, error) {
	var p principal.Principal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrPrincipalNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]principal.Principal, error) {
	var principals []principal.Principal
	err := r.db.WithContext(ctx).Order("display_name").Find(&principals).Error
	return principals, err
}

// Deactivate is a soft delete: historical records keep referencing the
// principal, the account just stops admitting.
func (r *AccountRepository) Deactivate(ctx context.Context, id int64) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&principal.Principal{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":      false,
			"deactivated_at": now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrPrincipalNotFound
	}
	return nil
}
