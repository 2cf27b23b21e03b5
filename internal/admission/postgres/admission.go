package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/lead-management/internal/admission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdmissionRepository struct {
	db *gorm.DB
}

func NewAdmissionRepository(db *gorm.DB) admission.RepositoryAPI {
	return &AdmissionRepository{db: db}
}

func (r *AdmissionRepository) FindActiveApprovedAddress(ctx context.Context, principalID int64, address string) (*admission.ApprovedAddress, error) {
	var addr admission.ApprovedAddress
	err := r.db.WithContext(ctx).
		Where("principal_id = ? AND ip_address = ? AND is_active = ?", principalID, address, true).
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &addr, nil
}

func (r *AdmissionRepository) TouchLastUsed(ctx context.Context, addressID int64, usedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&admission.ApprovedAddress{}).
		Where("id = ?", addressID).
		Updates(map[string]interface{}{
			"last_used_at": usedAt,
			"updated_at":   time.Now(),
		}).Error
}

func (r *AdmissionRepository) FindPendingRequest(ctx context.Context, principalID int64, address string) (*admission.ApprovalRequest, error) {
	var req admission.ApprovalRequest
	err := r.db.WithContext(ctx).
		Where("principal_id = ? AND ip_address = ? AND status = ?", principalID, address, admission.StatusPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// CreatePendingRequest relies on the partial unique index on
// (principal_id, ip_address) WHERE status = 'pending'. The insert is
// ON CONFLICT DO NOTHING, so two concurrent admissions for the same pair
// race safely: the loser observes created=false instead of a duplicate
// row or an error.
func (r *AdmissionRepository) CreatePendingRequest(ctx context.Context, principalID int64, address string) (bool, error) {
	now := time.Now()
	req := admission.ApprovalRequest{
		PrincipalID: principalID,
		IPAddress:   address,
		Status:      admission.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&req)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *AdmissionRepository) GetRequest(ctx context.Context, requestID int64) (*admission.ApprovalRequest, error) {
	var req admission.ApprovalRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", requestID).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// MarkReviewed is a guarded transition: the WHERE clause pins the current
// status to pending, so a replayed review affects zero rows and reports
// updated=false instead of overwriting a finished decision.
func (r *AdmissionRepository) MarkReviewed(ctx context.Context, requestID int64, toStatus string, reviewedBy int64, reviewedAt time.Time, rejectionReason *string) (bool, error) {
	updates := map[string]interface{}{
		"status":      toStatus,
		"reviewed_by": reviewedBy,
		"reviewed_at": reviewedAt,
		"updated_at":  time.Now(),
	}
	if rejectionReason != nil {
		updates["rejection_reason"] = *rejectionReason
	}

	result := r.db.WithContext(ctx).
		Model(&admission.ApprovalRequest{}).
		Where("id = ? AND status = ?", requestID, admission.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RevertToPending is the compensating write for a failed approve: the
// request goes back to pending and the review attribution is cleared.
func (r *AdmissionRepository) RevertToPending(ctx context.Context, requestID int64) error {
	return r.db.WithContext(ctx).
		Model(&admission.ApprovalRequest{}).
		Where("id = ?", requestID).
		Updates(map[string]interface{}{
			"status":      admission.StatusPending,
			"reviewed_by": nil,
			"reviewed_at": nil,
			"updated_at":  time.Now(),
		}).Error
}

func (r *AdmissionRepository) ListRequests(ctx context.Context, status string) ([]admission.RequestWithPrincipal, error) {
	var requests []admission.RequestWithPrincipal

	query := r.db.WithContext(ctx).
		Table("address_approval_requests").
		Select("address_approval_requests.*, principals.display_name AS principal_name, principals.email AS principal_email").
		Joins("JOIN principals ON principals.id = address_approval_requests.principal_id").
		Order("address_approval_requests.created_at DESC")

	if status != "all" {
		query = query.Where("address_approval_requests.status = ?", status)
	}

	err := query.Find(&requests).Error
	return requests, err
}

// UpsertApprovedAddress inserts or reactivates the (principal, address)
// entry; the pair is unique so approving a previously revoked address
// refreshes the existing row.
func (r *AdmissionRepository) UpsertApprovedAddress(ctx context.Context, addr *admission.ApprovedAddress) error {
	now := time.Now()
	addr.CreatedAt = now
	addr.UpdatedAt = now

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "principal_id"}, {Name: "ip_address"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description", "approved_by", "approved_at", "is_active", "updated_at",
			}),
		}).
		Create(addr).Error
}

func (r *AdmissionRepository) GetApprovedAddress(ctx context.Context, addressID int64) (*admission.ApprovedAddress, error) {
	var addr admission.ApprovedAddress
	err := r.db.WithContext(ctx).
		Where("id = ?", addressID).
		First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &addr, nil
}

func (r *AdmissionRepository) ListApprovedAddresses(ctx context.Context, principalID int64, includeInactive bool) ([]admission.ApprovedAddress, error) {
	query := r.db.WithContext(ctx).Order("approved_at DESC")

	if principalID > 0 {
		query = query.Where("principal_id = ?", principalID)
	}
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var addresses []admission.ApprovedAddress
	err := query.Find(&addresses).Error
	return addresses, err
}

func (r *AdmissionRepository) UpdateApprovedAddress(ctx context.Context, addressID int64, description *string, isActive *bool) (bool, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if description != nil {
		updates["description"] = *description
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	result := r.db.WithContext(ctx).
		Model(&admission.ApprovedAddress{}).
		Where("id = ?", addressID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *AdmissionRepository) DeleteApprovedAddress(ctx context.Context, addressID int64, permanent bool) (bool, error) {
	if permanent {
		result := r.db.WithContext(ctx).
			Where("id = ?", addressID).
			Delete(&admission.ApprovedAddress{})
		if result.Error != nil {
			return false, result.Error
		}
		return result.RowsAffected > 0, nil
	}

	result := r.db.WithContext(ctx).
		Model(&admission.ApprovedAddress{}).
		Where("id = ?", addressID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
