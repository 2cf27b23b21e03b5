package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/lead-management/internal/session"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) session.RepositoryAPI {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	var s session.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Terminate(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&session.Session{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":         session.StateTerminated,
			"terminated_at": at,
		}).Error
}
