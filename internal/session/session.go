package session

import (
	"context"
	"time"
)

// Session states. Anonymous and authenticating are transient and never
// persisted; a row exists only once credentials have been checked.
//
//	gated      credentials valid but the address gate said pending/denied;
//	           the session holds no capability set and reaches no
//	           privileged route
//	active     admitted; capabilities and department scope are resolved
//	           and cached for the session lifetime
//	terminated explicit logout
const (
	StateGated      = "gated"
	StateActive     = "active"
	StateTerminated = "terminated"
)

type Session struct {
	ID           string     `json:"id" gorm:"primaryKey"`
	PrincipalID  int64      `json:"principal_id" gorm:"column:principal_id"`
	State        string     `json:"state"`
	IPAddress    string     `json:"ip_address" gorm:"column:ip_address"`
	CreatedAt    time.Time  `json:"created_at"`
	TerminatedAt *time.Time `json:"terminated_at,omitempty" gorm:"column:terminated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) IsActive() bool {
	return s.State == StateActive
}

type RepositoryAPI interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Terminate(ctx context.Context, id string, at time.Time) error
}
