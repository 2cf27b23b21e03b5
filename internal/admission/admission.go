package admission

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

// Decision is the outcome of admitting a (principal, source address) pair.
type Decision string

const (
	DecisionAllowed Decision = "allowed"
	DecisionPending Decision = "pending"
	DecisionDenied  Decision = "denied"
)

// Result carries the decision plus the explanatory message surfaced to the
// caller. PendingRequest distinguishes "waiting on review" from a plain
// deny.
type Result struct {
	Decision       Decision
	Message        string
	PendingRequest bool
}

func (r Result) Allowed() bool {
	return r.Decision == DecisionAllowed
}

// Request statuses. A request is immutable once non-pending, except for
// housekeeping deletion.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ApprovedAddress is a source address that bypasses the approval workflow
// for one principal while is_active is true. Unique on
// (principal_id, ip_address). Entries are permanent until explicitly
// revoked; there is no TTL.
type ApprovedAddress struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	PrincipalID int64      `json:"principal_id" gorm:"column:principal_id"`
	IPAddress   string     `json:"ip_address" gorm:"column:ip_address"`
	Description string     `json:"description"`
	ApprovedBy  int64      `json:"approved_by" gorm:"column:approved_by"`
	ApprovedAt  time.Time  `json:"approved_at" gorm:"column:approved_at"`
	IsActive    bool       `json:"is_active" gorm:"column:is_active"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty" gorm:"column:last_used_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (ApprovedAddress) TableName() string {
	return "approved_addresses"
}

// ApprovalRequest is one principal's wait for a human decision on one
// source address. The store enforces at most one pending row per
// (principal_id, ip_address); that partial-unique constraint is the core
// concurrency invariant of the gate.
type ApprovalRequest struct {
	ID              int64      `json:"id" gorm:"primaryKey"`
	PrincipalID     int64      `json:"principal_id" gorm:"column:principal_id"`
	IPAddress       string     `json:"ip_address" gorm:"column:ip_address"`
	Status          string     `json:"status"`
	ReviewedBy      *int64     `json:"reviewed_by,omitempty" gorm:"column:reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" gorm:"column:reviewed_at"`
	RejectionReason *string    `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (ApprovalRequest) TableName() string {
	return "address_approval_requests"
}

// RequestWithPrincipal is the admin listing row: a request joined with the
// requesting principal's display data.
type RequestWithPrincipal struct {
	ApprovalRequest
	PrincipalName  string `json:"principal_name" gorm:"column:principal_name"`
	PrincipalEmail string `json:"principal_email" gorm:"column:principal_email"`
}

// RepositoryAPI is the store contract for the gate.
//
// CreatePendingRequest must be a compare-and-insert: under the partial
// unique index, a concurrent duplicate reports created=false instead of an
// error. MarkReviewed is a guarded transition from pending; zero rows
// affected means another reviewer got there first.
type RepositoryAPI interface {
	FindActiveApprovedAddress(ctx context.Context, principalID int64, address string) (*ApprovedAddress, error)
	TouchLastUsed(ctx context.Context, addressID int64, usedAt time.Time) error

	FindPendingRequest(ctx context.Context, principalID int64, address string) (*ApprovalRequest, error)
	CreatePendingRequest(ctx context.Context, principalID int64, address string) (created bool, err error)

	GetRequest(ctx context.Context, requestID int64) (*ApprovalRequest, error)
	MarkReviewed(ctx context.Context, requestID int64, toStatus string, reviewedBy int64, reviewedAt time.Time, rejectionReason *string) (updated bool, err error)
	RevertToPending(ctx context.Context, requestID int64) error
	ListRequests(ctx context.Context, status string) ([]RequestWithPrincipal, error)

	UpsertApprovedAddress(ctx context.Context, addr *ApprovedAddress) error
	GetApprovedAddress(ctx context.Context, addressID int64) (*ApprovedAddress, error)
	ListApprovedAddresses(ctx context.Context, principalID int64, includeInactive bool) ([]ApprovedAddress, error)
	UpdateApprovedAddress(ctx context.Context, addressID int64, description *string, isActive *bool) (updated bool, err error)
	DeleteApprovedAddress(ctx context.Context, addressID int64, permanent bool) (deleted bool, err error)
}

// RemoteAddress derives the admission key from request headers. The
// precedence is normative because it decides which address gets gated:
//
//  1. first entry of X-Forwarded-For (comma-separated, trimmed)
//  2. X-Real-IP
//  3. host part of RemoteAddr, falling back to loopback for local runs
func RemoteAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if addr := strings.TrimSpace(parts[0]); addr != "" {
			return addr
		}
	}

	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "127.0.0.1"
	}
	return host
}
