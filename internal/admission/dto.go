package admission

import "time"

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// VerifyAddressDTO carries only the principal; the server derives the
// source address from request headers, never from the body.
type VerifyAddressDTO struct {
	PrincipalID int64 `json:"principal_id"`
}

func (d VerifyAddressDTO) Validate() error {
	if d.PrincipalID <= 0 {
		return ValidationError{Msg: "principal_id is required"}
	}
	return nil
}

// VerifyAddressResponse is idempotent under retry: repeating the call for
// an already-pending pair reports the same pending state without creating
// another request.
type VerifyAddressResponse struct {
	Allowed           bool   `json:"allowed"`
	HasPendingRequest bool   `json:"has_pending_request"`
	Message           string `json:"message"`
}

type ReviewDTO struct {
	Action          string  `json:"action"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	Description     *string `json:"description,omitempty"`
}

func (d ReviewDTO) Validate() error {
	if d.Action != ActionApprove && d.Action != ActionReject {
		return ValidationError{Msg: "action must be approve or reject"}
	}
	return nil
}

type AddAddressDTO struct {
	PrincipalID int64  `json:"principal_id"`
	IPAddress   string `json:"ip_address"`
	Description string `json:"description"`
}

func (d AddAddressDTO) Validate() error {
	if d.PrincipalID <= 0 {
		return ValidationError{Msg: "principal_id is required"}
	}
	if d.IPAddress == "" {
		return ValidationError{Msg: "ip_address is required"}
	}
	return nil
}

type UpdateAddressDTO struct {
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type RequestResponse struct {
	ID              int64      `json:"id"`
	PrincipalID     int64      `json:"principal_id"`
	PrincipalName   string     `json:"principal_name,omitempty"`
	PrincipalEmail  string     `json:"principal_email,omitempty"`
	IPAddress       string     `json:"ip_address"`
	Status          string     `json:"status"`
	ReviewedBy      *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
