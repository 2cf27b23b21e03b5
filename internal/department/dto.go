package department

// SetGrantsDTO carries the full desired department set for one principal;
// the replace is all-or-nothing.
type SetGrantsDTO struct {
	Departments []string `json:"departments"`
}

type GrantsResponse struct {
	PrincipalID int64    `json:"principal_id"`
	Departments []string `json:"departments"`
}
