package permission

// SetGrantsDTO is the bulk-replace payload: the full desired capability set
// for one principal. An update is never partial.
type SetGrantsDTO struct {
	Permissions []string `json:"permissions"`
}

func (d SetGrantsDTO) Validate() error {
	for _, p := range d.Permissions {
		if !IsGrantable(p) {
			return ErrNotGrantable.WithDetails(map[string]string{"permission_type": p})
		}
	}
	return nil
}

type GrantsResponse struct {
	PrincipalID int64    `json:"principal_id"`
	Permissions []string `json:"permissions"`
}
