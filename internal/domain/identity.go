package domain

// Identity caller identity supplied by the auth layer. A nil *Identity means
// an anonymous caller.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// HasRole reports whether the identity's role is one of roles
func (i *Identity) HasRole(roles []string) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if r == i.Role {
			return true
		}
	}
	return false
}
