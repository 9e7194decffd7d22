package models

// Role is a named authorization grant. It carries nothing secret, so the
// same struct doubles as its public representation.
type Role struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// RoleNames returns the names of roles in input order.
func RoleNames(roles []*Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}
