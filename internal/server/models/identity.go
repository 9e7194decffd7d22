// Package models defines the server-side records persisted in PostgreSQL and
// the public representations returned to API callers.
package models

// Identity is a registered user. PasswordHash never leaves the service
// layer; use Public to build the outbound shape.
type Identity struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"is_active"`
}

// PublicIdentity is the caller-facing view of an Identity.
type PublicIdentity struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	IsActive bool     `json:"is_active"`
	Roles    []string `json:"roles,omitempty"`
}

func (i *Identity) Public() *PublicIdentity {
	return &PublicIdentity{ID: i.ID, Email: i.Email, IsActive: i.IsActive}
}

// PublicIdentities maps a page of identities to their public form.
func PublicIdentities(in []*Identity) []*PublicIdentity {
	out := make([]*PublicIdentity, 0, len(in))
	for _, i := range in {
		out = append(out, i.Public())
	}
	return out
}
