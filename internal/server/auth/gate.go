package auth

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/models"
)

// RoleLister resolves the roles an identity holds through the membership table.
type RoleLister interface {
	ListByIdentity(ctx context.Context, identityID int64) ([]*models.Role, error)
}

// Gate answers role membership questions. It denies whenever membership
// cannot be positively confirmed.
type Gate struct {
	logger logging.Logger
}

func NewGate(logger logging.Logger) *Gate {
	return &Gate{logger: logger.With("module", "gate")}
}

// HasRole reports whether identity holds roleName (exact, case-sensitive).
// A nil identity yields false. A lookup error yields false together with
// the error, so callers can tell a failed lookup from a missing role.
func (g *Gate) HasRole(ctx context.Context, roles RoleLister, identity *models.Identity, roleName string) (bool, error) {
	if identity == nil || roleName == "" {
		return false, nil
	}

	held, err := roles.ListByIdentity(ctx, identity.ID)
	if err != nil {
		g.logger.Error(ctx, "role lookup failed, denying", "identity_id", identity.ID, "role", roleName, "error", err)
		return false, fmt.Errorf("role lookup: %w", err)
	}

	for _, r := range held {
		if r != nil && r.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}
