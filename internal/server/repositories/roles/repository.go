package roles

import (
	"context"

	"github.com/dmitrijs2005/guardian/internal/server/models"
)

// Repository persists roles and the user_roles membership table.
type Repository interface {
	Create(ctx context.Context, role *models.Role) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context, skip, limit int) ([]*models.Role, error)
	ListByIdentity(ctx context.Context, identityID int64) ([]*models.Role, error)
	Assign(ctx context.Context, identityID, roleID int64) error
}
