package users

import (
	"context"

	"github.com/dmitrijs2005/guardian/internal/server/models"
)

// Repository persists identities in the users table.
type Repository interface {
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	List(ctx context.Context, skip, limit int) ([]*models.Identity, error)
}
