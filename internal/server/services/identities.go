package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/dbx"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/config"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

// IdentityService lists identities and manages their role memberships.
type IdentityService struct {
	base
	auth *AuthService
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, authService *AuthService, logger logging.Logger) *IdentityService {
	return &IdentityService{
		base: base{
			db:           db,
			repomanager:  m,
			queryTimeout: cfg.DBQueryTimeout,
			logger:       logger.With("service", "identities"),
		},
		auth: authService,
	}
}

// List returns a page of identities. The requester must hold the admin role;
// the resolved requester itself is not used.
func (s *IdentityService) List(ctx context.Context, token string, skip, limit int) ([]*models.PublicIdentity, error) {
	if _, err := s.auth.Authorize(ctx, token, common.AdminRoleName); err != nil {
		return nil, err
	}

	skip, limit, err := normalizePage(skip, limit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	identities, err := s.repomanager.Users(s.db).List(ctx, skip, limit)
	if err != nil {
		return nil, s.internal(ctx, "list identities", err)
	}

	return models.PublicIdentities(identities), nil
}

// Me returns the requester's public identity together with its role names.
func (s *IdentityService) Me(ctx context.Context, token string) (*models.PublicIdentity, error) {
	identity, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	roles, err := s.repomanager.Roles(s.db).ListByIdentity(ctx, identity.ID)
	if err != nil {
		return nil, s.internal(ctx, "me roles", err)
	}

	public := identity.Public()
	public.Roles = models.RoleNames(roles)
	return public, nil
}

// AssignRole grants roleName to the identity registered under email. Both
// must exist (common.ErrorNotFound otherwise). Granting a role the identity
// already holds is a no-op. The lookups and the insert share one transaction.
func (s *IdentityService) AssignRole(ctx context.Context, email, roleName string) (*models.PublicIdentity, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var public *models.PublicIdentity

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		identity, err := s.repomanager.Users(tx).GetByEmail(ctx, email)
		if err != nil {
			return err
		}

		rolesRepo := s.repomanager.Roles(tx)

		role, err := rolesRepo.GetByName(ctx, roleName)
		if err != nil {
			return err
		}

		if err := rolesRepo.Assign(ctx, identity.ID, role.ID); err != nil {
			return err
		}

		held, err := rolesRepo.ListByIdentity(ctx, identity.ID)
		if err != nil {
			return err
		}

		public = identity.Public()
		public.Roles = models.RoleNames(held)
		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "assign role", err)
	}

	s.logger.Info(ctx, "role assigned", "identity_id", public.ID, "role", roleName)
	return public, nil
}
