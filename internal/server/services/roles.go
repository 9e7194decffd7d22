package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/config"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

// RoleService creates and lists roles. Every operation is admin-only.
type RoleService struct {
	base
	auth *AuthService
}

func NewRoleService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, authService *AuthService, logger logging.Logger) *RoleService {
	return &RoleService{
		base: base{
			db:           db,
			repomanager:  m,
			queryTimeout: cfg.DBQueryTimeout,
			logger:       logger.With("service", "roles"),
		},
		auth: authService,
	}
}

// Create adds a role on behalf of an admin requester.
func (s *RoleService) Create(ctx context.Context, token, name string, description *string) (*models.Role, error) {
	if _, err := s.auth.Authorize(ctx, token, common.AdminRoleName); err != nil {
		return nil, err
	}
	return s.create(ctx, name, description)
}

// CreateUnchecked adds a role without a requester. It is meant for operator
// tooling that already has direct store access.
func (s *RoleService) CreateUnchecked(ctx context.Context, name string, description *string) (*models.Role, error) {
	return s.create(ctx, name, description)
}

func (s *RoleService) create(ctx context.Context, name string, description *string) (*models.Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: role name is required", common.ErrorValidation)
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	role, err := s.repomanager.Roles(s.db).Create(ctx, &models.Role{Name: name, Description: description})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, s.internal(ctx, "create role", err)
	}

	s.logger.Info(ctx, "role created", "id", role.ID, "name", role.Name)
	return role, nil
}

// List returns a page of roles to an admin requester.
func (s *RoleService) List(ctx context.Context, token string, skip, limit int) ([]*models.Role, error) {
	if _, err := s.auth.Authorize(ctx, token, common.AdminRoleName); err != nil {
		return nil, err
	}

	skip, limit, err := normalizePage(skip, limit)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	roles, err := s.repomanager.Roles(s.db).List(ctx, skip, limit)
	if err != nil {
		return nil, s.internal(ctx, "list roles", err)
	}
	return roles, nil
}
