package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/server/models"
)

// BootstrapAdmin makes sure the admin role exists, that an identity is
// registered under email, and that it holds admin. Every step tolerates
// prior runs, so calling it on each start is safe. An existing identity
// keeps its password.
func BootstrapAdmin(ctx context.Context, authService *AuthService, roleService *RoleService, identityService *IdentityService, email, password string) (*models.PublicIdentity, error) {
	description := "Full administrative access"
	if _, err := roleService.CreateUnchecked(ctx, common.AdminRoleName, &description); err != nil && !errors.Is(err, common.ErrorAlreadyExists) {
		return nil, err
	}

	if _, err := authService.Register(ctx, email, password); err != nil && !errors.Is(err, common.ErrorAlreadyExists) {
		return nil, err
	}

	return identityService.AssignRole(ctx, email, common.AdminRoleName)
}
