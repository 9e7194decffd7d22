package adminctl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/config"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/guardian/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// StoreAdmin implements Admin directly on the credential store.
type StoreAdmin struct {
	db              *sql.DB
	authService     *services.AuthService
	roleService     *services.RoleService
	identityService *services.IdentityService
}

// Open connects to the store named by cfg.DatabaseDSN and applies pending
// migrations so the commands work against a fresh database too.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (*StoreAdmin, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return open(ctx, cfg, logger, db, repomanager.NewPostgresRepositoryManager())
}

func open(ctx context.Context, cfg *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*StoreAdmin, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	as := services.NewAuthService(db, rm, cfg, logger)

	return &StoreAdmin{
		db:              db,
		authService:     as,
		roleService:     services.NewRoleService(db, rm, cfg, as, logger),
		identityService: services.NewIdentityService(db, rm, cfg, as, logger),
	}, nil
}

func (a *StoreAdmin) Close() error {
	return a.db.Close()
}

func (a *StoreAdmin) CreateRole(ctx context.Context, name string, description *string) (*models.Role, error) {
	return a.roleService.CreateUnchecked(ctx, name, description)
}

func (a *StoreAdmin) AssignRole(ctx context.Context, email, roleName string) (*models.PublicIdentity, error) {
	return a.identityService.AssignRole(ctx, email, roleName)
}

func (a *StoreAdmin) BootstrapAdmin(ctx context.Context, email, password string) (*models.PublicIdentity, error) {
	return services.BootstrapAdmin(ctx, a.authService, a.roleService, a.identityService, email, password)
}
