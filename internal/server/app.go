// Package server initializes and runs the Guardian server: it opens the
// credential store, applies migrations, optionally bootstraps an admin, and
// runs the HTTP API and the gRPC health endpoint until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/config"
	"github.com/dmitrijs2005/guardian/internal/server/httpapi"
	"github.com/dmitrijs2005/guardian/internal/server/metrics"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/guardian/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/guardian/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	metrics         *metrics.Metrics
	authService     *services.AuthService
	identityService *services.IdentityService
	roleService     *services.RoleService
}

func NewApp(c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(c, logger, db, repomanager.NewPostgresRepositoryManager(), prometheus.NewRegistry()), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager, registry *prometheus.Registry) *App {
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)
	m.WatchDB(db)

	as := services.NewAuthService(db, rm, c, logger)
	is := services.NewIdentityService(db, rm, c, as, logger)
	rs := services.NewRoleService(db, rm, c, as, logger)

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		repomanager:     rm,
		metrics:         m,
		authService:     as,
		identityService: is,
		roleService:     rs,
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// prepare applies migrations and the optional admin bootstrap.
func (app *App) prepare(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if app.config.BootstrapAdminEmail == "" || app.config.BootstrapAdminPassword == "" {
		return nil
	}

	identity, err := services.BootstrapAdmin(ctx, app.authService, app.roleService, app.identityService,
		app.config.BootstrapAdminEmail, app.config.BootstrapAdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	app.logger.Info(ctx, "bootstrap admin ready", "id", identity.ID)
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(httpapi.Options{
		Address:         app.config.EndpointAddrHTTP,
		PingTimeout:     app.config.DBQueryTimeout,
		ShutdownTimeout: app.config.ShutdownTimeout,
	}, app.authService, app.identityService, app.roleService, app.db, app.metrics, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db, 0, app.config.DBQueryTimeout)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives, ctx is cancelled or one of
// the servers fails.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if app.config.UsesDefaultSecretKey() {
		app.logger.Warn(ctx, "token signing key is the development default, set SECRET_KEY")
	}

	app.initSignalHandler(cancelFunc)

	defer app.db.Close()

	if err := app.prepare(ctx); err != nil {
		app.logger.Error(ctx, "startup failed", "error", err)
		return err
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
