// Package httpapi is the HTTP transport for Guardian: chi routing, request
// decoding, bearer extraction and the mapping from service errors to status
// codes. Handlers hold no state of their own; all decisions are made by the
// services they call.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/metrics"
	"github.com/dmitrijs2005/guardian/internal/server/models"
)

// AuthWorkflow is the subset of services.AuthService used by the handlers.
type AuthWorkflow interface {
	Register(ctx context.Context, email, password string) (*models.PublicIdentity, error)
	Login(ctx context.Context, email, password string) (*models.AccessToken, error)
}

// Identities is the subset of services.IdentityService used by the handlers.
type Identities interface {
	List(ctx context.Context, token string, skip, limit int) ([]*models.PublicIdentity, error)
	Me(ctx context.Context, token string) (*models.PublicIdentity, error)
}

// Roles is the subset of services.RoleService used by the handlers.
type Roles interface {
	Create(ctx context.Context, token, name string, description *string) (*models.Role, error)
	List(ctx context.Context, token string, skip, limit int) ([]*models.Role, error)
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	address         string
	auth            AuthWorkflow
	identities      Identities
	roles           Roles
	db              Pinger
	metrics         *metrics.Metrics
	logger          logging.Logger
	pingTimeout     time.Duration
	shutdownTimeout time.Duration
}

// Options carries the non-service settings of a Server.
type Options struct {
	Address         string
	PingTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func NewServer(opts Options, a AuthWorkflow, i Identities, r Roles, db Pinger, m *metrics.Metrics, l logging.Logger) *Server {
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		address:         opts.Address,
		auth:            a,
		identities:      i,
		roles:           r,
		db:              db,
		metrics:         m,
		logger:          l.With("module", "http_server"),
		pingTimeout:     opts.PingTimeout,
		shutdownTimeout: opts.ShutdownTimeout,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then drains in-flight requests for
// at most the shutdown timeout.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
