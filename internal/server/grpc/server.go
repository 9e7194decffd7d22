// Package grpc exposes the standard grpc.health.v1 service. The reported
// status follows credential store reachability, so orchestrators can gate
// traffic on it.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/guardian/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall ("") status.
const ServiceName = "guardian"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type GRPCServer struct {
	address       string
	logger        logging.Logger
	db            Pinger
	health        *health.Server
	probeInterval time.Duration
	probeTimeout  time.Duration
}

func NewGRPCServer(address string, l logging.Logger, db Pinger, probeInterval, probeTimeout time.Duration) *GRPCServer {
	if probeInterval <= 0 {
		probeInterval = 10 * time.Second
	}
	if probeTimeout <= 0 {
		probeTimeout = time.Second
	}
	return &GRPCServer{
		address:       address,
		logger:        l.With("module", "grpc_server"),
		db:            db,
		health:        health.NewServer(),
		probeInterval: probeInterval,
		probeTimeout:  probeTimeout,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

// probe pings the store once and publishes the result.
func (s *GRPCServer) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(pingCtx); err != nil {
		s.logger.Warn(ctx, "store ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
