package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

// ServiceName is the health-checked service name.
const ServiceName = "invoice-tracker"

// Pinger reports database reachability. *repository.DB satisfies it.
type Pinger interface {
	HealthCheck(ctx context.Context, timeout time.Duration) error
}

// Server is the daemon's gRPC endpoint. It serves the standard health
// service, reflecting database reachability.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
	logger   *slog.Logger
}

type Option func(*Server)

// WithHealthInterval sets how often the database is pinged.
func WithHealthInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

func New(db Pinger, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		health:   health.NewServer(),
		db:       db,
		interval: 15 * time.Second,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.grpc = grpc.NewServer(grpc.ChainUnaryInterceptor(s.unaryInterceptor))
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.setServing(false)
	return s
}

// GRPC exposes the underlying server for registering more services.
func (s *Server) GRPC() *grpc.Server { return s.grpc }

// Serve accepts connections on lis until ctx ends, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	go s.watchHealth(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(lis) }()
	s.logger.Info("server.grpc.serving", "addr", lis.Addr().String())

	select {
	case <-ctx.Done():
		s.logger.Info("server.grpc.stopping")
		s.health.Shutdown()
		s.grpc.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func (s *Server) watchHealth(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		s.checkHealth(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (s *Server) checkHealth(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	err := s.db.HealthCheck(ctx, 3*time.Second)
	if err != nil {
		s.logger.Warn("server.health.db_unreachable", "error", err)
	}
	s.setServing(err == nil)
}

func (s *Server) setServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// unaryInterceptor logs each call and converts domain errors to gRPC statuses.
func (s *Server) unaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		err = common.GRPCStatus(err)
		s.logger.Warn("server.grpc.call_failed", "method", info.FullMethod, "request_id", rid, "error", err)
		return nil, err
	}
	s.logger.Debug("server.grpc.call_ok", "method", info.FullMethod, "request_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
	return resp, nil
}
