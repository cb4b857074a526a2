package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

type flakyDB struct{ down atomic.Bool }

func (f *flakyDB) HealthCheck(context.Context, time.Duration) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestHealthFollowsDatabase(t *testing.T) {
	db := &flakyDB{}
	s := New(db, slog.New(slog.NewTextHandler(io.Discard, nil)), WithHealthInterval(time.Hour))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	statusOf := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		if err != nil {
			return healthpb.HealthCheckResponse_UNKNOWN
		}
		return resp.GetStatus()
	}
	require.Eventually(t, func() bool { return statusOf() == healthpb.HealthCheckResponse_SERVING }, 2*time.Second, 10*time.Millisecond)

	db.down.Store(true)
	s.checkHealth(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, statusOf())

	cancel()
	require.NoError(t, <-done)
}

func TestInterceptorMapsDomainErrors(t *testing.T) {
	s := New(&flakyDB{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	info := &grpc.UnaryServerInfo{FullMethod: "/invoices.v1/Submit"}

	_, err := s.unaryInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, common.Deny(common.DenyWrongStatus, "Invoice is already pending approval")
	})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.PermissionDenied, st.Code())
	assert.Equal(t, "Invoice is already pending approval", st.Message())

	resp, err := s.unaryInterceptor(context.Background(), nil, info, func(ctx context.Context, _ any) (any, error) {
		return common.RequestIDFromContext(ctx), nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp)
}
