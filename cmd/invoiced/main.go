package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/invoice-tracker/internal/app"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/ingest"
	"github.com/joseph-ayodele/invoice-tracker/internal/janitor"
	"github.com/joseph-ayodele/invoice-tracker/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, cfg.Log)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.DB.HealthCheck(ctx, cfg.Database.DialTimeout); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	j := janitor.New(a.Workflow, cfg.Workflow.AbandonAfter, cfg.Workflow.SweepInterval, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		j.Run(ctx)
	}()

	if cfg.Server.InboxDir != "" {
		inbox, err := newInbox(ctx, a, cfg)
		if err != nil {
			logger.Error("inbox disabled", "dir", cfg.Server.InboxDir, "error", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := inbox.Watch(ctx, 500*time.Millisecond); err != nil {
					logger.Error("inbox watcher stopped", "error", err)
				}
			}()
		}
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
		stop()
		wg.Wait()
		os.Exit(1)
	}
	srv := server.New(a.DB, logger)
	if err := srv.Serve(ctx, lis); err != nil {
		logger.Error("grpc server failed", "error", err)
	}

	stop()
	wg.Wait()
	logger.Info("stopped")
}

// newInbox resolves the intake user the watcher uploads as.
func newInbox(ctx context.Context, a *app.App, cfg *common.Config) (*ingest.Inbox, error) {
	if cfg.Server.IntakeUser == "" {
		return nil, common.ValidationErrorf("INTAKE_USER is required when INBOX_DIR is set")
	}
	u, err := a.Users.GetByUsername(ctx, cfg.Server.IntakeUser)
	if err != nil {
		return nil, err
	}
	return ingest.NewInbox(a.Processor, u.ID, cfg.Server.InboxDir, a.Logger)
}
