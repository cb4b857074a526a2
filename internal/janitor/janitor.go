package janitor

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes abandoned invoices older than the given age.
// *workflow.Service satisfies it.
type Sweeper interface {
	SweepAbandoned(ctx context.Context, olderThan time.Duration) (int, error)
}

// Janitor periodically sweeps abandoned uploads.
type Janitor struct {
	sweeper  Sweeper
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger
}

func New(sweeper Sweeper, maxAge, interval time.Duration, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{sweeper: sweeper, maxAge: maxAge, interval: interval, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx ends.
// A failed sweep is logged and retried on the next tick.
func (j *Janitor) Run(ctx context.Context) {
	j.logger.Info("janitor.started", "max_age", j.maxAge, "interval", j.interval)
	t := time.NewTicker(j.interval)
	defer t.Stop()
	for {
		j.Once(ctx)
		select {
		case <-ctx.Done():
			j.logger.Info("janitor.stopped")
			return
		case <-t.C:
		}
	}
}

// Once runs a single sweep and returns the number of invoices removed.
func (j *Janitor) Once(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}
	n, err := j.sweeper.SweepAbandoned(ctx, j.maxAge)
	if err != nil {
		j.logger.Error("janitor.sweep.failed", "error", err)
		return n
	}
	if n > 0 {
		j.logger.Info("janitor.sweep.ok", "deleted", n)
	}
	return n
}
