package workflow

import (
	"context"
	"time"
)

// SweepAbandoned deletes every unsaved extracted invoice created more than
// olderThan ago, along with its temporary file, and returns how many were
// removed. Each delete re-checks the abandonment condition, so an invoice
// saved while the sweep runs is left alone.
func (s *Service) SweepAbandoned(ctx context.Context, olderThan time.Duration) (int, error) {
	start := time.Now()
	cutoff := s.clock().Add(-olderThan)
	stale, err := s.invoices.ListAbandoned(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, inv := range stale {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		ok, err := s.invoices.DeleteAbandoned(ctx, inv.ID, cutoff)
		if err != nil {
			s.logger.Error("workflow.sweep.delete_failed", "invoice_id", inv.ID, "error", err)
			continue
		}
		if !ok {
			s.logger.Debug("workflow.sweep.skipped", "invoice_id", inv.ID)
			continue
		}
		removed++
		if inv.FilePath != "" && s.files != nil {
			if err := s.files.Delete(ctx, inv.FilePath); err != nil {
				s.logger.Warn("workflow.sweep.file_cleanup_failed", "invoice_id", inv.ID, "file_path", inv.FilePath, "error", err)
			}
		}
	}

	s.logger.Info("workflow.sweep.done",
		"candidates", len(stale),
		"removed", removed,
		"cutoff", cutoff,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return removed, nil
}
