package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joseph-ayodele/invoice-tracker/internal/app"
	"github.com/joseph-ayodele/invoice-tracker/internal/async"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/export"
	"github.com/joseph-ayodele/invoice-tracker/internal/extract"
	"github.com/joseph-ayodele/invoice-tracker/internal/ingest"
	"github.com/joseph-ayodele/invoice-tracker/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of PDF invoices to process (required)")
		out     = flag.String("out", "", "output XLSX path (defaults to <dir>/../invoices.xlsx)")
		workers = flag.Int("workers", 2, "documents processed in parallel")
		hidden  = flag.Bool("include-hidden", false, "also process hidden files and folders")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "invoices.xlsx")
	}

	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, cfg.Log)
	if cfg.LLM.Enabled && cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, falling back to manual review")
		cfg.LLM.Enabled = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, stats, err := ingest.ScanDirectory(*dir, !*hidden)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete", "dir", *dir, "scanned", stats.Scanned, "matched", stats.Matched)
	if len(paths) == 0 {
		printError("No PDF files found in %s\n", *dir)
		os.Exit(1)
	}

	proc := pipeline.NewProcessor(pipeline.Config{
		MaxUploadBytes:    cfg.Storage.MaxUploadBytes,
		ProcessingTimeout: cfg.LLM.ProcessingTimeout,
	}, pipeline.Deps{
		Text:  app.NewTextStage(cfg, logger),
		Parse: app.NewParseStage(cfg, logger),
	}, logger)

	var mu sync.Mutex
	perFile := make([][]entity.LineRecord, len(paths))
	failed := 0
	q := async.NewProcessorQueue(func(jctx context.Context, job async.Job) error {
		res, err := proc.ProcessFile(jctx, job.Path, job.Name)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failed++
			return err
		}
		perFile[job.Seq] = res.Fields.Records
		return nil
	}, logger,
		async.WithWorkers(*workers),
		async.WithProcessTimeout(cfg.LLM.ProcessingTimeout),
	)

	for i, p := range paths {
		if err := q.Enqueue(ctx, async.Job{Path: p, Seq: i}); err != nil {
			logger.Error("enqueue failed", "path", p, "error", err)
			break
		}
	}
	q.Shutdown(ctx)

	var records []entity.LineRecord
	for _, recs := range perFile {
		records = append(records, recs...)
	}
	extract.AssignSequence(records)

	f, err := os.Create(*out)
	if err != nil {
		logger.Error("failed to create output file", "path", *out, "error", err)
		os.Exit(1)
	}
	if err := export.WriteXLSX(f, records); err != nil {
		_ = f.Close()
		logger.Error("failed to write workbook", "error", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		logger.Error("failed to close output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files", len(paths),
		"failures", failed,
		"rows", len(records),
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files found: %d\n", len(paths))
	fmt.Printf("- Files processed: %d\n", len(paths)-failed)
	fmt.Printf("- Failures: %d\n", failed)
	fmt.Printf("- Rows: %d\n", len(records))
	fmt.Printf("- Output: %s\n", *out)
}
