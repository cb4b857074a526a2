package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-tracker/internal/app"
	"github.com/joseph-ayodele/invoice-tracker/internal/extract"
	"github.com/joseph-ayodele/invoice-tracker/internal/pipeline"
)

func newTextCmd(c *cli) *cobra.Command {
	var showPages bool
	cmd := &cobra.Command{
		Use:   "text FILE.pdf",
		Short: "Print the reconciled text of a PDF (native layer or OCR per page)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage := app.NewTextStage(c.cfg, c.logger)
			doc, err := stage.ExtractText(cmd.Context(), args[0], filepath.Base(args[0]))
			if err != nil {
				return err
			}
			if !showPages {
				fmt.Fprintln(c.out, doc.Text())
				return nil
			}
			for _, p := range doc.Pages() {
				fmt.Fprintf(c.out, "--- page %d (%s) ---\n%s\n", p.Number, p.Provenance, p.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPages, "pages", false, "print each page with its provenance")
	return cmd
}

func newExtractCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "extract FILE.pdf",
		Short: "Validate a PDF and print the corrected line records, without storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := filepath.Base(args[0])
			if err := pipeline.ValidateUpload(name, data, c.cfg.Storage.MaxUploadBytes); err != nil {
				return err
			}
			proc := pipeline.NewProcessor(pipeline.Config{ProcessingTimeout: c.cfg.LLM.ProcessingTimeout}, pipeline.Deps{
				Text:  app.NewTextStage(c.cfg, c.logger),
				Parse: app.NewParseStage(c.cfg, c.logger),
			}, c.logger)
			res, err := proc.ProcessFile(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			records := res.Fields.Records
			extract.AssignSequence(records)
			return c.printJSON(map[string]any{
				"method":   res.Fields.Method,
				"used_ocr": res.Document.UsedOCR(),
				"pages":    res.Document.PageCount(),
				"records":  records,
			})
		},
	}
}
