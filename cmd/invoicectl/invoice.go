package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/app"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/pipeline"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
	"github.com/joseph-ayodele/invoice-tracker/internal/workflow"
)

func newInvoiceCmd(c *cli) *cobra.Command {
	var as string
	cmd := &cobra.Command{Use: "invoice", Short: "Drive invoices through the approval workflow"}
	cmd.PersistentFlags().StringVar(&as, "as", "", "username acting on the invoice")

	// withActor resolves --as and the invoice id argument.
	withActor := func(run func(ctx context.Context, a *app.App, actor, id uuid.UUID, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := c.actor(ctx, as)
			if err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return common.ValidationErrorf("invalid invoice id %q", args[0])
			}
			return run(ctx, c.app, actor, id, args[1:])
		}
	}
	show := func(inv *entity.Invoice, err error) error {
		if err != nil {
			return err
		}
		return c.printJSON(inv)
	}

	var dept string
	upload := &cobra.Command{
		Use:   "upload FILE.pdf",
		Short: "Upload and extract a PDF invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			actor, err := c.actor(ctx, as)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			req := pipeline.UploadRequest{Filename: filepath.Base(args[0]), Data: data}
			if dept != "" {
				d, err := c.app.Users.GetDepartmentByName(ctx, dept)
				if err != nil {
					return err
				}
				req.DepartmentID = uuid.NullUUID{UUID: d.ID, Valid: true}
			}
			return show(c.app.Processor.Upload(ctx, actor, req))
		},
	}
	upload.Flags().StringVar(&dept, "department", "", "target department (defaults to the uploader's)")

	var remarks string
	approve := &cobra.Command{
		Use:   "approve ID",
		Short: "Approve a pending invoice",
		Args:  cobra.ExactArgs(1),
		RunE: withActor(func(ctx context.Context, a *app.App, actor, id uuid.UUID, _ []string) error {
			return show(a.Workflow.Approve(ctx, actor, id, remarks))
		}),
	}
	approve.Flags().StringVar(&remarks, "remarks", "", "approval remarks")

	reject := &cobra.Command{
		Use:   "reject ID",
		Short: "Reject a pending invoice",
		Args:  cobra.ExactArgs(1),
		RunE: withActor(func(ctx context.Context, a *app.App, actor, id uuid.UUID, _ []string) error {
			return show(a.Workflow.Reject(ctx, actor, id, remarks))
		}),
	}
	reject.Flags().StringVar(&remarks, "remarks", "", "rejection remarks (required)")

	var save bool
	update := &cobra.Command{
		Use:   "update ID FIELD=VALUE...",
		Short: "Edit invoice fields, or save them as a draft with --save",
		Args:  cobra.MinimumNArgs(2),
		RunE: withActor(func(ctx context.Context, a *app.App, actor, id uuid.UUID, pairs []string) error {
			req := workflow.UpdateRequest{Fields: map[string]string{}}
			for _, p := range pairs {
				k, v, ok := strings.Cut(p, "=")
				if !ok || strings.TrimSpace(k) == "" {
					return common.ValidationErrorf("expected FIELD=VALUE, got %q", p)
				}
				req.Fields[strings.TrimSpace(k)] = v
			}
			if save {
				req.Action = workflow.ActionSave
			}
			return show(a.Workflow.Update(ctx, actor, id, req))
		}),
	}
	update.Flags().BoolVar(&save, "save", false, "save as draft")

	var out string
	download := &cobra.Command{
		Use:   "download ID",
		Short: "Copy the invoice PDF to a local file",
		Args:  cobra.ExactArgs(1),
		RunE: withActor(func(ctx context.Context, a *app.App, actor, id uuid.UUID, _ []string) error {
			rc, inv, err := a.Workflow.Download(ctx, actor, id)
			if err != nil {
				return err
			}
			defer rc.Close()
			dst := out
			if dst == "" {
				dst = inv.Header.Filename
			}
			if dst == "" {
				dst = inv.ID.String() + ".pdf"
			}
			f, err := os.Create(dst)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, rc); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, dst)
			return nil
		}),
	}
	download.Flags().StringVarP(&out, "out", "o", "", "destination path")

	cmd.AddCommand(
		upload,
		&cobra.Command{
			Use:   "submit ID",
			Short: "Submit an invoice for approval",
			Args:  cobra.ExactArgs(1),
			RunE: withActor(func(ctx context.Context, a *app.App, actor, id uuid.UUID, _ []string) error {
				return show(a.Workflow.Submit(ctx, actor, id))
			}),
		},
		approve,
		reject,
		update,
		&cobra.Command{
			Use:   "show ID",
			Short: "Show an invoice",
			Args:  cobra.ExactArgs(1),
			RunE: withActor(func(ctx context.Context, a *app.App, actor, id uuid.UUID, _ []string) error {
				return show(a.Workflow.View(ctx, actor, id))
			}),
		},
		download,
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete an invoice and its file",
			Args:  cobra.ExactArgs(1),
			RunE: withActor(func(ctx context.Context, a *app.App, actor, id uuid.UUID, _ []string) error {
				if err := a.Workflow.Delete(ctx, actor, id); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "deleted", id)
				return nil
			}),
		},
		newInvoiceListCmd(c),
	)
	return cmd
}

func newInvoiceListCmd(c *cli) *cobra.Command {
	var statuses []string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			filter := repository.InvoiceFilter{Limit: limit}
			for _, s := range statuses {
				filter.Statuses = append(filter.Statuses, constants.InvoiceStatus(strings.ToLower(s)))
			}
			invs, err := a.Invoices.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNUMBER\tVENDOR\tSTATUS\tPRIORITY\tROWS\tCREATED")
			for _, inv := range invs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					inv.ID, inv.Header.InvoiceNumber, inv.Header.VendorName, inv.Status, inv.Priority,
					len(inv.LineItems), inv.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only these statuses")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum invoices")
	return cmd
}

func newNotificationsCmd(c *cli) *cobra.Command {
	var as string
	var all, markRead bool
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show a user's in-app notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			uid, err := c.actor(ctx, as)
			if err != nil {
				return err
			}
			notes, err := c.app.Notifications.ListForRecipient(ctx, uid, !all)
			if err != nil {
				return err
			}
			if err := c.printJSON(notes); err != nil {
				return err
			}
			if !markRead {
				return nil
			}
			for _, n := range notes {
				if err := c.app.Notifications.MarkRead(ctx, n.ID, uid); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&as, "as", "", "recipient username")
	cmd.Flags().BoolVar(&all, "all", false, "include read notifications")
	cmd.Flags().BoolVar(&markRead, "mark-read", false, "mark the listed notifications as read")
	return cmd
}
