package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/profiles"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE.yaml",
		Short: "Create departments and users from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			sf, err := profiles.DecodeSeed(f)
			if err != nil {
				return err
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := a.Profiles.Seed(cmd.Context(), sf)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "departments created: %d\nusers created: %d\nusers already present: %d\n",
				stats.Departments, stats.Users, stats.Existing)
			return nil
		},
	}
}

func newUsersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "Manage workflow users"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			users, err := a.Profiles.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tROLE\tACTIVE\tID")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", u.Username, u.Role, u.IsActive, u.ID)
			}
			return tw.Flush()
		},
	})

	var req profiles.CreateUserRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			u, err := a.Profiles.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, u.ID)
			return nil
		},
	}
	add.Flags().StringVar(&req.Username, "username", "", "login name")
	add.Flags().StringVar(&req.Email, "email", "", "email address")
	add.Flags().StringVar(&req.Role, "role", "", "one of: "+roleNames())
	add.Flags().StringVar(&req.Department, "department", "", "department name, created if missing")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("role")
	cmd.AddCommand(add)

	for _, active := range []bool{true, false} {
		use := "disable USERNAME"
		if active {
			use = "enable USERNAME"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: strings.Fields(use)[0] + " a user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := c.open(cmd.Context())
				if err != nil {
					return err
				}
				return a.Profiles.SetActive(cmd.Context(), args[0], active)
			},
		})
	}
	return cmd
}

func roleNames() string {
	var names []string
	for _, r := range constants.Roles() {
		names = append(names, fmt.Sprintf("%q", r))
	}
	return strings.Join(names, ", ")
}

func newAuditCmd(c *cli) *cobra.Command {
	var invoice, user string
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show audit records for an invoice, a user, or the most recent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			switch {
			case invoice != "":
				id, err := uuid.Parse(invoice)
				if err != nil {
					return common.ValidationErrorf("invalid invoice id %q", invoice)
				}
				recs, err := a.Audit.ByInvoice(ctx, id)
				if err != nil {
					return err
				}
				return c.printJSON(recs)
			case user != "":
				uid, err := c.actor(ctx, user)
				if err != nil {
					return err
				}
				recs, err := a.Audit.ByUser(ctx, uid, limit)
				if err != nil {
					return err
				}
				return c.printJSON(recs)
			default:
				recs, err := a.Audit.Recent(ctx, limit)
				if err != nil {
					return err
				}
				return c.printJSON(recs)
			}
		},
	}
	cmd.Flags().StringVar(&invoice, "invoice", "", "invoice id")
	cmd.Flags().StringVar(&user, "user", "", "username")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	var out, dept, uploader string
	var statuses []string
	var savedOnly bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write invoice line records to an XLSX workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			filter := repository.InvoiceFilter{SavedOnly: savedOnly}
			for _, s := range statuses {
				st := constants.InvoiceStatus(strings.ToLower(strings.TrimSpace(s)))
				if !st.Valid() {
					return common.ValidationErrorf("unknown status %q", s)
				}
				filter.Statuses = append(filter.Statuses, st)
			}
			if dept != "" {
				d, err := a.Users.GetDepartmentByName(ctx, dept)
				if err != nil {
					return err
				}
				filter.DepartmentID = uuid.NullUUID{UUID: d.ID, Valid: true}
			}
			if uploader != "" {
				uid, err := c.actor(ctx, uploader)
				if err != nil {
					return err
				}
				filter.UploadedBy = uuid.NullUUID{UUID: uid, Valid: true}
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			n, err := a.Export.ExportInvoices(ctx, filter, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "wrote %d rows to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "invoices.xlsx", "output path")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only these statuses")
	cmd.Flags().StringVar(&dept, "department", "", "only this department")
	cmd.Flags().StringVar(&uploader, "uploader", "", "only invoices uploaded by this username")
	cmd.Flags().BoolVar(&savedOnly, "saved", false, "skip unsaved uploads")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count invoices by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := a.Invoices.CountByStatus(cmd.Context())
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(counts))
			total := 0
			for st, n := range counts {
				keys = append(keys, string(st))
				total += n
			}
			sort.Strings(keys)
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			for _, k := range keys {
				fmt.Fprintf(tw, "%s\t%d\n", k, counts[constants.InvoiceStatus(k)])
			}
			fmt.Fprintf(tw, "total\t%d\n", total)
			return tw.Flush()
		},
	}
}

func newSweepCmd(c *cli) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete abandoned uploads (extracted, never saved)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				olderThan = c.cfg.Workflow.AbandonAfter
			}
			n, err := a.Workflow.SweepAbandoned(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %d abandoned invoices\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age threshold (default ABANDON_AFTER)")
	return cmd
}

func newHealthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.DB.HealthCheck(cmd.Context(), 3*time.Second); err != nil {
				return fmt.Errorf("database health: %w", err)
			}
			fmt.Fprintf(c.out, "database (%s): OK\n", a.DB.Dialect())
			return nil
		},
	}
}
