package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-tracker/internal/app"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

// cli carries state shared by subcommands. The app is opened lazily so
// commands that only read a local file need no database.
type cli struct {
	cfg    *common.Config
	logger *slog.Logger
	app    *app.App
	out    io.Writer
}

func (c *cli) open(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	a, err := app.New(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
	}
}

// actor resolves a username given with --as.
func (c *cli) actor(ctx context.Context, username string) (uuid.UUID, error) {
	if username == "" {
		return uuid.Nil, common.ValidationErrorf("--as is required")
	}
	a, err := c.open(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	u, err := a.Users.GetByUsername(ctx, username)
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(c *cli) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Operate the invoice tracker: users, invoices, exports, maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.cfg = common.LoadConfig()
			if verbose {
				c.cfg.Log.Level = "debug"
			}
			c.logger = common.NewLogger(cmd.ErrOrStderr(), c.cfg.Log)
			c.out = cmd.OutOrStdout()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newSeedCmd(c),
		newUsersCmd(c),
		newInvoiceCmd(c),
		newNotificationsCmd(c),
		newAuditCmd(c),
		newExportCmd(c),
		newStatsCmd(c),
		newSweepCmd(c),
		newHealthCmd(c),
		newTextCmd(c),
		newExtractCmd(c),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{}
	err := newRootCmd(c).ExecuteContext(ctx)
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
