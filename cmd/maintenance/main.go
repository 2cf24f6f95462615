// Command maintenance runs the data repair jobs against the configured
// database without going through the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/hr_portal/internal/app"
	"github.com/Skotchmaster/hr_portal/internal/config"
	"github.com/Skotchmaster/hr_portal/internal/service"
	"github.com/Skotchmaster/hr_portal/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openApp).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type opener func(ctx context.Context) (*app.App, error)

func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logging.New(cfg.LogLevel))
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "maintenance",
		Short:         "HR portal data maintenance jobs",
		SilenceUsage: true,
	}

	// run opens the app, hands it to fn and prints the result as JSON.
	run := func(fn func(ctx context.Context, a *app.App) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx := logging.IntoContext(cmd.Context(), a.Logger)
			out, err := fn(ctx, a)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		}
	}

	var window time.Duration
	dedupeCmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Remove pending requests submitted twice within the window",
		RunE: run(func(ctx context.Context, a *app.App) (any, error) {
			return a.Maintenance.Deduplicate(ctx, window)
		}),
	}
	dedupeCmd.Flags().DurationVar(&window, "window", service.DefaultDedupeWindow, "gap under which two submissions count as duplicates")

	orphansCmd := &cobra.Command{
		Use:   "orphans",
		Short: "List requests and workflows whose employee is gone",
		RunE: run(func(ctx context.Context, a *app.App) (any, error) {
			return a.Maintenance.ScanOrphans(ctx)
		}),
	}

	var employee uint
	repairCmd := &cobra.Command{
		Use:   "repair <request-id>",
		Short: "Normalize a request's items and optionally reassign it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uint
			if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil || id == 0 {
				return fmt.Errorf("invalid request id %q", args[0])
			}
			return run(func(ctx context.Context, a *app.App) (any, error) {
				var to *uint
				if cmd.Flags().Changed("employee") {
					to = &employee
				}
				return a.Maintenance.RepairRequest(ctx, id, to)
			})(cmd, args)
		},
	}
	repairCmd.Flags().UintVar(&employee, "employee", 0, "employee id to reassign the request to")

	var yes bool
	purgeRequestsCmd := &cobra.Command{
		Use:   "purge-requests",
		Short: "Delete every request and its items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to delete all requests without --yes")
			}
			return run(func(ctx context.Context, a *app.App) (any, error) {
				n, err := a.Maintenance.DeleteAllRequests(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]int64{"deleted": n}, nil
			})(cmd, args)
		},
	}
	purgeRequestsCmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")

	var retention time.Duration
	purgeTokensCmd := &cobra.Command{
		Use:   "purge-tokens",
		Short: "Remove refresh tokens expired or revoked longer ago than the retention",
		RunE: run(func(ctx context.Context, a *app.App) (any, error) {
			return a.Maintenance.PurgeRefreshTokens(ctx, retention)
		}),
	}
	purgeTokensCmd.Flags().DurationVar(&retention, "retention", 0, "how long to keep dead tokens")

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the employee search index from the database",
		RunE: run(func(ctx context.Context, a *app.App) (any, error) {
			if a.Employees.Index == nil {
				return nil, errors.New("search index is not configured (ES_URL)")
			}
			n, err := a.Employees.Reindex(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]int{"indexed": n}, nil
		}),
	}

	root.AddCommand(dedupeCmd, orphansCmd, repairCmd, purgeRequestsCmd, purgeTokensCmd, reindexCmd)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
