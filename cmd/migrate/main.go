package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/spotmap/internal/adapters/postgres"
	"github.com/samirrijal/spotmap/internal/pkg/config"
	"github.com/samirrijal/spotmap/internal/pkg/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the spotmap database schema",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), timeout, func(ctx context.Context, m *postgres.Migrator) error {
				n, err := m.Up(ctx)
				if err != nil {
					return err
				}
				slog.Info("migrations applied", "count", n)
				return nil
			})
		},
	})

	var target int64
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back to --to (default: everything)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), timeout, func(ctx context.Context, m *postgres.Migrator) error {
				n, err := m.DownTo(ctx, target)
				if err != nil {
					return err
				}
				slog.Info("migrations rolled back", "count", n, "version", target)
				return nil
			})
		},
	}
	down.Flags().Int64Var(&target, "to", 0, "Version to roll back to")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), timeout, func(ctx context.Context, m *postgres.Migrator) error {
				v, err := m.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Println(v)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(parent context.Context, timeout time.Duration, fn func(context.Context, *postgres.Migrator) error) error {
	cfg, err := config.Load("spotmap-migrate")
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	m, err := postgres.NewMigrator(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(ctx, m)
}
