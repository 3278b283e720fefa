// Package main provides squadctl, the operator CLI for the squad service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/config"
	"github.com/spec-kit/squad-service/internal/observability"
	"github.com/spec-kit/squad-service/internal/persistence"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every subcommand needs: configuration, a logger and a
// Postgres pool. Subcommands call open and defer close.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func open(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &env{cfg: cfg, logger: logger, pg: pg}, nil
}

func (e *env) close() {
	e.pg.Close()
	_ = e.logger.Sync()
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "squadctl",
		Short:         "Operate the squad service database and workers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			cobra.OnFinalize(stop)
			cmd.SetContext(ctx)
		},
	}
	cmd.AddCommand(migrateCmd(), dispatchCallupsCmd(), importQuizCmd())
	return cmd
}
