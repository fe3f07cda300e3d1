// Command voicebotctl runs operator tasks against the voice bot's stores and routing backend.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kushalsharma0702/financial-voice-chatbot/internal/config"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/logger"
	"github.com/Kushalsharma0702/financial-voice-chatbot/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "voicebotctl",
	Short:         "Operator tooling for the financial voice bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		loaded = cfg
		slog.SetDefault(logger.NewWriter(os.Stderr, cfg.App.Env))
		return nil
	},
}

// loaded is set by the root pre-run hook before any subcommand runs.
var loaded config.Config

func openDB(ctx context.Context) (*sql.DB, error) {
	pool := loaded.PostgresPool()
	pool.MaxOpenConns = 2
	db, err := utils.OpenPostgres(ctx, "pgx", loaded.PostgresDSN(), pool)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
