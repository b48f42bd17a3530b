// Package main - консоль оператора: статистика, экспорт в Excel и запуск бота.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/alem-hub/applications-bot/config"
	"github.com/alem-hub/applications-bot/internal/app"
	"github.com/alem-hub/applications-bot/internal/interface/console"
	"github.com/alem-hub/applications-bot/pkg/logger"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "applications",
	Short: "Faculty applications console",
	Long: `Operator console for the faculty applications bot.
Without a subcommand it opens the interactive menu:
- 1: run the Telegram bot until Ctrl+C
- 2: print per-faculty statistics
- 3: export all applications to an Excel file
- 4: exit`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd.Context(), cmd.OutOrStdout())
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to a YAML config file")
	registerCommands()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func registerCommands() {
	rootCmd.AddCommand(menuCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(botCmd())
	rootCmd.AddCommand(migrateCmd())
}

func menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print application statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				return newConsole(a, cmd.OutOrStdout()).PrintStatistics(cmd.Context())
			})
		},
	}
}

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all applications to an Excel file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				path := output
				if path == "" {
					path = a.Config().Storage.ExportPath
				}
				return newConsole(a, cmd.OutOrStdout()).Export(cmd.Context(), path)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default storage.export_path)")
	return cmd
}

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Config().RequireToken(); err != nil {
					return err
				}
				console.PrintBotBanner(cmd.OutOrStdout(), a.Config().MaskedToken())
				return a.RunBot(cmd.Context())
			})
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				n, err := a.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
				return nil
			})
		},
	}
}

// ─── helpers ───

func runMenu(ctx context.Context, out io.Writer) error {
	return withApp(ctx, func(a *app.App) error {
		return newConsole(a, out).RunMenu(ctx)
	})
}

// withApp loads the config, opens the stores and closes them after fn.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Логи идут в stderr, чтобы не мешать меню и таблицам.
	opts := logger.DefaultOptions()
	opts.Level = cfg.Observability.LogLevel
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	opts.Output = os.Stderr
	log := logger.Setup(opts)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(a); err != nil && !errors.Is(err, context.Canceled) {
		log.Debug("command failed", logger.Err(err))
		return err
	}
	return nil
}

func newConsole(a *app.App, out io.Writer) *console.Console {
	return console.New(console.Config{
		In:         os.Stdin,
		Out:        out,
		Statistics: a.Statistics(),
		Export:     a.Export(),
		RunBot: func(ctx context.Context) error {
			if err := a.Config().RequireToken(); err != nil {
				return err
			}
			console.PrintBotBanner(out, a.Config().MaskedToken())
			return a.RunBot(ctx)
		},
		ExportPath: a.Config().Storage.ExportPath,
		Logger:     slog.Default(),
	})
}
