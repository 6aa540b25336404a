// Package cmd defines the symbolcrawler command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/dream-symbol-crawler/internal/app"
	"github.com/JakeFAU/dream-symbol-crawler/internal/config"
	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/logging"
	"github.com/JakeFAU/dream-symbol-crawler/internal/pipeline"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// Pipeline is the slice of the orchestrator the commands drive.
type Pipeline interface {
	Run(ctx context.Context) (pipeline.Summary, error)
	Plan(ctx context.Context) ([]crawler.CandidateTask, pipeline.Summary, error)
}

// App defines the application interface that commands use, so tests can
// inject a fake.
type App interface {
	Pipeline() Pipeline
	Logger() *zap.Logger
	SnapshotPath() string
	WriteMetrics() error
	Close() error
}

type appAdapter struct {
	*app.App
}

func (a appAdapter) Pipeline() Pipeline {
	return a.Orchestrator()
}

// newApp is the application factory, replaced in tests.
var newApp = func(ctx context.Context, cfg config.Config) (App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err //nolint:wrapcheck
	}
	return appAdapter{a}, nil
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "symbolcrawler",
		Short: "Builds the dream symbol dataset from dictionary sites.",
		Long: `symbolcrawler discovers dream symbol keywords on a fixed set of Chinese
and English dream dictionaries, extracts an interpretation for each new
keyword, and keeps the results in a JSON snapshot that the site build reads.
Runs are incremental: keywords already in the snapshot are skipped.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := applyFlagOverrides(cmd, &cfg); err != nil {
				return err
			}
			appInstance, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); defaults and SYMBOLS_* env vars apply without one")
	cmd.AddCommand(newCrawlCmd(), newDiscoverCmd())
	return cmd
}

// applyFlagOverrides copies explicitly set command flags onto cfg.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("snapshot") {
		path, err := flags.GetString("snapshot")
		if err != nil {
			return fmt.Errorf("read --snapshot: %w", err)
		}
		cfg.Storage.SnapshotPath = path
	}
	if flags.Changed("max-tasks") {
		n, err := flags.GetInt("max-tasks")
		if err != nil {
			return fmt.Errorf("read --max-tasks: %w", err)
		}
		cfg.Pipeline.MaxTasks = n
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// resolveApp returns the App stored by PersistentPreRunE. Callers own
// closing it, since cobra skips post-run hooks when RunE fails.
func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute runs the CLI until completion or an interrupt. An interrupt is
// delivered as context cancellation so the run can write its final snapshot.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "symbolcrawler:", err)
		os.Exit(1)
	}
}
