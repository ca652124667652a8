// Package main provides the citedash CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/citedash/internal/config"
	"github.com/matsen/citedash/internal/dashboard"
	"github.com/matsen/citedash/internal/logging"
	"github.com/matsen/citedash/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// Global flags.
var (
	humanOutput   bool
	verbose       bool
	configPath    string
	dashboardName string
	dataPath      string
)

// logger is built in PersistentPreRunE.
var logger = zap.NewNop()

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// SilenceErrors is set, so Cobra errors (like unknown flags) are printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citedash",
	Short: "Citation analytics for hydrologic models",
	Long: `citedash aggregates the publications citing a model into dashboard metrics.

Core features:
  - Impact metrics: h-index, implementation rate, high-impact papers
  - Yearly trends, categorical distributions and growth projections
  - Watershed and country rollups with region filtering
  - CSV and BibTeX export, GitHub repository statistics
  - A read-only JSON API (citedash serve)

Datasets are JSON, JSONL or CSV files named in ~/.config/citedash/config.yml.
All commands output JSON by default for scripting.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug details to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $CITEDASH_CONFIG or ~/.config/citedash/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&dashboardName, "dashboard", "d", "", "Dashboard name (default: the configured default)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "Analyze this data file instead of a configured dashboard")
	rootCmd.Version = Version
}

func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	if configPath != "" {
		os.Setenv(config.EnvConfigPath, configPath)
	}
	l, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = l
	return nil
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// resolveDashboard picks the --data file or the --dashboard definition.
func resolveDashboard(cfg *config.Config) (config.Dashboard, error) {
	if dataPath != "" {
		return config.AdHocDashboard(dataPath), nil
	}
	name := dashboardName
	if name == "" {
		name = cfg.DefaultDashboard
	}
	if name == "" {
		return config.Dashboard{}, errNoDashboard
	}
	def, ok := cfg.Dashboard(name)
	if !ok {
		return config.Dashboard{}, fmt.Errorf("%w: %q", dashboard.ErrDashboardNotFound, name)
	}
	return def, nil
}

var errNoDashboard = errors.New("no dashboard configured")

// mustLoadDashboard loads the selected dashboard, exits on error.
// A data file that cannot be read exits with ExitDataError rather than
// serving demo records.
func mustLoadDashboard(ctx context.Context) *dashboard.Dashboard {
	cfg := mustLoadConfig()
	def, err := resolveDashboard(cfg)
	if errors.Is(err, errNoDashboard) {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	res, err := dashboard.SourceFor(def).Load(ctx)
	if err != nil {
		exitWithError(ExitDataError, "loading %s: %v", def.Data, err)
	}
	return dashboard.Load(ctx, def, dashboard.LoadedSource{Result: res}, logger)
}

// openSnapshots opens the snapshot database, or returns nil when none is
// configured or it cannot be opened.
func openSnapshots(cfg *config.Config) *storage.SnapshotDB {
	if cfg.SnapshotDB == "" {
		return nil
	}
	db, err := storage.OpenSnapshotDB(cfg.SnapshotDB)
	if err != nil {
		logger.Warn("snapshot database unavailable", zap.String("path", cfg.SnapshotDB), zap.Error(err))
		return nil
	}
	return db
}

// mustOpenSnapshots opens the snapshot database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenSnapshots(cfg *config.Config) *storage.SnapshotDB {
	if cfg.SnapshotDB == "" {
		exitWithError(ExitConfigError, "no snapshot_db configured")
	}
	db, err := storage.OpenSnapshotDB(cfg.SnapshotDB)
	if err != nil {
		exitWithError(ExitError, "opening snapshot database: %v", err)
	}
	return db
}
