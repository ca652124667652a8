package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/citedash/internal/config"
	"github.com/matsen/citedash/internal/dashboard"
	"github.com/matsen/citedash/internal/github"
	"github.com/matsen/citedash/internal/server"
)

var serveListen string

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default: listen from the config, else :8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboards over a JSON API",
	Long: `Load every configured dashboard (or the --data file) once and serve it
read-only over HTTP.

Routes:
  GET /healthz
  GET /metrics
  GET /api/dashboards
  GET /api/dashboards/{name}/summary
  GET /api/dashboards/{name}/trends?start=&end=
  GET /api/dashboards/{name}/distributions/{field}?top=
  GET /api/dashboards/{name}/geography?region=
  GET /api/dashboards/{name}/projection?horizon=
  GET /api/dashboards/{name}/citations?q=&author=&engagement=&domain=&watershed=&country=&from=&to=&sort=&order=
  GET /api/dashboards/{name}/citations.csv
  GET /api/dashboards/{name}/values/{field}
  GET /api/dashboards/{name}/github

A dashboard whose data cannot be read serves demo records and reports
"fallback": true.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := mustLoadConfig()

	defs := cfg.Dashboards
	defaultName := cfg.DefaultDashboard
	if dataPath != "" {
		def := config.AdHocDashboard(dataPath)
		defs, defaultName = []config.Dashboard{def}, def.Name
	}
	if len(defs) == 0 {
		exitWithError(ExitConfigError, "%s", config.HelpfulConfigMessage())
	}

	cat, err := dashboard.LoadCatalog(ctx, defs, defaultName, nil, logger)
	if err != nil {
		exitWithError(ExitError, "loading dashboards: %v", err)
	}

	opts := server.Options{
		Catalog: cat,
		GitHub:  github.NewClient(github.WithToken(cfg.GitHubToken), github.WithLogger(logger)),
		Logger:  logger,
	}
	if db := openSnapshots(cfg); db != nil {
		defer db.Close()
		opts.Baselines = db
	}

	addr := serveListen
	if addr == "" {
		addr = cfg.Listen
	}
	if err := server.New(opts).ListenAndServe(ctx, addr); err != nil {
		logger.Error("server failed", zap.Error(err))
		exitWithError(ExitError, "serving: %v", err)
	}
	return nil
}
