package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/dashboard"
)

func init() {
	rootCmd.AddCommand(dashboardsCmd)
}

var dashboardsCmd = &cobra.Command{
	Use:   "dashboards",
	Short: "List configured dashboards",
	Long: `List configured dashboards with their record counts.

Every dataset is loaded; unreadable ones are reported with "fallback": true.`,
	Args: cobra.NoArgs,
	RunE: runDashboards,
}

func runDashboards(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	cat, err := dashboard.LoadCatalog(cmd.Context(), cfg.Dashboards, cfg.DefaultDashboard, nil, logger)
	if err != nil {
		exitWithError(ExitError, "loading dashboards: %v", err)
	}

	if !humanOutput {
		outputJSON(map[string]any{"default": cat.Default(), "dashboards": cat.List()})
		return nil
	}

	if cat.Len() == 0 {
		fmt.Println("No dashboards configured.")
		return nil
	}
	for _, info := range cat.List() {
		marker := " "
		if info.Name == cat.Default() {
			marker = "*"
		}
		note := ""
		if info.Fallback {
			note = "  (data unavailable, demo records)"
		}
		fmt.Printf("%s %-20s %6d records  %s%s\n", marker, info.Name, info.Records, info.Title, note)
	}
	return nil
}
