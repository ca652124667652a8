package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/dashboard"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show headline impact metrics and trends",
	Long: `Show headline impact metrics and their trends.

Trends compare against the latest stored snapshot (see 'citedash snapshot save').
Without one they use a synthetic baseline and are flagged "synthetic": true.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	d := mustLoadDashboard(cmd.Context())
	cfg := mustLoadConfig()

	var baselines dashboard.BaselineSource
	if db := openSnapshots(cfg); db != nil {
		defer db.Close()
		baselines = db
	}

	sum, err := d.Summary(baselines, time.Now())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if !humanOutput {
		outputJSON(sum)
		return nil
	}

	m := sum.Metrics
	fmt.Printf("%s (%d records)\n\n", d.Title, m.TotalRecords)
	fmt.Printf("Total citations:      %6d  %s\n", m.TotalCitations, formatTrend(sum.Trends.Citations))
	fmt.Printf("h-index:              %6d  %s\n", m.HIndex, formatTrend(sum.Trends.HIndex))
	fmt.Printf("Implementation rate:  %5.1f%%  %s\n", m.ImplementationRate, formatTrend(sum.Trends.ImplementationRate))
	fmt.Printf("Watersheds:           %6d  %s\n", m.Watersheds, formatTrend(sum.Trends.Watersheds))
	fmt.Printf("Average citations:    %6.1f\n", m.AvgCitations)
	fmt.Printf("High-impact (>=100):  %6d\n", m.HighImpact)
	fmt.Printf("Recent (2020+):       %6d\n", m.Recent)
	fmt.Printf("With DOI:             %6d\n", m.WithDOI)
	fmt.Printf("Engagement score:     %6.2f\n", m.EngagementScore)
	if sum.Trends.Synthetic {
		fmt.Println("\nTrends use a synthetic baseline; run 'citedash snapshot save' to record one.")
	} else if sum.Baseline != nil {
		fmt.Printf("\nTrends compare against the snapshot of %s.\n", sum.Baseline.TakenAt.Local().Format("2006-01-02 15:04"))
	}
	if sum.Message != "" {
		fmt.Printf("\n%s\n", sum.Message)
	}
	return nil
}
