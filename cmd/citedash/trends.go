package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/aggregate"
)

var (
	trendsStart int
	trendsEnd   int
)

func init() {
	trendsCmd.Flags().IntVar(&trendsStart, "start", 0, "First year (default: the dashboard's start_year)")
	trendsCmd.Flags().IntVar(&trendsEnd, "end", 0, "Last year (default: the dashboard's end_year)")
	rootCmd.AddCommand(trendsCmd)
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show the yearly citation series",
	Long: `Show one row per year: papers, cumulative papers, peer-reviewed vs. other,
citations and year-over-year growth.

Years without records appear with zero papers. Records without a resolvable
year are left out of the series.`,
	Args: cobra.NoArgs,
	RunE: runTrends,
}

func runTrends(cmd *cobra.Command, args []string) error {
	d := mustLoadDashboard(cmd.Context())
	start, end := trendsStart, trendsEnd
	if start == 0 {
		start = d.StartYear
	}
	if end == 0 {
		end = d.EndYear
	}
	if err := aggregate.CheckYearRange(start, end); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	points := d.Yearly(start, end)

	if !humanOutput {
		outputJSON(points)
		return nil
	}

	fmt.Printf("%-6s %7s %10s %9s %6s %10s %8s\n", "Year", "Papers", "Cumulative", "Reviewed", "Other", "Citations", "Growth")
	for _, p := range points {
		growth := "-"
		if p.GrowthRate != nil {
			growth = fmt.Sprintf("%+d%%", *p.GrowthRate)
		}
		fmt.Printf("%-6d %7d %10d %9d %6d %10d %8s\n", p.Year, p.Annual, p.Cumulative, p.PeerReviewed, p.Other, p.Citations, growth)
	}
	return nil
}
