package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/aggregate"
)

var projectHorizon int

func init() {
	projectCmd.Flags().IntVar(&projectHorizon, "horizon", aggregate.DefaultHorizon, "Years to project")
	rootCmd.AddCommand(projectCmd)
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project future annual paper counts",
	Long: `Extrapolate annual paper counts from the recent growth rate.

The rate is the mean year-over-year change of the last five non-zero years,
clamped to [-10%, +30%]. Optimistic and conservative bands widen by 15% per
year. Every projected value is at least 1.`,
	Args: cobra.NoArgs,
	RunE: runProject,
}

func runProject(cmd *cobra.Command, args []string) error {
	if projectHorizon < 1 {
		exitWithError(ExitError, "--horizon must be at least 1")
	}
	d := mustLoadDashboard(cmd.Context())
	proj := d.Projection(projectHorizon)

	if !humanOutput {
		outputJSON(proj)
		return nil
	}
	if len(proj.Points) == 0 {
		fmt.Println("Not enough history to project.")
		return nil
	}
	fmt.Printf("Growth rate %+.1f%%/yr from a baseline of %.1f papers/yr\n\n", proj.Rate*100, proj.Baseline)
	fmt.Printf("%-6s %10s %11s %13s\n", "Year", "Projected", "Optimistic", "Conservative")
	for _, p := range proj.Points {
		fmt.Printf("%-6d %10d %11d %13d\n", p.Year, p.Projected, p.Optimistic, p.Conservative)
	}
	return nil
}
