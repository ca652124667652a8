package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/aggregate"
)

var (
	geoRegion    string
	geoCountries bool
)

func init() {
	geoCmd.Flags().StringVar(&geoRegion, "region", "", "Keep watersheds with a country in this region (north-america, europe, asia, south-america, australia, other)")
	geoCmd.Flags().BoolVar(&geoCountries, "countries", false, "Show the country rollup instead of watersheds")
	rootCmd.AddCommand(geoCmd)
}

var geoCmd = &cobra.Command{
	Use:   "geo",
	Short: "Show watershed and country rollups",
	Long: `Show papers and citations per watershed and per country.

A record naming several countries splits its paper and citations evenly
between them, so country totals may be fractional.`,
	Args: cobra.NoArgs,
	RunE: runGeo,
}

func runGeo(cmd *cobra.Command, args []string) error {
	if !aggregate.ValidRegion(geoRegion) {
		exitWithError(ExitError, "unknown region %q", geoRegion)
	}
	d := mustLoadDashboard(cmd.Context())
	geo := d.Geography()
	geo.ByWatershed = aggregate.FilterWatershedsByRegion(geo.ByWatershed, geoRegion)

	if !humanOutput {
		outputJSON(geo)
		return nil
	}

	if geoCountries {
		fmt.Printf("%-24s %8s %10s  %s\n", "Country", "Papers", "Citations", "Watersheds")
		for _, c := range geo.ByCountry {
			fmt.Printf("%-24s %8.2f %10.2f  %s\n", truncateString(c.Name, 24), c.Papers, c.Citations, strings.Join(c.Watersheds, ", "))
		}
		return nil
	}

	fmt.Printf("%-24s %7s %10s  %-11s %s\n", "Watershed", "Papers", "Citations", "Years", "Countries")
	for _, w := range geo.ByWatershed {
		years := "-"
		if w.FirstYear > 0 {
			years = fmt.Sprintf("%d-%d", w.FirstYear, w.LastYear)
		}
		fmt.Printf("%-24s %7d %10d  %-11s %s\n", truncateString(w.Name, 24), w.Papers, w.Citations, years, strings.Join(w.Countries, ", "))
	}
	return nil
}
