package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/dashboard"
)

var distTop int

func init() {
	distCmd.Flags().IntVar(&distTop, "top", 0, "Keep only the first N entries (0 keeps the default)")
	rootCmd.AddCommand(distCmd)
}

var distCmd = &cobra.Command{
	Use:   "dist <field>",
	Short: "Show a categorical distribution",
	Long: fmt.Sprintf(`Show how records distribute over a field.

Fields: %s

Multi-valued fields (e.g. "USA, Canada") count the record once per value.
Placeholders such as "Unknown" are not counted; engagement reports them as
an Unclassified bucket.`, strings.Join(dashboard.DistributionFields, ", ")),
	Args:      cobra.ExactArgs(1),
	ValidArgs: dashboard.DistributionFields,
	RunE:      runDist,
}

func runDist(cmd *cobra.Command, args []string) error {
	if distTop < 0 {
		exitWithError(ExitError, "--top must not be negative")
	}
	d := mustLoadDashboard(cmd.Context())
	entries, err := d.Distribution(args[0], distTop)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if !humanOutput {
		outputJSON(entries)
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("No classified records.")
		return nil
	}
	fmt.Print(formatEntries(entries))
	return nil
}
