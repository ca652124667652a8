package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/query"
)

var valueFields = []string{query.FieldDomain, query.FieldWatershed, query.FieldCountry, query.FieldVenue}

func init() {
	rootCmd.AddCommand(valuesCmd)
}

var valuesCmd = &cobra.Command{
	Use:   "values <field>",
	Short: "List the distinct values of a filter field",
	Long: `List the distinct values of a filter field, sorted case-insensitively.

Fields: domain, watershed, country, venue

The values are the choices accepted by the matching citations filter flag.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: valueFields,
	RunE:      runValues,
}

func runValues(cmd *cobra.Command, args []string) error {
	d := mustLoadDashboard(cmd.Context())
	values, err := d.Values(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if !humanOutput {
		outputJSON(values)
		return nil
	}
	for _, v := range values {
		fmt.Println(v)
	}
	return nil
}
