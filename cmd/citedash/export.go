package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/export"
	"github.com/matsen/citedash/internal/query"
	"github.com/matsen/citedash/internal/storage"
)

var (
	exportCSV        bool
	exportBibtex     bool
	exportJSONL      bool
	exportWatersheds bool
	exportCountries  bool
	exportAppend     string
	exportOutput     string
)

func init() {
	addFilterFlags(exportCmd)
	exportCmd.Flags().BoolVar(&exportCSV, "csv", false, "Export records as CSV")
	exportCmd.Flags().BoolVar(&exportBibtex, "bibtex", false, "Export records as BibTeX")
	exportCmd.Flags().BoolVar(&exportJSONL, "jsonl", false, "Export normalized records as JSONL (requires --output)")
	exportCmd.Flags().BoolVar(&exportWatersheds, "watersheds", false, "Export the watershed table as CSV")
	exportCmd.Flags().BoolVar(&exportCountries, "countries", false, "Export the country table as CSV")
	exportCmd.Flags().StringVar(&exportAppend, "append", "", "Append BibTeX entries to this .bib file, skipping DOIs already present")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	exportCmd.MarkFlagsMutuallyExclusive("csv", "bibtex", "jsonl", "watersheds", "countries")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records or geography tables",
	Long: `Export the dashboard's records (filtered like 'citations') or its
watershed/country tables.

Examples:
  citedash export --csv > rapid_citations.csv
  citedash export --bibtex --engagement 4
  citedash export --bibtex --append refs.bib
  citedash export --jsonl -o normalized.jsonl
  citedash export --watersheds -o watersheds.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportAppend != "" {
		exportBibtex = true
	}
	if !exportCSV && !exportBibtex && !exportJSONL && !exportWatersheds && !exportCountries {
		exitWithError(ExitError, "one of --csv, --bibtex, --jsonl, --watersheds or --countries is required")
	}
	if exportJSONL && exportOutput == "" {
		exitWithError(ExitError, "--jsonl requires --output")
	}

	f, err := buildFilter()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	d := mustLoadDashboard(cmd.Context())
	recs := d.Citations(f, query.SortCitations, true)

	switch {
	case exportAppend != "":
		added, skipped, err := export.AppendBibTeX(exportAppend, recs)
		if err != nil {
			exitWithError(ExitError, "appending to %s: %v", exportAppend, err)
		}
		return reportWritten(exportAppend, added, skipped)

	case exportJSONL:
		if err := storage.WriteJSONL(exportOutput, recs); err != nil {
			exitWithError(ExitError, "writing %s: %v", exportOutput, err)
		}
		return reportWritten(exportOutput, len(recs), 0)
	}

	// Text formats are written verbatim, never wrapped in JSON.
	var buf bytes.Buffer
	count := len(recs)
	switch {
	case exportCSV:
		err = export.WriteRecords(&buf, recs)
	case exportBibtex:
		buf.WriteString(export.ToBibTeXList(export.AssignKeys(recs, nil)))
	case exportWatersheds:
		geo := d.Geography()
		count = len(geo.ByWatershed)
		err = export.WriteWatersheds(&buf, geo.ByWatershed)
	case exportCountries:
		geo := d.Geography()
		count = len(geo.ByCountry)
		err = export.WriteCountries(&buf, geo.ByCountry)
	}
	if err != nil {
		exitWithError(ExitError, "exporting: %v", err)
	}

	if exportOutput == "" {
		fmt.Print(buf.String())
		return nil
	}
	if err := os.WriteFile(exportOutput, buf.Bytes(), 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", exportOutput, err)
	}
	return reportWritten(exportOutput, count, 0)
}

func reportWritten(path string, count, skipped int) error {
	if humanOutput {
		fmt.Printf("Wrote %d entries to %s", count, path)
		if skipped > 0 {
			fmt.Printf(" (%d already present)", skipped)
		}
		fmt.Println()
		return nil
	}
	return outputJSON(StatusResponse{Status: "written", Path: path, Count: count, Skipped: skipped})
}
