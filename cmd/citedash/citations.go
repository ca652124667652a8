package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/citedash/internal/author"
	"github.com/matsen/citedash/internal/query"
	"github.com/matsen/citedash/internal/record"
)

var (
	citSearch     string
	citAuthors    []string
	citEngagement string
	citDomains    []string
	citWatersheds []string
	citCountry    string
	citFrom       int
	citTo         int
	citSort       string
	citAsc        bool
	citLimit      int
)

func init() {
	addFilterFlags(citationsCmd)
	citationsCmd.Flags().StringVar(&citSort, "sort", "citations", "Sort by title, year, citations, engagement, domain or reference_count")
	citationsCmd.Flags().BoolVar(&citAsc, "asc", false, "Sort ascending")
	citationsCmd.Flags().IntVarP(&citLimit, "limit", "n", DefaultCitationLimit, "Maximum records to show (0 for all)")
	rootCmd.AddCommand(citationsCmd)
}

// addFilterFlags registers the record filter flags shared by citations and export.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&citSearch, "query", "q", "", "Case-insensitive search over titles, authors, venues and abstracts")
	cmd.Flags().StringArrayVarP(&citAuthors, "author", "a", nil, `Author filter, "Last" or "Last, First" (repeatable, all must match)`)
	cmd.Flags().StringVar(&citEngagement, "engagement", "", "Engagement level 1-4")
	cmd.Flags().StringSliceVar(&citDomains, "domain", nil, "Research domain (repeatable, any matches)")
	cmd.Flags().StringSliceVar(&citWatersheds, "watershed", nil, "Watershed (repeatable, any matches)")
	cmd.Flags().StringVar(&citCountry, "country", "", "Country substring")
	cmd.Flags().IntVar(&citFrom, "from", 0, "Earliest year")
	cmd.Flags().IntVar(&citTo, "to", 0, "Latest year")
}

var citationsCmd = &cobra.Command{
	Use:   "citations",
	Short: "List citing publications",
	Long: `List citing publications, filtered and sorted.

Examples:
  citedash citations -q flood --from 2018
  citedash citations -a "David, Cedric" --engagement 3
  citedash citations --watershed Mississippi --sort year --asc`,
	Args: cobra.NoArgs,
	RunE: runCitations,
}

// buildFilter converts the filter flags into a query.Filter.
func buildFilter() (query.Filter, error) {
	f := query.Filter{
		Search:     citSearch,
		Domains:    citDomains,
		Watersheds: citWatersheds,
		Country:    citCountry,
		YearFrom:   citFrom,
		YearTo:     citTo,
	}
	for _, a := range citAuthors {
		q := author.ParseQuery(a)
		if q.IsZero() {
			return f, fmt.Errorf("invalid author %q", a)
		}
		f.Authors = append(f.Authors, q)
	}
	if citEngagement != "" {
		f.Engagement = record.ParseEngagementLevel(citEngagement)
		if f.Engagement == record.Unclassified {
			return f, fmt.Errorf("unknown engagement level %q", citEngagement)
		}
	}
	if f.YearFrom > 0 && f.YearTo > 0 && f.YearFrom > f.YearTo {
		return f, fmt.Errorf("--from %d is after --to %d", f.YearFrom, f.YearTo)
	}
	return f, nil
}

func runCitations(cmd *cobra.Command, args []string) error {
	f, err := buildFilter()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	sortBy, err := query.ParseSortField(citSort)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	d := mustLoadDashboard(cmd.Context())
	recs := d.Citations(f, sortBy, !citAsc)
	total := len(recs)
	if citLimit > 0 && len(recs) > citLimit {
		recs = recs[:citLimit]
	}

	if !humanOutput {
		outputJSON(map[string]any{"total": total, "count": len(recs), "citations": recs})
		return nil
	}

	for i, r := range recs {
		fmt.Printf("%d. %s\n", i+1, truncateString(r.Title, ListTitleMaxLen))
		venue := r.Venue
		if venue == "" {
			venue = r.Source
		}
		fmt.Printf("   %s (%s) %s\n", record.FormatAuthors(r.Authors, 3), r.YearString(), venue)
		details := []string{fmt.Sprintf("%d citations", r.CitationCount)}
		if r.EngagementLevel.Classified() {
			details = append(details, r.EngagementLevel.Short())
		}
		if r.Watershed != "" && !record.IsPlaceholder(r.Watershed) {
			details = append(details, r.Watershed)
		}
		fmt.Printf("   %s\n\n", strings.Join(details, " | "))
	}
	if total > len(recs) {
		fmt.Printf("Showing %d of %d (use --limit 0 for all)\n", len(recs), total)
	}
	return nil
}
