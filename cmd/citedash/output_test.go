package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matsen/citedash/internal/aggregate"
	"github.com/matsen/citedash/internal/config"
	"github.com/matsen/citedash/internal/dashboard"
	"github.com/matsen/citedash/internal/github"
	"github.com/matsen/citedash/internal/record"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title here", 10, "a longe..."},
		{"Zürich hydrology", 8, "Züric..."},
	}

	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		count, max int
		wantLen    int
	}{
		{10, 10, BarWidth},
		{5, 10, BarWidth / 2},
		{1, 1000, 1},
		{0, 10, 0},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := len(bar(tt.count, tt.max)); got != tt.wantLen {
			t.Errorf("len(bar(%d, %d)) = %d, want %d", tt.count, tt.max, got, tt.wantLen)
		}
	}
}

func TestFormatEntries(t *testing.T) {
	got := formatEntries([]aggregate.Entry{
		{Name: "River Modeling", Count: 4, Percentage: 66.7},
		{Name: "Floods", Count: 2, Percentage: 33.3},
	})
	want := fmt.Sprintf("River Modeling     4  66.7%%  %s\n", bar(4, 4)) +
		fmt.Sprintf("Floods             2  33.3%%  %s\n", bar(2, 4))
	if got != want {
		t.Errorf("formatEntries() =\n%q\nwant\n%q", got, want)
	}
	if formatEntries(nil) != "" {
		t.Error("formatEntries(nil) not empty")
	}
}

func TestFormatTrend(t *testing.T) {
	tests := []struct {
		trend aggregate.Trend
		want  string
	}{
		{aggregate.Trend{Value: 12.4, Unit: "percent", Up: true}, "+12.4%"},
		{aggregate.Trend{Value: -3.5, Unit: "percent", Up: false}, "-3.5%"},
		{aggregate.Trend{Value: 4.7, Unit: "points", Up: true}, "+4.7 pts"},
		{aggregate.Trend{Value: 2, Unit: "count", Up: true}, "+2"},
		{aggregate.Trend{Value: -1, Unit: "count", Up: false}, "-1"},
		{aggregate.Trend{Value: 0, Unit: "count", Up: true}, "+0"},
	}
	for _, tt := range tests {
		if got := formatTrend(tt.trend); got != tt.want {
			t.Errorf("formatTrend(%+v) = %q, want %q", tt.trend, got, tt.want)
		}
	}
}

func TestResolveDashboard(t *testing.T) {
	cfg := &config.Config{
		DefaultDashboard: "rapid",
		Dashboards: []config.Dashboard{
			{Name: "rapid", Data: "/data/rapid.json"},
			{Name: "grfr", Data: "/data/grfr.csv"},
		},
	}
	t.Cleanup(func() { dashboardName, dataPath = "", "" })

	dashboardName, dataPath = "", ""
	if def, err := resolveDashboard(cfg); err != nil || def.Name != "rapid" {
		t.Errorf("default: %+v, %v", def, err)
	}

	dashboardName = "grfr"
	if def, err := resolveDashboard(cfg); err != nil || def.Data != "/data/grfr.csv" {
		t.Errorf("--dashboard grfr: %+v, %v", def, err)
	}

	dashboardName = "nile"
	if _, err := resolveDashboard(cfg); !errors.Is(err, dashboard.ErrDashboardNotFound) {
		t.Errorf("--dashboard nile error = %v", err)
	}

	dataPath = "/tmp/Extra.json"
	if def, err := resolveDashboard(cfg); err != nil || def.Name != "extra" || def.Data != "/tmp/Extra.json" {
		t.Errorf("--data: %+v, %v", def, err)
	}

	dashboardName, dataPath = "", ""
	if _, err := resolveDashboard(&config.Config{}); !errors.Is(err, errNoDashboard) {
		t.Errorf("empty config error = %v, want errNoDashboard", err)
	}
}

func TestBuildFilter(t *testing.T) {
	reset := func() {
		citSearch, citAuthors, citEngagement = "", nil, ""
		citDomains, citWatersheds, citCountry = nil, nil, ""
		citFrom, citTo = 0, 0
	}
	t.Cleanup(reset)

	reset()
	citAuthors = []string{"David, Cedric", "Lin"}
	citEngagement = "L3"
	citFrom, citTo = 2015, 2020
	f, err := buildFilter()
	if err != nil {
		t.Fatalf("buildFilter() error = %v", err)
	}
	if len(f.Authors) != 2 || f.Authors[0].Last != "David" || f.Authors[1].Last != "Lin" {
		t.Errorf("Authors = %+v", f.Authors)
	}
	if f.Engagement != record.Level3 || f.YearFrom != 2015 || f.YearTo != 2020 {
		t.Errorf("filter = %+v", f)
	}

	reset()
	citEngagement = "seven"
	if _, err := buildFilter(); err == nil {
		t.Error("buildFilter(bad engagement) error = nil")
	}

	reset()
	citFrom, citTo = 2021, 2019
	if _, err := buildFilter(); err == nil {
		t.Error("buildFilter(from > to) error = nil")
	}

	reset()
	citAuthors = []string{"  "}
	if _, err := buildFilter(); err == nil {
		t.Error("buildFilter(blank author) error = nil")
	}
}

func TestGitHubExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{github.ErrInvalidURL, ExitConfigError},
		{github.ErrRateLimited, ExitRemoteError},
		{fmt.Errorf("wrapped: %w", github.ErrRepoNotFound), ExitRemoteError},
	}
	for _, tt := range tests {
		if got := githubExitCode(tt.err); got != tt.want {
			t.Errorf("githubExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
