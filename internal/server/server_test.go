package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/matsen/citedash/internal/config"
	"github.com/matsen/citedash/internal/dashboard"
	"github.com/matsen/citedash/internal/github"
	"github.com/matsen/citedash/internal/record"
	"github.com/matsen/citedash/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testRecords = []record.Record{
	{
		Title:           "RAPID routing in the Guadalupe",
		Authors:         []record.Author{{First: "Cedric H.", Last: "David"}},
		Year:            2016,
		CitationCount:   40,
		ResearchDomain:  "River Modeling",
		EngagementLevel: record.Level3,
		Watershed:       "Guadalupe",
		Country:         "USA",
		Venue:           "JAWRA",
	},
	{
		Title:           "Flood forecasting in Europe",
		Authors:         []record.Author{{First: "Anna", Last: "Schmidt"}},
		Year:            2019,
		CitationCount:   12,
		ResearchDomain:  "Flood Prediction",
		EngagementLevel: record.Level1,
		Watershed:       "Rhine",
		Country:         "Germany, France",
		Venue:           "WRR",
	},
}

type fakeGitHub struct {
	stats *github.Stats
	err   error
}

func (f fakeGitHub) FetchStats(context.Context, string) (*github.Stats, error) {
	return f.stats, f.err
}

type fakeBaselines struct{ snap *storage.Snapshot }

func (f fakeBaselines) LatestBefore(string, time.Time) (*storage.Snapshot, error) {
	if f.snap == nil {
		return nil, storage.ErrNoSnapshot
	}
	return f.snap, nil
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	ctx := context.Background()
	rapid := dashboard.Load(ctx, config.Dashboard{Name: "rapid", GitHub: "c-h-david/rapid", StartYear: 2015, EndYear: 2020}, dashboard.StaticSource(testRecords), nil)
	other := dashboard.Load(ctx, config.Dashboard{Name: "other"}, dashboard.StaticSource(nil), nil)
	cat, err := dashboard.NewCatalog("rapid", rapid, other)
	if err != nil {
		t.Fatal(err)
	}
	opts.Catalog = cat
	return New(opts)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestStatusCodes(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/dashboards", http.StatusOK},
		{"/api/dashboards/rapid/summary", http.StatusOK},
		{"/api/dashboards/rapid/trends?start=2016&end=2019", http.StatusOK},
		{"/api/dashboards/rapid/trends?start=2020&end=2016", http.StatusBadRequest},
		{"/api/dashboards/rapid/trends?start=abc", http.StatusBadRequest},
		{"/api/dashboards/rapid/trends?start=1&end=2000000000", http.StatusBadRequest},
		{"/api/dashboards/rapid/trends?start=1850&end=2000", http.StatusBadRequest},
		{"/api/dashboards/nile/trends", http.StatusNotFound},
		{"/api/dashboards/rapid/distributions/domain?top=1", http.StatusOK},
		{"/api/dashboards/rapid/distributions/authors", http.StatusBadRequest},
		{"/api/dashboards/rapid/distributions/domain?top=-1", http.StatusBadRequest},
		{"/api/dashboards/rapid/geography?region=europe", http.StatusOK},
		{"/api/dashboards/rapid/geography?region=mars", http.StatusBadRequest},
		{"/api/dashboards/rapid/projection?horizon=3", http.StatusOK},
		{"/api/dashboards/rapid/projection?horizon=0", http.StatusBadRequest},
		{"/api/dashboards/rapid/citations?sort=bogus", http.StatusBadRequest},
		{"/api/dashboards/rapid/citations?engagement=level9", http.StatusBadRequest},
		{"/api/dashboards/rapid/citations?order=sideways", http.StatusBadRequest},
		{"/api/dashboards/rapid/values/country", http.StatusOK},
		{"/api/dashboards/rapid/values/title", http.StatusBadRequest},
		{"/api/dashboards/rapid/github", http.StatusNotFound},
		{"/api/dashboards/nile/summary", http.StatusNotFound},
		{"/nowhere", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, srv, tt.path)
			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d; body %s", tt.path, rec.Code, tt.want, rec.Body.String())
			}
			if rec.Code >= 400 && tt.path != "/metrics" {
				var body map[string]string
				decode(t, rec, &body)
				if body["error"] == "" {
					t.Errorf("error body = %v", body)
				}
			}
		})
	}
}

func TestListDashboards(t *testing.T) {
	rec := get(t, newTestServer(t, Options{}), "/api/dashboards")
	var body struct {
		Default    string           `json:"default"`
		Dashboards []dashboard.Info `json:"dashboards"`
	}
	decode(t, rec, &body)
	if body.Default != "rapid" || len(body.Dashboards) != 2 || body.Dashboards[0].Records != 2 {
		t.Errorf("body = %+v", body)
	}
}

func TestSummary_UsesStoredBaseline(t *testing.T) {
	snap := &storage.Snapshot{Dashboard: "rapid", TotalCitations: 40, HIndex: 2, Watersheds: 2}
	srv := newTestServer(t, Options{Baselines: fakeBaselines{snap: snap}})

	var sum dashboard.Summary
	decode(t, get(t, srv, "/api/dashboards/rapid/summary"), &sum)
	if sum.Trends.Synthetic {
		t.Error("trends synthetic despite stored snapshot")
	}
	if sum.Metrics.TotalCitations != 52 || sum.Trends.Citations.Value != 30 {
		t.Errorf("metrics = %+v, citations trend = %+v", sum.Metrics, sum.Trends.Citations)
	}

	var synthetic dashboard.Summary
	decode(t, get(t, newTestServer(t, Options{}), "/api/dashboards/rapid/summary"), &synthetic)
	if !synthetic.Trends.Synthetic {
		t.Error("trends not synthetic without a store")
	}
}

func TestCitations_Filters(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"RAPID routing in the Guadalupe", "Flood forecasting in Europe"}},
		{"?order=asc", []string{"Flood forecasting in Europe", "RAPID routing in the Guadalupe"}},
		{"?q=flood", []string{"Flood forecasting in Europe"}},
		{"?author=David", []string{"RAPID routing in the Guadalupe"}},
		{"?engagement=1", []string{"Flood forecasting in Europe"}},
		{"?domain=River%20Modeling,Other", []string{"RAPID routing in the Guadalupe"}},
		{"?country=france", []string{"Flood forecasting in Europe"}},
		{"?from=2017&to=2020", []string{"Flood forecasting in Europe"}},
		{"?watershed=Nile", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var body struct {
				Count     int             `json:"count"`
				Citations []record.Record `json:"citations"`
			}
			decode(t, get(t, srv, "/api/dashboards/rapid/citations"+tt.query), &body)
			titles := []string{}
			for _, r := range body.Citations {
				titles = append(titles, r.Title)
			}
			if diff := cmp.Diff(tt.want, titles); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
			if body.Count != len(tt.want) {
				t.Errorf("count = %d", body.Count)
			}
		})
	}
}

func TestCitationsCSV(t *testing.T) {
	rec := get(t, newTestServer(t, Options{}), "/api/dashboards/rapid/citations.csv?q=flood")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "rapid_citations.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(rec.Body.String(), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Title,Authors,Year") || !strings.HasPrefix(lines[1], `"Flood forecasting in Europe"`) {
		t.Errorf("csv = %q", rec.Body.String())
	}
}

func TestValues(t *testing.T) {
	var body struct {
		Values []string `json:"values"`
	}
	decode(t, get(t, newTestServer(t, Options{}), "/api/dashboards/rapid/values/country"), &body)
	if diff := cmp.Diff([]string{"France", "Germany", "USA"}, body.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestGeography_RegionFilter(t *testing.T) {
	var geo struct {
		ByWatershed []struct {
			Name string `json:"name"`
		} `json:"by_watershed"`
	}
	decode(t, get(t, newTestServer(t, Options{}), "/api/dashboards/rapid/geography?region=europe"), &geo)
	if len(geo.ByWatershed) != 1 || geo.ByWatershed[0].Name != "Rhine" {
		t.Errorf("europe watersheds = %+v", geo.ByWatershed)
	}
}

func TestGitHub(t *testing.T) {
	stats := &github.Stats{Owner: "c-h-david", Repo: "rapid", Stars: 120, Languages: []github.Language{}}
	rec := get(t, newTestServer(t, Options{GitHub: fakeGitHub{stats: stats}}), "/api/dashboards/rapid/github")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got github.Stats
	decode(t, rec, &got)
	if got.Stars != 120 {
		t.Errorf("stars = %d", got.Stars)
	}

	failing := newTestServer(t, Options{GitHub: fakeGitHub{err: github.ErrRateLimited}})
	rec = get(t, failing, "/api/dashboards/rapid/github")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("failing fetch status = %d, want 502", rec.Code)
	}
	if rec := get(t, failing, "/api/dashboards/other/github"); rec.Code != http.StatusNotFound {
		t.Errorf("no repo status = %d, want 404", rec.Code)
	}

	metrics := get(t, failing, "/metrics").Body.String()
	if !strings.Contains(metrics, "citedash_github_failures_total 1") {
		t.Errorf("metrics missing github failure count:\n%s", metrics)
	}
}

func TestMetrics_RecordsRoutes(t *testing.T) {
	srv := newTestServer(t, Options{})
	get(t, srv, "/api/dashboards/rapid/summary")
	get(t, srv, "/api/dashboards/nile/summary")

	body := get(t, srv, "/metrics").Body.String()
	for _, want := range []string{
		`citedash_http_requests_total{code="200",route="/api/dashboards/{name}/summary"} 1`,
		`citedash_http_requests_total{code="404",route="/api/dashboards/{name}/summary"} 1`,
		`citedash_dashboard_records{dashboard="rapid"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	srv := newTestServer(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_BadAddr(t *testing.T) {
	srv := newTestServer(t, Options{})
	err := srv.ListenAndServe(context.Background(), "256.0.0.1:bad")
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		t.Errorf("ListenAndServe(bad addr) error = %v", err)
	}
}
