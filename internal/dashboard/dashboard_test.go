package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matsen/citedash/internal/config"
	"github.com/matsen/citedash/internal/record"
	"github.com/matsen/citedash/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type failingSource struct{ err error }

func (s failingSource) Load(context.Context) (*storage.LoadResult, error) {
	return nil, s.err
}

func def(name string) config.Dashboard {
	return config.Dashboard{Name: name, Data: name + ".json", StartYear: 2015, EndYear: 2020}
}

func TestLoad_FileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapid.json")
	content := `[
		{"title": "RAPID routing model", "year": 2016, "cites": 40},
		{"title": "Flood study", "year": 2018, "cites": 10},
		7
	]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	d := config.Dashboard{Name: "rapid", Data: path, ModelName: "RAPID", StartYear: 2015, EndYear: 2020}
	got := Load(context.Background(), d, SourceFor(d), zap.NewNop())

	if got.Fallback {
		t.Fatalf("Fallback = true, LoadError = %q", got.LoadError)
	}
	if got.Len() != 2 || got.Skipped != 1 {
		t.Errorf("Len() = %d, Skipped = %d; want 2, 1", got.Len(), got.Skipped)
	}
	if !got.Records()[0].IsOriginalPaper {
		t.Error("model-named record not flagged as original")
	}
	if got.DataHash == "" {
		t.Error("DataHash is empty")
	}
	if m := got.Metrics(); m.TotalCitations != 50 || m.HIndex != 2 {
		t.Errorf("Metrics() = %+v", m)
	}
	if pts := got.Yearly(0, 0); len(pts) != 6 || pts[0].Year != 2015 {
		t.Errorf("Yearly(0, 0) = %d points starting %d", len(pts), pts[0].Year)
	}
}

func TestLoad_FallbackToDemo(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	got := Load(context.Background(), def("broken"), failingSource{errors.New("disk on fire")}, zap.New(core))

	if !got.Fallback || got.LoadError != "disk on fire" {
		t.Errorf("Fallback = %v, LoadError = %q", got.Fallback, got.LoadError)
	}
	if diff := cmp.Diff(DemoRecords(), got.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("data source failed, using demo records").Len() != 1 {
		t.Errorf("expected one fallback warning, got %v", logs.All())
	}
}

func TestLoad_Defaults(t *testing.T) {
	got := Load(context.Background(), config.Dashboard{Name: "x"}, StaticSource(nil), nil)
	if got.Title != "x" || got.StartYear != config.DefaultStartYear || got.EndYear != config.DefaultEndYear {
		t.Errorf("defaults = %q %d-%d", got.Title, got.StartYear, got.EndYear)
	}
	if got.Len() != 0 || got.Fallback {
		t.Errorf("empty static source: Len = %d, Fallback = %v", got.Len(), got.Fallback)
	}
}

func TestDashboard_RecordsIsCopy(t *testing.T) {
	d := Load(context.Background(), def("a"), StaticSource(DemoRecords()), nil)
	recs := d.Records()
	recs[0].Title = "mutated"
	if d.Records()[0].Title == "mutated" {
		t.Error("Records() exposed internal slice")
	}
}

func TestDashboard_ProjectionStopsAtLastDataYear(t *testing.T) {
	recs := []record.Record{
		{Title: "a", Year: 2016},
		{Title: "b", Year: 2017},
		{Title: "c", Year: 2017},
	}
	d := Load(context.Background(), def("p"), StaticSource(recs), nil)
	p := d.Projection(2)
	if len(p.Points) != 2 || p.Points[0].Year != 2018 {
		t.Errorf("Projection(2) = %+v, want points from 2018", p.Points)
	}
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	sources := map[string]Source{
		"rapid": StaticSource(DemoRecords()),
		"grfr":  StaticSource(nil),
		"bad":   failingSource{errors.New("nope")},
	}
	defs := []config.Dashboard{def("rapid"), def("grfr"), def("bad")}

	cat, err := LoadCatalog(ctx, defs, "grfr", func(d config.Dashboard) Source { return sources[d.Name] }, nil)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	if cat.Len() != 3 || cat.Default() != "grfr" {
		t.Errorf("Len = %d, Default = %q", cat.Len(), cat.Default())
	}
	if diff := cmp.Diff([]string{"bad", "grfr", "rapid"}, cat.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	want := []Info{
		{Name: "rapid", Title: "rapid", Records: 1},
		{Name: "grfr", Title: "grfr", Records: 0},
		{Name: "bad", Title: "bad", Records: 1, Fallback: true},
	}
	if diff := cmp.Diff(want, cat.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	d, err := cat.Get("")
	if err != nil || d.Name != "grfr" {
		t.Errorf("Get(\"\") = %v, %v; want grfr", d, err)
	}
	if _, err := cat.Get("nile"); !errors.Is(err, ErrDashboardNotFound) {
		t.Errorf("Get(nile) error = %v, want ErrDashboardNotFound", err)
	}
}

func TestNewCatalog_Errors(t *testing.T) {
	a := Load(context.Background(), def("a"), StaticSource(nil), nil)
	if _, err := NewCatalog("", a, a); err == nil {
		t.Error("NewCatalog(duplicate) error = nil")
	}
	if _, err := NewCatalog("zzz", a); !errors.Is(err, ErrDashboardNotFound) {
		t.Errorf("NewCatalog(unknown default) error = %v", err)
	}
	empty, err := NewCatalog("")
	if err != nil || empty.Len() != 0 {
		t.Errorf("NewCatalog() = %v, %v", empty, err)
	}
}

func TestLoadCatalog_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadCatalog(ctx, []config.Dashboard{def("a")}, "", nil, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadCatalog(canceled) error = %v, want context.Canceled", err)
	}
}

func TestLoad_LoadedSourceKeepsHash(t *testing.T) {
	res := &storage.LoadResult{Records: DemoRecords(), Hash: "abc", Skipped: 2}
	d := Load(context.Background(), def("h"), LoadedSource{Result: res}, nil)
	if d.DataHash != "abc" || d.Skipped != 2 || d.Len() != 1 {
		t.Errorf("Load(LoadedSource) = hash %q, skipped %d, len %d", d.DataHash, d.Skipped, d.Len())
	}
}
