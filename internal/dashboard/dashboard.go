// Package dashboard loads citation datasets once at startup and serves
// them read-only to the CLI and HTTP layers.
package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matsen/citedash/internal/aggregate"
	"github.com/matsen/citedash/internal/config"
	"github.com/matsen/citedash/internal/logging"
	"github.com/matsen/citedash/internal/record"
	"github.com/matsen/citedash/internal/storage"
)

// Source supplies the records of one dashboard.
type Source interface {
	Load(ctx context.Context) (*storage.LoadResult, error)
}

// FileSource reads a JSON, JSONL or CSV dataset from disk.
type FileSource struct {
	Path       string
	Normalizer record.Normalizer
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (*storage.LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return storage.LoadRecords(s.Path, s.Normalizer)
}

// StaticSource serves fixed, already-normalized records.
type StaticSource []record.Record

// Load implements Source.
func (s StaticSource) Load(ctx context.Context) (*storage.LoadResult, error) {
	return &storage.LoadResult{Records: append([]record.Record(nil), s...)}, nil
}

// LoadedSource serves a result that was already read, so callers can
// handle load errors themselves.
type LoadedSource struct {
	Result *storage.LoadResult
}

// Load implements Source.
func (s LoadedSource) Load(context.Context) (*storage.LoadResult, error) {
	return s.Result, nil
}

// Dashboard is one loaded dataset. It is immutable after Load returns.
type Dashboard struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	GitHub    string    `json:"github,omitempty"`
	StartYear int       `json:"start_year"`
	EndYear   int       `json:"end_year"`
	DataPath  string    `json:"data_path,omitempty"`
	DataHash  string    `json:"data_hash,omitempty"`
	LoadedAt  time.Time `json:"loaded_at"`
	Fallback  bool      `json:"fallback"`             // Demo records stand in for a failed load
	LoadError string    `json:"load_error,omitempty"` // Why the fallback was used
	Skipped   int       `json:"skipped,omitempty"`    // Non-object entries in the source file

	records []record.Record

	metricsOnce sync.Once
	metrics     aggregate.Metrics
}

// Load builds a dashboard from src. A failing source does not fail the
// dashboard: it falls back to DemoRecords and records the error.
func Load(ctx context.Context, def config.Dashboard, src Source, logger *zap.Logger) *Dashboard {
	logger = logging.OrNop(logger).With(zap.String("dashboard", def.Name))

	d := &Dashboard{
		Name:      def.Name,
		Title:     def.Title,
		GitHub:    def.GitHub,
		StartYear: def.StartYear,
		EndYear:   def.EndYear,
		DataPath:  def.Data,
		LoadedAt:  time.Now().UTC(),
	}
	if d.Title == "" {
		d.Title = d.Name
	}
	if d.StartYear == 0 {
		d.StartYear = aggregate.DefaultStartYear
	}
	if d.EndYear == 0 {
		d.EndYear = aggregate.DefaultEndYear
	}

	res, err := src.Load(ctx)
	if err != nil {
		logger.Warn("data source failed, using demo records",
			zap.String("path", def.Data),
			zap.Error(err))
		d.records = DemoRecords()
		d.Fallback = true
		d.LoadError = err.Error()
		return d
	}

	d.records = res.Records
	d.DataHash = res.Hash
	d.Skipped = res.Skipped
	logger.Info("loaded dashboard",
		zap.String("path", def.Data),
		zap.Int("records", len(d.records)),
		zap.Int("skipped", res.Skipped))
	return d
}

// SourceFor returns the FileSource for a dashboard definition.
func SourceFor(def config.Dashboard) Source {
	return FileSource{Path: def.Data, Normalizer: record.Normalizer{ModelName: def.ModelName}}
}

// Records returns a copy of the dashboard's records.
func (d *Dashboard) Records() []record.Record {
	return append([]record.Record(nil), d.records...)
}

// Len returns the number of records.
func (d *Dashboard) Len() int {
	return len(d.records)
}

// Metrics returns the headline metrics, computed once.
func (d *Dashboard) Metrics() aggregate.Metrics {
	d.metricsOnce.Do(func() {
		d.metrics = aggregate.ComputeImpact(d.records, 0)
	})
	return d.metrics
}

// Yearly returns the yearly series over [start, end]; zero bounds use the
// dashboard's range.
func (d *Dashboard) Yearly(start, end int) []aggregate.YearlyPoint {
	if start == 0 {
		start = d.StartYear
	}
	if end == 0 {
		end = d.EndYear
	}
	return aggregate.ByYear(d.records, start, end)
}

// Geography returns the watershed and country rollups.
func (d *Dashboard) Geography() aggregate.Geography {
	return aggregate.AggregateGeography(d.records)
}

// Projection extrapolates the annual record counts horizon years past the
// last year that has records (or the configured end year).
func (d *Dashboard) Projection(horizon int) aggregate.Projection {
	end := d.EndYear
	if _, last, ok := aggregate.YearSpan(d.records); ok && last < end {
		end = last
	}
	return aggregate.Project(aggregate.AnnualSeries(d.Yearly(d.StartYear, end)), horizon)
}

// Info is the catalog listing entry of a dashboard.
type Info struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Records  int    `json:"records"`
	GitHub   string `json:"github,omitempty"`
	Fallback bool   `json:"fallback"`
}

// Info summarizes the dashboard for listings.
func (d *Dashboard) Info() Info {
	return Info{Name: d.Name, Title: d.Title, Records: len(d.records), GitHub: d.GitHub, Fallback: d.Fallback}
}
