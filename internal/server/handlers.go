package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matsen/citedash/internal/aggregate"
	"github.com/matsen/citedash/internal/author"
	"github.com/matsen/citedash/internal/dashboard"
	"github.com/matsen/citedash/internal/export"
	"github.com/matsen/citedash/internal/query"
	"github.com/matsen/citedash/internal/record"
)

type ctxKey struct{}

// withDashboard resolves {name} and answers 404 for unknown dashboards. It
// runs inline, after routing, so requests carry the full route pattern.
func (s *Server) withDashboard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := s.catalog.Get(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, d)))
	})
}

func dashboardFrom(r *http.Request) *dashboard.Dashboard {
	return r.Context().Value(ctxKey{}).(*dashboard.Dashboard)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "dashboards": s.catalog.Len()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":    s.catalog.Default(),
		"dashboards": s.catalog.List(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	d := dashboardFrom(r)
	sum, err := d.Summary(s.baselines, s.now())
	if err != nil {
		s.logger.Error("summary failed", zap.String("dashboard", d.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	d := dashboardFrom(r)
	start, err := intParam(r, "start", d.StartYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := intParam(r, "end", d.EndYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := aggregate.CheckYearRange(start, end); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start":  start,
		"end":    end,
		"points": d.Yearly(start, end),
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", 0)
	if err != nil || top < 0 {
		writeError(w, http.StatusBadRequest, "top must be a non-negative integer")
		return
	}
	field := chi.URLParam(r, "field")
	entries, err := dashboardFrom(r).Distribution(field, top)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"field": field, "entries": entries})
}

func (s *Server) handleGeography(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if !aggregate.ValidRegion(region) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown region %q", region))
		return
	}
	geo := dashboardFrom(r).Geography()
	geo.ByWatershed = aggregate.FilterWatershedsByRegion(geo.ByWatershed, region)
	writeJSON(w, http.StatusOK, geo)
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	horizon, err := intParam(r, "horizon", aggregate.DefaultHorizon)
	if err != nil || horizon < 1 || horizon > 50 {
		writeError(w, http.StatusBadRequest, "horizon must be between 1 and 50")
		return
	}
	writeJSON(w, http.StatusOK, dashboardFrom(r).Projection(horizon))
}

func (s *Server) handleCitations(w http.ResponseWriter, r *http.Request) {
	recs, ok := s.filteredCitations(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(recs), "citations": recs})
}

func (s *Server) handleCitationsCSV(w http.ResponseWriter, r *http.Request) {
	recs, ok := s.filteredCitations(w, r)
	if !ok {
		return
	}
	d := dashboardFrom(r)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Name+"_citations.csv"))
	if err := export.WriteRecords(w, recs); err != nil {
		s.logger.Warn("writing csv", zap.String("dashboard", d.Name), zap.Error(err))
	}
}

func (s *Server) filteredCitations(w http.ResponseWriter, r *http.Request) ([]record.Record, bool) {
	f, sortBy, desc, err := parseCitationQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return dashboardFrom(r).Citations(f, sortBy, desc), true
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	field := chi.URLParam(r, "field")
	values, err := dashboardFrom(r).Values(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"field": field, "values": values})
}

func (s *Server) handleGitHub(w http.ResponseWriter, r *http.Request) {
	d := dashboardFrom(r)
	if s.github == nil || d.GitHub == "" {
		writeError(w, http.StatusNotFound, fmt.Sprintf("dashboard %q has no GitHub repository", d.Name))
		return
	}
	stats, err := s.github.FetchStats(r.Context(), d.GitHub)
	if err != nil {
		s.metrics.GitHubFailures.Inc()
		s.logger.Warn("github fetch failed", zap.String("dashboard", d.Name), zap.String("repo", d.GitHub), zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseCitationQuery reads the citation filters from the query string.
func parseCitationQuery(r *http.Request) (query.Filter, query.SortField, bool, error) {
	q := r.URL.Query()
	f := query.Filter{
		Search:     q.Get("q"),
		Authors:    author.ParseQueries(q.Get("author")),
		Domains:    splitParam(q["domain"]),
		Watersheds: splitParam(q["watershed"]),
		Country:    q.Get("country"),
	}

	if e := q.Get("engagement"); e != "" {
		f.Engagement = record.ParseEngagementLevel(e)
		if f.Engagement == record.Unclassified {
			return f, "", false, fmt.Errorf("unknown engagement level %q", e)
		}
	}

	var err error
	if f.YearFrom, err = intParam(r, "from", 0); err != nil {
		return f, "", false, err
	}
	if f.YearTo, err = intParam(r, "to", 0); err != nil {
		return f, "", false, err
	}

	sortBy, err := query.ParseSortField(q.Get("sort"))
	if err != nil {
		return f, "", false, err
	}
	desc := true
	switch strings.ToLower(q.Get("order")) {
	case "", "desc":
	case "asc":
		desc = false
	default:
		return f, "", false, fmt.Errorf("order must be asc or desc")
	}
	return f, sortBy, desc, nil
}

// splitParam accepts repeated and comma-separated values.
func splitParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
