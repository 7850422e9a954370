package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/engine"
	"cashflow/internal/services"
)

// parseWindow reads the from/to query params, defaulting to [today,
// today+horizon] when absent.
func (s *Server) parseWindow(r *http.Request) (core.Date, core.Date, error) {
	today := core.DateOf(time.Now())
	from := today
	to := today.AddDays(s.horizon)

	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("invalid 'from' date %q: expected YYYY-MM-DD", v)
		}
		from = d
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("invalid 'to' date %q: expected YYYY-MM-DD", v)
		}
		to = d
	}
	if from.After(to.Time) {
		return core.Date{}, core.Date{}, fmt.Errorf("'from' %s is after 'to' %s", from, to)
	}
	return from, to, nil
}

func parseAsOf(r *http.Request) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if v == "" {
		return core.DateOf(time.Now()), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid 'as_of' date %q: expected YYYY-MM-DD", v)
	}
	return d, nil
}

// parsePolicy reads the uncategorized query param. Unknown categories fail
// the request unless the caller opts into labeling.
func parsePolicy(r *http.Request) (engine.CategoryPolicy, error) {
	switch v := strings.TrimSpace(r.URL.Query().Get("uncategorized")); v {
	case "", "fail":
		return engine.FailOnUnknownCategory, nil
	case "label":
		return engine.LabelUnknownCategory, nil
	default:
		return 0, fmt.Errorf("invalid 'uncategorized' value %q: must be 'fail' or 'label'", v)
	}
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	scenarioID := strings.TrimSpace(r.URL.Query().Get("scenario"))
	from, to, err := s.parseWindow(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	asOf, err := parseAsOf(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	policy, err := parsePolicy(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	key := cacheKey("projection", scenarioID, from, to, asOf, policy)
	if body, found := s.projectionCache.Get(key); found {
		slog.DebugContext(r.Context(), "Projection cache hit", "scenario_id", scenarioID)
		writeCached(w, body)
		return
	}

	projection, err := s.service.Project(r.Context(), services.ProjectionRequest{
		ScenarioID:  scenarioID,
		WindowStart: from,
		WindowEnd:   to,
		AsOf:        asOf,
		Policy:      policy,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.writeAndCache(w, r, key, fromProjection(projection))
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request) {
	scenarioID := strings.TrimSpace(r.URL.Query().Get("scenario"))
	policy, err := parsePolicy(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	key := cacheKey("summary", scenarioID, core.Date{}, core.Date{}, core.Date{}, policy)
	if body, found := s.projectionCache.Get(key); found {
		writeCached(w, body)
		return
	}

	totals, err := s.service.CategorySummary(r.Context(), scenarioID, policy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if totals == nil {
		totals = []engine.CategoryTotal{}
	}

	s.writeAndCache(w, r, key, totals)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	scenarioID := strings.TrimSpace(r.URL.Query().Get("scenario"))
	from, to, err := s.parseWindow(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	policy, err := parsePolicy(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	key := cacheKey("timeline", scenarioID, from, to, core.Date{}, policy)
	if body, found := s.projectionCache.Get(key); found {
		writeCached(w, body)
		return
	}

	series, err := s.service.Timeline(r.Context(), scenarioID, from, to, policy)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if series == nil {
		series = []engine.SeriesPoint{}
	}

	s.writeAndCache(w, r, key, series)
}

// cacheKey leads with the scenario id so mutations can invalidate by
// prefix.
func cacheKey(view, scenarioID string, from, to, asOf core.Date, policy engine.CategoryPolicy) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%d", scenarioID, view, from, to, asOf, policy)
}

func (s *Server) writeAndCache(w http.ResponseWriter, r *http.Request, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.projectionCache.Set(key, body)
	writeCached(w, body)
}

func writeCached(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	_, _ = w.Write([]byte("\n"))
}
