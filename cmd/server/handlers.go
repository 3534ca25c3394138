package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/jsyzc2019/abquant-data/internal/frame"
	"github.com/jsyzc2019/abquant-data/internal/observability"
	"github.com/jsyzc2019/abquant-data/internal/reporting"
	"github.com/jsyzc2019/abquant-data/internal/scheduler"
	"github.com/jsyzc2019/abquant-data/internal/series"
	"github.com/jsyzc2019/abquant-data/internal/storage"
)

// api serves extraction sessions over HTTP. Every request opens its own session.
type api struct {
	loader    *series.Loader
	generator *reporting.Generator
	scheduler *scheduler.Scheduler // optional
	logger    *log.Logger
}

type seriesResponse struct {
	Session string            `json:"session"`
	Mode    string            `json:"mode"`
	Rows    int               `json:"rows"`
	Columns map[string]any    `json:"columns"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type jobResponse struct {
	Name string `json:"name"`
	Spec string `json:"spec"`
	Next string `json:"next,omitempty"`
}

func (a *api) routes() http.Handler {
	mux := http.NewServeMux()
	a.handle(mux, "GET /health", "health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	a.handle(mux, "GET /schema", "schema", a.handleSchema)
	a.handle(mux, "GET /series", "series", a.handleSeries)
	a.handle(mux, "GET /report", "report", a.handleReport)
	a.handle(mux, "GET /export", "export", a.handleExport)
	a.handle(mux, "GET /jobs", "jobs", a.handleJobs)
	a.handle(mux, "POST /jobs/{name}", "jobs.run", a.handleRunJob)
	return mux
}

// handle registers h and counts its responses under route.
func (a *api) handle(mux *http.ServeMux, pattern, route string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		observability.RecordHTTPRequest(route, strconv.Itoa(rec.code))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (a *api) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, series.Schema())
}

// handleSeries returns the requested columns; unknown or failed columns come
// back empty with their error text.
func (a *api) handleSeries(w http.ResponseWriter, r *http.Request) {
	s, ok := a.openSession(w, r)
	if !ok {
		return
	}
	defer s.Close()

	columns := series.Schema()
	if q := strings.TrimSpace(r.URL.Query().Get("columns")); q != "" {
		columns = strings.Split(q, ",")
	}

	resp := seriesResponse{
		Session: s.ID(),
		Mode:    s.Mode().String(),
		Rows:    s.Len(),
		Columns: make(map[string]any, len(columns)),
	}
	for _, col := range columns {
		col = strings.TrimSpace(col)
		values, err := lookupNatural(r, s, col)
		resp.Columns[col] = values
		if err != nil {
			if resp.Errors == nil {
				resp.Errors = make(map[string]string)
			}
			resp.Errors[col] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// lookupNatural extracts col with its schema type; unknown columns are floats.
// Failed columns are empty, never null.
func lookupNatural(r *http.Request, s *series.Session, col string) (any, error) {
	if kind, ok := series.ColumnKind(col); ok && kind == frame.KindString {
		return lookupOrEmpty[string](r, s, col)
	}
	return lookupOrEmpty[float64](r, s, col)
}

func lookupOrEmpty[T series.Scalar](r *http.Request, s *series.Session, col string) (any, error) {
	values, err := series.Lookup[T](r.Context(), s, col)
	if err != nil {
		return []T{}, err
	}
	return values, nil
}

func (a *api) handleReport(w http.ResponseWriter, r *http.Request) {
	s, ok := a.openSession(w, r)
	if !ok {
		return
	}
	defer s.Close()

	report, err := a.generator.Generate(r.Context(), s)
	if err != nil {
		a.fail(w, http.StatusInternalServerError, fmt.Errorf("generate report: %w", err))
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(reporting.RenderMarkdown(report)))
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Write([]byte(reporting.RenderCSV(report.CodeSummaries)))
	case "json":
		writeJSON(w, http.StatusOK, report)
	default:
		a.fail(w, http.StatusBadRequest, fmt.Errorf("unknown format %q", r.URL.Query().Get("format")))
	}
}

// handleExport streams the materialized session as CSV or parquet.
func (a *api) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "parquet" {
		a.fail(w, http.StatusBadRequest, fmt.Errorf("unknown format %q", format))
		return
	}

	s, ok := a.openSession(w, r)
	if !ok {
		return
	}
	defer s.Close()

	f, err := series.Materialize(r.Context(), s)
	if err != nil {
		a.logger.Printf("session %s: export: %v", s.ID(), err)
	}

	name := "bars-" + s.ID() + "." + format
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if format == "parquet" {
		w.Header().Set("Content-Type", "application/vnd.apache.parquet")
		err = reporting.WriteFrameParquet(w, f)
	} else {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = reporting.RenderFrameCSV(w, f)
	}
	if err != nil {
		a.logger.Printf("session %s: write %s: %v", s.ID(), format, err)
	}
}

func (a *api) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs := []jobResponse{}
	if a.scheduler != nil {
		for _, e := range a.scheduler.Entries() {
			j := jobResponse{Name: e.Name, Spec: e.Spec}
			if !e.Next.IsZero() {
				j.Next = e.Next.Format("2006-01-02T15:04:05Z07:00")
			}
			jobs = append(jobs, j)
		}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (a *api) handleRunJob(w http.ResponseWriter, r *http.Request) {
	if a.scheduler == nil {
		a.fail(w, http.StatusNotFound, scheduler.ErrUnknownJob)
		return
	}
	err := a.scheduler.RunNow(r.PathValue("name"))
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		a.fail(w, http.StatusNotFound, err)
	case err != nil:
		a.fail(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// openSession parses codes/start/end/freq/adj query params and opens a session.
func (a *api) openSession(w http.ResponseWriter, r *http.Request) (*series.Session, bool) {
	q := r.URL.Query()
	req, err := series.ParseRequest(q.Get("codes"), q.Get("start"), q.Get("end"), q.Get("freq"), q.Get("adj"))
	if err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return nil, false
	}

	s, err := a.loader.Open(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, series.ErrInvalidRequest):
			status = http.StatusBadRequest
		case errors.Is(err, storage.ErrSchemaMissing):
			status = http.StatusServiceUnavailable
		}
		a.fail(w, status, err)
		return nil, false
	}
	return s, true
}

func (a *api) fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		a.logger.Printf("request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
