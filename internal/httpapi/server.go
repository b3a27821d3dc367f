package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joelkehle/patent-research/internal/patentanalysis"
	"github.com/joelkehle/patent-research/internal/patentdoc"
	"github.com/joelkehle/patent-research/internal/patentfetch"
	"github.com/joelkehle/patent-research/internal/recordstore"
	"github.com/joelkehle/patent-research/internal/report"
	"github.com/joelkehle/patent-research/internal/watchlist"
)

const maxUploadBytes = 8 << 20

// Fetcher retrieves and extracts a patent record from the remote source.
type Fetcher interface {
	Fetch(ctx context.Context, number string) (patentdoc.Record, error)
}

// Analyzer produces a structured analysis for an extracted record.
type Analyzer interface {
	Request(ctx context.Context, rec patentdoc.Record) (patentanalysis.Record, error)
}

type Config struct {
	Fetcher  Fetcher
	Analyzer Analyzer
	// Records is the optional SQLite cache. Nil disables caching and the
	// records and reports routes.
	Records *recordstore.Store
	Watch   *watchlist.Store
}

type Server struct {
	fetcher  Fetcher
	analyzer Analyzer
	records  *recordstore.Store
	watch    *watchlist.Store
	tracer   trace.Tracer
}

func NewServer(cfg Config) http.Handler {
	s := &Server{
		fetcher:  cfg.Fetcher,
		analyzer: cfg.Analyzer,
		records:  cfg.Records,
		watch:    cfg.Watch,
		tracer:   otel.Tracer("httpapi"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", s.handleHealth)
	mux.HandleFunc("/api/v1/lookup", s.handleLookup)
	mux.HandleFunc("/api/v1/extract", s.handleExtract)
	mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/v1/records", s.handleRecords)
	mux.HandleFunc("/api/v1/records/", s.handleRecord)
	mux.HandleFunc("/api/v1/watchlist", s.handleWatchlist)
	mux.HandleFunc("/api/v1/watchlist/", s.handleWatchlistClass)
	mux.HandleFunc("/api/v1/reports/", s.handleReport)
	return s.traced(mux)
}

func (s *Server) traced(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
		defer span.End()
		span.SetAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAPIError(w http.ResponseWriter, err error) {
	var ae *Error
	if errors.As(err, &ae) {
		writeJSON(w, ae.Status, map[string]any{
			"ok": false,
			"error": map[string]any{
				"code":    ae.Code,
				"message": ae.Message,
			},
		})
		return
	}
	writeJSON(w, 500, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    CodeInternal,
			"message": err.Error(),
		},
	})
}

// writeFetchError maps the fetcher's typed error onto upstream API codes so
// clients can tell a dead or slow source from a bad request.
func writeFetchError(w http.ResponseWriter, err error) {
	var fe *patentfetch.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Timeout():
			writeAPIError(w, newError(CodeUpstreamTimeout, fe.Error()))
		case fe.NotFound():
			writeAPIError(w, newError(CodeNotFound, fe.Error()))
		default:
			writeAPIError(w, newError(CodeUpstreamUnavailable, fe.Error()))
		}
		return
	}
	writeAPIError(w, newError(CodeInternal, err.Error()))
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func decodeJSONBytes(blob []byte, dst any) error {
	return json.Unmarshal(blob, dst)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	payload := map[string]any{"ok": true, "status": "healthy"}
	if s.records != nil {
		if recs, err := s.records.ListRecords(); err == nil {
			payload["cached_records"] = len(recs)
		}
	}
	writeJSON(w, 200, payload)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeAPIError(w, newValidationJSONError(err))
		return
	}
	var req struct {
		Number string `json:"number"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil {
		writeAPIError(w, newValidationJSONError(err))
		return
	}
	if strings.TrimSpace(req.Number) == "" {
		writeAPIError(w, newError(CodeValidation, "number is required"))
		return
	}

	id := patentdoc.Normalize(req.Number)
	refresh := r.URL.Query().Get("refresh") == "1"
	rec, cached, err := s.loadRecord(r.Context(), id, refresh)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"ok":        true,
		"patent_id": id,
		"cached":    cached,
		"record":    rec,
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeAPIError(w, newError(CodeValidation, "read body: "+err.Error()))
		return
	}
	rec := patentdoc.ExtractXML(blob)
	if rec.PatentID == patentdoc.NotAvailable && rec.Title == patentdoc.NotAvailable {
		writeAPIError(w, newError(CodeValidation, "unable to parse patent XML"))
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "record": rec})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	blob, err := readBody(r)
	if err != nil {
		writeAPIError(w, newValidationJSONError(err))
		return
	}
	var req struct {
		Number string `json:"number"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil {
		writeAPIError(w, newValidationJSONError(err))
		return
	}
	if strings.TrimSpace(req.Number) == "" {
		writeAPIError(w, newError(CodeValidation, "number is required"))
		return
	}

	id := patentdoc.Normalize(req.Number)
	refresh := r.URL.Query().Get("refresh") == "1"
	if s.records != nil && !refresh {
		if stored, err := s.records.GetAnalysis(id); err == nil {
			writeJSON(w, 200, map[string]any{
				"ok":        true,
				"patent_id": id,
				"cached":    true,
				"analysis":  stored.Record,
			})
			return
		}
	}

	rec, _, err := s.loadRecord(r.Context(), id, refresh)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	analysis, err := s.analyzer.Request(r.Context(), rec)
	if err != nil {
		// The analysis record itself carries the failure sentinels, so the
		// client still gets a renderable result. Failures are not cached.
		log.Printf("httpapi analyze degraded patent=%s err=%v", id, err)
	} else if s.records != nil {
		if serr := s.records.SaveAnalysis(id, analysis); serr != nil {
			log.Printf("httpapi analysis cache save failed patent=%s err=%v", id, serr)
		}
	}
	writeJSON(w, 200, map[string]any{
		"ok":        true,
		"patent_id": id,
		"cached":    false,
		"analysis":  analysis,
	})
}

func (s *Server) loadRecord(ctx context.Context, id string, refresh bool) (patentdoc.Record, bool, error) {
	if s.records != nil && !refresh {
		if stored, err := s.records.GetRecord(id); err == nil {
			return stored.Record, true, nil
		}
	}
	rec, err := s.fetcher.Fetch(ctx, id)
	if err != nil {
		return patentdoc.Record{}, false, err
	}
	if s.records != nil {
		if serr := s.records.SaveRecord(rec); serr != nil {
			log.Printf("httpapi record cache save failed patent=%s err=%v", id, serr)
		}
	}
	return rec, false, nil
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.records == nil {
		writeAPIError(w, newError(CodeInternal, "record cache not configured"))
		return
	}
	recs, err := s.records.ListRecords()
	if err != nil {
		writeAPIError(w, newError(CodeInternal, err.Error()))
		return
	}
	if recs == nil {
		recs = []recordstore.StoredRecord{}
	}
	writeJSON(w, 200, map[string]any{"records": recs})
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	if s.records == nil {
		writeAPIError(w, newError(CodeInternal, "record cache not configured"))
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/records/")
	if id == "" || strings.Contains(id, "/") {
		writeAPIError(w, newError(CodeValidation, "patent id required"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.records.GetRecord(id)
		if err == recordstore.ErrNotFound {
			writeAPIError(w, newError(CodeNotFound, "record not cached: "+id))
			return
		}
		if err != nil {
			writeAPIError(w, newError(CodeInternal, err.Error()))
			return
		}
		payload := map[string]any{"ok": true, "record": rec}
		if analysis, err := s.records.GetAnalysis(id); err == nil {
			payload["analysis"] = analysis
		}
		writeJSON(w, 200, payload)
	case http.MethodDelete:
		err := s.records.DeleteRecord(id)
		if err == recordstore.ErrNotFound {
			writeAPIError(w, newError(CodeNotFound, "record not cached: "+id))
			return
		}
		if err != nil {
			writeAPIError(w, newError(CodeInternal, err.Error()))
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	all := s.watch.All()
	if all == nil {
		all = []watchlist.ClassedEntry{}
	}
	writeJSON(w, 200, map[string]any{"patents": all})
}

func (s *Server) handleWatchlistClass(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/watchlist/")
	parts := strings.Split(rest, "/")

	if len(parts) == 1 && parts[0] == "export" {
		s.handleWatchlistExport(w, r)
		return
	}

	class := strings.TrimSpace(parts[0])
	if class == "" {
		writeAPIError(w, newError(CodeValidation, "class is required"))
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		writeJSON(w, 200, map[string]any{
			"class":    class,
			"category": watchlist.CategoryFor(class),
			"patents":  s.watch.Entries(class),
		})
	case len(parts) == 1 && r.Method == http.MethodPost:
		s.handleWatchlistAdd(w, r, class)
	case len(parts) == 2 && parts[1] == "import" && r.Method == http.MethodPost:
		s.handleWatchlistImport(w, r, class)
	case len(parts) == 2 && r.Method == http.MethodDelete:
		s.handleWatchlistRemove(w, class, parts[1])
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request, class string) {
	blob, err := readBody(r)
	if err != nil {
		writeAPIError(w, newValidationJSONError(err))
		return
	}
	var req struct {
		Number string `json:"number"`
		Title  string `json:"title"`
		Notes  string `json:"notes"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil {
		writeAPIError(w, newValidationJSONError(err))
		return
	}
	req.Number = strings.TrimSpace(req.Number)
	if req.Number == "" {
		writeAPIError(w, newError(CodeValidation, "number is required"))
		return
	}

	entry, err := s.watch.Add(r.Context(), class, req.Number, req.Title, req.Notes)
	if err == watchlist.ErrDuplicate {
		writeAPIError(w, newError(CodeConflict, "patent already in watchlist"))
		return
	}
	if err != nil {
		writeAPIError(w, newError(CodeInternal, err.Error()))
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "patent": entry})
}

func (s *Server) handleWatchlistImport(w http.ResponseWriter, r *http.Request, class string) {
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeAPIError(w, newError(CodeValidation, "read body: "+err.Error()))
		return
	}
	added, failed := s.watch.ImportCSV(r.Context(), class, string(blob))
	writeJSON(w, 200, map[string]any{"ok": true, "added": added, "failed": failed})
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, class, patentID string) {
	err := s.watch.Remove(class, patentID)
	switch err {
	case nil:
		writeJSON(w, 200, map[string]any{"ok": true})
	case watchlist.ErrClassNotFound:
		writeAPIError(w, newError(CodeNotFound, "class not found: "+class))
	case watchlist.ErrNotFound:
		writeAPIError(w, newError(CodeNotFound, "patent not found: "+patentID))
	default:
		writeAPIError(w, newError(CodeInternal, err.Error()))
	}
}

func (s *Server) handleWatchlistExport(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	out, err := report.WatchlistCSV(s.watch.All())
	if err != nil {
		writeAPIError(w, newError(CodeInternal, err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="watchlist.csv"`)
	w.WriteHeader(200)
	_, _ = w.Write(out)
}

// handleReport serves a markdown or HTML report for a cached record. Reports
// render on demand and never trigger a fetch or an analysis.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.records == nil {
		writeAPIError(w, newError(CodeInternal, "record cache not configured"))
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/")
	var id, format string
	switch {
	case strings.HasSuffix(rest, ".md"):
		id, format = strings.TrimSuffix(rest, ".md"), "md"
	case strings.HasSuffix(rest, ".html"):
		id, format = strings.TrimSuffix(rest, ".html"), "html"
	default:
		writeAPIError(w, newError(CodeValidation, "report path must end in .md or .html"))
		return
	}
	if id == "" || strings.Contains(id, "/") {
		writeAPIError(w, newError(CodeValidation, "patent id required"))
		return
	}

	rec, err := s.records.GetRecord(id)
	if err == recordstore.ErrNotFound {
		writeAPIError(w, newError(CodeNotFound, "record not cached: "+id))
		return
	}
	if err != nil {
		writeAPIError(w, newError(CodeInternal, err.Error()))
		return
	}
	analysis, err := s.records.GetAnalysis(id)
	if err == recordstore.ErrNotFound {
		writeAPIError(w, newError(CodeNotFound, "analysis not cached: "+id))
		return
	}
	if err != nil {
		writeAPIError(w, newError(CodeInternal, err.Error()))
		return
	}

	markdown := report.BuildMarkdown(rec.Record, analysis.Record)
	if format == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(markdown))
		return
	}
	htmlDoc, err := report.RenderHTML(markdown)
	if err != nil {
		writeAPIError(w, newError(CodeInternal, err.Error()))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(200)
	_, _ = w.Write([]byte(htmlDoc))
}
