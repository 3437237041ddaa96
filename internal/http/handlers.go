package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"catreport/internal/core"
	"catreport/internal/log"
	"catreport/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	notReady := func(name string, detail string) {
		checks[name] = detail
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		notReady("templates", "failed: templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.reports == nil:
		notReady("ledger", "not_configured")
	case s.pinger == nil:
		checks["ledger"] = "ok"
	default:
		if err := s.pinger.Ping(ctx); err != nil {
			notReady("ledger", fmt.Sprintf("failed: %v", err))
		} else {
			checks["ledger"] = "ok"
		}
	}

	if sized, ok := s.reports.(interface{ Size() int }); ok {
		checks["cache"] = map[string]any{"entries": sized.Size(), "status": "ok"}
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters in the Prometheus text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	metric := func(name, typ, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, typ, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("reports_served_total", "counter", "Total number of reports served", atomic.LoadInt64(&s.appMetrics.reportsServed))
	metric("report_errors_total", "counter", "Total number of failed report generations", atomic.LoadInt64(&s.appMetrics.reportErrors))
	if sized, ok := s.reports.(interface{ Size() int }); ok {
		metric("report_cache_entries", "gauge", "Current report cache entries", sized.Size())
	}
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.appMetrics.uptime).Seconds()))
}

type (
	reportLink struct {
		Label, HTML, Chart, XLSX string
	}

	reportGroup struct {
		Heading string
		Links   []reportLink
	}
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	groups := make([]reportGroup, 0, len(report.Kinds()))
	for _, k := range report.Kinds() {
		g := reportGroup{Heading: k.Heading()}
		for _, def := range report.Definitions() {
			if def.Kind != k {
				continue
			}
			g.Links = append(g.Links, reportLink{
				Label: def.Preset.Label(),
				HTML:  ReportPath(def),
				Chart: ChartPath(def),
				XLSX:  ExportPath(def),
			})
		}
		groups = append(groups, g)
	}

	data := struct {
		Today        string
		BaseCurrency string
		Groups       []reportGroup
	}{
		Today:        core.DateOf(s.clock()).Format(s.dateFormat),
		BaseCurrency: s.baseCurrency,
		Groups:       groups,
	}
	if data.BaseCurrency == "" {
		data.BaseCurrency = "ledger default"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.ErrorContext(r.Context(), "Index template execution failed", log.FieldError, err, "template", "index.html")
		http.Error(w, "failed to render index", http.StatusInternalServerError)
	}
}

// loadReport resolves the path values and generates the report. It writes 404
// for unknown kinds or presets and 500 when generation fails.
func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (*report.Output, bool) {
	logger := log.FromContext(r.Context())
	def, err := report.ParseDefinition(r.PathValue("kind"), r.PathValue("preset"))
	if err != nil {
		logger.WarnContext(r.Context(), "Unknown report", log.FieldError, err)
		http.Error(w, "unknown report", http.StatusNotFound)
		return nil, false
	}
	if s.reports == nil {
		http.Error(w, "no ledger configured", http.StatusInternalServerError)
		return nil, false
	}

	out, err := s.reports.Get(r.Context(), def)
	if err != nil {
		s.appMetrics.failed()
		logger.ErrorContext(r.Context(), "Report generation failed",
			log.NewFields().
				WithReport(def.Kind.Slug(), def.Preset.String(), "", "").
				WithError(err).
				WithOperation(log.OpGenerate).
				ToSlice()...)
		http.Error(w, "failed to generate report", http.StatusInternalServerError)
		return nil, false
	}
	s.appMetrics.served()
	return out, true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	out, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	html, err := out.RenderHTML(ChartPath(out.Definition))
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Report rendering failed", log.FieldError, err, log.FieldOperation, log.OpRender)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(html)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	out, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	if out.Chart == nil {
		http.Error(w, "nothing to chart", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	_, _ = w.Write(out.Chart)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	out, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	b, err := out.XLSX()
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Report export failed", log.FieldError, err, log.FieldOperation, log.OpExport)
		http.Error(w, "failed to export report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, out.Definition.Slug()))
	_, _ = w.Write(b)
}
