// Package http serves the category reports over HTTP.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"catreport/internal/backend"
	"catreport/internal/log"
	"catreport/internal/middleware/ratelimit"
	"catreport/internal/middleware/security"
	"catreport/internal/middleware/trace"
	"catreport/internal/report"
	appweb "catreport/web"
)

// ReportSource returns a generated report, usually through the report cache.
type ReportSource interface {
	Get(ctx context.Context, def report.Definition) (*report.Output, error)
}

// Options configure NewServer.
type Options struct {
	Addr    string
	Reports ReportSource
	// Pinger backs /readyz. Nil means the ledger is always ready.
	Pinger            backend.Pinger
	BaseCurrency      string
	DateFormat        string
	Clock             func() time.Time
	RequestsPerMinute int
	// TrustedProxies extend the private ranges whose forwarded headers are used.
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server
	templates    *template.Template
	reports      ReportSource
	pinger       backend.Pinger
	baseCurrency string
	dateFormat   string
	clock        func() time.Time
	logger       *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime        time.Time
	reportsServed int64
	reportErrors  int64
}

func (m *appMetrics) served() { atomic.AddInt64(&m.reportsServed, 1) }
func (m *appMetrics) failed() { atomic.AddInt64(&m.reportErrors, 1) }

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.DateFormat == "" {
		opts.DateFormat = report.DefaultDateFormat
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		reports:          opts.Reports,
		pinger:           opts.Pinger,
		baseCurrency:     opts.BaseCurrency,
		dateFormat:       opts.DateFormat,
		clock:            opts.Clock,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.securityDetector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/index.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /reports/{kind}/{preset}", s.handleReport)
	mux.HandleFunc("GET /reports/{kind}/{preset}/chart.png", s.handleChart)
	mux.HandleFunc("GET /reports/{kind}/{preset}/export.xlsx", s.handleExport)

	var h http.Handler = mux
	h = log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(h)
	h = log.Middleware(logger)(h)
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, nil)(h)
	h = s.securityDetector.Middleware(logger)(h)
	h = s.traceMiddleware.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ReportPath is the URL of a report page.
func ReportPath(def report.Definition) string {
	return fmt.Sprintf("/reports/%s/%s", def.Kind.Slug(), def.Preset)
}

func ChartPath(def report.Definition) string {
	return ReportPath(def) + "/chart.png"
}

func ExportPath(def report.Definition) string {
	return ReportPath(def) + "/export.xlsx"
}
