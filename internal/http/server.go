package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"contributi/internal/auth"
	"contributi/internal/log"
	"contributi/internal/middleware/ratelimit"
	"contributi/internal/middleware/security"
	"contributi/internal/middleware/trace"
	"contributi/internal/services"
	appweb "contributi/web"
)

const (
	loginPath = "/admin/login"
	panelPath = "/admin/panel"
)

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the handlers need.
type Dependencies struct {
	Contributions *services.ContributionService
	Authenticator auth.Authenticator
	Sessions      *auth.SessionManager
	Admins        auth.AdminStore
	Storage       Pinger
	Logger        *log.Logger

	RateLimitPerMinute int
	// TrustedProxies extends the private ranges whose X-Forwarded-For is honoured.
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates *template.Template

	contributions *services.ContributionService
	authenticator auth.Authenticator
	sessions      *auth.SessionManager
	gate          *auth.Gate
	storage       Pinger
	logger        *log.Logger
	events        *log.StructuredLogger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	startedAt        time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	httpLogger := logger.WithComponent(log.ComponentHTTP)

	limitCfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = deps.RateLimitPerMinute
	}

	detector := security.NewDetector()
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			httpLogger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s := &Server{
		contributions:    deps.Contributions,
		authenticator:    deps.Authenticator,
		sessions:         deps.Sessions,
		gate:             auth.NewGate(deps.Sessions, deps.Admins, loginPath),
		storage:          deps.Storage,
		logger:           httpLogger,
		events:           log.NewStructuredLogger(logger),
		securityDetector: detector,
		rateLimiter:      ratelimit.NewLimiter(limitCfg),
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, log.NewStructuredLogger(httpLogger)),
		startedAt:        time.Now(),
	}

	t, err := template.New("").Funcs(template.FuncMap{
		"amount": formatAmount,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		httpLogger.Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(log.Middleware(s.logger))
	r.Use(s.traceMiddleware.Middleware)
	r.Use(log.RequestIDMiddleware(trace.RequestIDFromRequest))
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.securityDetector.Middleware)
	r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, nil))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Handle("/static/*", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Get("/", s.handleIndex)
	r.Post("/", s.handleCreateContribution)
	r.Get("/last_month", s.handleLastMonth)

	r.Get(loginPath, s.handleLoginForm)
	r.Post(loginPath, s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.gate.RequireAdmin)
		r.Get("/logout", s.handleLogout)
		r.Get(panelPath, s.handleAdminPanel)
		r.Get("/delete/{id}", s.handleDelete)
	})

	return r
}

// Shutdown stops background routines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a template with status. Templates are rendered into a
// buffer first so a failure can still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err, log.FieldTemplate, name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
