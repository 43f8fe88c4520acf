package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/lookup"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/store"
	appweb "fintrack/web"
)

// Decorator provides the currency rates and money tip panels.
type Decorator interface {
	Decorations(ctx context.Context) lookup.Decorations
}

// Deps are the collaborators the server needs.
type Deps struct {
	Tracker            *services.TrackerService
	Decorations        Decorator
	Ready              store.Pinger
	Logger             *log.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates *template.Template
	tracker   *services.TrackerService
	extras    Decorator
	ready     store.Pinger
	logger    *log.Logger

	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	ipResolver *security.ClientIPResolver
	started    time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		tracker:    d.Tracker,
		extras:     d.Decorations,
		ready:      d.Ready,
		logger:     logger,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimitPerMinute}),
		ipResolver: security.NewClientIPResolver(),
		started:    time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.ipResolver.ClientIP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err, log.FieldComponent, log.ComponentTemplate)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limited := s.limiter.Middleware(s.ipResolver.ClientIP, s.onRateLimited)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /transactions", limited(http.HandlerFunc(s.handleAddTransaction)))
	mux.Handle("POST /budget", limited(http.HandlerFunc(s.handleSetBudget)))
	mux.Handle("POST /savings", limited(http.HandlerFunc(s.handleSetSavingsGoal)))
	mux.Handle("POST /theme", limited(http.HandlerFunc(s.handleSetTheme)))
	mux.Handle("POST /data/clear", limited(http.HandlerFunc(s.handleClearData)))

	mux.HandleFunc("GET /ui/categories", s.handleCategories)
	mux.HandleFunc("GET /ui/extras", s.handleExtras)
	mux.HandleFunc("GET /api/rates", s.handleRates)

	mux.HandleFunc("GET /export/transactions.csv", s.handleExportCSV)
	mux.HandleFunc("GET /export/backup.json", s.handleExportBackup)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           security.Headers(security.DefaultHeadersConfig())(s.tracer.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.ipResolver.ClientIP(r),
		log.FieldPath, r.URL.Path,
		log.FieldComponent, log.ComponentRateLimit)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please wait a moment and try again.").Write(w)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
