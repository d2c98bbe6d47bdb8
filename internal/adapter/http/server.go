package adapthttp

import (
	"context"
	"log/slog"
	"net/http"

	"glucotrack/internal/app"
	"glucotrack/internal/metrics"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

// OIDCConfig holds the single sign-on settings. SSO routes answer 404 when
// Enabled is false.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Services bundles the application services the adapter drives.
type Services struct {
	Auth    *app.AuthService
	Profile *app.ProfileService
	Weight  *app.WeightService
	Glucose *app.GlucoseService
	Charts  *app.ChartsService
}

// Options tunes the adapter. Zero values are usable.
type Options struct {
	WebDir            string
	CookieSecure      bool
	TrustRemoteUser   bool
	AuthRatePerMinute int
	OIDC              OIDCConfig
	Metrics           metrics.Recorder
	MetricsHandler    http.Handler
	Logger            *slog.Logger

	// HealthCheck, when set, backs /api/health. A failure answers 503.
	HealthCheck func(ctx context.Context) error
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth    *app.AuthService
	profile *app.ProfileService
	weight  *app.WeightService
	glucose *app.GlucoseService
	charts  *app.ChartsService

	webDir          string
	cookieSecure    bool
	trustRemoteUser bool
	oidcConfig      OIDCConfig

	limiter        *RateLimiter
	metrics        metrics.Recorder
	metricsHandler http.Handler
	healthCheck    func(ctx context.Context) error
	logger         *slog.Logger
}

// New creates a Server wired to the given application services.
func New(svc Services, opts Options) *Server {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AuthRatePerMinute <= 0 {
		opts.AuthRatePerMinute = 10
	}
	return &Server{
		auth:            svc.Auth,
		profile:         svc.Profile,
		weight:          svc.Weight,
		glucose:         svc.Glucose,
		charts:          svc.Charts,
		webDir:          opts.WebDir,
		cookieSecure:    opts.CookieSecure,
		trustRemoteUser: opts.TrustRemoteUser,
		oidcConfig:      opts.OIDC,
		limiter:         NewRateLimiter(DefaultRateLimiterConfig(opts.AuthRatePerMinute)),
		metrics:         opts.Metrics,
		metricsHandler:  opts.MetricsHandler,
		healthCheck:     opts.HealthCheck,
		logger:          opts.Logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.healthCheck != nil {
		if err := s.healthCheck(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/config", s.handleConfig)

		r.Route("/auth", func(r chi.Router) {
			r.With(s.limiter.Middleware).Post("/signup", s.handleSignup)
			r.With(s.limiter.Middleware).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/sso/login", s.handleSSOLogin)
			r.Get("/sso/callback", s.handleSSOCallback)
			r.With(s.authMiddleware).Get("/me", s.handleMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", s.handleGetProfile)
				r.Patch("/", s.handleUpdateProfile)
				r.Get("/metrics", s.handleProfileMetrics)
			})

			r.Route("/weights", func(r chi.Router) {
				r.Get("/", s.handleListWeights)
				r.Post("/", s.handleAddWeight)
				r.Post("/delete", s.handleDeleteWeights)
				r.Put("/{id}", s.handleUpdateWeight)
				r.Delete("/{id}", s.handleDeleteWeight)
			})

			r.Route("/glucose", func(r chi.Router) {
				r.Get("/", s.handleListGlucose)
				r.Post("/", s.handleAddGlucose)
				r.Get("/stats", s.handleGlucoseStats)
				r.Post("/delete", s.handleDeleteGlucoseLogs)
				r.Put("/{id}", s.handleUpdateGlucose)
				r.Delete("/{id}", s.handleDeleteGlucose)
			})

			r.Get("/charts/daily", s.handleChartsDaily)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		})
	})

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}
	if s.webDir != "" {
		r.Handle("/*", spaFromDisk(s.webDir))
	}

	return withNoCache(r)
}
