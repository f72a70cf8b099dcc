package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ledgerline/spendtrack/internal/service"
	"github.com/ledgerline/spendtrack/pkg/health"
	"github.com/ledgerline/spendtrack/pkg/middleware"
)

// RouterConfig holds the knobs the router needs beyond its handlers.
type RouterConfig struct {
	Environment     string
	CORSOrigins     []string
	RateLimitRPS    int
	RateLimitBurst  int
	UploadDir       string
	PprofEnabled    bool
	PprofAllowCIDRs []string
}

// uploadsCacheMaxAge is how long clients may cache served avatar files.
const uploadsCacheMaxAge = 86400

// NewRouter creates a chi router with all spendtrack routes registered.
func NewRouter(
	authHandler *AuthHandler,
	expenseHandler *ExpenseHandler,
	dashboardHandler *DashboardHandler,
	profileHandler *ProfileHandler,
	authService *service.AuthService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.Recovery(logger))
	// RequestLogger reads the correlation ID and span from context, so it
	// must run after RequestLogging and Tracing have put them there.
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("spendtrack"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics("spendtrack"))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Uploaded avatars, served statically with client-side caching.
	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.With(middleware.CacheControl(uploadsCacheMaxAge)).
		Handle("/uploads/*", uploads)

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowCIDRs, logger)
	}

	// Token validator bridging the middleware to the token manager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := authService.VerifyAccess(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.UserID}, nil
	}

	r.Route("/api", func(r chi.Router) {
		// Auth endpoints (public, rate limited)
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

			r.With(ContentTypeJSON).Post("/register", authHandler.Register)
			r.With(ContentTypeJSON).Post("/login", authHandler.Login)

			// Refresh and logout carry the refresh token in a cookie, not a body.
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// Everything below requires a bearer access token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Get("/me", profileHandler.Get)
			r.Put("/me", profileHandler.UpdateAvatar)
			r.With(ContentTypeJSON).Put("/me/information", profileHandler.UpdateInformation)

			r.Get("/categories", expenseHandler.Categories)
			r.Get("/dashboard/summary", dashboardHandler.Summary)

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", expenseHandler.List)
				r.With(ContentTypeJSON).Post("/", expenseHandler.Create)
				r.Get("/{id}", expenseHandler.Get)
				r.With(ContentTypeJSON).Put("/{id}", expenseHandler.Update)
				r.Delete("/{id}", expenseHandler.Delete)
			})
		})
	})

	return r
}
