package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID", "X-User-ID"}
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists exact origins allowed to call the API. A "*"
	// entry allows any origin, which is only safe in development.
	AllowedOrigins []string

	// AllowedMethods and AllowedHeaders fall back to sensible defaults
	// when empty.
	AllowedMethods []string
	AllowedHeaders []string

	// ExposedHeaders lists response headers the browser may read.
	ExposedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds. Defaults to 3600.
	MaxAge int

	// AllowCredentials permits cookies and Authorization headers on
	// cross-origin requests.
	AllowCredentials bool

	// Environment enables the wildcard origin when "development",
	// regardless of AllowedOrigins.
	Environment string
}

// DefaultCORSConfig returns a development configuration allowing any origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: defaultCORSMethods,
		AllowedHeaders: defaultCORSHeaders,
		ExposedHeaders: []string{"X-Correlation-ID", "X-User-ID"},
		MaxAge:         3600,
		Environment:    "development",
	}
}

// CORS returns middleware answering preflight requests and stamping CORS
// headers per the configuration.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = defaultCORSMethods
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = defaultCORSHeaders
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 3600
	}

	wildcard := cfg.Environment == "development"
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[origin] = struct{}{}
	}

	// These header values never change per request.
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			switch origin := r.Header.Get("Origin"); {
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "":
				if _, ok := allowed[origin]; ok {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Vary", "Origin")
				}
			}

			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", maxAge)
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
