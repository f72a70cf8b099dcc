package middleware

import (
	"log/slog"
	"net/http"

	"github.com/ledgerline/spendtrack/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context, enriched with
// correlation_id, user_id, trace_id, and span_id. Handlers retrieve it with
// logger.FromContext. Mount after RequestLogging (correlation ID) and
// Tracing (span context) so both are available for enrichment.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// The Auth middleware provides the user ID once the request is
			// authenticated; the X-User-ID header covers internal callers.
			userID := UserIDFromContext(ctx)
			if userID == "" {
				userID = r.Header.Get("X-User-ID")
			}
			if userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
