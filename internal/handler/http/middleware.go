package http

import (
	"net/http"
	"strings"
)

const unsupportedMediaTypeBody = `{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`

// ContentTypeJSON rejects write requests that declare a non-JSON body.
// A missing Content-Type passes through; the JSON decoder rejects
// unparseable bodies anyway.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBody := r.ContentLength > 0 ||
			r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch

		if hasBody {
			if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(unsupportedMediaTypeBody))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
