package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/templui/pacekeeper/internal/ctxkeys"
)

const requestIDHeader = "X-Request-ID"

// WithRequestID propagates an incoming X-Request-ID or generates one, and echoes it
// on the response.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctxkeys.WithRequestID(r.Context(), id)))
	})
}
