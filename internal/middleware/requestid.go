// Package middleware holds the HTTP middleware runhooks adds on top of chi's.
package middleware

import (
	"encoding/hex"
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/runhooks/internal/logger"
)

const (
	headerRequestID = "X-Request-ID"
	maxRequestIDLen = 128
)

// RequestID takes X-Request-ID from the request or generates one, stores it
// in the context for logging and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = generateID()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// generateID returns a random UUID as 32 hex characters.
func generateID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
