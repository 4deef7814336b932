package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/devblog/postsapi"
	"github.com/devblog/postsapi/message"
)

// RequestIDHeader carries the request id, in requests and responses.
const RequestIDHeader = "X-Request-Id"

// RequestID takes the request id from RequestIDHeader, or generates a new ULID,
// and stores it as the correlation id of the request context.
// Post events published while serving the request carry it in their metadata.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = postsapi.NewULID()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(message.WithCorrelationID(r.Context(), id)))
	})
}

// RequestLogger logs every served request.
func RequestLogger(logger postsapi.LoggerAdapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			logger.Info("Request served", postsapi.LogFields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": message.CorrelationIDFromCtx(r.Context()),
			})
		})
	}
}
