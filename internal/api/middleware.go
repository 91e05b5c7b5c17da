package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	logfilter "github.com/jmylchreest/slog-logfilter"
)

var registerExtractors sync.Once

// registerLogContext lets log filters match on the chi request ID.
func registerLogContext() {
	registerExtractors.Do(func() {
		logfilter.RegisterContextExtractor("request_id", func(ctx context.Context) (string, bool) {
			if ctx == nil {
				return "", false
			}
			id := middleware.GetReqID(ctx)
			return id, id != ""
		})
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if r.URL.Path == "/health" {
			level = slog.LevelDebug
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
