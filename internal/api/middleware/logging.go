// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"time"

	"github.com/ManuGH/xbench/internal/log"
)

// Logging writes one structured access log line per request.
func Logging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrapStatus(w)
			next.ServeHTTP(sw, r)

			logger := log.WithComponentFromContext(r.Context(), "api")
			if traceID, _ := TraceIDs(r); traceID != "" {
				logger = logger.With().Str(log.FieldTraceID, traceID).Logger()
			}
			evt := logger.Info()
			if sw.status >= http.StatusInternalServerError {
				evt = logger.Error()
			}
			evt.
				Str(log.FieldEvent, "http.request").
				Str(log.FieldMethod, r.Method).
				Str(log.FieldPath, r.URL.Path).
				Int(log.FieldStatus, sw.status).
				Int("bytes", sw.bytesWritten).
				Int64(log.FieldDuration, time.Since(start).Milliseconds()).
				Str("remote_addr", r.RemoteAddr).
				Msg("request served")
		})
	}
}
