package server

import (
	"fmt"
	"net/http"
	"time"
)

// loggingMiddleware logs method/path/status/duration for every request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		durationMs := time.Since(start).Milliseconds()

		logEvent := s.logger.Info()
		if rw.statusCode >= 500 {
			logEvent = s.logger.Error()
		} else if rw.statusCode >= 400 {
			logEvent = s.logger.Warn()
		}
		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Int64("duration_ms", durationMs).
			Msg("http request")
	})
}

// corsMiddleware allows the UI to be served from a different origin during
// development.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware turns a panicking handler into a 500 error envelope
// instead of crashing the process.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().Str("path", r.URL.Path).Str("panic", fmt.Sprintf("%v", rec)).Msg("panic recovered")
				writeJSON(w, http.StatusInternalServerError, errorEnvelope{
					Status: "error",
					Error:  errorDetail{Code: "PROCESSING_ERROR", Message: "internal server error"},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
