package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"fieldnav/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(c int) {
	r.code = c
	r.ResponseWriter.WriteHeader(c)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware wraps a handler with request logging, Prometheus metrics, and a
// process-wide rate limiter sized from the server config.
func (s *Server) Middleware(next http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(s.Cfg.Server.RateRPS), s.Cfg.Server.RateBurst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, "429").Inc()
			writeProblem(w, http.StatusTooManyRequests, "Rate limited", "too many requests", r.URL.Path)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		dur := time.Since(start)
		status := strconv.Itoa(rec.code)
		metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(dur.Seconds())
		log.Printf("%s %s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, status, dur)
	})
}
