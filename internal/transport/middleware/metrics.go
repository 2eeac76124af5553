package middleware

import (
	"net/http"
	"time"
)

type HTTPRecorder interface {
	RecordHTTPRequest(method string, statusCode int, d time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Metrics reports every request's method, status and latency to recorder.
func Metrics(recorder HTTPRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)
			recorder.RecordHTTPRequest(r.Method, sr.status, time.Since(start))
		})
	}
}
