package cmd

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rubiojr/aurosearch/pkg/api"
	"github.com/rubiojr/aurosearch/pkg/log"
	"github.com/rubiojr/aurosearch/pkg/metrics"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-Id"

var accessLog = log.ForService("http")

type requestIDContextKey struct{}

func requestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}

		r = r.WithContext(context.WithValue(r.Context(), requestIDContextKey{}, requestID))
		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r)
	})
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.StatusRecorder{ResponseWriter: w, StatusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		remoteAddr := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			remoteAddr = host
		}

		format := "%s %s %s %d %dB %.1fms request_id=%s"
		args := []any{remoteAddr, r.Method, r.URL.Path, rec.StatusCode, rec.BytesWritten,
			float64(time.Since(start).Microseconds()) / 1000.0, requestIDFromContext(r.Context())}
		switch {
		case rec.StatusCode >= 500:
			accessLog.Errorf(format, args...)
		case rec.StatusCode >= 400:
			accessLog.Warnf(format, args...)
		default:
			accessLog.Debugf(format, args...)
		}
	})
}

// rateLimitMiddleware rejects requests beyond the limiter's budget with 429.
// Health checks and metrics scrapes are never limited. A nil limiter
// disables the middleware.
func rateLimitMiddleware(next http.Handler, limiter *rate.Limiter) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		if !limiter.Allow() {
			retryAfter := 1
			if l := float64(limiter.Limit()); l > 0 {
				retryAfter = max(1, int(math.Ceil(1/l)))
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{
				Error:   "Too many requests",
				Message: "Request rate limit exceeded. Please slow down.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
