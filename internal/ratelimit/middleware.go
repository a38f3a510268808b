package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/rahal-app/rahal-backend/internal/autherr"
)

// Middleware rejects requests from a client IP that exceeded l with 429 and
// a Retry-After of one window.
//
// The client IP is taken from RemoteAddr, so mount chi's RealIP middleware
// upstream when running behind a proxy.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(l.Window().Seconds())))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.IsLimited(ClientIP(r)) {
				w.Header().Set("Retry-After", retryAfter)
				autherr.Write(w, autherr.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of r.RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
