package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rahal-app/rahal-backend/internal/ratelimit"
)

func TestMiddlewareRejectsWith429(t *testing.T) {
	l := ratelimit.New(2, time.Minute)
	handler := ratelimit.Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/bootstrap", nil)
		req.RemoteAddr = "1.2.3.4:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Errorf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
		}
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}

	// A different client is unaffected.
	req := httptest.NewRequest(http.MethodPost, "/api/admin/bootstrap", nil)
	req.RemoteAddr = "5.6.7.8:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected other client to pass, got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	if got := ratelimit.ClientIP(req); got != "2001:db8::1" {
		t.Errorf("ClientIP = %q", got)
	}
	req.RemoteAddr = "10.0.0.1"
	if got := ratelimit.ClientIP(req); got != "10.0.0.1" {
		t.Errorf("ClientIP without port = %q", got)
	}
}
