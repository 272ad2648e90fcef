package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:   true,
		MasterKey: "secret-key",
		SkipPaths: []string{"/health", "/track/"},
	}
	h := NewAuthMiddleware(cfg, zap.NewNop()).Handler(okHandler())

	tests := []struct {
		name   string
		path   string
		header string
		query  string
		want   int
	}{
		{"missing key", "/channels", "", "", http.StatusUnauthorized},
		{"wrong key", "/channels", "nope", "", http.StatusUnauthorized},
		{"header key", "/channels", "secret-key", "", http.StatusOK},
		{"query key", "/channels", "", "secret-key", http.StatusOK},
		{"skip path", "/health", "", "", http.StatusOK},
		{"skip prefix", "/track/visit", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := tt.path
			if tt.query != "" {
				url += "?api_key=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderName, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	h := NewAuthMiddleware(config.AuthConfig{Enabled: false}, zap.NewNop()).Handler(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", rec.Code)
	}
}

func TestRateLimitSeparatesTrackAndManagement(t *testing.T) {
	cfg := config.RateLimitConfig{
		Enabled:    true,
		TrackRPS:   1000,
		TrackBurst: 100,
		MgmtRPS:    0.001,
		MgmtBurst:  1,
	}
	h := NewRateLimitMiddleware(cfg, zap.NewNop()).Handler(okHandler())

	// The single management token goes to the first request.
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/channels", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("management request %d: status %d, want %d", i, rec.Code, want)
		}
	}

	// Tracking has its own bucket and is unaffected.
	req := httptest.NewRequest(http.MethodPost, "/track/visit", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("track request: status %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "" {
		t.Errorf("unexpected Retry-After %q on allowed request", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewRecoveryMiddleware(zap.NewNop()).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	req := httptest.NewRequest(http.MethodGet, "/channels", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
}
