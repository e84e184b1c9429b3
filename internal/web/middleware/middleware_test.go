package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonMunkholm/fxdesk/internal/config"
	"github.com/JonMunkholm/fxdesk/internal/core"
)

// echoUser replies with the user and IP the middleware resolved.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(core.UserIDFromContext(r.Context()) + "|" + core.IPAddressFromContext(r.Context())))
})

func TestAPIKeyAuth(t *testing.T) {
	required := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k-alice:alice", "k-svc"}}
	open := &config.SecurityConfig{}

	tests := []struct {
		name       string
		cfg        *config.SecurityConfig
		headers    map[string]string
		wantStatus int
		wantUser   string
	}{
		{"open, anonymous", open, nil, http.StatusOK, AnonymousUser},
		{"open, user header", open, map[string]string{UserHeader: "dealer-7"}, http.StatusOK, "dealer-7"},
		{"missing key", required, nil, http.StatusUnauthorized, ""},
		{"wrong key", required, map[string]string{"X-API-Key": "nope"}, http.StatusForbidden, ""},
		{"key with user", required, map[string]string{"X-API-Key": "k-alice"}, http.StatusOK, "alice"},
		{"key without user", required, map[string]string{"X-API-Key": "k-svc"}, http.StatusOK, "api"},
		{"user header ignored when keys required", required,
			map[string]string{"X-API-Key": "k-alice", UserHeader: "mallory"}, http.StatusOK, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/schemas", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tt.cfg)(echoUser).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantUser != "" {
				if got := rec.Body.String(); got[:len(tt.wantUser)+1] != tt.wantUser+"|" {
					t.Errorf("user = %q, want %q", got, tt.wantUser)
				}
			}
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	h := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-an-ip"})(echoUser)

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct client", "203.0.113.9:5555", nil, "|203.0.113.9"},
		{"spoofed header from untrusted", "203.0.113.9:5555", map[string]string{"X-Real-IP": "1.2.3.4"}, "|203.0.113.9"},
		{"trusted proxy real ip", "10.1.2.3:80", map[string]string{"X-Real-IP": "198.51.100.7"}, "|198.51.100.7"},
		{"trusted proxy xff", "192.168.1.5:80", map[string]string{"X-Forwarded-For": "198.51.100.8, 10.0.0.1"}, "|198.51.100.8"},
		{"trusted proxy garbage header", "10.1.2.3:80", map[string]string{"X-Real-IP": "garbage"}, "|10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Handler(echoUser)
	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i, want := range []int{200, 200, 429} {
		if got := do("203.0.113.9:1000"); got != want {
			t.Errorf("request %d: status = %d, want %d", i+1, got, want)
		}
	}
	if got := do("203.0.113.10:1000"); got != http.StatusOK {
		t.Errorf("other client status = %d, want 200", got)
	}

	now = now.Add(time.Minute)
	if got := do("203.0.113.9:2000"); got != http.StatusOK {
		t.Errorf("after window status = %d, want 200", got)
	}

	now = now.Add(5 * time.Minute)
	rl.evict()
	if n := len(rl.visitors); n != 0 {
		t.Errorf("visitors after evict = %d, want 0", n)
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
