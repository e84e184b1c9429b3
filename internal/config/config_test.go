package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Server.Addr() = %q, want %q", cfg.Server.Addr(), "0.0.0.0:8080")
	}
	if cfg.Database.Enabled() {
		t.Error("Database.Enabled() = true with no DATABASE_URL")
	}
	if cfg.Upload.PreviewRows != 50 {
		t.Errorf("Upload.PreviewRows = %d, want 50", cfg.Upload.PreviewRows)
	}
	if cfg.Upload.MaxFileSize != 104857600 {
		t.Errorf("Upload.MaxFileSize = %d, want 104857600", cfg.Upload.MaxFileSize)
	}
	if cfg.Session.IdleTimeout != 30*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want 30m", cfg.Session.IdleTimeout)
	}
	if cfg.Session.JanitorSchedule != "@every 1m" {
		t.Errorf("Session.JanitorSchedule = %q", cfg.Session.JanitorSchedule)
	}
	if cfg.Transport.FileField != "file" || cfg.Transport.TypeField != "document_type" {
		t.Errorf("Transport fields = %q/%q", cfg.Transport.FileField, cfg.Transport.TypeField)
	}
	if !cfg.Rate.Enabled || cfg.Rate.RequestsPerMinute != 120 {
		t.Errorf("Rate = %+v, want enabled at 120/min", cfg.Rate)
	}
	if cfg.Transport.Timeout != 60*time.Second {
		t.Errorf("Transport.Timeout = %v, want 60s", cfg.Transport.Timeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("UPLOAD_PREVIEW_ROWS", "20")
	t.Setenv("SESSION_IDLE_TIMEOUT", "1h30m")
	t.Setenv("TRANSPORT_URL", "https://treasury.example.com/api/upload")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Upload.PreviewRows != 20 {
		t.Errorf("Upload.PreviewRows = %d, want 20", cfg.Upload.PreviewRows)
	}
	if cfg.Session.IdleTimeout != 90*time.Minute {
		t.Errorf("Session.IdleTimeout = %v, want 1h30m", cfg.Session.IdleTimeout)
	}
	if cfg.Transport.URL != "https://treasury.example.com/api/upload" {
		t.Errorf("Transport.URL = %q", cfg.Transport.URL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "postgres://localhost/alttest")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/alttest" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if !cfg.Database.Enabled() {
		t.Error("Database.Enabled() = false")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	tests := []struct {
		env, value, want string
	}{
		{"SERVER_PORT", "eighty", "invalid integer"},
		{"SESSION_IDLE_TIMEOUT", "soon", "invalid duration"},
		{"REQUIRE_API_KEY", "maybe", "invalid boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , ,192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if !reflect.DeepEqual(cfg.Security.TrustedProxies, want) {
		t.Errorf("TrustedProxies = %v, want %v", cfg.Security.TrustedProxies, want)
	}
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Database:  DatabaseConfig{MaxConns: 10, MinConns: 1, HistoryCapacity: 10},
		Upload:    UploadConfig{MaxFileSize: 1, MaxConcurrent: 1, MaxWaitTime: time.Second, PreviewRows: 1, Timeout: time.Second},
		Session:   SessionConfig{IdleTimeout: time.Minute, JanitorSchedule: "@every 1m", TimeZone: "UTC"},
		Transport: TransportConfig{Timeout: time.Second, FileField: "file", TypeField: "document_type"},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "SERVER_PORT"},
		{"pool sizes", func(c *Config) {
			c.Database.URL = "postgres://x"
			c.Database.MaxConns, c.Database.MinConns = 1, 5
		}, "DB_MAX_CONNS (1) must be >= DB_MIN_CONNS (5)"},
		{"pool ignored without database", func(c *Config) { c.Database.MaxConns = 0 }, ""},
		{"preview rows", func(c *Config) { c.Upload.PreviewRows = 0 }, "UPLOAD_PREVIEW_ROWS"},
		{"cron spec", func(c *Config) { c.Session.JanitorSchedule = "whenever" }, "SESSION_JANITOR_SCHEDULE"},
		{"time zone", func(c *Config) { c.Session.TimeZone = "Mars/Olympus" }, "SESSION_JANITOR_TZ"},
		{"transport url", func(c *Config) { c.Transport.URL = "ftp://host/x" }, "TRANSPORT_URL"},
		{"rate limit", func(c *Config) { c.Rate = RateLimitConfig{Enabled: true} }, "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{"rate limit disabled", func(c *Config) { c.Rate = RateLimitConfig{} }, ""},
		{"proxy cidr", func(c *Config) { c.Security.TrustedProxies = []string{"10.0.0.1"} }, "TRUSTED_PROXIES"},
		{"api keys", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS is empty"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Upload.MaxConcurrent = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	if n := strings.Count(err.Error(), "\n  - "); n != 3 {
		t.Errorf("Validate() reported %d problems, want 3:\n%v", n, err)
	}
}

func TestAPIKeyUsers(t *testing.T) {
	sec := SecurityConfig{APIKeys: []string{"k1:alice", "k2", " k3 : bob ", ":nobody"}}
	want := map[string]string{"k1": "alice", "k2": "api", "k3": "bob"}
	if got := sec.APIKeyUsers(); !reflect.DeepEqual(got, want) {
		t.Errorf("APIKeyUsers() = %v, want %v", got, want)
	}
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Database.URL = "postgres://user:hunter2@db/fx"
	cfg.Transport.AuthToken = "s3cret"

	s := cfg.String()
	for _, secret := range []string{"hunter2", "s3cret"} {
		if strings.Contains(s, secret) {
			t.Errorf("String() leaks %q: %s", secret, s)
		}
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() = %s, want masked values", s)
	}
}
