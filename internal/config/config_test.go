package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Redis.Host != DefaultHost || cfg.Redis.Port != DefaultPort {
		t.Errorf("Redis = %s:%d, want %s:%d", cfg.Redis.Host, cfg.Redis.Port, DefaultHost, DefaultPort)
	}
	if cfg.Timeouts.Idle != DefaultIdleTimeout {
		t.Errorf("Timeouts.Idle = %v, want %v", cfg.Timeouts.Idle, DefaultIdleTimeout)
	}
	if cfg.Timeouts.Connect != 0 || cfg.Timeouts.Send != 0 || cfg.Timeouts.Receive != 0 {
		t.Errorf("socket timeouts should default to disabled: %+v", cfg.Timeouts)
	}
	if cfg.Buffer.Length != 1450 || cfg.Buffer.PoolMaxSize != 500000 {
		t.Errorf("Buffer = %+v", cfg.Buffer)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) = %v", err)
	}
}

func TestEndpoint(t *testing.T) {
	cfg := Default()
	cfg.Redis.Host = ""
	cfg.Redis.Port = 0
	cfg.Redis.DB = 4

	ep := cfg.Endpoint()
	if ep.Host != DefaultHost || ep.Port != DefaultPort || ep.DB != 4 {
		t.Errorf("Endpoint() = %+v", ep)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port too large", func(c *Config) { c.Redis.Port = 70000 }, "redis.port"},
		{"negative port", func(c *Config) { c.Redis.Port = -1 }, "redis.port"},
		{"negative db", func(c *Config) { c.Redis.DB = -1 }, "redis.db"},
		{"negative connect", func(c *Config) { c.Timeouts.Connect = -time.Second }, "timeouts.connect"},
		{"negative send", func(c *Config) { c.Timeouts.Send = -time.Second }, "timeouts.send"},
		{"negative receive", func(c *Config) { c.Timeouts.Receive = -time.Second }, "timeouts.receive"},
		{"negative idle disables probe", func(c *Config) { c.Timeouts.Idle = -1 }, ""},
		{"tiny buffer", func(c *Config) { c.Buffer.Length = 16 }, "buffer.length"},
		{"pool smaller than buffer", func(c *Config) { c.Buffer.PoolMaxSize = 100 }, "buffer.pool_max_size"},
		{"no clients", func(c *Config) { c.Pool.MaxTotal = 0 }, "pool.max_total"},
		{"idle above total", func(c *Config) { c.Pool.MaxIdle = 100 }, "pool.max_idle"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Verify() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Verify() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_Nil(t *testing.T) {
	if err := Verify(nil); err == nil {
		t.Error("Verify(nil) should fail")
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Redis.Password = "hunter2"

	sanitized := Sanitize(cfg)

	if cfg.Redis.Password != "hunter2" {
		t.Error("original config should not be modified")
	}
	if sanitized.Redis.Password == "hunter2" || sanitized.Redis.Password == "" {
		t.Errorf("sanitized password = %q", sanitized.Redis.Password)
	}
}

func TestSanitize_EmptyPassword(t *testing.T) {
	if got := Sanitize(Default()).Redis.Password; got != "" {
		t.Errorf("empty password sanitized to %q", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goresp.yaml")
	content := `
redis:
  host: cache.local
  db: 2
timeouts:
  connect: 2s
buffer:
  length: 4096
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GORESP_REDIS_PASSWORD", "from-env")

	cfg, err := Load(path, map[string]any{"redis.db": 5})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Redis.Host != "cache.local" || cfg.Redis.Port != DefaultPort {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.Redis.DB != 5 {
		t.Errorf("DB = %d, override should win", cfg.Redis.DB)
	}
	if cfg.Redis.Password != "from-env" {
		t.Errorf("Password = %q", cfg.Redis.Password)
	}
	if cfg.Timeouts.Connect != 2*time.Second || cfg.Timeouts.Idle != DefaultIdleTimeout {
		t.Errorf("Timeouts = %+v", cfg.Timeouts)
	}
	if cfg.Buffer.Length != 4096 || cfg.Buffer.PoolMaxSize != DefaultPoolMaxSize {
		t.Errorf("Buffer = %+v", cfg.Buffer)
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, err := Load("", map[string]any{"buffer.length": 8}); err == nil {
		t.Error("Load() should reject a tiny buffer")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("Load() should fail on a missing explicit file")
	}
}
