package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Redis struct {
		Host string `koanf:"host"`
		Port int    `koanf:"port"`
	} `koanf:"redis"`
	Timeouts struct {
		Idle time.Duration `koanf:"idle"`
	} `koanf:"timeouts"`
	Buffer struct {
		PoolMaxSize int `koanf:"pool_max_size"`
	} `koanf:"buffer"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goresp.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/goresp.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q", l.envPrefix)
	}
	if l.filePath != "/path/to/goresp.yaml" {
		t.Errorf("filePath = %q", l.filePath)
	}
	if NewLoader().envPrefix != DefaultEnvPrefix {
		t.Error("default prefix not applied")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"GORESP_REDIS_HOST", "redis.host"},
		{"GORESP_BUFFER_POOL_MAX_SIZE", "buffer.pool_max_size"},
		{"GORESP_TIMEOUTS_IDLE", "timeouts.idle"},
		{"GORESP_DEBUG", "debug"},
	}
	for _, tt := range tests {
		if got := EnvKey("GORESP_", tt.name); got != tt.want {
			t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, "redis:\n  host: cache.local\n  port: 6380\n")

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.GetString("redis.host"); got != "cache.local" {
		t.Errorf("redis.host = %q", got)
	}
	if got := l.GetInt("redis.port"); got != 6380 {
		t.Errorf("redis.port = %d", got)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	if err := NewLoader().LoadFile("/nonexistent/goresp.yaml"); err == nil {
		t.Error("LoadFile() expected error for missing file")
	}
}

func TestLoader_Load_OptionalFile(t *testing.T) {
	cfg := testConfig{}
	cfg.Redis.Host = "default"

	l := NewLoader(WithConfigFile("/nonexistent/goresp.yaml"), WithOptionalFile())
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Redis.Host != "default" {
		t.Errorf("Host = %q, default should survive", cfg.Redis.Host)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() = false")
	}

	strict := NewLoader(WithConfigFile("/nonexistent/goresp.yaml"))
	if err := strict.Load(&cfg); err == nil {
		t.Error("Load() without WithOptionalFile should fail on a missing file")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, "redis:\n  host: from-file\n  port: 7000\ntimeouts:\n  idle: 30s\n")
	t.Setenv("GORESP_REDIS_HOST", "from-env")
	t.Setenv("GORESP_BUFFER_POOL_MAX_SIZE", "9000")

	l := NewLoader(WithConfigFile(path))
	if err := l.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if err := l.LoadEnv(); err != nil {
		t.Fatal(err)
	}
	if err := l.LoadMap(map[string]any{"redis.port": 7001}); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Redis.Host != "from-env" {
		t.Errorf("Host = %q, env should override file", cfg.Redis.Host)
	}
	if cfg.Redis.Port != 7001 {
		t.Errorf("Port = %d, flags should override file", cfg.Redis.Port)
	}
	if cfg.Timeouts.Idle != 30*time.Second {
		t.Errorf("Idle = %v", cfg.Timeouts.Idle)
	}
	if cfg.Buffer.PoolMaxSize != 9000 {
		t.Errorf("PoolMaxSize = %d", cfg.Buffer.PoolMaxSize)
	}
}

func TestMapProvider_Read(t *testing.T) {
	m, err := mapProvider{"redis.host": "h", "redis.port": 1, "log": "x"}.Read()
	if err != nil {
		t.Fatal(err)
	}
	redis, ok := m["redis"].(map[string]any)
	if !ok || redis["host"] != "h" || redis["port"] != 1 || m["log"] != "x" {
		t.Errorf("Read() = %#v", m)
	}
	if _, err := (mapProvider{}).ReadBytes(); err != ErrReadBytesNotSupported {
		t.Errorf("ReadBytes() error = %v", err)
	}
}

func TestLoader_Load_Overrides(t *testing.T) {
	path := writeConfig(t, "redis:\n  host: from-file\n  port: 7000\n")
	t.Setenv("GORESP_REDIS_PORT", "7100")

	var cfg testConfig
	l := NewLoader(WithConfigFile(path), WithOverrides(map[string]any{"redis.port": 7200}))
	if err := l.Load(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Redis.Host != "from-file" || cfg.Redis.Port != 7200 {
		t.Errorf("Redis = %+v, want from-file:7200", cfg.Redis)
	}
}
