package config

import "time"

// Config is the root configuration of goresp.
type Config struct {
	Redis    RedisSection   `koanf:"redis" yaml:"redis" json:"redis"`
	Timeouts TimeoutSection `koanf:"timeouts" yaml:"timeouts" json:"timeouts"`
	Buffer   BufferSection  `koanf:"buffer" yaml:"buffer" json:"buffer"`
	Pool     PoolSection    `koanf:"pool" yaml:"pool" json:"pool"`
	Log      LogSection     `koanf:"log" yaml:"log" json:"log"`
	Metrics  MetricsSection `koanf:"metrics" yaml:"metrics" json:"metrics"`
}

// RedisSection is the server endpoint.
type RedisSection struct {
	Host     string `koanf:"host" yaml:"host" json:"host"`
	Port     int    `koanf:"port" yaml:"port" json:"port"`
	Password string `koanf:"password" yaml:"password" json:"password"`
	DB       int    `koanf:"db" yaml:"db" json:"db"`
}

// TimeoutSection bounds socket operations. Zero disables a timeout.
type TimeoutSection struct {
	Connect time.Duration `koanf:"connect" yaml:"connect" json:"connect"`
	Send    time.Duration `koanf:"send" yaml:"send" json:"send"`
	Receive time.Duration `koanf:"receive" yaml:"receive" json:"receive"`
	// Idle is how long a connection may sit unused before the next
	// command probes it. Negative disables the probe.
	Idle time.Duration `koanf:"idle" yaml:"idle" json:"idle"`
}

// BufferSection sizes the shared request buffer pool.
type BufferSection struct {
	Length      int `koanf:"length" yaml:"length" json:"length"`
	PoolMaxSize int `koanf:"pool_max_size" yaml:"pool_max_size" json:"pool_max_size"`
}

// PoolSection sizes the client pool used by concurrent callers.
type PoolSection struct {
	MaxTotal      int           `koanf:"max_total" yaml:"max_total" json:"max_total"`
	MaxIdle       int           `koanf:"max_idle" yaml:"max_idle" json:"max_idle"`
	BorrowTimeout time.Duration `koanf:"borrow_timeout" yaml:"borrow_timeout" json:"borrow_timeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

// MetricsSection configures the optional /metrics listener.
type MetricsSection struct {
	Addr string `koanf:"addr" yaml:"addr" json:"addr"`
}
