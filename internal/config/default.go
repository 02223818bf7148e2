package config

import (
	"time"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/pkg/bufpool"
)

// Default configuration values.
const (
	DefaultHost        = domain.DefaultHost
	DefaultPort        = domain.DefaultPort
	DefaultIdleTimeout = 240 * time.Second

	DefaultBufferLength = bufpool.DefaultBufferLength
	DefaultPoolMaxSize  = bufpool.DefaultMaxSize

	DefaultPoolMaxTotal      = 8
	DefaultPoolMaxIdle       = 8
	DefaultPoolBorrowTimeout = 5 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Redis: RedisSection{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Timeouts: TimeoutSection{
			Idle: DefaultIdleTimeout,
		},
		Buffer: BufferSection{
			Length:      DefaultBufferLength,
			PoolMaxSize: DefaultPoolMaxSize,
		},
		Pool: PoolSection{
			MaxTotal:      DefaultPoolMaxTotal,
			MaxIdle:       DefaultPoolMaxIdle,
			BorrowTimeout: DefaultPoolBorrowTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Endpoint returns the redis section as a connection descriptor.
func (c *Config) Endpoint() domain.Endpoint {
	return domain.NewEndpoint(c.Redis.Host, c.Redis.Port, c.Redis.Password, c.Redis.DB)
}
