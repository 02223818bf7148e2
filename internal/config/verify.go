package config

import (
	"errors"
	"fmt"

	"github.com/yndnr/goresp/internal/telemetry/logger"
)

// MinBufferLength is the smallest accepted buffer.length.
const MinBufferLength = 64

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := verifyRedis(&cfg.Redis); err != nil {
		return err
	}
	if err := verifyTimeouts(&cfg.Timeouts); err != nil {
		return err
	}
	if err := verifyBuffer(&cfg.Buffer); err != nil {
		return err
	}
	if err := verifyPool(&cfg.Pool); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyRedis(cfg *RedisSection) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("redis.port %d out of range 0..65535", cfg.Port)
	}
	if cfg.DB < 0 {
		return fmt.Errorf("redis.db %d must not be negative", cfg.DB)
	}
	return nil
}

func verifyTimeouts(cfg *TimeoutSection) error {
	switch {
	case cfg.Connect < 0:
		return errors.New("timeouts.connect must not be negative")
	case cfg.Send < 0:
		return errors.New("timeouts.send must not be negative")
	case cfg.Receive < 0:
		return errors.New("timeouts.receive must not be negative")
	}
	return nil
}

func verifyBuffer(cfg *BufferSection) error {
	if cfg.Length < MinBufferLength {
		return fmt.Errorf("buffer.length %d is below %d", cfg.Length, MinBufferLength)
	}
	if cfg.PoolMaxSize < cfg.Length {
		return fmt.Errorf("buffer.pool_max_size %d is smaller than buffer.length %d", cfg.PoolMaxSize, cfg.Length)
	}
	return nil
}

func verifyPool(cfg *PoolSection) error {
	if cfg.MaxTotal < 1 {
		return errors.New("pool.max_total must be at least 1")
	}
	if cfg.MaxIdle < 0 || cfg.MaxIdle > cfg.MaxTotal {
		return fmt.Errorf("pool.max_idle %d must be in 0..%d", cfg.MaxIdle, cfg.MaxTotal)
	}
	if cfg.BorrowTimeout < 0 {
		return errors.New("pool.borrow_timeout must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch cfg.Format {
	case "", "text", "json":
		return nil
	}
	return fmt.Errorf("log.format %q is not text or json", cfg.Format)
}
