package command

import (
	"time"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// TTL sentinels returned by Expire.TTL and Expire.PTTL.
const (
	NoExpiry   time.Duration = -1 // key exists without a timeout
	KeyMissing time.Duration = -2 // key does not exist
)

// Expire wraps the expiry commands.
type Expire struct {
	c *client.Client
}

// Expire sets a timeout in whole seconds.
func (f Expire) Expire(key string, ttl time.Duration) (bool, error) {
	return f.set("EXPIRE", key, int64(ttl/time.Second))
}

// PExpire sets a timeout in milliseconds.
func (f Expire) PExpire(key string, ttl time.Duration) (bool, error) {
	return f.set("PEXPIRE", key, ttl.Milliseconds())
}

// ExpireAt expires key at t, truncated to seconds.
func (f Expire) ExpireAt(key string, t time.Time) (bool, error) {
	return f.set("EXPIREAT", key, t.Unix())
}

// PExpireAt expires key at t, truncated to milliseconds.
func (f Expire) PExpireAt(key string, t time.Time) (bool, error) {
	return f.set("PEXPIREAT", key, t.UnixMilli())
}

func (f Expire) set(name, key string, n int64) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	if n < 0 {
		return false, domain.InvalidArgument("ttl", "must not be negative")
	}
	r, err := f.c.SendExpectInt(cmd(name, 2).str(key).int(n)...)
	return r == 1, err
}

// Persist removes the timeout of key.
func (f Expire) Persist(key string) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	n, err := f.c.SendExpectInt(cmd("PERSIST", 1).str(key)...)
	return n == 1, err
}

// TTL returns the remaining time to live in seconds, or NoExpiry or
// KeyMissing.
func (f Expire) TTL(key string) (time.Duration, error) {
	n, err := f.ttl("TTL", key)
	return scaleTTL(n, time.Second), err
}

// PTTL returns the remaining time to live in milliseconds, or NoExpiry or
// KeyMissing.
func (f Expire) PTTL(key string) (time.Duration, error) {
	n, err := f.ttl("PTTL", key)
	return scaleTTL(n, time.Millisecond), err
}

func (f Expire) ttl(name, key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd(name, 1).str(key)...)
}

func scaleTTL(n int64, unit time.Duration) time.Duration {
	if n < 0 {
		return time.Duration(n)
	}
	return time.Duration(n) * unit
}
