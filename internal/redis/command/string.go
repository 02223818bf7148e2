package command

import (
	"time"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// String wraps the string commands.
type String struct {
	c *client.Client
}

// SetOptions are the optional SET modifiers. Expiry is sent as EX when it
// is a whole number of seconds and as PX otherwise.
type SetOptions struct {
	Expiry    time.Duration
	Condition domain.SetCondition
}

// Append appends value and returns the new length.
func (f String) Append(key string, value []byte) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("APPEND", 2).str(key).raw(value)...)
}

// Get returns the value of key, or nil when absent.
func (f String) Get(key string) ([]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd("GET", 1).str(key)...)
}

// GetRange returns the substring between start and end, inclusive.
func (f String) GetRange(key string, start, end int64) ([]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd("GETRANGE", 3).str(key).int(start).int(end)...)
}

// GetSet stores value and returns the previous one.
func (f String) GetSet(key string, value []byte) ([]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd("GETSET", 2).str(key).raw(value)...)
}

// MGet returns the values of keys in order; absent keys are nil.
func (f String) MGet(keys ...string) ([][]byte, error) {
	if err := requireKeys("keys", keys); err != nil {
		return nil, err
	}
	return f.c.SendExpectMultiData(cmd("MGET", len(keys)).str(keys...)...)
}

// MSet stores every pair atomically.
func (f String) MSet(kvs ...domain.KeyValue) error {
	a, err := kvArgs("MSET", kvs)
	if err != nil {
		return err
	}
	return f.c.SendExpectOk(a...)
}

// MSetNX stores every pair only if none of the keys exists.
func (f String) MSetNX(kvs ...domain.KeyValue) (bool, error) {
	a, err := kvArgs("MSETNX", kvs)
	if err != nil {
		return false, err
	}
	n, err := f.c.SendExpectInt(a...)
	return n == 1, err
}

func kvArgs(name string, kvs []domain.KeyValue) (argv, error) {
	if len(kvs) == 0 {
		return nil, domain.InvalidArgument("pairs", "at least one is required")
	}
	a := cmd(name, 2*len(kvs))
	for _, kv := range kvs {
		if err := requireKey("key", kv.Key); err != nil {
			return nil, err
		}
		a = a.str(kv.Key).raw(kv.Value)
	}
	return a, nil
}

// Set stores value. It reports false when a condition prevented the write.
func (f String) Set(key string, value []byte, opts SetOptions) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	if opts.Expiry < 0 {
		return false, domain.InvalidArgument("expiry", "must not be negative")
	}

	a := cmd("SET", 5).str(key).raw(value)
	switch {
	case opts.Expiry == 0:
	case opts.Expiry%time.Second == 0:
		a = a.str("EX").int(int64(opts.Expiry / time.Second))
	default:
		ms := opts.Expiry.Milliseconds()
		if ms == 0 {
			return false, domain.InvalidArgument("expiry", "must be at least 1ms")
		}
		a = a.str("PX").int(ms)
	}
	if tok := opts.Condition.Token(); tok != "" {
		a = a.str(tok)
	}

	status, err := f.c.SendExpectString(a...)
	return err == nil && status == "OK", err
}

// SetRange overwrites part of the value at offset and returns the new length.
func (f String) SetRange(key string, offset int64, value []byte) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, domain.InvalidArgument("offset", "must not be negative")
	}
	return f.c.SendExpectLong(cmd("SETRANGE", 3).str(key).int(offset).raw(value)...)
}

// StrLen returns the length of the value at key.
func (f String) StrLen(key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("STRLEN", 1).str(key)...)
}
