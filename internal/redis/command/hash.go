package command

import (
	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// Hash wraps the hash commands.
type Hash struct {
	c *client.Client
}

// HDel removes fields and returns how many existed.
func (f Hash) HDel(key string, fields ...string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if err := requireKeys("fields", fields); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("HDEL", len(fields)+1).str(key).str(fields...)...)
}

// HExists reports whether field exists.
func (f Hash) HExists(key, field string) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	n, err := f.c.SendExpectInt(cmd("HEXISTS", 2).str(key, field)...)
	return n == 1, err
}

// HGet returns the value of field, or nil when absent.
func (f Hash) HGet(key, field string) ([]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd("HGET", 2).str(key, field)...)
}

// HGetAll returns every field and value.
func (f Hash) HGetAll(key string) ([]domain.KeyValue, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	items, err := f.c.SendExpectMultiData(cmd("HGETALL", 1).str(key)...)
	if err != nil {
		return nil, err
	}
	return pairs(items)
}

// HIncrBy adds delta to field and returns the new value.
func (f Hash) HIncrBy(key, field string, delta int64) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("HINCRBY", 3).str(key, field).int(delta)...)
}

// HIncrByFloat adds a float delta to field and returns the new value.
func (f Hash) HIncrByFloat(key, field string, delta float64) (float64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if err := requireFloat("delta", delta); err != nil {
		return 0, err
	}
	return f.c.SendExpectDouble(cmd("HINCRBYFLOAT", 3).str(key, field).float(delta)...)
}

// HKeys returns the field names.
func (f Hash) HKeys(key string) ([]string, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	items, err := f.c.SendExpectMultiData(cmd("HKEYS", 1).str(key)...)
	return toStrings(items), err
}

// HLen returns the number of fields.
func (f Hash) HLen(key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("HLEN", 1).str(key)...)
}

// HMGet returns the values of fields in order; absent fields are nil.
func (f Hash) HMGet(key string, fields ...string) ([][]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.InvalidArgument("fields", "at least one is required")
	}
	return f.c.SendExpectMultiData(cmd("HMGET", len(fields)+1).str(key).str(fields...)...)
}

// HMSet stores several fields.
func (f Hash) HMSet(key string, fields ...domain.KeyValue) error {
	if err := requireKey("key", key); err != nil {
		return err
	}
	if len(fields) == 0 {
		return domain.InvalidArgument("fields", "at least one is required")
	}
	a := cmd("HMSET", 2*len(fields)+1).str(key)
	for _, kv := range fields {
		a = a.str(kv.Key).raw(kv.Value)
	}
	return f.c.SendExpectOk(a...)
}

// HSet stores field and reports whether it was created.
func (f Hash) HSet(key, field string, value []byte) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	n, err := f.c.SendExpectInt(cmd("HSET", 3).str(key, field).raw(value)...)
	return n == 1, err
}

// HSetNX stores field only if it does not exist.
func (f Hash) HSetNX(key, field string, value []byte) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	n, err := f.c.SendExpectInt(cmd("HSETNX", 3).str(key, field).raw(value)...)
	return n == 1, err
}
