package command

import "github.com/yndnr/goresp/internal/redis/client"

// Number wraps the counter commands.
type Number struct {
	c *client.Client
}

// Incr adds one and returns the new value.
func (f Number) Incr(key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("INCR", 1).str(key)...)
}

// IncrBy adds delta and returns the new value.
func (f Number) IncrBy(key string, delta int64) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("INCRBY", 2).str(key).int(delta)...)
}

// Decr subtracts one and returns the new value.
func (f Number) Decr(key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("DECR", 1).str(key)...)
}

// DecrBy subtracts delta and returns the new value.
func (f Number) DecrBy(key string, delta int64) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("DECRBY", 2).str(key).int(delta)...)
}

// IncrByFloat adds a float delta and returns the new value.
func (f Number) IncrByFloat(key string, delta float64) (float64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if err := requireFloat("delta", delta); err != nil {
		return 0, err
	}
	return f.c.SendExpectDouble(cmd("INCRBYFLOAT", 2).str(key).float(delta)...)
}
