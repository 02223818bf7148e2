package command

import (
	"time"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// List wraps the list commands.
type List struct {
	c *client.Client
}

// LPop removes and returns the head, or nil when the list is empty.
func (f List) LPop(key string) ([]byte, error) {
	return f.pop("LPOP", key)
}

// RPop removes and returns the tail, or nil when the list is empty.
func (f List) RPop(key string) ([]byte, error) {
	return f.pop("RPOP", key)
}

func (f List) pop(name, key string) ([]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd(name, 1).str(key)...)
}

// BLPop pops the head of the first non-empty list, waiting up to timeout
// (zero waits forever). ok is false on timeout.
func (f List) BLPop(timeout time.Duration, keys ...string) (key string, value []byte, ok bool, err error) {
	return f.bpop("BLPOP", timeout, keys)
}

// BRPop pops the tail of the first non-empty list, waiting up to timeout.
func (f List) BRPop(timeout time.Duration, keys ...string) (key string, value []byte, ok bool, err error) {
	return f.bpop("BRPOP", timeout, keys)
}

func (f List) bpop(name string, timeout time.Duration, keys []string) (string, []byte, bool, error) {
	if err := requireKeys("keys", keys); err != nil {
		return "", nil, false, err
	}
	secs, err := blockSeconds(timeout)
	if err != nil {
		return "", nil, false, err
	}
	items, err := f.c.SendExpectMultiData(cmd(name, len(keys)+1).str(keys...).int(secs)...)
	if err != nil || items == nil {
		return "", nil, false, err
	}
	if len(items) != 2 {
		return "", nil, false, domain.ErrUnexpectedReply.WithDetailsf("%s reply of %d items", name, len(items))
	}
	return string(items[0]), items[1], true, nil
}

func blockSeconds(timeout time.Duration) (int64, error) {
	if timeout < 0 {
		return 0, domain.InvalidArgument("timeout", "must not be negative")
	}
	secs := int64(timeout / time.Second)
	if timeout%time.Second != 0 {
		secs++
	}
	return secs, nil
}

// RPopLPush moves the tail of src to the head of dst and returns it.
func (f List) RPopLPush(src, dst string) ([]byte, error) {
	if err := requireKey("src", src); err != nil {
		return nil, err
	}
	if err := requireKey("dst", dst); err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd("RPOPLPUSH", 2).str(src, dst)...)
}

// BRPopLPush is RPopLPush that waits up to timeout for src to be
// non-empty. It returns nil on timeout.
func (f List) BRPopLPush(src, dst string, timeout time.Duration) ([]byte, error) {
	if err := requireKey("src", src); err != nil {
		return nil, err
	}
	if err := requireKey("dst", dst); err != nil {
		return nil, err
	}
	secs, err := blockSeconds(timeout)
	if err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd("BRPOPLPUSH", 3).str(src, dst).int(secs)...)
}

// LIndex returns the element at index, or nil when out of range.
func (f List) LIndex(key string, index int64) ([]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd("LINDEX", 2).str(key).int(index)...)
}

// LInsert inserts value before or after pivot and returns the new length,
// or -1 when pivot is absent.
func (f List) LInsert(key string, before bool, pivot, value []byte) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	where := "AFTER"
	if before {
		where = "BEFORE"
	}
	return f.c.SendExpectLong(cmd("LINSERT", 4).str(key, where).raw(pivot, value)...)
}

// LLen returns the list length.
func (f List) LLen(key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("LLEN", 1).str(key)...)
}

// LPush prepends values and returns the new length.
func (f List) LPush(key string, values ...[]byte) (int64, error) {
	return f.push("LPUSH", key, values)
}

// LPushX prepends only when the list exists.
func (f List) LPushX(key string, value []byte) (int64, error) {
	return f.push("LPUSHX", key, [][]byte{value})
}

// RPush appends values and returns the new length.
func (f List) RPush(key string, values ...[]byte) (int64, error) {
	return f.push("RPUSH", key, values)
}

// RPushX appends only when the list exists.
func (f List) RPushX(key string, value []byte) (int64, error) {
	return f.push("RPUSHX", key, [][]byte{value})
}

func (f List) push(name, key string, values [][]byte) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, domain.InvalidArgument("values", "at least one is required")
	}
	return f.c.SendExpectLong(cmd(name, len(values)+1).str(key).raw(values...)...)
}

// LRange returns the elements between start and stop, inclusive.
func (f List) LRange(key string, start, stop int64) ([][]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectMultiData(cmd("LRANGE", 3).str(key).int(start).int(stop)...)
}

// LRem removes count occurrences of value (all when count is 0, from the
// tail when negative) and returns how many were removed.
func (f List) LRem(key string, count int64, value []byte) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("LREM", 3).str(key).int(count).raw(value)...)
}

// LTrim keeps only the elements between start and stop.
func (f List) LTrim(key string, start, stop int64) error {
	if err := requireKey("key", key); err != nil {
		return err
	}
	return f.c.SendExpectOk(cmd("LTRIM", 3).str(key).int(start).int(stop)...)
}

// LSet overwrites the element at index.
func (f List) LSet(key string, index int64, value []byte) error {
	if err := requireKey("key", key); err != nil {
		return err
	}
	return f.c.SendExpectOk(cmd("LSET", 3).str(key).int(index).raw(value)...)
}
