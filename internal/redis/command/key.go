package command

import (
	"time"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// Key wraps the generic key commands.
type Key struct {
	c *client.Client
}

// Del removes keys and returns how many existed.
func (f Key) Del(keys ...string) (int64, error) {
	if err := requireKeys("keys", keys); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("DEL", len(keys)).str(keys...)...)
}

// Type returns the value type stored at key ("none" when absent).
func (f Key) Type(key string) (string, error) {
	if err := requireKey("key", key); err != nil {
		return "", err
	}
	return f.c.SendExpectCode(cmd("TYPE", 1).str(key)...)
}

// Exists reports whether key exists.
func (f Key) Exists(key string) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	n, err := f.c.SendExpectInt(cmd("EXISTS", 1).str(key)...)
	return n > 0, err
}

// Keys returns the keys matching pattern.
func (f Key) Keys(pattern string) ([]string, error) {
	if err := requireKey("pattern", pattern); err != nil {
		return nil, err
	}
	items, err := f.c.SendExpectMultiData(cmd("KEYS", 1).str(pattern)...)
	return toStrings(items), err
}

// RandomKey returns a random key, or "" when the database is empty.
func (f Key) RandomKey() (string, error) {
	return f.c.SendExpectString(cmd("RANDOMKEY", 0)...)
}

// Rename renames key to newKey, overwriting newKey.
func (f Key) Rename(key, newKey string) error {
	if err := requireKey("key", key); err != nil {
		return err
	}
	if err := requireKey("newKey", newKey); err != nil {
		return err
	}
	return f.c.SendExpectOk(cmd("RENAME", 2).str(key, newKey)...)
}

// RenameNX renames key only if newKey does not exist.
func (f Key) RenameNX(key, newKey string) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	if err := requireKey("newKey", newKey); err != nil {
		return false, err
	}
	n, err := f.c.SendExpectInt(cmd("RENAMENX", 2).str(key, newKey)...)
	return n == 1, err
}

// DBSize returns the number of keys in the selected database.
func (f Key) DBSize() (int64, error) {
	return f.c.SendExpectLong(cmd("DBSIZE", 0)...)
}

// Move moves key to database db.
func (f Key) Move(key string, db int) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	if db < 0 {
		return false, domain.InvalidArgument("db", "must not be negative")
	}
	n, err := f.c.SendExpectInt(cmd("MOVE", 2).str(key).int(int64(db))...)
	return n == 1, err
}

// Migrate transfers key to another server.
func (f Key) Migrate(host string, port int, key string, db int, timeout time.Duration) error {
	if err := requireKey("host", host); err != nil {
		return err
	}
	if err := requireKey("key", key); err != nil {
		return err
	}
	if port <= 0 || port > 65535 {
		return domain.InvalidArgument("port", "must be in 1..65535")
	}
	a := cmd("MIGRATE", 5).str(host).int(int64(port)).str(key).int(int64(db)).int(timeout.Milliseconds())
	return f.c.SendExpectOk(a...)
}

// ObjectRefcount returns OBJECT REFCOUNT of key.
func (f Key) ObjectRefcount(key string) (int64, error) {
	return f.object("REFCOUNT", key)
}

// ObjectIdleTime returns how long key has been idle.
func (f Key) ObjectIdleTime(key string) (time.Duration, error) {
	n, err := f.object("IDLETIME", key)
	return time.Duration(n) * time.Second, err
}

// ObjectEncoding returns the internal encoding of key.
func (f Key) ObjectEncoding(key string) (string, error) {
	if err := requireKey("key", key); err != nil {
		return "", err
	}
	return f.c.SendExpectString(cmd("OBJECT", 2).str("ENCODING", key)...)
}

func (f Key) object(sub, key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("OBJECT", 2).str(sub, key)...)
}

// Dump returns the serialized value of key, or nil when absent.
func (f Key) Dump(key string) ([]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd("DUMP", 1).str(key)...)
}

// Restore creates key from a Dump payload. A zero ttl means no expiry.
func (f Key) Restore(key string, ttl time.Duration, payload []byte) error {
	if err := requireKey("key", key); err != nil {
		return err
	}
	if ttl < 0 {
		return domain.InvalidArgument("ttl", "must not be negative")
	}
	return f.c.SendExpectOk(cmd("RESTORE", 3).str(key).int(ttl.Milliseconds()).raw(payload)...)
}
