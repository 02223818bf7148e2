package command

import (
	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// BitOperation is the BITOP operator.
type BitOperation string

const (
	BitAnd BitOperation = "AND"
	BitOr  BitOperation = "OR"
	BitXor BitOperation = "XOR"
	BitNot BitOperation = "NOT"
)

// Bit wraps the bitmap commands.
type Bit struct {
	c *client.Client
}

// BitCount counts set bits in the whole value.
func (f Bit) BitCount(key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("BITCOUNT", 1).str(key)...)
}

// BitCountRange counts set bits between byte offsets start and end.
func (f Bit) BitCountRange(key string, start, end int64) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("BITCOUNT", 3).str(key).int(start).int(end)...)
}

// BitOp stores op over keys in dest and returns the length of dest.
// NOT takes exactly one source key.
func (f Bit) BitOp(op BitOperation, dest string, keys ...string) (int64, error) {
	switch op {
	case BitAnd, BitOr, BitXor:
	case BitNot:
		if len(keys) != 1 {
			return 0, domain.InvalidArgument("keys", "NOT takes exactly one key")
		}
	default:
		return 0, domain.InvalidArgument("op", "must be AND, OR, XOR or NOT")
	}
	if err := requireKey("dest", dest); err != nil {
		return 0, err
	}
	if err := requireKeys("keys", keys); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("BITOP", len(keys)+2).str(string(op), dest).str(keys...)...)
}

// GetBit returns the bit at offset.
func (f Bit) GetBit(key string, offset int64) (int, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, domain.InvalidArgument("offset", "must not be negative")
	}
	return f.c.SendExpectInt(cmd("GETBIT", 2).str(key).int(offset)...)
}

// SetBit sets the bit at offset and returns its previous value.
func (f Bit) SetBit(key string, offset int64, on bool) (int, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, domain.InvalidArgument("offset", "must not be negative")
	}
	v := int64(0)
	if on {
		v = 1
	}
	return f.c.SendExpectInt(cmd("SETBIT", 3).str(key).int(offset).int(v)...)
}
