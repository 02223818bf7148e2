package command

import (
	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// Set wraps the set commands.
type Set struct {
	c *client.Client
}

// SAdd adds members and returns how many were new.
func (f Set) SAdd(key string, members ...[]byte) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, domain.InvalidArgument("members", "at least one is required")
	}
	return f.c.SendExpectLong(cmd("SADD", len(members)+1).str(key).raw(members...)...)
}

// SCard returns the set size.
func (f Set) SCard(key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("SCARD", 1).str(key)...)
}

// SDiff returns the members of the first set missing from the others.
func (f Set) SDiff(keys ...string) ([][]byte, error) {
	return f.combine("SDIFF", keys)
}

// SDiffStore stores SDiff in dest and returns its size.
func (f Set) SDiffStore(dest string, keys ...string) (int64, error) {
	return f.store("SDIFFSTORE", dest, keys)
}

// SInter returns the members present in every set.
func (f Set) SInter(keys ...string) ([][]byte, error) {
	return f.combine("SINTER", keys)
}

// SInterStore stores SInter in dest and returns its size.
func (f Set) SInterStore(dest string, keys ...string) (int64, error) {
	return f.store("SINTERSTORE", dest, keys)
}

// SUnion returns the members of any set.
func (f Set) SUnion(keys ...string) ([][]byte, error) {
	return f.combine("SUNION", keys)
}

// SUnionStore stores SUnion in dest and returns its size.
func (f Set) SUnionStore(dest string, keys ...string) (int64, error) {
	return f.store("SUNIONSTORE", dest, keys)
}

func (f Set) combine(name string, keys []string) ([][]byte, error) {
	if err := requireKeys("keys", keys); err != nil {
		return nil, err
	}
	return f.c.SendExpectMultiData(cmd(name, len(keys)).str(keys...)...)
}

func (f Set) store(name, dest string, keys []string) (int64, error) {
	if err := requireKey("dest", dest); err != nil {
		return 0, err
	}
	if err := requireKeys("keys", keys); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd(name, len(keys)+1).str(dest).str(keys...)...)
}

// SIsMember reports whether member is in the set.
func (f Set) SIsMember(key string, member []byte) (bool, error) {
	if err := requireKey("key", key); err != nil {
		return false, err
	}
	n, err := f.c.SendExpectInt(cmd("SISMEMBER", 2).str(key).raw(member)...)
	return n == 1, err
}

// SMembers returns every member.
func (f Set) SMembers(key string) ([][]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectMultiData(cmd("SMEMBERS", 1).str(key)...)
}

// SMove moves member from src to dst.
func (f Set) SMove(src, dst string, member []byte) (bool, error) {
	if err := requireKey("src", src); err != nil {
		return false, err
	}
	if err := requireKey("dst", dst); err != nil {
		return false, err
	}
	n, err := f.c.SendExpectInt(cmd("SMOVE", 3).str(src, dst).raw(member)...)
	return n == 1, err
}

// SPop removes and returns a random member, or nil when empty.
func (f Set) SPop(key string) ([]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectData(cmd("SPOP", 1).str(key)...)
}

// SRandMember returns up to count random members without removing them.
// A negative count allows repeats.
func (f Set) SRandMember(key string, count int64) ([][]byte, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	return f.c.SendExpectMultiData(cmd("SRANDMEMBER", 2).str(key).int(count)...)
}

// SRem removes members and returns how many were present.
func (f Set) SRem(key string, members ...[]byte) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, domain.InvalidArgument("members", "at least one is required")
	}
	return f.c.SendExpectLong(cmd("SREM", len(members)+1).str(key).raw(members...)...)
}
