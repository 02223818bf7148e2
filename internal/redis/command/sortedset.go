package command

import (
	"strconv"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// SortedSet wraps the sorted set commands.
type SortedSet struct {
	c *client.Client
}

// Page selects one page of a range; a zero Size returns everything.
// Index is 1-based.
type Page struct {
	Size  int
	Index int
}

// ZAdd adds or updates members and returns how many were new.
func (f SortedSet) ZAdd(key string, members ...domain.ScoreValue) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, domain.InvalidArgument("members", "at least one is required")
	}
	a := cmd("ZADD", 2*len(members)+1).str(key)
	for _, m := range members {
		if err := requireFloat("score", m.Score); err != nil {
			return 0, err
		}
		a = a.float(m.Score).raw(m.Member)
	}
	return f.c.SendExpectLong(a...)
}

// ZCard returns the number of members.
func (f SortedSet) ZCard(key string) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("ZCARD", 1).str(key)...)
}

// ZCount returns the number of members with min <= score <= max.
func (f SortedSet) ZCount(key string, min, max float64) (int64, error) {
	if err := f.checkRange(key, min, max); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("ZCOUNT", 3).str(key).float(min).float(max)...)
}

// ZIncrBy adds delta to member's score and returns the new score.
func (f SortedSet) ZIncrBy(key string, delta float64, member []byte) (float64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if err := requireFloat("delta", delta); err != nil {
		return 0, err
	}
	return f.c.SendExpectDouble(cmd("ZINCRBY", 3).str(key).float(delta).raw(member)...)
}

// ZRange returns members between ranks start and stop with their scores,
// highest first when desc is set.
func (f SortedSet) ZRange(key string, start, stop int64, desc bool) ([]domain.ScoreValue, error) {
	if err := requireKey("key", key); err != nil {
		return nil, err
	}
	name := "ZRANGE"
	if desc {
		name = "ZREVRANGE"
	}
	items, err := f.c.SendExpectMultiData(cmd(name, 4).str(key).int(start).int(stop).str("WITHSCORES")...)
	if err != nil {
		return nil, err
	}
	return scoreValues(items)
}

// ZRevRange is ZRange with desc set.
func (f SortedSet) ZRevRange(key string, start, stop int64) ([]domain.ScoreValue, error) {
	return f.ZRange(key, start, stop, true)
}

// ZRangeByScore returns members with min <= score <= max and their scores,
// one page at a time. With desc the scores run from max down to min.
func (f SortedSet) ZRangeByScore(key string, min, max float64, page Page, desc bool) ([]domain.ScoreValue, error) {
	if err := f.checkRange(key, min, max); err != nil {
		return nil, err
	}
	if page.Size < 0 {
		return nil, domain.InvalidArgument("page size", "must not be negative")
	}
	a := cmd("ZRANGEBYSCORE", 7).str(key).float(min).float(max)
	if desc {
		a = cmd("ZREVRANGEBYSCORE", 7).str(key).float(max).float(min)
	}
	a = a.str("WITHSCORES")
	if page.Size > 0 {
		a = a.str("LIMIT").int(offset(page.Size, page.Index)).int(int64(page.Size))
	}
	items, err := f.c.SendExpectMultiData(a...)
	if err != nil {
		return nil, err
	}
	return scoreValues(items)
}

// ZRank returns the 0-based rank of member, or -1 when it is absent.
func (f SortedSet) ZRank(key string, member []byte) (int64, error) {
	return f.rank("ZRANK", key, member)
}

// ZRevRank returns the rank of member counting from the highest score,
// or -1 when it is absent.
func (f SortedSet) ZRevRank(key string, member []byte) (int64, error) {
	return f.rank("ZREVRANK", key, member)
}

func (f SortedSet) rank(name, key string, member []byte) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectRank(cmd(name, 2).str(key).raw(member)...)
}

// ZScore returns member's score, or NaN when it is absent.
func (f SortedSet) ZScore(key string, member []byte) (float64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectDouble(cmd("ZSCORE", 2).str(key).raw(member)...)
}

// ZRem removes members and returns how many were present.
func (f SortedSet) ZRem(key string, members ...[]byte) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, domain.InvalidArgument("members", "at least one is required")
	}
	return f.c.SendExpectLong(cmd("ZREM", len(members)+1).str(key).raw(members...)...)
}

// ZRemRangeByRank removes members between ranks start and stop.
func (f SortedSet) ZRemRangeByRank(key string, start, stop int64) (int64, error) {
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("ZREMRANGEBYRANK", 3).str(key).int(start).int(stop)...)
}

// ZRemRangeByScore removes members with min <= score <= max.
func (f SortedSet) ZRemRangeByScore(key string, min, max float64) (int64, error) {
	if err := f.checkRange(key, min, max); err != nil {
		return 0, err
	}
	return f.c.SendExpectLong(cmd("ZREMRANGEBYSCORE", 3).str(key).float(min).float(max)...)
}

// ZUnionStore stores the union of keys in dest and returns its size.
func (f SortedSet) ZUnionStore(dest string, agg domain.Aggregate, keys ...string) (int64, error) {
	return f.store("ZUNIONSTORE", dest, agg, keys)
}

// ZInterStore stores the intersection of keys in dest and returns its size.
func (f SortedSet) ZInterStore(dest string, agg domain.Aggregate, keys ...string) (int64, error) {
	return f.store("ZINTERSTORE", dest, agg, keys)
}

func (f SortedSet) store(name, dest string, agg domain.Aggregate, keys []string) (int64, error) {
	if err := requireKey("dest", dest); err != nil {
		return 0, err
	}
	if err := requireKeys("keys", keys); err != nil {
		return 0, err
	}
	a := cmd(name, len(keys)+4).str(dest).int(int64(len(keys))).str(keys...).str("AGGREGATE", agg.Token())
	return f.c.SendExpectLong(a...)
}

func (f SortedSet) checkRange(key string, min, max float64) error {
	if err := requireKey("key", key); err != nil {
		return err
	}
	if err := requireFloat("min", min); err != nil {
		return err
	}
	return requireFloat("max", max)
}

// scoreValues folds a member/score WITHSCORES reply.
func scoreValues(items [][]byte) ([]domain.ScoreValue, error) {
	if len(items)%2 != 0 {
		return nil, domain.ErrUnexpectedReply.WithDetailsf("odd WITHSCORES reply of %d items", len(items))
	}
	out := make([]domain.ScoreValue, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		score, err := strconv.ParseFloat(string(items[i+1]), 64)
		if err != nil {
			return nil, domain.ErrProtocol.WithDetailsf("non-numeric score %q", items[i+1])
		}
		out = append(out, domain.ScoreValue{Member: items[i], Score: score})
	}
	return out, nil
}
