package redistest

import (
	"sort"
	"time"
)

type kind int

const (
	kindString kind = iota + 1
	kindHash
	kindList
	kindSet
	kindZSet
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindHash:
		return "hash"
	case kindList:
		return "list"
	case kindSet:
		return "set"
	case kindZSet:
		return "zset"
	default:
		return "none"
	}
}

type entry struct {
	kind     kind
	str      []byte
	hash     map[string][]byte
	list     [][]byte
	set      map[string]struct{}
	zset     map[string]float64
	expireAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// keyspace is one database. Callers hold Server.mu.
type keyspace struct {
	m map[string]*entry
}

func newKeyspace() *keyspace {
	return &keyspace{m: make(map[string]*entry)}
}

func (k *keyspace) get(key string) *entry {
	e, ok := k.m[key]
	if !ok {
		return nil
	}
	if e.expired(time.Now()) {
		delete(k.m, key)
		return nil
	}
	return e
}

// getOrCreate returns the entry of kind, creating it when absent.
// A nil result means the key holds another kind.
func (k *keyspace) getOrCreate(key string, want kind) *entry {
	e := k.get(key)
	if e == nil {
		e = &entry{kind: want}
		switch want {
		case kindHash:
			e.hash = make(map[string][]byte)
		case kindSet:
			e.set = make(map[string]struct{})
		case kindZSet:
			e.zset = make(map[string]float64)
		}
		k.m[key] = e
		return e
	}
	if e.kind != want {
		return nil
	}
	return e
}

func (k *keyspace) setString(key string, v []byte) {
	k.m[key] = &entry{kind: kindString, str: append([]byte(nil), v...)}
}

func (k *keyspace) del(key string) bool {
	if k.get(key) == nil {
		return false
	}
	delete(k.m, key)
	return true
}

// dropEmpty removes container keys left without members.
func (k *keyspace) dropEmpty(key string) {
	e := k.m[key]
	if e == nil {
		return
	}
	empty := false
	switch e.kind {
	case kindHash:
		empty = len(e.hash) == 0
	case kindList:
		empty = len(e.list) == 0
	case kindSet:
		empty = len(e.set) == 0
	case kindZSet:
		empty = len(e.zset) == 0
	}
	if empty {
		delete(k.m, key)
	}
}

func (k *keyspace) keys(pattern string) []string {
	now := time.Now()
	out := make([]string, 0, len(k.m))
	for key, e := range k.m {
		if e.expired(now) {
			continue
		}
		if match(pattern, key) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func (k *keyspace) size() int {
	return len(k.keys("*"))
}

type scored struct {
	member string
	score  float64
}

// sortedMembers orders a zset by score, then member.
func sortedMembers(z map[string]float64) []scored {
	out := make([]scored, 0, len(z))
	for m, s := range z {
		out = append(out, scored{member: m, score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score < out[j].score
		}
		return out[i].member < out[j].member
	})
	return out
}

func sortedSet(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
