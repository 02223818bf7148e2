package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/client"
)

// Server wraps the server administration commands.
type Server struct {
	c *client.Client
}

// BgRewriteAOF starts an append-only file rewrite.
func (f Server) BgRewriteAOF() (string, error) {
	return f.c.SendExpectString(cmd("BGREWRITEAOF", 0)...)
}

// Save writes a snapshot synchronously.
func (f Server) Save() error {
	return f.c.SendExpectOk(cmd("SAVE", 0)...)
}

// BgSave starts a background snapshot.
func (f Server) BgSave() (string, error) {
	return f.c.SendExpectString(cmd("BGSAVE", 0)...)
}

// ClientGetName returns the connection name, or "" when unset.
func (f Server) ClientGetName() (string, error) {
	return f.c.SendExpectString(cmd("CLIENT", 1).str("GETNAME")...)
}

// ClientSetName names the connection.
func (f Server) ClientSetName(name string) error {
	if strings.ContainsAny(name, " \n") {
		return domain.InvalidArgument("name", "must not contain spaces or newlines")
	}
	return f.c.SendExpectOk(cmd("CLIENT", 2).str("SETNAME", name)...)
}

// ClientKill closes the client connected from addr ("ip:port").
func (f Server) ClientKill(addr string) error {
	if err := requireKey("addr", addr); err != nil {
		return err
	}
	return f.c.SendExpectOk(cmd("CLIENT", 2).str("KILL", addr)...)
}

// ClientList returns one line per connected client.
func (f Server) ClientList() ([]string, error) {
	s, err := f.c.SendExpectString(cmd("CLIENT", 1).str("LIST")...)
	if err != nil {
		return nil, err
	}
	return splitLines(s), nil
}

// ConfigGet returns the parameters matching pattern.
func (f Server) ConfigGet(pattern string) ([]domain.KeyValue, error) {
	if err := requireKey("pattern", pattern); err != nil {
		return nil, err
	}
	items, err := f.c.SendExpectMultiData(cmd("CONFIG", 2).str("GET", pattern)...)
	if err != nil {
		return nil, err
	}
	return pairs(items)
}

// ConfigSet changes a parameter at runtime.
func (f Server) ConfigSet(param, value string) error {
	if err := requireKey("param", param); err != nil {
		return err
	}
	return f.c.SendExpectOk(cmd("CONFIG", 3).str("SET", param, value)...)
}

// ConfigResetStat resets the INFO statistics.
func (f Server) ConfigResetStat() error {
	return f.c.SendExpectOk(cmd("CONFIG", 1).str("RESETSTAT")...)
}

// ConfigRewrite writes the running configuration back to its file.
func (f Server) ConfigRewrite() error {
	return f.c.SendExpectOk(cmd("CONFIG", 1).str("REWRITE")...)
}

// FlushAll removes every key of every database.
func (f Server) FlushAll() error {
	return f.c.SendExpectOk(cmd("FLUSHALL", 0)...)
}

// FlushDB removes every key of the selected database.
func (f Server) FlushDB() error {
	return f.c.SendExpectOk(cmd("FLUSHDB", 0)...)
}

// Info returns the INFO text, optionally for one section.
func (f Server) Info(section string) (string, error) {
	a := cmd("INFO", 1)
	if section != "" {
		a = a.str(section)
	}
	return f.c.SendExpectString(a...)
}

// InfoMap parses Info into key/value pairs, skipping section headers.
func (f Server) InfoMap(section string) (map[string]string, error) {
	s, err := f.Info(section)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, line := range splitLines(s) {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if k, v, ok := strings.Cut(line, ":"); ok {
			out[k] = v
		}
	}
	return out, nil
}

// LastSave returns the time of the last successful snapshot.
func (f Server) LastSave() (time.Time, error) {
	n, err := f.c.SendExpectLong(cmd("LASTSAVE", 0)...)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(n, 0), nil
}

// SlowlogGet returns up to limit slow log entries (all when limit <= 0)
// as nested arrays.
func (f Server) SlowlogGet(limit int) ([]any, error) {
	a := cmd("SLOWLOG", 2).str("GET")
	if limit > 0 {
		a = a.int(int64(limit))
	}
	return f.c.SendExpectDeeplyNestedMultiData(a...)
}

// SlowlogLen returns the slow log length.
func (f Server) SlowlogLen() (int64, error) {
	return f.c.SendExpectLong(cmd("SLOWLOG", 1).str("LEN")...)
}

// SlowlogReset empties the slow log.
func (f Server) SlowlogReset() error {
	return f.c.SendExpectOk(cmd("SLOWLOG", 1).str("RESET")...)
}

// Time returns the server clock.
func (f Server) Time() (time.Time, error) {
	items, err := f.c.SendExpectMultiData(cmd("TIME", 0)...)
	if err != nil {
		return time.Time{}, err
	}
	if len(items) != 2 {
		return time.Time{}, domain.ErrUnexpectedReply.WithDetailsf("TIME reply of %d items", len(items))
	}
	sec, err1 := strconv.ParseInt(string(items[0]), 10, 64)
	usec, err2 := strconv.ParseInt(string(items[1]), 10, 64)
	if err1 != nil || err2 != nil {
		return time.Time{}, domain.ErrProtocol.WithDetailsf("non-numeric TIME reply %q", items)
	}
	return time.Unix(sec, usec*int64(time.Microsecond)), nil
}

// DebugObject returns the DEBUG OBJECT line for key.
func (f Server) DebugObject(key string) (string, error) {
	if err := requireKey("key", key); err != nil {
		return "", err
	}
	return f.c.SendExpectString(cmd("DEBUG", 2).str("OBJECT", key)...)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
