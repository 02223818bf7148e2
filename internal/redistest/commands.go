package redistest

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	errWrongType = "WRONGTYPE Operation against a key holding the wrong kind of value"
	errNotInt    = "ERR value is not an integer or out of range"
	errNotFloat  = "ERR value is not a valid float"
	errSyntax    = "ERR syntax error"
	errNoKey     = "ERR no such key"
)

type cmdFunc func(s *Server, c *Conn, args [][]byte)

type command struct {
	fn cmdFunc
	// arity follows the server convention: positive means exact,
	// negative means at least -arity, both counting the command name.
	arity int
	// unlocked commands take Server.mu themselves.
	unlocked bool
}

var commands map[string]command

func init() {
	commands = map[string]command{
		// Connection
		"PING":   {fn: cmdPing, arity: -1},
		"ECHO":   {fn: cmdEcho, arity: 2},
		"AUTH":   {fn: cmdAuth, arity: 2},
		"SELECT": {fn: cmdSelect, arity: 2},
		"QUIT":   {fn: cmdQuit, arity: 1},

		// Keys
		"DEL":       {fn: cmdDel, arity: -2},
		"EXISTS":    {fn: cmdExists, arity: -2},
		"TYPE":      {fn: cmdType, arity: 2},
		"KEYS":      {fn: cmdKeys, arity: 2},
		"RANDOMKEY": {fn: cmdRandomKey, arity: 1},
		"RENAME":    {fn: cmdRename, arity: 3},
		"RENAMENX":  {fn: cmdRenameNX, arity: 3},
		"DBSIZE":    {fn: cmdDBSize, arity: 1},
		"FLUSHDB":   {fn: cmdFlushDB, arity: -1},
		"FLUSHALL":  {fn: cmdFlushAll, arity: -1},
		"MOVE":      {fn: cmdMove, arity: 3},
		"EXPIRE":    {fn: cmdExpire(time.Second, false), arity: 3},
		"PEXPIRE":   {fn: cmdExpire(time.Millisecond, false), arity: 3},
		"EXPIREAT":  {fn: cmdExpire(time.Second, true), arity: 3},
		"PEXPIREAT": {fn: cmdExpire(time.Millisecond, true), arity: 3},
		"PERSIST":   {fn: cmdPersist, arity: 2},
		"TTL":       {fn: cmdTTL(time.Second), arity: 2},
		"PTTL":      {fn: cmdTTL(time.Millisecond), arity: 2},

		// Strings
		"GET":         {fn: cmdGet, arity: 2},
		"SET":         {fn: cmdSet, arity: -3},
		"GETSET":      {fn: cmdGetSet, arity: 3},
		"MGET":        {fn: cmdMGet, arity: -2},
		"MSET":        {fn: cmdMSet(false), arity: -3},
		"MSETNX":      {fn: cmdMSet(true), arity: -3},
		"APPEND":      {fn: cmdAppend, arity: 3},
		"STRLEN":      {fn: cmdStrLen, arity: 2},
		"GETRANGE":    {fn: cmdGetRange, arity: 4},
		"INCR":        {fn: cmdIncrBy(1, false), arity: 2},
		"DECR":        {fn: cmdIncrBy(-1, false), arity: 2},
		"INCRBY":      {fn: cmdIncrBy(1, true), arity: 3},
		"DECRBY":      {fn: cmdIncrBy(-1, true), arity: 3},
		"INCRBYFLOAT": {fn: cmdIncrByFloat, arity: 3},

		// Hashes
		"HSET":         {fn: cmdHSet, arity: -4},
		"HMSET":        {fn: cmdHMSet, arity: -4},
		"HSETNX":       {fn: cmdHSetNX, arity: 4},
		"HGET":         {fn: cmdHGet, arity: 3},
		"HMGET":        {fn: cmdHMGet, arity: -3},
		"HDEL":         {fn: cmdHDel, arity: -3},
		"HEXISTS":      {fn: cmdHExists, arity: 3},
		"HGETALL":      {fn: cmdHGetAll, arity: 2},
		"HKEYS":        {fn: cmdHKeys, arity: 2},
		"HVALS":        {fn: cmdHVals, arity: 2},
		"HLEN":         {fn: cmdHLen, arity: 2},
		"HINCRBY":      {fn: cmdHIncrBy, arity: 4},
		"HINCRBYFLOAT": {fn: cmdHIncrByFloat, arity: 4},

		// Lists
		"LPUSH":      {fn: cmdPush(true, false), arity: -3},
		"RPUSH":      {fn: cmdPush(false, false), arity: -3},
		"LPUSHX":     {fn: cmdPush(true, true), arity: -3},
		"RPUSHX":     {fn: cmdPush(false, true), arity: -3},
		"LPOP":       {fn: cmdPop(true), arity: 2},
		"RPOP":       {fn: cmdPop(false), arity: 2},
		"LLEN":       {fn: cmdLLen, arity: 2},
		"LRANGE":     {fn: cmdLRange, arity: 4},
		"LINDEX":     {fn: cmdLIndex, arity: 3},
		"RPOPLPUSH":  {fn: cmdRPopLPush, arity: 3},
		"BRPOPLPUSH": {fn: cmdBRPopLPush, arity: 4, unlocked: true},
		"BLPOP":      {fn: cmdBPop(true), arity: -3, unlocked: true},
		"BRPOP":      {fn: cmdBPop(false), arity: -3, unlocked: true},

		// Sets
		"SADD":      {fn: cmdSAdd, arity: -3},
		"SREM":      {fn: cmdSRem, arity: -3},
		"SMEMBERS":  {fn: cmdSMembers, arity: 2},
		"SCARD":     {fn: cmdSCard, arity: 2},
		"SISMEMBER": {fn: cmdSIsMember, arity: 3},

		// Sorted sets
		"ZADD":      {fn: cmdZAdd, arity: -4},
		"ZSCORE":    {fn: cmdZScore, arity: 3},
		"ZINCRBY":   {fn: cmdZIncrBy, arity: 4},
		"ZCARD":     {fn: cmdZCard, arity: 2},
		"ZRANK":     {fn: cmdZRank(false), arity: 3},
		"ZREVRANK":  {fn: cmdZRank(true), arity: 3},
		"ZRANGE":    {fn: cmdZRange(false), arity: -4},
		"ZREVRANGE": {fn: cmdZRange(true), arity: -4},
		"ZREM":      {fn: cmdZRem, arity: -3},

		// Pub/sub
		"SUBSCRIBE":    {fn: cmdSubscribe(false), arity: -2},
		"PSUBSCRIBE":   {fn: cmdSubscribe(true), arity: -2},
		"UNSUBSCRIBE":  {fn: cmdUnsubscribe(false), arity: -1},
		"PUNSUBSCRIBE": {fn: cmdUnsubscribe(true), arity: -1},
		"PUBLISH":      {fn: cmdPublish, arity: 3, unlocked: true},
		"PUBSUB":       {fn: cmdPubSub, arity: -2},

		// Transactions
		"MULTI":   {fn: cmdMulti, arity: 1},
		"EXEC":    {fn: cmdExec, arity: 1, unlocked: true},
		"DISCARD": {fn: cmdDiscard, arity: 1},
		"WATCH":   {fn: cmdOK, arity: -2},
		"UNWATCH": {fn: cmdOK, arity: 1},

		// Server
		"TIME":   {fn: cmdTime, arity: 1},
		"INFO":   {fn: cmdInfo, arity: -1},
		"CLIENT": {fn: cmdClient, arity: -2},
		"CONFIG": {fn: cmdConfig, arity: -2},
	}
}

// dispatch runs one command. c.mu is held by the caller.
func (s *Server) dispatch(c *Conn, args [][]byte) {
	name := normalizeCommandName(args[0])

	s.mu.Lock()
	logged := make([]string, len(args))
	for i, a := range args {
		logged[i] = string(a)
	}
	s.received = append(s.received, logged)
	hook := s.handlers[name]
	s.mu.Unlock()

	if hook != nil {
		hook(c, args)
		return
	}

	if !c.authed && name != "AUTH" && name != "PING" && name != "QUIT" {
		c.WriteError("NOAUTH Authentication required.")
		return
	}

	if len(c.channels)+len(c.patterns) > 0 {
		switch name {
		case "SUBSCRIBE", "PSUBSCRIBE", "UNSUBSCRIBE", "PUNSUBSCRIBE", "PING", "QUIT":
		default:
			c.WriteError("ERR only (P)SUBSCRIBE / (P)UNSUBSCRIBE / PING / QUIT allowed in this context")
			return
		}
	}

	if c.inMulti {
		switch name {
		case "EXEC", "DISCARD", "MULTI", "WATCH", "QUIT":
		default:
			if _, ok := commands[name]; !ok {
				c.WriteError("ERR unknown command '" + name + "'")
				return
			}
			c.queued = append(c.queued, args)
			c.WriteStatus("QUEUED")
			return
		}
	}

	s.execute(c, name, args)
}

func (s *Server) execute(c *Conn, name string, args [][]byte) {
	cmd, ok := commands[name]
	if !ok {
		c.WriteError("ERR unknown command '" + name + "'")
		return
	}
	if (cmd.arity > 0 && len(args) != cmd.arity) || (cmd.arity < 0 && len(args) < -cmd.arity) {
		c.WriteError("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
		return
	}
	if cmd.unlocked {
		cmd.fn(s, c, args)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd.fn(s, c, args)
}

func parseInt(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	return n, err == nil
}

func parseFloat(b []byte) (float64, bool) {
	s := strings.ToLower(string(b))
	switch s {
	case "+inf", "inf":
		return math.Inf(1), true
	case "-inf":
		return math.Inf(-1), true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil && !math.IsNaN(f)
}

func formatFloat(f float64) []byte {
	switch {
	case math.IsInf(f, 1):
		return []byte("inf")
	case math.IsInf(f, -1):
		return []byte("-inf")
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64)
}

// normRange clamps an inclusive index range over n elements.
func normRange(start, stop int64, n int) (int, int, bool) {
	if start < 0 {
		start += int64(n)
	}
	if stop < 0 {
		stop += int64(n)
	}
	if start < 0 {
		start = 0
	}
	if stop >= int64(n) {
		stop = int64(n) - 1
	}
	if start > stop || start >= int64(n) {
		return 0, 0, false
	}
	return int(start), int(stop), true
}

// ============================================================================
// Connection
// ============================================================================

func cmdPing(_ *Server, c *Conn, args [][]byte) {
	if len(args) > 1 {
		c.WriteBulk(args[1])
		return
	}
	c.WriteStatus("PONG")
}

func cmdEcho(_ *Server, c *Conn, args [][]byte) {
	c.WriteBulk(args[1])
}

func cmdAuth(s *Server, c *Conn, args [][]byte) {
	if s.cfg.Password == "" {
		c.WriteError("ERR Client sent AUTH, but no password is set")
		return
	}
	if string(args[1]) != s.cfg.Password {
		c.authed = false
		c.WriteError("ERR invalid password")
		return
	}
	c.authed = true
	c.WriteStatus("OK")
}

func cmdSelect(_ *Server, c *Conn, args [][]byte) {
	n, ok := parseInt(args[1])
	if !ok {
		c.WriteError(errNotInt)
		return
	}
	if n < 0 || n > 15 {
		c.WriteError("ERR DB index is out of range")
		return
	}
	c.db = int(n)
	c.WriteStatus("OK")
}

func cmdQuit(_ *Server, c *Conn, _ [][]byte) {
	c.quit = true
	c.WriteStatus("OK")
}

func cmdOK(_ *Server, c *Conn, _ [][]byte) {
	c.WriteStatus("OK")
}

// ============================================================================
// Keys
// ============================================================================

func cmdDel(s *Server, c *Conn, args [][]byte) {
	ks := s.db(c.db)
	var n int64
	for _, k := range args[1:] {
		if ks.del(string(k)) {
			n++
		}
	}
	c.WriteInt(n)
}

func cmdExists(s *Server, c *Conn, args [][]byte) {
	ks := s.db(c.db)
	var n int64
	for _, k := range args[1:] {
		if ks.get(string(k)) != nil {
			n++
		}
	}
	c.WriteInt(n)
}

func cmdType(s *Server, c *Conn, args [][]byte) {
	e := s.db(c.db).get(string(args[1]))
	if e == nil {
		c.WriteStatus("none")
		return
	}
	c.WriteStatus(e.kind.String())
}

func cmdKeys(s *Server, c *Conn, args [][]byte) {
	keys := s.db(c.db).keys(string(args[1]))
	items := make([][]byte, len(keys))
	for i, k := range keys {
		items[i] = []byte(k)
	}
	c.WriteBulks(items)
}

func cmdRandomKey(s *Server, c *Conn, _ [][]byte) {
	keys := s.db(c.db).keys("*")
	if len(keys) == 0 {
		c.WriteBulk(nil)
		return
	}
	c.WriteBulk([]byte(keys[0]))
}

func cmdRename(s *Server, c *Conn, args [][]byte) {
	ks := s.db(c.db)
	e := ks.get(string(args[1]))
	if e == nil {
		c.WriteError(errNoKey)
		return
	}
	delete(ks.m, string(args[1]))
	ks.m[string(args[2])] = e
	c.WriteStatus("OK")
}

func cmdRenameNX(s *Server, c *Conn, args [][]byte) {
	ks := s.db(c.db)
	e := ks.get(string(args[1]))
	if e == nil {
		c.WriteError(errNoKey)
		return
	}
	if ks.get(string(args[2])) != nil {
		c.WriteInt(0)
		return
	}
	delete(ks.m, string(args[1]))
	ks.m[string(args[2])] = e
	c.WriteInt(1)
}

func cmdDBSize(s *Server, c *Conn, _ [][]byte) {
	c.WriteInt(int64(s.db(c.db).size()))
}

func cmdFlushDB(s *Server, c *Conn, _ [][]byte) {
	s.dbs[c.db] = newKeyspace()
	c.WriteStatus("OK")
}

func cmdFlushAll(s *Server, c *Conn, _ [][]byte) {
	for n := range s.dbs {
		s.dbs[n] = newKeyspace()
	}
	c.WriteStatus("OK")
}

func cmdMove(s *Server, c *Conn, args [][]byte) {
	n, ok := parseInt(args[2])
	if !ok {
		c.WriteError(errNotInt)
		return
	}
	src, dst := s.db(c.db), s.db(int(n))
	key := string(args[1])
	e := src.get(key)
	if e == nil || dst.get(key) != nil || int(n) == c.db {
		c.WriteInt(0)
		return
	}
	delete(src.m, key)
	dst.m[key] = e
	c.WriteInt(1)
}

func cmdExpire(unit time.Duration, absolute bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		n, ok := parseInt(args[2])
		if !ok {
			c.WriteError(errNotInt)
			return
		}
		ks := s.db(c.db)
		key := string(args[1])
		e := ks.get(key)
		if e == nil {
			c.WriteInt(0)
			return
		}
		var at time.Time
		if absolute {
			at = time.Unix(0, 0).Add(time.Duration(n) * unit)
		} else {
			at = time.Now().Add(time.Duration(n) * unit)
		}
		if !at.After(time.Now()) {
			delete(ks.m, key)
		} else {
			e.expireAt = at
		}
		c.WriteInt(1)
	}
}

func cmdPersist(s *Server, c *Conn, args [][]byte) {
	e := s.db(c.db).get(string(args[1]))
	if e == nil || e.expireAt.IsZero() {
		c.WriteInt(0)
		return
	}
	e.expireAt = time.Time{}
	c.WriteInt(1)
}

func cmdTTL(unit time.Duration) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		e := s.db(c.db).get(string(args[1]))
		switch {
		case e == nil:
			c.WriteInt(-2)
		case e.expireAt.IsZero():
			c.WriteInt(-1)
		default:
			left := time.Until(e.expireAt)
			c.WriteInt(int64((left + unit/2) / unit))
		}
	}
}

// ============================================================================
// Strings
// ============================================================================

func (s *Server) stringOf(c *Conn, key []byte) ([]byte, bool) {
	e := s.db(c.db).get(string(key))
	if e == nil {
		return nil, true
	}
	if e.kind != kindString {
		c.WriteError(errWrongType)
		return nil, false
	}
	return e.str, true
}

func cmdGet(s *Server, c *Conn, args [][]byte) {
	v, ok := s.stringOf(c, args[1])
	if !ok {
		return
	}
	c.WriteBulk(v)
}

func cmdSet(s *Server, c *Conn, args [][]byte) {
	var (
		ttl      time.Duration
		nx, xx   bool
		key, val = string(args[1]), args[2]
	)
	for i := 3; i < len(args); i++ {
		switch strings.ToUpper(string(args[i])) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "EX", "PX":
			if i+1 >= len(args) {
				c.WriteError(errSyntax)
				return
			}
			n, ok := parseInt(args[i+1])
			if !ok || n <= 0 {
				c.WriteError("ERR invalid expire time in 'set' command")
				return
			}
			unit := time.Second
			if strings.EqualFold(string(args[i]), "PX") {
				unit = time.Millisecond
			}
			ttl = time.Duration(n) * unit
			i++
		default:
			c.WriteError(errSyntax)
			return
		}
	}
	if nx && xx {
		c.WriteError(errSyntax)
		return
	}

	ks := s.db(c.db)
	exists := ks.get(key) != nil
	if (nx && exists) || (xx && !exists) {
		c.WriteBulk(nil)
		return
	}
	ks.setString(key, val)
	if ttl > 0 {
		ks.m[key].expireAt = time.Now().Add(ttl)
	}
	c.WriteStatus("OK")
}

func cmdGetSet(s *Server, c *Conn, args [][]byte) {
	old, ok := s.stringOf(c, args[1])
	if !ok {
		return
	}
	s.db(c.db).setString(string(args[1]), args[2])
	c.WriteBulk(old)
}

func cmdMGet(s *Server, c *Conn, args [][]byte) {
	ks := s.db(c.db)
	items := make([][]byte, 0, len(args)-1)
	for _, k := range args[1:] {
		e := ks.get(string(k))
		if e == nil || e.kind != kindString {
			items = append(items, nil)
			continue
		}
		items = append(items, e.str)
	}
	c.WriteBulks(items)
}

func cmdMSet(onlyNew bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		if len(args)%2 != 1 {
			c.WriteError("ERR wrong number of arguments for '" + strings.ToLower(string(args[0])) + "' command")
			return
		}
		ks := s.db(c.db)
		if onlyNew {
			for i := 1; i < len(args); i += 2 {
				if ks.get(string(args[i])) != nil {
					c.WriteInt(0)
					return
				}
			}
		}
		for i := 1; i < len(args); i += 2 {
			ks.setString(string(args[i]), args[i+1])
		}
		if onlyNew {
			c.WriteInt(1)
			return
		}
		c.WriteStatus("OK")
	}
}

func cmdAppend(s *Server, c *Conn, args [][]byte) {
	v, ok := s.stringOf(c, args[1])
	if !ok {
		return
	}
	v = append(append([]byte(nil), v...), args[2]...)
	s.db(c.db).setString(string(args[1]), v)
	c.WriteInt(int64(len(v)))
}

func cmdStrLen(s *Server, c *Conn, args [][]byte) {
	v, ok := s.stringOf(c, args[1])
	if !ok {
		return
	}
	c.WriteInt(int64(len(v)))
}

func cmdGetRange(s *Server, c *Conn, args [][]byte) {
	start, ok1 := parseInt(args[2])
	stop, ok2 := parseInt(args[3])
	if !ok1 || !ok2 {
		c.WriteError(errNotInt)
		return
	}
	v, ok := s.stringOf(c, args[1])
	if !ok {
		return
	}
	from, to, ok := normRange(start, stop, len(v))
	if !ok {
		c.WriteBulk([]byte{})
		return
	}
	c.WriteBulk(v[from : to+1])
}

func cmdIncrBy(sign int64, withArg bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		delta := int64(1)
		if withArg {
			n, ok := parseInt(args[2])
			if !ok {
				c.WriteError(errNotInt)
				return
			}
			delta = n
		}
		v, ok := s.stringOf(c, args[1])
		if !ok {
			return
		}
		var cur int64
		if v != nil {
			if cur, ok = parseInt(v); !ok {
				c.WriteError(errNotInt)
				return
			}
		}
		cur += sign * delta
		s.db(c.db).setString(string(args[1]), strconv.AppendInt(nil, cur, 10))
		c.WriteInt(cur)
	}
}

func cmdIncrByFloat(s *Server, c *Conn, args [][]byte) {
	delta, ok := parseFloat(args[2])
	if !ok {
		c.WriteError(errNotFloat)
		return
	}
	v, ok := s.stringOf(c, args[1])
	if !ok {
		return
	}
	var cur float64
	if v != nil {
		if cur, ok = parseFloat(v); !ok {
			c.WriteError(errNotFloat)
			return
		}
	}
	out := formatFloat(cur + delta)
	s.db(c.db).setString(string(args[1]), out)
	c.WriteBulk(out)
}

// ============================================================================
// Hashes
// ============================================================================

// hashOf returns the hash at key; create makes it when absent.
// A nil map with ok=true means the key does not exist.
func (s *Server) hashOf(c *Conn, key []byte, create bool) (map[string][]byte, bool) {
	ks := s.db(c.db)
	if create {
		e := ks.getOrCreate(string(key), kindHash)
		if e == nil {
			c.WriteError(errWrongType)
			return nil, false
		}
		return e.hash, true
	}
	e := ks.get(string(key))
	if e == nil {
		return nil, true
	}
	if e.kind != kindHash {
		c.WriteError(errWrongType)
		return nil, false
	}
	return e.hash, true
}

func cmdHSet(s *Server, c *Conn, args [][]byte) {
	if len(args)%2 != 0 {
		c.WriteError("ERR wrong number of arguments for 'hset' command")
		return
	}
	h, ok := s.hashOf(c, args[1], true)
	if !ok {
		return
	}
	var added int64
	for i := 2; i < len(args); i += 2 {
		if _, exists := h[string(args[i])]; !exists {
			added++
		}
		h[string(args[i])] = args[i+1]
	}
	c.WriteInt(added)
}

func cmdHMSet(s *Server, c *Conn, args [][]byte) {
	if len(args)%2 != 0 {
		c.WriteError("ERR wrong number of arguments for 'hmset' command")
		return
	}
	h, ok := s.hashOf(c, args[1], true)
	if !ok {
		return
	}
	for i := 2; i < len(args); i += 2 {
		h[string(args[i])] = args[i+1]
	}
	c.WriteStatus("OK")
}

func cmdHSetNX(s *Server, c *Conn, args [][]byte) {
	h, ok := s.hashOf(c, args[1], true)
	if !ok {
		return
	}
	if _, exists := h[string(args[2])]; exists {
		c.WriteInt(0)
		return
	}
	h[string(args[2])] = args[3]
	c.WriteInt(1)
}

func cmdHGet(s *Server, c *Conn, args [][]byte) {
	h, ok := s.hashOf(c, args[1], false)
	if !ok {
		return
	}
	c.WriteBulk(h[string(args[2])])
}

func cmdHMGet(s *Server, c *Conn, args [][]byte) {
	h, ok := s.hashOf(c, args[1], false)
	if !ok {
		return
	}
	items := make([][]byte, 0, len(args)-2)
	for _, f := range args[2:] {
		items = append(items, h[string(f)])
	}
	c.WriteBulks(items)
}

func cmdHDel(s *Server, c *Conn, args [][]byte) {
	h, ok := s.hashOf(c, args[1], false)
	if !ok {
		return
	}
	var n int64
	for _, f := range args[2:] {
		if _, exists := h[string(f)]; exists {
			delete(h, string(f))
			n++
		}
	}
	s.db(c.db).dropEmpty(string(args[1]))
	c.WriteInt(n)
}

func cmdHExists(s *Server, c *Conn, args [][]byte) {
	h, ok := s.hashOf(c, args[1], false)
	if !ok {
		return
	}
	if _, exists := h[string(args[2])]; exists {
		c.WriteInt(1)
		return
	}
	c.WriteInt(0)
}

func sortedFields(h map[string][]byte) []string {
	set := make(map[string]struct{}, len(h))
	for f := range h {
		set[f] = struct{}{}
	}
	return sortedSet(set)
}

func cmdHGetAll(s *Server, c *Conn, args [][]byte) {
	h, ok := s.hashOf(c, args[1], false)
	if !ok {
		return
	}
	items := make([][]byte, 0, 2*len(h))
	for _, f := range sortedFields(h) {
		items = append(items, []byte(f), h[f])
	}
	c.WriteBulks(items)
}

func cmdHKeys(s *Server, c *Conn, args [][]byte) {
	h, ok := s.hashOf(c, args[1], false)
	if !ok {
		return
	}
	items := make([][]byte, 0, len(h))
	for _, f := range sortedFields(h) {
		items = append(items, []byte(f))
	}
	c.WriteBulks(items)
}

func cmdHVals(s *Server, c *Conn, args [][]byte) {
	h, ok := s.hashOf(c, args[1], false)
	if !ok {
		return
	}
	items := make([][]byte, 0, len(h))
	for _, f := range sortedFields(h) {
		items = append(items, h[f])
	}
	c.WriteBulks(items)
}

func cmdHLen(s *Server, c *Conn, args [][]byte) {
	h, ok := s.hashOf(c, args[1], false)
	if !ok {
		return
	}
	c.WriteInt(int64(len(h)))
}

func cmdHIncrBy(s *Server, c *Conn, args [][]byte) {
	delta, ok := parseInt(args[3])
	if !ok {
		c.WriteError(errNotInt)
		return
	}
	h, ok := s.hashOf(c, args[1], true)
	if !ok {
		return
	}
	var cur int64
	if v, exists := h[string(args[2])]; exists {
		if cur, ok = parseInt(v); !ok {
			c.WriteError("ERR hash value is not an integer")
			return
		}
	}
	cur += delta
	h[string(args[2])] = strconv.AppendInt(nil, cur, 10)
	c.WriteInt(cur)
}

func cmdHIncrByFloat(s *Server, c *Conn, args [][]byte) {
	delta, ok := parseFloat(args[3])
	if !ok {
		c.WriteError(errNotFloat)
		return
	}
	h, ok := s.hashOf(c, args[1], true)
	if !ok {
		return
	}
	var cur float64
	if v, exists := h[string(args[2])]; exists {
		if cur, ok = parseFloat(v); !ok {
			c.WriteError("ERR hash value is not a float")
			return
		}
	}
	out := formatFloat(cur + delta)
	h[string(args[2])] = out
	c.WriteBulk(out)
}

// ============================================================================
// Lists
// ============================================================================

func (s *Server) listOf(c *Conn, key []byte) (*entry, bool) {
	e := s.db(c.db).get(string(key))
	if e == nil {
		return nil, true
	}
	if e.kind != kindList {
		c.WriteError(errWrongType)
		return nil, false
	}
	return e, true
}

func cmdPush(left, onlyExisting bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		e, ok := s.listOf(c, args[1])
		if !ok {
			return
		}
		if e == nil {
			if onlyExisting {
				c.WriteInt(0)
				return
			}
			e = s.db(c.db).getOrCreate(string(args[1]), kindList)
		}
		for _, v := range args[2:] {
			v = append([]byte(nil), v...)
			if left {
				e.list = append([][]byte{v}, e.list...)
			} else {
				e.list = append(e.list, v)
			}
		}
		c.WriteInt(int64(len(e.list)))
	}
}

// popLocked removes one element from the head or tail of key.
func (s *Server) popLocked(db int, key string, left bool) ([]byte, bool) {
	ks := s.db(db)
	e := ks.get(key)
	if e == nil || e.kind != kindList || len(e.list) == 0 {
		return nil, false
	}
	var v []byte
	if left {
		v, e.list = e.list[0], e.list[1:]
	} else {
		v, e.list = e.list[len(e.list)-1], e.list[:len(e.list)-1]
	}
	ks.dropEmpty(key)
	return v, true
}

func cmdPop(left bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		if _, ok := s.listOf(c, args[1]); !ok {
			return
		}
		v, _ := s.popLocked(c.db, string(args[1]), left)
		c.WriteBulk(v)
	}
}

func cmdLLen(s *Server, c *Conn, args [][]byte) {
	e, ok := s.listOf(c, args[1])
	if !ok {
		return
	}
	if e == nil {
		c.WriteInt(0)
		return
	}
	c.WriteInt(int64(len(e.list)))
}

func cmdLRange(s *Server, c *Conn, args [][]byte) {
	start, ok1 := parseInt(args[2])
	stop, ok2 := parseInt(args[3])
	if !ok1 || !ok2 {
		c.WriteError(errNotInt)
		return
	}
	e, ok := s.listOf(c, args[1])
	if !ok {
		return
	}
	if e == nil {
		c.WriteArray(0)
		return
	}
	from, to, ok := normRange(start, stop, len(e.list))
	if !ok {
		c.WriteArray(0)
		return
	}
	c.WriteBulks(e.list[from : to+1])
}

func cmdLIndex(s *Server, c *Conn, args [][]byte) {
	idx, ok := parseInt(args[2])
	if !ok {
		c.WriteError(errNotInt)
		return
	}
	e, ok := s.listOf(c, args[1])
	if !ok {
		return
	}
	if e == nil {
		c.WriteBulk(nil)
		return
	}
	if idx < 0 {
		idx += int64(len(e.list))
	}
	if idx < 0 || idx >= int64(len(e.list)) {
		c.WriteBulk(nil)
		return
	}
	c.WriteBulk(e.list[idx])
}

func (s *Server) rpopLPushLocked(db int, src, dst string) ([]byte, bool) {
	v, ok := s.popLocked(db, src, false)
	if !ok {
		return nil, false
	}
	e := s.db(db).getOrCreate(dst, kindList)
	if e == nil {
		return nil, false
	}
	e.list = append([][]byte{v}, e.list...)
	return v, true
}

func cmdRPopLPush(s *Server, c *Conn, args [][]byte) {
	v, _ := s.rpopLPushLocked(c.db, string(args[1]), string(args[2]))
	c.WriteBulk(v)
}

// waitFor polls try until it succeeds, the timeout (seconds, 0 = forever)
// passes or the connection goes away.
func (s *Server) waitFor(c *Conn, timeout []byte, try func() bool) (bool, bool) {
	secs, ok := parseFloat(timeout)
	if !ok || secs < 0 {
		c.WriteError("ERR timeout is not a float or out of range")
		return false, false
	}
	var deadline time.Time
	if secs > 0 {
		deadline = time.Now().Add(time.Duration(secs * float64(time.Second)))
	}
	for {
		s.mu.Lock()
		done := try()
		s.mu.Unlock()
		if done {
			return true, true
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return false, true
		}
		if c.closed.Load() || !s.running.Load() {
			return false, true
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func cmdBRPopLPush(s *Server, c *Conn, args [][]byte) {
	var v []byte
	got, ok := s.waitFor(c, args[3], func() bool {
		var popped bool
		v, popped = s.rpopLPushLocked(c.db, string(args[1]), string(args[2]))
		return popped
	})
	if !ok {
		return
	}
	if !got {
		c.WriteBulk(nil)
		return
	}
	c.WriteBulk(v)
}

func cmdBPop(left bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		keys := args[1 : len(args)-1]
		var key, v []byte
		got, ok := s.waitFor(c, args[len(args)-1], func() bool {
			for _, k := range keys {
				if val, popped := s.popLocked(c.db, string(k), left); popped {
					key, v = k, val
					return true
				}
			}
			return false
		})
		if !ok {
			return
		}
		if !got {
			c.WriteArray(-1)
			return
		}
		c.WriteBulks([][]byte{key, v})
	}
}

// ============================================================================
// Sets
// ============================================================================

func (s *Server) setOf(c *Conn, key []byte, create bool) (map[string]struct{}, bool) {
	ks := s.db(c.db)
	if create {
		e := ks.getOrCreate(string(key), kindSet)
		if e == nil {
			c.WriteError(errWrongType)
			return nil, false
		}
		return e.set, true
	}
	e := ks.get(string(key))
	if e == nil {
		return nil, true
	}
	if e.kind != kindSet {
		c.WriteError(errWrongType)
		return nil, false
	}
	return e.set, true
}

func cmdSAdd(s *Server, c *Conn, args [][]byte) {
	set, ok := s.setOf(c, args[1], true)
	if !ok {
		return
	}
	var n int64
	for _, m := range args[2:] {
		if _, exists := set[string(m)]; !exists {
			set[string(m)] = struct{}{}
			n++
		}
	}
	c.WriteInt(n)
}

func cmdSRem(s *Server, c *Conn, args [][]byte) {
	set, ok := s.setOf(c, args[1], false)
	if !ok {
		return
	}
	var n int64
	for _, m := range args[2:] {
		if _, exists := set[string(m)]; exists {
			delete(set, string(m))
			n++
		}
	}
	s.db(c.db).dropEmpty(string(args[1]))
	c.WriteInt(n)
}

func cmdSMembers(s *Server, c *Conn, args [][]byte) {
	set, ok := s.setOf(c, args[1], false)
	if !ok {
		return
	}
	members := sortedSet(set)
	items := make([][]byte, len(members))
	for i, m := range members {
		items[i] = []byte(m)
	}
	c.WriteBulks(items)
}

func cmdSCard(s *Server, c *Conn, args [][]byte) {
	set, ok := s.setOf(c, args[1], false)
	if !ok {
		return
	}
	c.WriteInt(int64(len(set)))
}

func cmdSIsMember(s *Server, c *Conn, args [][]byte) {
	set, ok := s.setOf(c, args[1], false)
	if !ok {
		return
	}
	if _, exists := set[string(args[2])]; exists {
		c.WriteInt(1)
		return
	}
	c.WriteInt(0)
}

// ============================================================================
// Sorted sets
// ============================================================================

func (s *Server) zsetOf(c *Conn, key []byte, create bool) (map[string]float64, bool) {
	ks := s.db(c.db)
	if create {
		e := ks.getOrCreate(string(key), kindZSet)
		if e == nil {
			c.WriteError(errWrongType)
			return nil, false
		}
		return e.zset, true
	}
	e := ks.get(string(key))
	if e == nil {
		return nil, true
	}
	if e.kind != kindZSet {
		c.WriteError(errWrongType)
		return nil, false
	}
	return e.zset, true
}

func cmdZAdd(s *Server, c *Conn, args [][]byte) {
	if len(args)%2 != 0 {
		c.WriteError(errSyntax)
		return
	}
	for i := 2; i < len(args); i += 2 {
		if _, ok := parseFloat(args[i]); !ok {
			c.WriteError(errNotFloat)
			return
		}
	}
	z, ok := s.zsetOf(c, args[1], true)
	if !ok {
		return
	}
	var added int64
	for i := 2; i < len(args); i += 2 {
		score, _ := parseFloat(args[i])
		if _, exists := z[string(args[i+1])]; !exists {
			added++
		}
		z[string(args[i+1])] = score
	}
	c.WriteInt(added)
}

func cmdZScore(s *Server, c *Conn, args [][]byte) {
	z, ok := s.zsetOf(c, args[1], false)
	if !ok {
		return
	}
	score, exists := z[string(args[2])]
	if !exists {
		c.WriteBulk(nil)
		return
	}
	c.WriteBulk(formatFloat(score))
}

func cmdZIncrBy(s *Server, c *Conn, args [][]byte) {
	delta, ok := parseFloat(args[2])
	if !ok {
		c.WriteError(errNotFloat)
		return
	}
	z, ok := s.zsetOf(c, args[1], true)
	if !ok {
		return
	}
	z[string(args[3])] += delta
	c.WriteBulk(formatFloat(z[string(args[3])]))
}

func cmdZCard(s *Server, c *Conn, args [][]byte) {
	z, ok := s.zsetOf(c, args[1], false)
	if !ok {
		return
	}
	c.WriteInt(int64(len(z)))
}

func cmdZRank(reverse bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		z, ok := s.zsetOf(c, args[1], false)
		if !ok {
			return
		}
		members := sortedMembers(z)
		for i, m := range members {
			if m.member == string(args[2]) {
				rank := i
				if reverse {
					rank = len(members) - 1 - i
				}
				c.WriteInt(int64(rank))
				return
			}
		}
		c.WriteBulk(nil)
	}
}

func cmdZRange(reverse bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		start, ok1 := parseInt(args[2])
		stop, ok2 := parseInt(args[3])
		if !ok1 || !ok2 {
			c.WriteError(errNotInt)
			return
		}
		withScores := false
		if len(args) == 5 && strings.EqualFold(string(args[4]), "WITHSCORES") {
			withScores = true
		} else if len(args) > 4 {
			c.WriteError(errSyntax)
			return
		}
		z, ok := s.zsetOf(c, args[1], false)
		if !ok {
			return
		}
		members := sortedMembers(z)
		if reverse {
			for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
				members[i], members[j] = members[j], members[i]
			}
		}
		from, to, ok := normRange(start, stop, len(members))
		if !ok {
			c.WriteArray(0)
			return
		}
		var items [][]byte
		for _, m := range members[from : to+1] {
			items = append(items, []byte(m.member))
			if withScores {
				items = append(items, formatFloat(m.score))
			}
		}
		c.WriteBulks(items)
	}
}

func cmdZRem(s *Server, c *Conn, args [][]byte) {
	z, ok := s.zsetOf(c, args[1], false)
	if !ok {
		return
	}
	var n int64
	for _, m := range args[2:] {
		if _, exists := z[string(m)]; exists {
			delete(z, string(m))
			n++
		}
	}
	s.db(c.db).dropEmpty(string(args[1]))
	c.WriteInt(n)
}

// ============================================================================
// Pub/sub
// ============================================================================

func (c *Conn) subscriptions() int64 {
	return int64(len(c.channels) + len(c.patterns))
}

func (c *Conn) writeSubReply(kind string, name []byte, count int64) {
	c.WriteArray(3)
	c.WriteBulk([]byte(kind))
	c.WriteBulk(name)
	c.WriteInt(count)
}

func cmdSubscribe(pattern bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		registry, mine, kind := s.channels, c.channels, "subscribe"
		if pattern {
			registry, mine, kind = s.patterns, c.patterns, "psubscribe"
		}
		for _, name := range args[1:] {
			key := string(name)
			if _, ok := mine[key]; !ok {
				mine[key] = struct{}{}
				subs := registry[key]
				if subs == nil {
					subs = make(map[*Conn]struct{})
					registry[key] = subs
				}
				subs[c] = struct{}{}
			}
			c.writeSubReply(kind, name, c.subscriptions())
		}
	}
}

func (s *Server) unsubscribeLocked(registry map[string]map[*Conn]struct{}, name string, c *Conn) {
	subs := registry[name]
	delete(subs, c)
	if len(subs) == 0 {
		delete(registry, name)
	}
}

func cmdUnsubscribe(pattern bool) cmdFunc {
	return func(s *Server, c *Conn, args [][]byte) {
		registry, mine, kind := s.channels, c.channels, "unsubscribe"
		if pattern {
			registry, mine, kind = s.patterns, c.patterns, "punsubscribe"
		}
		names := args[1:]
		if len(names) == 0 {
			for _, n := range sortedSet(mine) {
				names = append(names, []byte(n))
			}
		}
		if len(names) == 0 {
			c.writeSubReply(kind, nil, c.subscriptions())
			return
		}
		for _, name := range names {
			key := string(name)
			if _, ok := mine[key]; ok {
				delete(mine, key)
				s.unsubscribeLocked(registry, key, c)
			}
			c.writeSubReply(kind, name, c.subscriptions())
		}
	}
}

type delivery struct {
	conn    *Conn
	pattern string
}

func cmdPublish(s *Server, c *Conn, args [][]byte) {
	channel, payload := string(args[1]), args[2]

	s.mu.Lock()
	var targets []delivery
	for sub := range s.channels[channel] {
		targets = append(targets, delivery{conn: sub})
	}
	for p, subs := range s.patterns {
		if !match(p, channel) {
			continue
		}
		for sub := range subs {
			targets = append(targets, delivery{conn: sub, pattern: p})
		}
	}
	s.mu.Unlock()

	for _, t := range targets {
		t.conn.mu.Lock()
		if t.pattern != "" {
			t.conn.WriteArray(4)
			t.conn.WriteBulk([]byte("pmessage"))
			t.conn.WriteBulk([]byte(t.pattern))
		} else {
			t.conn.WriteArray(3)
			t.conn.WriteBulk([]byte("message"))
		}
		t.conn.WriteBulk(args[1])
		t.conn.WriteBulk(payload)
		_ = t.conn.bw.Flush()
		t.conn.mu.Unlock()
	}
	c.WriteInt(int64(len(targets)))
}

func cmdPubSub(s *Server, c *Conn, args [][]byte) {
	switch strings.ToUpper(string(args[1])) {
	case "CHANNELS":
		pattern := "*"
		if len(args) > 2 {
			pattern = string(args[2])
		}
		var items [][]byte
		for _, ch := range sortedChannels(s.channels) {
			if match(pattern, ch) {
				items = append(items, []byte(ch))
			}
		}
		c.WriteBulks(items)
	case "NUMSUB":
		c.WriteArray(2 * (len(args) - 2))
		for _, ch := range args[2:] {
			c.WriteBulk(ch)
			c.WriteInt(int64(len(s.channels[string(ch)])))
		}
	case "NUMPAT":
		var n int64
		for _, subs := range s.patterns {
			n += int64(len(subs))
		}
		c.WriteInt(n)
	default:
		c.WriteError("ERR Unknown PUBSUB subcommand '" + string(args[1]) + "'")
	}
}

func sortedChannels(m map[string]map[*Conn]struct{}) []string {
	set := make(map[string]struct{}, len(m))
	for ch := range m {
		set[ch] = struct{}{}
	}
	return sortedSet(set)
}

// ============================================================================
// Transactions
// ============================================================================

func cmdMulti(_ *Server, c *Conn, _ [][]byte) {
	if c.inMulti {
		c.WriteError("ERR MULTI calls can not be nested")
		return
	}
	c.inMulti = true
	c.queued = nil
	c.WriteStatus("OK")
}

func cmdExec(s *Server, c *Conn, _ [][]byte) {
	if !c.inMulti {
		c.WriteError("ERR EXEC without MULTI")
		return
	}
	queued := c.queued
	c.inMulti = false
	c.queued = nil

	c.WriteArray(len(queued))
	for _, args := range queued {
		s.execute(c, normalizeCommandName(args[0]), args)
	}
}

func cmdDiscard(_ *Server, c *Conn, _ [][]byte) {
	if !c.inMulti {
		c.WriteError("ERR DISCARD without MULTI")
		return
	}
	c.inMulti = false
	c.queued = nil
	c.WriteStatus("OK")
}

// ============================================================================
// Server
// ============================================================================

func cmdTime(_ *Server, c *Conn, _ [][]byte) {
	now := time.Now()
	c.WriteBulks([][]byte{
		strconv.AppendInt(nil, now.Unix(), 10),
		strconv.AppendInt(nil, int64(now.Nanosecond()/1000), 10),
	})
}

func cmdInfo(s *Server, c *Conn, _ [][]byte) {
	var sb strings.Builder
	sb.WriteString("# Server\r\nredis_version:7.0.0\r\nredis_mode:standalone\r\n")
	sb.WriteString("# Clients\r\nconnected_clients:")
	sb.WriteString(strconv.Itoa(len(s.conns)))
	sb.WriteString("\r\n")
	c.WriteBulk([]byte(sb.String()))
}

func cmdClient(_ *Server, c *Conn, args [][]byte) {
	switch strings.ToUpper(string(args[1])) {
	case "SETNAME":
		if len(args) != 3 {
			c.WriteError(errSyntax)
			return
		}
		c.name = string(args[2])
		c.WriteStatus("OK")
	case "GETNAME":
		if c.name == "" {
			c.WriteBulk(nil)
			return
		}
		c.WriteBulk([]byte(c.name))
	default:
		c.WriteError("ERR Unknown CLIENT subcommand '" + string(args[1]) + "'")
	}
}

func cmdConfig(_ *Server, c *Conn, args [][]byte) {
	switch strings.ToUpper(string(args[1])) {
	case "GET":
		if len(args) != 3 {
			c.WriteError(errSyntax)
			return
		}
		if match(string(args[2]), "databases") {
			c.WriteBulks([][]byte{[]byte("databases"), []byte("16")})
			return
		}
		c.WriteArray(0)
	case "SET", "RESETSTAT", "REWRITE":
		c.WriteStatus("OK")
	default:
		c.WriteError("ERR Unknown CONFIG subcommand '" + string(args[1]) + "'")
	}
}
