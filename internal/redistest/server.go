package redistest

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Config holds the test server configuration.
type Config struct {
	// Address to listen on (default: 127.0.0.1:0).
	Address string
	// Password enables AUTH; commands other than AUTH, PING and QUIT are
	// refused until the connection authenticates.
	Password string
	// Logger receives connection diagnostics (default: discard).
	Logger *slog.Logger
}

// HandlerFunc replaces the built-in behavior of one command. It must write
// exactly one reply unless it closes the connection.
type HandlerFunc func(c *Conn, args [][]byte)

// Server is an in-process Redis protocol server.
type Server struct {
	cfg     Config
	logger  *slog.Logger
	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup

	accepted atomic.Int64

	mu       sync.Mutex
	conns    map[*Conn]struct{}
	handlers map[string]HandlerFunc
	received [][]string
	dbs      map[int]*keyspace
	channels map[string]map[*Conn]struct{}
	patterns map[string]map[*Conn]struct{}
}

// Start listens and serves until Close.
func Start(cfg Config) (*Server, error) {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:0"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		ln:       ln,
		conns:    make(map[*Conn]struct{}),
		handlers: make(map[string]HandlerFunc),
		dbs:      make(map[int]*keyspace),
		channels: make(map[string]map[*Conn]struct{}),
		patterns: make(map[string]map[*Conn]struct{}),
	}
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
	return s, nil
}

// NewServer starts a server for the duration of the test.
func NewServer(tb testing.TB, cfg Config) *Server {
	tb.Helper()
	s, err := Start(cfg)
	if err != nil {
		tb.Fatalf("redistest: start server: %v", err)
	}
	tb.Cleanup(s.Close)
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Host returns the listen host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Addr())
	return host
}

// Port returns the listen port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Addr())
	n, _ := strconv.Atoi(port)
	return n
}

// Accepted returns the number of connections accepted so far.
func (s *Server) Accepted() int {
	return int(s.accepted.Load())
}

// Handle overrides the command name (case-insensitive).
func (s *Server) Handle(name string, fn HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[strings.ToUpper(name)] = fn
}

// Received returns every command received so far, in arrival order.
func (s *Server) Received() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.received))
	copy(out, s.received)
	return out
}

// ResetReceived clears the received command log.
func (s *Server) ResetReceived() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = nil
}

// KillConnections closes every live client connection.
func (s *Server) KillConnections() {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

// Set stores a string value directly in database db.
func (s *Server) Set(db int, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db(db).setString(key, value)
}

// Lookup returns a string value from database db.
func (s *Server) Lookup(db int, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.db(db).get(key)
	if e == nil || e.kind != kindString {
		return nil, false
	}
	return e.str, true
}

// Close stops listening and drops every connection.
func (s *Server) Close() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	_ = s.ln.Close()
	s.KillConnections()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Debug("accept failed", "error", err)
			return
		}
		s.accepted.Add(1)

		c := newConn(s, nc)
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(c)
		}()
	}
}

func (s *Server) serveConn(c *Conn) {
	defer func() {
		_ = c.Close()
		s.forget(c)
	}()

	for {
		args, err := ReadCommand(c.br)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("read command failed", "remote", c.RemoteAddr(), "error", err)
				if errors.Is(err, ErrProtocol) || errors.Is(err, ErrLimitExceeded) {
					c.mu.Lock()
					writeError(c.bw, "ERR Protocol error: "+err.Error())
					_ = c.bw.Flush()
					c.mu.Unlock()
				}
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		c.mu.Lock()
		s.dispatch(c, args)
		err = c.bw.Flush()
		c.mu.Unlock()
		if err != nil || c.quit {
			return
		}
	}
}

func (s *Server) forget(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
	for ch := range c.channels {
		s.unsubscribeLocked(s.channels, ch, c)
	}
	for p := range c.patterns {
		s.unsubscribeLocked(s.patterns, p, c)
	}
}

func (s *Server) db(n int) *keyspace {
	ks, ok := s.dbs[n]
	if !ok {
		ks = newKeyspace()
		s.dbs[n] = ks
	}
	return ks
}

// Conn is one client connection as seen by the server.
type Conn struct {
	srv     *Server
	netConn net.Conn
	br      *bufio.Reader

	// mu guards bw; publishes write to subscribers from other goroutines.
	mu sync.Mutex
	bw *bufio.Writer

	closed atomic.Bool

	// Owned by the serving goroutine.
	db       int
	authed   bool
	quit     bool
	name     string
	inMulti  bool
	queued   [][][]byte
	channels map[string]struct{}
	patterns map[string]struct{}
}

func newConn(s *Server, nc net.Conn) *Conn {
	return &Conn{
		srv:      s,
		netConn:  nc,
		br:       bufio.NewReader(nc),
		bw:       bufio.NewWriter(nc),
		authed:   s.cfg.Password == "",
		channels: make(map[string]struct{}),
		patterns: make(map[string]struct{}),
	}
}

// Close drops the connection.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// DB returns the database index the connection has selected.
func (c *Conn) DB() int { return c.db }

// WriteStatus writes "+s".
func (c *Conn) WriteStatus(s string) { writeSimpleString(c.bw, s) }

// WriteError writes "-s".
func (c *Conn) WriteError(s string) { writeError(c.bw, s) }

// WriteInt writes ":n".
func (c *Conn) WriteInt(n int64) { writeInteger(c.bw, n) }

// WriteBulk writes a bulk string; nil writes "$-1".
func (c *Conn) WriteBulk(b []byte) { writeBulk(c.bw, b) }

// WriteArray writes an array header of n elements; -1 writes "*-1".
func (c *Conn) WriteArray(n int) { writeArrayHeader(c.bw, n) }

// WriteBulks writes an array of bulk strings.
func (c *Conn) WriteBulks(items [][]byte) {
	writeArrayHeader(c.bw, len(items))
	for _, b := range items {
		writeBulk(c.bw, b)
	}
}

// WriteRaw writes s verbatim.
func (c *Conn) WriteRaw(s string) { _, _ = c.bw.WriteString(s) }

// Flush pushes buffered replies to the client.
func (c *Conn) Flush() error { return c.bw.Flush() }

// Stall flushes pending output, then blocks for d before the next reply.
func (c *Conn) Stall(d time.Duration) {
	_ = c.bw.Flush()
	time.Sleep(d)
}
