package client

import (
	"errors"
	"testing"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/resp"
	"github.com/yndnr/goresp/internal/redistest"
)

func TestPipeline_OrderAndShapes(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	c := newTestClient(t, srv, "", 0, DefaultOptions())

	p, err := c.Pipeline()
	if err != nil {
		t.Fatal(err)
	}
	if !c.Pipelining() {
		t.Fatal("Pipelining() = false")
	}

	// SendExpect methods return placeholders while pipelining.
	if err := c.SendExpectOk(Args("SET", "a", "1")...); err != nil {
		t.Fatal(err)
	}
	if n, err := c.SendExpectLong(Args("INCR", "a")...); err != nil || n != 0 {
		t.Fatalf("pipelined INCR = %d, %v, want placeholder 0", n, err)
	}
	get, err := p.Queue(resp.DecodeData, Args("GET", "a")...)
	if err != nil {
		t.Fatal(err)
	}
	wrong, _ := p.Queue(resp.DecodeData, Args("HGET", "a", "f")...)
	empty, _ := p.Queue(resp.DecodeMultiData, Args("LRANGE", "nolist", "0", "-1")...)

	if get.Done() {
		t.Fatal("result done before replay")
	}
	if err := get.Err(); err == nil {
		t.Error("Err() before replay should fail")
	}
	if len(srv.Received()) != 0 {
		t.Fatalf("server saw %v before flush", srv.Received())
	}

	results, err := p.Exec()
	if !errors.Is(err, domain.ErrServerReply) {
		t.Fatalf("Exec() error = %v, want the HGET server error", err)
	}
	if len(results) != 5 || p.Len() != 5 {
		t.Fatalf("len(results) = %d", len(results))
	}
	if c.Pipelining() {
		t.Error("still pipelining after Exec")
	}

	if err := results[0].Err(); err != nil {
		t.Errorf("SET: %v", err)
	}
	if n, err := results[1].Int(); err != nil || n != 2 {
		t.Errorf("INCR = %d, %v", n, err)
	}
	if b, err := get.Data(); err != nil || string(b) != "2" {
		t.Errorf("GET = %q, %v", b, err)
	}
	if _, err := wrong.Data(); !errors.Is(err, domain.ErrServerReply) {
		t.Errorf("HGET error = %v", err)
	}
	if m, err := empty.Multi(); err != nil || m == nil || len(m) != 0 {
		t.Errorf("LRANGE = %#v, %v, want empty non-nil", m, err)
	}

	received := srv.Received()
	want := []string{"SET", "INCR", "GET", "HGET", "LRANGE"}
	for i, cmd := range want {
		if received[i][0] != cmd {
			t.Errorf("command %d = %q, want %q", i, received[i][0], cmd)
		}
	}

	if s, err := c.SendExpectString(Args("PING")...); err != nil || s != "PONG" {
		t.Errorf("PING after pipeline = %q, %v", s, err)
	}
}

func TestPipeline_NestedFailsBeforeWriting(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	c := newTestClient(t, srv, "", 0, DefaultOptions())

	p, err := c.Pipeline()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SendExpectDeeplyNestedMultiData(Args("EXEC")...); !errors.Is(err, domain.ErrPipelineUnsupported) {
		t.Fatalf("error = %v, want ErrPipelineUnsupported", err)
	}
	if _, err := p.Queue(resp.DecodeNested, Args("EXEC")...); !errors.Is(err, domain.ErrPipelineUnsupported) {
		t.Fatalf("Queue error = %v, want ErrPipelineUnsupported", err)
	}
	if err := c.Select(1); !errors.Is(err, domain.ErrPipelineUnsupported) {
		t.Errorf("Select error = %v", err)
	}
	if err := p.Replay(); err != nil {
		t.Fatal(err)
	}
	if p.Len() != 0 || len(srv.Received()) != 0 {
		t.Errorf("queued %d, server saw %v", p.Len(), srv.Received())
	}
}

func TestPipeline_AlreadyActive(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	c := newTestClient(t, srv, "", 0, DefaultOptions())

	p, _ := c.Pipeline()
	if _, err := c.Pipeline(); !errors.Is(err, domain.ErrPipelineActive) {
		t.Errorf("second Pipeline() error = %v", err)
	}
	if err := p.Replay(); err != nil {
		t.Fatal(err)
	}
	if err := p.Replay(); err == nil {
		t.Error("Replay on a finished pipeline should fail")
	}
	if _, err := c.Pipeline(); err != nil {
		t.Errorf("Pipeline() after replay: %v", err)
	}
}

func TestPipeline_ConnectionLostFailsRemaining(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	srv.Handle("GET", func(c *redistest.Conn, _ [][]byte) { _ = c.Close() })
	c := newTestClient(t, srv, "", 0, DefaultOptions())

	p, _ := c.Pipeline()
	set, _ := p.Queue(resp.DecodeOK, Args("SET", "k", "v")...)
	get, _ := p.Queue(resp.DecodeData, Args("GET", "k")...)
	incr, _ := p.Queue(resp.DecodeLong, Args("INCR", "n")...)

	err := p.Replay()
	if !errors.Is(err, domain.ErrConnectionLost) {
		t.Fatalf("Replay() error = %v, want ErrConnectionLost", err)
	}
	if err := set.Err(); err != nil {
		t.Errorf("SET: %v", err)
	}
	for name, r := range map[string]*Result{"GET": get, "INCR": incr} {
		if !r.Done() || !errors.Is(r.Err(), domain.ErrConnectionLost) {
			t.Errorf("%s: done=%v err=%v", name, r.Done(), r.Err())
		}
	}
	if c.State() != StateDisconnected {
		t.Errorf("State() = %v", c.State())
	}
}

func TestPipeline_UnparsableReplyKeepsStream(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	srv.Handle("DBSIZE", func(c *redistest.Conn, _ [][]byte) { c.WriteInt(9000000000) })
	srv.Handle("ZRANK", func(c *redistest.Conn, _ [][]byte) { c.WriteBulk([]byte("x")) })
	srv.Set(0, "k", []byte("v"))
	c := newTestClient(t, srv, "", 0, DefaultOptions())

	p, _ := c.Pipeline()
	size, _ := p.Queue(resp.DecodeInt, Args("DBSIZE")...)
	rank, _ := p.Queue(resp.DecodeRank, Args("ZRANK", "z", "m")...)
	get, _ := p.Queue(resp.DecodeData, Args("GET", "k")...)
	pong, _ := p.Queue(resp.DecodeString, Args("PING")...)

	if err := p.Replay(); err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	for name, r := range map[string]*Result{"DBSIZE": size, "ZRANK": rank} {
		if !errors.Is(r.Err(), domain.ErrUnexpectedReply) {
			t.Errorf("%s: err = %v, want ErrUnexpectedReply", name, r.Err())
		}
	}
	if b, err := get.Data(); err != nil || string(b) != "v" {
		t.Errorf("GET = %q, %v", b, err)
	}
	if s, err := pong.Str(); err != nil || s != "PONG" {
		t.Errorf("PING = %q, %v", s, err)
	}
	if c.State() != StateConnected {
		t.Errorf("State() = %v, want connected", c.State())
	}
}

func TestPipeline_FlushThenDiscard(t *testing.T) {
	srv := redistest.NewServer(t, redistest.Config{})
	c := newTestClient(t, srv, "", 0, DefaultOptions())

	p, _ := c.Pipeline()
	sent, _ := p.Queue(resp.DecodeLong, Args("INCR", "n")...)
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	dropped, _ := p.Queue(resp.DecodeLong, Args("INCR", "n")...)
	if err := p.Discard(); err != nil {
		t.Fatal(err)
	}

	if n, err := sent.Int(); err != nil || n != 1 {
		t.Errorf("flushed INCR = %d, %v", n, err)
	}
	if dropped.Err() == nil {
		t.Error("unsent command should carry an error")
	}
	// The flushed reply was drained, so the stream is aligned.
	if n, err := c.SendExpectLong(Args("INCR", "n")...); err != nil || n != 2 {
		t.Errorf("INCR after discard = %d, %v, want 2", n, err)
	}
}
