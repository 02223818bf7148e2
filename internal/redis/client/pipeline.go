package client

import (
	"time"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/resp"
)

// Result is the deferred reply of one pipelined command. It is filled in
// when the pipeline is replayed.
type Result struct {
	Decoder resp.Decoder
	Command string

	value resp.Value
	err   error
	done  bool
}

// Done reports whether the reply has been read.
func (r *Result) Done() bool { return r.done }

// Err returns the command's error, or an error if the reply was never read.
func (r *Result) Err() error {
	if !r.done {
		return domain.ErrUnexpectedReply.WithDetailsf("%s: reply not replayed yet", r.Command)
	}
	return r.err
}

// Value returns the decoded reply.
func (r *Result) Value() resp.Value { return r.value }

func (r *Result) Int() (int64, error)      { return r.value.Int, r.Err() }
func (r *Result) Float() (float64, error)  { return r.value.Float, r.Err() }
func (r *Result) Str() (string, error)     { return r.value.Str, r.Err() }
func (r *Result) Data() ([]byte, error)    { return r.value.Data, r.Err() }
func (r *Result) Multi() ([][]byte, error) { return r.value.Multi, r.Err() }
func (r *Result) Any() (any, error)        { return r.value.Any, r.Err() }

func (r *Result) complete(v resp.Value, err error) {
	r.value = v
	r.err = err
	r.done = true
}

// Pipeline holds commands back until Flush and reads their replies, in
// send order, on Replay.
type Pipeline struct {
	c       *Client
	queue   []*Result
	flushed int // queue[:flushed] are on the wire
	started time.Time
}

// Pipeline enters pipelining mode. Commands sent through the client's
// SendExpect methods, or through Queue, are buffered and return placeholder
// values; their replies are delivered through the Results.
func (c *Client) Pipeline() (*Pipeline, error) {
	if c.State() == StateDisposed {
		return nil, domain.ErrClientClosed
	}
	if c.pipeline != nil {
		return nil, domain.ErrPipelineActive
	}
	p := &Pipeline{c: c, started: time.Now()}
	c.pipeline = p
	return p, nil
}

// Queue sends one command and returns the slot its reply will land in.
func (p *Pipeline) Queue(d resp.Decoder, tokens ...[]byte) (*Result, error) {
	if err := p.active(); err != nil {
		return nil, err
	}
	if d == resp.DecodeNested {
		return nil, domain.ErrPipelineUnsupported.WithDetails(commandNameOrEmpty(tokens))
	}
	if err := p.c.write(tokens); err != nil {
		return nil, err
	}
	return p.enqueue(d, tokens), nil
}

func (p *Pipeline) enqueue(d resp.Decoder, tokens [][]byte) *Result {
	r := &Result{Decoder: d, Command: commandName(tokens)}
	p.queue = append(p.queue, r)
	return r
}

func (p *Pipeline) active() error {
	if p.c.pipeline != p {
		return domain.ErrInvalidArgument.WithDetails("pipeline is no longer active")
	}
	return nil
}

// Len returns the number of queued commands.
func (p *Pipeline) Len() int { return len(p.queue) }

// Results returns the queued result slots in send order.
func (p *Pipeline) Results() []*Result { return p.queue }

// Flush writes every buffered command without reading replies.
// A failed write marks every pending result with the error.
func (p *Pipeline) Flush() error {
	if err := p.active(); err != nil {
		return err
	}
	if err := p.c.flush(); err != nil {
		p.failPending(0, err)
		return err
	}
	p.flushed = len(p.queue)
	return nil
}

// Replay flushes what is left and reads every reply in send order, then
// leaves pipelining mode. Server errors and shape mismatches land in the
// matching Result; a connection or framing failure also fails every result
// after it and is returned.
func (p *Pipeline) Replay() error {
	if err := p.active(); err != nil {
		return err
	}
	defer p.end()

	if err := p.Flush(); err != nil {
		return err
	}
	for i, r := range p.queue {
		start := time.Now()
		v, err := p.c.read(r.Decoder)
		r.complete(v, err)
		p.c.metrics.RecordCommand(r.Command, resultLabel(err), time.Since(start).Seconds())
		if err != nil && p.c.conn == nil {
			p.failPending(i+1, err)
			return err
		}
	}
	return nil
}

// Exec replays the pipeline and returns its results along with the first
// error any of them carried.
func (p *Pipeline) Exec() ([]*Result, error) {
	if err := p.Replay(); err != nil {
		return p.queue, err
	}
	for _, r := range p.queue {
		if r.err != nil {
			return p.queue, r.err
		}
	}
	return p.queue, nil
}

// Discard leaves pipelining mode without keeping the replies. Commands
// already on the wire still have their replies drained so the stream stays
// aligned; unsent commands are dropped.
func (p *Pipeline) Discard() error {
	if err := p.active(); err != nil {
		return err
	}
	defer p.end()

	p.c.w.Discard()
	for i, r := range p.queue {
		if i >= p.flushed {
			r.complete(resp.Value{}, domain.ErrInvalidArgument.WithDetails("pipeline discarded"))
			continue
		}
		v, err := p.c.read(r.Decoder)
		r.complete(v, err)
		if err != nil && p.c.conn == nil {
			p.failPending(i+1, err)
			return err
		}
	}
	return nil
}

func (p *Pipeline) failPending(from int, err error) {
	for _, r := range p.queue[from:] {
		if !r.done {
			r.complete(resp.Value{}, err)
		}
	}
}

func (p *Pipeline) end() {
	p.c.metrics.ObservePipeline(len(p.queue))
	p.c.log.Debug("pipeline done", "commands", len(p.queue), "elapsed", time.Since(p.started))
	p.c.pipeline = nil
}
