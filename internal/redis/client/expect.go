package client

import (
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/goresp/internal/core/domain"
	"github.com/yndnr/goresp/internal/redis/resp"
	"github.com/yndnr/goresp/internal/telemetry/metric"
)

// do sends one command and decodes its reply as d. While pipelining, the
// reply is queued for Replay and do returns the zero Value as a placeholder;
// the decoded value is delivered through the pipeline's Result.
func (c *Client) do(d resp.Decoder, tokens [][]byte) (resp.Value, error) {
	start := time.Now()
	if err := c.write(tokens); err != nil {
		c.record(tokens, err, 0)
		return resp.Value{}, err
	}
	if c.pipeline != nil {
		c.pipeline.enqueue(d, tokens)
		return resp.Value{}, nil
	}
	v, err := c.read(d)
	c.record(tokens, err, time.Since(start))
	return v, err
}

func (c *Client) record(tokens [][]byte, err error, elapsed time.Duration) {
	if c.metrics == nil || len(tokens) == 0 {
		return
	}
	c.metrics.RecordCommand(commandName(tokens), resultLabel(err), elapsed.Seconds())
}

func commandName(tokens [][]byte) string {
	return strings.ToUpper(string(tokens[0]))
}

func resultLabel(err error) string {
	if err == nil {
		return metric.ResultOK
	}
	switch domain.KindOf(err) {
	case domain.KindServer:
		return metric.ResultServer
	case domain.KindConnection:
		return metric.ResultConn
	case domain.KindProtocol:
		return metric.ResultProtocol
	default:
		return metric.ResultInvalid
	}
}

// SendExpectOk sends a command whose reply must be +OK.
func (c *Client) SendExpectOk(tokens ...[]byte) error {
	_, err := c.do(resp.DecodeOK, tokens)
	return err
}

// SendExpectQueued sends a command inside MULTI; the reply must be +QUEUED.
func (c *Client) SendExpectQueued(tokens ...[]byte) error {
	_, err := c.do(resp.DecodeQueued, tokens)
	return err
}

// SendExpectSuccess sends a command and discards any non-error reply.
func (c *Client) SendExpectSuccess(tokens ...[]byte) error {
	_, err := c.do(resp.DecodeSuccess, tokens)
	return err
}

// SendExpectMultiData sends a command that replies with a bulk array.
// A null array yields nil.
func (c *Client) SendExpectMultiData(tokens ...[]byte) ([][]byte, error) {
	v, err := c.do(resp.DecodeMultiData, tokens)
	return v.Multi, err
}

// SendExpectString sends a command whose reply is read as text.
func (c *Client) SendExpectString(tokens ...[]byte) (string, error) {
	v, err := c.do(resp.DecodeString, tokens)
	return v.Str, err
}

// SendExpectLong sends a command that replies with an integer.
func (c *Client) SendExpectLong(tokens ...[]byte) (int64, error) {
	v, err := c.do(resp.DecodeLong, tokens)
	return v.Int, err
}

// SendExpectInt sends a command that replies with a 32-bit integer.
func (c *Client) SendExpectInt(tokens ...[]byte) (int, error) {
	v, err := c.do(resp.DecodeInt, tokens)
	return int(v.Int), err
}

// SendExpectRank sends ZRANK or ZREVRANK. A missing member yields -1.
func (c *Client) SendExpectRank(tokens ...[]byte) (int64, error) {
	v, err := c.do(resp.DecodeRank, tokens)
	return v.Int, err
}

// SendExpectData sends a command that replies with one bulk string.
// A null bulk yields nil.
func (c *Client) SendExpectData(tokens ...[]byte) ([]byte, error) {
	v, err := c.do(resp.DecodeData, tokens)
	return v.Data, err
}

// SendExpectDouble sends a command that replies with a float in a bulk
// string. A null bulk yields NaN.
func (c *Client) SendExpectDouble(tokens ...[]byte) (float64, error) {
	v, err := c.do(resp.DecodeDouble, tokens)
	return v.Float, err
}

// SendExpectCode sends a command that replies with a status word.
func (c *Client) SendExpectCode(tokens ...[]byte) (string, error) {
	v, err := c.do(resp.DecodeCode, tokens)
	return v.Str, err
}

// SendExpectDeeplyNestedMultiData sends a command whose reply is an
// arbitrarily nested array. It cannot be pipelined.
func (c *Client) SendExpectDeeplyNestedMultiData(tokens ...[]byte) ([]any, error) {
	if c.pipeline != nil {
		return nil, domain.ErrPipelineUnsupported.WithDetails(commandNameOrEmpty(tokens))
	}
	v, err := c.do(resp.DecodeNested, tokens)
	return v.Tree, err
}

// SendExpectReply sends a command and returns its reply whatever the
// shape: string for status lines, int64, []byte or nil for bulk strings
// and []any for arrays.
func (c *Client) SendExpectReply(tokens ...[]byte) (any, error) {
	v, err := c.do(resp.DecodeAny, tokens)
	return v.Any, err
}

func commandNameOrEmpty(tokens [][]byte) string {
	if len(tokens) == 0 {
		return ""
	}
	return commandName(tokens)
}

// Send writes a command and flushes it without reading a reply.
// Subscription loops use it to (un)subscribe while frames are in flight.
func (c *Client) Send(tokens ...[]byte) error {
	if c.pipeline != nil {
		return domain.ErrPipelineUnsupported.WithDetails("send")
	}
	return c.write(tokens)
}

// ReadMultiData reads one array reply without sending anything.
func (c *Client) ReadMultiData() ([][]byte, error) {
	if c.pipeline != nil {
		return nil, domain.ErrPipelineUnsupported.WithDetails("read")
	}
	v, err := c.read(resp.DecodeMultiData)
	return v.Multi, err
}

// Select switches the connection to database db. The selection survives
// idle reconnects.
func (c *Client) Select(db int) error {
	if db < 0 {
		return domain.InvalidArgument("db", "must not be negative")
	}
	if c.pipeline != nil {
		return domain.ErrPipelineUnsupported.WithDetails("SELECT")
	}
	if err := c.SendExpectOk([]byte("SELECT"), []byte(strconv.Itoa(db))); err != nil {
		return err
	}
	c.db = db
	return nil
}

// Args converts string arguments into command tokens.
func Args(args ...string) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = []byte(a)
	}
	return out
}
