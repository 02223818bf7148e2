package resp

import (
	"io"
	"net"
	"strconv"

	"github.com/yndnr/goresp/pkg/bufpool"
)

var crlf = []byte("\r\n")

// Writer accumulates RESP-framed commands in pool buffers until Flush.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	pool  *bufpool.Pool
	cur   []byte // current pool buffer, full length
	n     int    // bytes used in cur
	queue []segment
}

type segment struct {
	buf []byte // pool-sized buffer
	n   int
}

// NewWriter returns a Writer drawing buffers from pool.
// A nil pool gets a private pool with default sizing.
func NewWriter(pool *bufpool.Pool) *Writer {
	if pool == nil {
		pool = bufpool.New()
	}
	return &Writer{pool: pool}
}

// WriteAll appends one command as a RESP array of bulk strings.
// Zero-length tokens are framed as "$0\r\n\r\n".
func (w *Writer) WriteAll(tokens [][]byte) {
	var scratch [24]byte
	w.write(appendHeader(scratch[:0], '*', len(tokens)))
	for _, tok := range tokens {
		w.write(appendHeader(scratch[:0], '$', len(tok)))
		w.write(tok)
		w.write(crlf)
	}
}

// WriteArgs is WriteAll for string arguments.
func (w *Writer) WriteArgs(args ...string) {
	tokens := make([][]byte, len(args))
	for i, a := range args {
		tokens[i] = []byte(a)
	}
	w.WriteAll(tokens)
}

func appendHeader(b []byte, prefix byte, n int) []byte {
	b = append(b, prefix)
	b = strconv.AppendInt(b, int64(n), 10)
	return append(b, '\r', '\n')
}

// write copies p into the current buffer. When p does not fit, a partly
// filled buffer is queued first; bytes that still do not fit an empty
// buffer are split across fresh pool buffers.
func (w *Writer) write(p []byte) {
	for len(p) > 0 {
		if w.cur == nil {
			w.cur = w.pool.Get()
			w.n = 0
		}
		if w.n+len(p) <= len(w.cur) {
			w.n += copy(w.cur[w.n:], p)
			return
		}
		if w.n > 0 {
			w.push()
			continue
		}
		c := copy(w.cur, p)
		w.n = c
		p = p[c:]
		w.push()
	}
}

func (w *Writer) push() {
	w.queue = append(w.queue, segment{buf: w.cur, n: w.n})
	w.cur = nil
	w.n = 0
}

// Buffered returns the number of framed bytes waiting for Flush.
func (w *Writer) Buffered() int {
	total := w.n
	for _, s := range w.queue {
		total += s.n
	}
	return total
}

// Flush writes every buffered byte to dst in one vectored write.
//
// On success all buffers go back to the pool. On failure the queue is
// dropped without returning its buffers, since a partial write may still
// reference them.
func (w *Writer) Flush(dst io.Writer) error {
	if w.cur != nil && w.n > 0 {
		w.push()
	}
	if len(w.queue) == 0 {
		return nil
	}

	bufs := make(net.Buffers, 0, len(w.queue))
	for _, s := range w.queue {
		bufs = append(bufs, s.buf[:s.n])
	}
	_, err := bufs.WriteTo(dst)
	if err != nil {
		w.queue = w.queue[:0]
		return err
	}

	for i, s := range w.queue {
		w.pool.Put(s.buf)
		w.queue[i] = segment{}
	}
	w.queue = w.queue[:0]
	return nil
}

// Discard drops buffered bytes and returns their buffers to the pool.
func (w *Writer) Discard() {
	for i, s := range w.queue {
		w.pool.Put(s.buf)
		w.queue[i] = segment{}
	}
	w.queue = w.queue[:0]
	w.n = 0
}

// Release discards buffered bytes and gives the current buffer back.
func (w *Writer) Release() {
	w.Discard()
	if w.cur != nil {
		w.pool.Put(w.cur)
		w.cur = nil
	}
}
