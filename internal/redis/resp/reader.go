package resp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/yndnr/goresp/internal/core/domain"
)

// Protocol limits.
const (
	// ReadBufferSize is the bufio size; large enough to batch small replies.
	ReadBufferSize = 16 * 1024

	// MaxLineLen limits status, error and header lines.
	MaxLineLen = 64 * 1024

	// MaxBulkLen limits a single bulk payload (the server's own limit).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxArrayLen limits the element count of one array level.
	MaxArrayLen = 1 << 20
)

// Reader parses RESP replies from a byte stream.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r in a ReadBufferSize buffered reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, ReadBufferSize)}
}

// Reset discards buffered data and switches to r.
func (r *Reader) Reset(rd io.Reader) {
	r.br.Reset(rd)
}

// Buffered returns the number of bytes already read from the stream.
func (r *Reader) Buffered() int {
	return r.br.Buffered()
}

// Probe blocks until one byte is readable without consuming it.
// The liveness probe uses it under a short deadline: a timeout means the
// peer is idle, io.EOF means it hung up.
func (r *Reader) Probe() error {
	_, err := r.br.Peek(1)
	return err
}

// ReadReply reads one complete reply, recursing into arrays.
// Error replies are returned as values; only malformed input and I/O
// failures produce an error.
func (r *Reader) ReadReply() (Reply, error) {
	return r.readReply(0)
}

const maxDepth = 64

func (r *Reader) readReply(depth int) (Reply, error) {
	if depth > maxDepth {
		return Reply{}, domain.ErrProtocol.WithDetails("array nesting too deep")
	}

	line, err := r.readLine()
	if err != nil {
		return Reply{}, err
	}
	if len(line) == 0 {
		return Reply{}, domain.ErrProtocol.WithDetails("empty reply line")
	}

	t := Type(line[0])
	payload := line[1:]
	switch t {
	case TypeStatus, TypeError:
		return Reply{Type: t, Str: string(payload)}, nil

	case TypeInteger:
		n, err := strconv.ParseInt(string(payload), 10, 64)
		if err != nil {
			return Reply{}, domain.ErrProtocol.WithDetailsf("invalid integer %q", string(line))
		}
		return Reply{Type: t, Int: n}, nil

	case TypeBulk:
		n, err := parseLength(line, MaxBulkLen)
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return Reply{Type: t, Null: true}, nil
		}
		b, err := r.readBulkBody(n)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Type: t, Bulk: b}, nil

	case TypeArray:
		n, err := parseLength(line, MaxArrayLen)
		if err != nil {
			return Reply{}, err
		}
		if n < 0 {
			return Reply{Type: t, Null: true}, nil
		}
		elems := make([]Reply, n)
		for i := range elems {
			if elems[i], err = r.readReply(depth + 1); err != nil {
				return Reply{}, err
			}
		}
		return Reply{Type: t, Array: elems}, nil

	default:
		return Reply{}, domain.ErrProtocol.WithDetailsf("unknown reply prefix %q", string(line))
	}
}

// parseLength parses the length field of a "$" or "*" header.
// -1 is the null marker; other negatives and values over limit are rejected.
func parseLength(line []byte, limit int) (int, error) {
	n, err := strconv.Atoi(string(line[1:]))
	if err != nil {
		return 0, domain.ErrProtocol.WithDetailsf("invalid length %q", string(line))
	}
	if n < -1 {
		return 0, domain.ErrProtocol.WithDetailsf("invalid length %q", string(line))
	}
	if n > limit {
		return 0, domain.ErrProtocol.WithDetailsf("length %d exceeds limit %d", n, limit)
	}
	return n, nil
}

func (r *Reader) readBulkBody(n int) ([]byte, error) {
	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, domain.ErrProtocol.WithDetails("invalid bulk terminator")
	}
	return buf[:n:n], nil
}

// readLine returns one CRLF-terminated line without its terminator.
// The result may alias the read buffer and is only valid until the next read.
func (r *Reader) readLine() ([]byte, error) {
	var buf []byte
	for {
		frag, err := r.br.ReadSlice('\n')
		if err == nil {
			if buf == nil {
				buf = frag
			} else {
				buf = append(buf, frag...)
			}
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > MaxLineLen {
				return nil, domain.ErrProtocol.WithDetailsf("line length exceeds limit %d", MaxLineLen)
			}
			continue
		}
		return nil, err
	}

	if len(buf) > MaxLineLen {
		return nil, domain.ErrProtocol.WithDetailsf("line length exceeds limit %d", MaxLineLen)
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, crlf) {
		return nil, domain.ErrProtocol.WithDetails("missing CRLF")
	}
	return buf[:len(buf)-2], nil
}
