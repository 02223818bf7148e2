package resp

import (
	"bytes"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/yndnr/goresp/internal/core/domain"
)

func newTestReader(s string) *Reader {
	return NewReader(strings.NewReader(s))
}

func TestReader_ReadReply(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, r Reply)
	}{
		{"status", "+OK\r\n", func(t *testing.T, r Reply) {
			if r.Type != TypeStatus || r.Str != "OK" {
				t.Errorf("got %+v", r)
			}
		}},
		{"error", "-ERR boom\r\n", func(t *testing.T, r Reply) {
			if r.Type != TypeError || r.Str != "ERR boom" {
				t.Errorf("got %+v", r)
			}
		}},
		{"integer", ":-42\r\n", func(t *testing.T, r Reply) {
			if r.Type != TypeInteger || r.Int != -42 {
				t.Errorf("got %+v", r)
			}
		}},
		{"bulk", "$5\r\nhe\r\no\r\n", func(t *testing.T, r Reply) {
			if r.Type != TypeBulk || string(r.Bulk) != "he\r\no" {
				t.Errorf("got %+v", r)
			}
		}},
		{"empty bulk", "$0\r\n\r\n", func(t *testing.T, r Reply) {
			if r.Null || r.Bulk == nil || len(r.Bulk) != 0 {
				t.Errorf("got %+v", r)
			}
		}},
		{"null bulk", "$-1\r\n", func(t *testing.T, r Reply) {
			if !r.Null || r.Bulk != nil {
				t.Errorf("got %+v", r)
			}
		}},
		{"null array", "*-1\r\n", func(t *testing.T, r Reply) {
			if !r.Null || r.Array != nil {
				t.Errorf("got %+v", r)
			}
		}},
		{"nested", "*2\r\n*1\r\n:1\r\n$1\r\na\r\n", func(t *testing.T, r Reply) {
			if len(r.Array) != 2 || r.Array[0].Array[0].Int != 1 || string(r.Array[1].Bulk) != "a" {
				t.Errorf("got %+v", r)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := newTestReader(tt.input).ReadReply()
			if err != nil {
				t.Fatalf("ReadReply() error = %v", err)
			}
			tt.check(t, r)
		})
	}
}

func TestReader_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown prefix", "?what\r\n"},
		{"bad integer", ":12a\r\n"},
		{"bad bulk length", "$abc\r\n"},
		{"negative bulk length", "$-2\r\n"},
		{"bulk missing crlf", "$3\r\nabcXY"},
		{"line missing cr", "+OK\n"},
		{"bulk too large", "$999999999999\r\n"},
		{"empty line", "\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestReader(tt.input).ReadReply()
			if !errors.Is(err, domain.ErrProtocol) {
				t.Fatalf("ReadReply() error = %v, want ErrProtocol", err)
			}
			if domain.KindOf(err) != domain.KindProtocol {
				t.Errorf("KindOf() = %v", domain.KindOf(err))
			}
		})
	}
}

func TestReader_ShortRead(t *testing.T) {
	_, err := newTestReader("$10\r\nabc").ReadReply()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadReply() error = %v, want io.ErrUnexpectedEOF", err)
	}
	_, err = newTestReader("").ReadReply()
	if !errors.Is(err, io.EOF) {
		t.Errorf("ReadReply() error = %v, want io.EOF", err)
	}
}

func TestReader_LongLine(t *testing.T) {
	line := "+" + strings.Repeat("a", ReadBufferSize*2) + "\r\n"
	r, err := newTestReader(line).ReadReply()
	if err != nil {
		t.Fatalf("ReadReply() error = %v", err)
	}
	if len(r.Str) != ReadBufferSize*2 {
		t.Errorf("len = %d", len(r.Str))
	}

	tooLong := "+" + strings.Repeat("a", MaxLineLen+10) + "\r\n"
	if _, err := newTestReader(tooLong).ReadReply(); !errors.Is(err, domain.ErrProtocol) {
		t.Errorf("ReadReply() error = %v, want ErrProtocol", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		decoder Decoder
		check   func(t *testing.T, v Value)
		wantErr *domain.DomainError
	}{
		{name: "ok", input: "+OK\r\n", decoder: DecodeOK},
		{name: "ok mismatch", input: "+PONG\r\n", decoder: DecodeOK, wantErr: domain.ErrUnexpectedReply},
		{name: "queued", input: "+QUEUED\r\n", decoder: DecodeQueued},
		{name: "success any", input: "*2\r\n$1\r\na\r\n:1\r\n", decoder: DecodeSuccess},
		{name: "success error", input: "-ERR no\r\n", decoder: DecodeSuccess, wantErr: domain.ErrServerReply},

		{name: "long", input: ":9000000000\r\n", decoder: DecodeLong, check: func(t *testing.T, v Value) {
			if v.Int != 9000000000 {
				t.Errorf("Int = %d", v.Int)
			}
		}},
		{name: "long rejects bulk", input: "$2\r\n12\r\n", decoder: DecodeLong, wantErr: domain.ErrUnexpectedReply},
		{name: "int", input: ":7\r\n", decoder: DecodeInt, check: func(t *testing.T, v Value) {
			if v.Int != 7 {
				t.Errorf("Int = %d", v.Int)
			}
		}},
		{name: "int overflow", input: ":9000000000\r\n", decoder: DecodeInt, wantErr: domain.ErrUnexpectedReply},
		{name: "int rejects status", input: "+7\r\n", decoder: DecodeInt, wantErr: domain.ErrUnexpectedReply},

		{name: "rank integer", input: ":3\r\n", decoder: DecodeRank, check: func(t *testing.T, v Value) {
			if v.Int != 3 {
				t.Errorf("Int = %d", v.Int)
			}
		}},
		{name: "rank bulk", input: "$1\r\n4\r\n", decoder: DecodeRank, check: func(t *testing.T, v Value) {
			if v.Int != 4 {
				t.Errorf("Int = %d", v.Int)
			}
		}},
		{name: "rank absent", input: "$-1\r\n", decoder: DecodeRank, check: func(t *testing.T, v Value) {
			if v.Int != -1 {
				t.Errorf("Int = %d", v.Int)
			}
		}},
		{name: "rank non numeric", input: "$1\r\nx\r\n", decoder: DecodeRank, wantErr: domain.ErrUnexpectedReply},

		{name: "double", input: "$4\r\n1.25\r\n", decoder: DecodeDouble, check: func(t *testing.T, v Value) {
			if v.Float != 1.25 {
				t.Errorf("Float = %v", v.Float)
			}
		}},
		{name: "double null", input: "$-1\r\n", decoder: DecodeDouble, check: func(t *testing.T, v Value) {
			if !math.IsNaN(v.Float) {
				t.Errorf("Float = %v, want NaN", v.Float)
			}
		}},
		{name: "double inf", input: "$4\r\n-inf\r\n", decoder: DecodeDouble, check: func(t *testing.T, v Value) {
			if !math.IsInf(v.Float, -1) {
				t.Errorf("Float = %v", v.Float)
			}
		}},
		{name: "double garbage", input: "$2\r\nzz\r\n", decoder: DecodeDouble, wantErr: domain.ErrUnexpectedReply},

		{name: "string status", input: "+hello\r\n", decoder: DecodeString, check: func(t *testing.T, v Value) {
			if v.Str != "hello" {
				t.Errorf("Str = %q", v.Str)
			}
		}},
		{name: "string bulk", input: "$3\r\nabc\r\n", decoder: DecodeString, check: func(t *testing.T, v Value) {
			if v.Str != "abc" {
				t.Errorf("Str = %q", v.Str)
			}
		}},
		{name: "code", input: "+string\r\n", decoder: DecodeCode, check: func(t *testing.T, v Value) {
			if v.Str != "string" {
				t.Errorf("Str = %q", v.Str)
			}
		}},
		{name: "code rejects array", input: "*0\r\n", decoder: DecodeCode, wantErr: domain.ErrUnexpectedReply},

		{name: "data", input: "$3\r\nabc\r\n", decoder: DecodeData, check: func(t *testing.T, v Value) {
			if string(v.Data) != "abc" {
				t.Errorf("Data = %q", v.Data)
			}
		}},
		{name: "data null", input: "$-1\r\n", decoder: DecodeData, check: func(t *testing.T, v Value) {
			if v.Data != nil {
				t.Errorf("Data = %q, want nil", v.Data)
			}
		}},
		{name: "data integer", input: ":12\r\n", decoder: DecodeData, check: func(t *testing.T, v Value) {
			if string(v.Data) != "12" {
				t.Errorf("Data = %q", v.Data)
			}
		}},

		{name: "multi", input: "*3\r\n$1\r\na\r\n$-1\r\n:5\r\n", decoder: DecodeMultiData, check: func(t *testing.T, v Value) {
			if len(v.Multi) != 3 || string(v.Multi[0]) != "a" || v.Multi[1] != nil || string(v.Multi[2]) != "5" {
				t.Errorf("Multi = %q", v.Multi)
			}
		}},
		{name: "multi null array", input: "*-1\r\n", decoder: DecodeMultiData, check: func(t *testing.T, v Value) {
			if v.Multi != nil {
				t.Errorf("Multi = %q, want nil", v.Multi)
			}
		}},
		{name: "multi empty array", input: "*0\r\n", decoder: DecodeMultiData, check: func(t *testing.T, v Value) {
			if v.Multi == nil || len(v.Multi) != 0 {
				t.Errorf("Multi = %#v, want empty non-nil", v.Multi)
			}
		}},
		{name: "multi lone bulk", input: "$3\r\nval\r\n", decoder: DecodeMultiData, check: func(t *testing.T, v Value) {
			if len(v.Multi) != 1 || string(v.Multi[0]) != "val" {
				t.Errorf("Multi = %q", v.Multi)
			}
		}},
		{name: "multi nested rejected", input: "*1\r\n*0\r\n", decoder: DecodeMultiData, wantErr: domain.ErrUnexpectedReply},

		{name: "nested", input: "*2\r\n*2\r\n:1\r\n+x\r\n$-1\r\n", decoder: DecodeNested, check: func(t *testing.T, v Value) {
			if len(v.Tree) != 2 {
				t.Fatalf("Tree = %#v", v.Tree)
			}
			inner, ok := v.Tree[0].([]any)
			if !ok || inner[0] != int64(1) || inner[1] != "x" {
				t.Errorf("inner = %#v", v.Tree[0])
			}
			if v.Tree[1] != nil {
				t.Errorf("Tree[1] = %#v, want nil", v.Tree[1])
			}
		}},
		{name: "nested error element", input: "*1\r\n-ERR inner\r\n", decoder: DecodeNested, wantErr: domain.ErrServerReply},

		{name: "any status", input: "+PONG\r\n", decoder: DecodeAny, check: func(t *testing.T, v Value) {
			if v.Any != "PONG" {
				t.Errorf("Any = %#v", v.Any)
			}
		}},
		{name: "any null bulk", input: "$-1\r\n", decoder: DecodeAny, check: func(t *testing.T, v Value) {
			if v.Any != nil {
				t.Errorf("Any = %#v, want nil", v.Any)
			}
		}},
		{name: "any array", input: "*2\r\n:3\r\n$1\r\nz\r\n", decoder: DecodeAny, check: func(t *testing.T, v Value) {
			items, ok := v.Any.([]any)
			if !ok || len(items) != 2 || items[0] != int64(3) || string(items[1].([]byte)) != "z" {
				t.Errorf("Any = %#v", v.Any)
			}
		}},
		{name: "any error", input: "-WRONGTYPE nope\r\n", decoder: DecodeAny, wantErr: domain.ErrServerReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := newTestReader(tt.input).Decode(tt.decoder)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if tt.check != nil {
				tt.check(t, v)
			}
		})
	}
}

func TestDecode_ServerErrorNormalized(t *testing.T) {
	_, err := newTestReader("-ERR no such key\r\n").Decode(DecodeData)
	msg, ok := domain.ServerMessage(err)
	if !ok || msg != "no such key" {
		t.Errorf("ServerMessage() = %q, %v", msg, ok)
	}

	_, err = newTestReader("-WRONGTYPE bad\r\n").Decode(DecodeLong)
	msg, _ = domain.ServerMessage(err)
	if msg != "WRONGTYPE bad" {
		t.Errorf("ServerMessage() = %q", msg)
	}
}

func TestDecode_ProtocolErrorEmbedsRaw(t *testing.T) {
	_, err := newTestReader("+12\r\n").Decode(DecodeLong)
	if err == nil || !strings.Contains(err.Error(), "+12") {
		t.Errorf("Decode() error = %v, want raw reply in message", err)
	}
}

func TestDecode_StreamStaysAligned(t *testing.T) {
	r := newTestReader("-ERR first\r\n*2\r\n$1\r\na\r\n$1\r\nb\r\n:3\r\n")

	if _, err := r.Decode(DecodeLong); !errors.Is(err, domain.ErrServerReply) {
		t.Fatalf("first Decode() error = %v", err)
	}
	if _, err := r.Decode(DecodeLong); !errors.Is(err, domain.ErrUnexpectedReply) {
		t.Fatalf("second Decode() error = %v", err)
	}
	v, err := r.Decode(DecodeLong)
	if err != nil || v.Int != 3 {
		t.Fatalf("third Decode() = %v, %v", v.Int, err)
	}
}

func TestReply_String(t *testing.T) {
	r, err := newTestReader("*3\r\n$1\r\na\r\n:2\r\n*1\r\n$-1\r\n").ReadReply()
	if err != nil {
		t.Fatalf("ReadReply() error = %v", err)
	}
	want := "1) \"a\"\n2) (integer) 2\n3) 1) (nil)"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestReader_Probe(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("+OK\r\n")))
	if err := r.Probe(); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if r.Buffered() == 0 {
		t.Error("Probe should buffer data")
	}
	if _, err := r.Decode(DecodeOK); err != nil {
		t.Fatalf("Decode() after Probe error = %v", err)
	}
	if err := r.Probe(); !errors.Is(err, io.EOF) {
		t.Errorf("Probe() at end = %v, want io.EOF", err)
	}
}
