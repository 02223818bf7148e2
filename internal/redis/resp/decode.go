package resp

import (
	"math"
	"strconv"

	"github.com/yndnr/goresp/internal/core/domain"
)

// Decoder selects the reply shape a call site expects.
type Decoder uint8

const (
	// DecodeOK expects the status "OK".
	DecodeOK Decoder = iota + 1
	// DecodeQueued expects the status "QUEUED" (commands inside MULTI).
	DecodeQueued
	// DecodeSuccess accepts any non-error reply and discards it.
	DecodeSuccess
	// DecodeMultiData expects an array of bulk strings. A lone bulk reply
	// becomes a one-element result.
	DecodeMultiData
	// DecodeString expects a status, integer or bulk reply as text.
	DecodeString
	// DecodeLong expects a 64-bit integer reply.
	DecodeLong
	// DecodeInt expects an integer reply that fits 32 bits.
	DecodeInt
	// DecodeRank expects an integer, and also accepts a bulk reply carrying
	// the number. "$-1" means the member is absent and yields -1.
	DecodeRank
	// DecodeData expects a bulk reply; "$-1" yields nil.
	DecodeData
	// DecodeDouble expects a bulk reply holding a float; "$-1" yields NaN.
	DecodeDouble
	// DecodeCode expects a status or integer line.
	DecodeCode
	// DecodeNested accepts arbitrarily nested arrays.
	DecodeNested
	// DecodeAny accepts every non-error reply as a tree (see Reply.Any).
	DecodeAny
)

var decoderNames = [...]string{
	DecodeOK:        "ok",
	DecodeQueued:    "queued",
	DecodeSuccess:   "success",
	DecodeMultiData: "multi-data",
	DecodeString:    "string",
	DecodeLong:      "long",
	DecodeInt:       "int",
	DecodeRank:      "rank",
	DecodeData:      "data",
	DecodeDouble:    "double",
	DecodeCode:      "code",
	DecodeNested:    "nested",
	DecodeAny:       "any",
}

func (d Decoder) String() string {
	if int(d) < len(decoderNames) && decoderNames[d] != "" {
		return decoderNames[d]
	}
	return "decoder(" + strconv.Itoa(int(d)) + ")"
}

// Value is a decoded reply. Which field is set depends on the Decoder:
//
//	DecodeOK, DecodeQueued, DecodeSuccess   none
//	DecodeLong, DecodeInt, DecodeRank       Int
//	DecodeDouble                            Float
//	DecodeString, DecodeCode                Str
//	DecodeData                              Data
//	DecodeMultiData                         Multi
//	DecodeNested                            Tree
//	DecodeAny                               Any
type Value struct {
	Int   int64
	Float float64
	Str   string
	Data  []byte
	Multi [][]byte
	Tree  []any
	Any   any
}

// Decode reads one reply and converts it to the shape d expects.
//
// The whole reply is consumed before its shape is checked, so a server
// error, a shape mismatch or an unparsable payload leaves the stream
// aligned on the next reply and fails with domain.ErrUnexpectedReply.
// Malformed framing fails with domain.ErrProtocol and leaves it unaligned.
func (r *Reader) Decode(d Decoder) (Value, error) {
	rep, err := r.ReadReply()
	if err != nil {
		return Value{}, err
	}
	return DecodeReply(rep, d)
}

// DecodeReply converts an already parsed reply.
func DecodeReply(rep Reply, d Decoder) (Value, error) {
	if rep.Type == TypeError {
		return Value{}, rep.Err()
	}

	switch d {
	case DecodeOK:
		return Value{}, expectStatus(rep, "OK")
	case DecodeQueued:
		return Value{}, expectStatus(rep, "QUEUED")
	case DecodeSuccess:
		return Value{}, nil

	case DecodeLong:
		if rep.Type != TypeInteger {
			return Value{}, unexpected(d, rep)
		}
		return Value{Int: rep.Int}, nil

	case DecodeInt:
		if rep.Type != TypeInteger {
			return Value{}, unexpected(d, rep)
		}
		if rep.Int < math.MinInt32 || rep.Int > math.MaxInt32 {
			return Value{}, domain.ErrUnexpectedReply.WithDetailsf("integer reply %s overflows int32", rep.Raw())
		}
		return Value{Int: rep.Int}, nil

	case DecodeRank:
		switch {
		case rep.Type == TypeInteger:
			return Value{Int: rep.Int}, nil
		case rep.Type == TypeBulk && rep.Null:
			return Value{Int: -1}, nil
		case rep.Type == TypeBulk:
			n, err := strconv.ParseInt(string(rep.Bulk), 10, 64)
			if err != nil {
				return Value{}, domain.ErrUnexpectedReply.WithDetailsf("non-numeric rank reply %s", rep.Raw())
			}
			return Value{Int: n}, nil
		}
		return Value{}, unexpected(d, rep)

	case DecodeDouble:
		switch rep.Type {
		case TypeBulk:
			if rep.Null {
				return Value{Float: math.NaN()}, nil
			}
			f, err := strconv.ParseFloat(string(rep.Bulk), 64)
			if err != nil {
				return Value{}, domain.ErrUnexpectedReply.WithDetailsf("non-numeric double reply %s", rep.Raw())
			}
			return Value{Float: f}, nil
		case TypeInteger:
			return Value{Float: float64(rep.Int)}, nil
		}
		return Value{}, unexpected(d, rep)

	case DecodeString:
		if rep.Type == TypeBulk && rep.Null {
			return Value{}, nil
		}
		if s, ok := rep.Text(); ok {
			return Value{Str: s}, nil
		}
		return Value{}, unexpected(d, rep)

	case DecodeCode:
		if rep.Type != TypeStatus && rep.Type != TypeInteger {
			return Value{}, unexpected(d, rep)
		}
		s, _ := rep.Text()
		return Value{Str: s}, nil

	case DecodeData:
		b, err := elementBytes(rep)
		if err != nil {
			return Value{}, err
		}
		return Value{Data: b}, nil

	case DecodeMultiData:
		switch rep.Type {
		case TypeBulk:
			return Value{Multi: [][]byte{rep.Bulk}}, nil
		case TypeArray:
			if rep.Null {
				return Value{}, nil
			}
			out := make([][]byte, len(rep.Array))
			for i, el := range rep.Array {
				b, err := elementBytes(el)
				if err != nil {
					return Value{}, err
				}
				out[i] = b
			}
			return Value{Multi: out}, nil
		}
		return Value{}, unexpected(d, rep)

	case DecodeNested:
		if rep.Type != TypeArray {
			return Value{}, unexpected(d, rep)
		}
		tree, err := rep.Any()
		if err != nil {
			return Value{}, err
		}
		v, _ := tree.([]any)
		return Value{Tree: v}, nil

	case DecodeAny:
		tree, err := rep.Any()
		if err != nil {
			return Value{}, err
		}
		return Value{Any: tree}, nil
	}

	return Value{}, domain.ErrUnexpectedReply.WithDetailsf("unknown decoder %d", d)
}

func expectStatus(rep Reply, word string) error {
	if rep.Type != TypeStatus || rep.Str != word {
		return domain.ErrUnexpectedReply.WithDetailsf("expected +%s, got %s", word, rep.Raw())
	}
	return nil
}

// elementBytes converts a scalar reply into bytes; nulls become nil.
func elementBytes(rep Reply) ([]byte, error) {
	switch rep.Type {
	case TypeBulk:
		return rep.Bulk, nil
	case TypeInteger:
		return strconv.AppendInt(nil, rep.Int, 10), nil
	case TypeStatus:
		return []byte(rep.Str), nil
	case TypeError:
		return nil, rep.Err()
	}
	return nil, domain.ErrUnexpectedReply.WithDetailsf("expected bulk, got %s", rep.Raw())
}

func unexpected(d Decoder, rep Reply) error {
	return domain.ErrUnexpectedReply.WithDetailsf("%s reader got %s", d, rep.Raw())
}
