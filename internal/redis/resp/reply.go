package resp

import (
	"strconv"
	"strings"

	"github.com/yndnr/goresp/internal/core/domain"
)

// Type is the RESP prefix byte of a reply.
type Type byte

const (
	TypeStatus  Type = '+'
	TypeError   Type = '-'
	TypeInteger Type = ':'
	TypeBulk    Type = '$'
	TypeArray   Type = '*'
)

func (t Type) String() string {
	switch t {
	case TypeStatus:
		return "status"
	case TypeError:
		return "error"
	case TypeInteger:
		return "integer"
	case TypeBulk:
		return "bulk"
	case TypeArray:
		return "array"
	default:
		return "unknown(" + strconv.Quote(string(rune(t))) + ")"
	}
}

// Reply is one parsed server reply.
//
// Str holds status and error text, Int the integer value, Bulk the bulk
// payload and Array the elements. Null marks "$-1" and "*-1".
type Reply struct {
	Type  Type
	Str   string
	Int   int64
	Bulk  []byte
	Array []Reply
	Null  bool
}

// Err returns the server error carried by an error reply, or nil.
func (r Reply) Err() error {
	if r.Type != TypeError {
		return nil
	}
	return domain.NewServerError(r.Str)
}

// Raw renders the reply header the way it appeared on the wire, for
// diagnostics. Bulk payloads are included and truncated.
func (r Reply) Raw() string {
	const maxPayload = 64
	switch r.Type {
	case TypeStatus, TypeError:
		return string(r.Type) + r.Str
	case TypeInteger:
		return ":" + strconv.FormatInt(r.Int, 10)
	case TypeBulk:
		if r.Null {
			return "$-1"
		}
		p := string(r.Bulk)
		if len(p) > maxPayload {
			p = p[:maxPayload] + "..."
		}
		return "$" + strconv.Itoa(len(r.Bulk)) + " " + p
	case TypeArray:
		if r.Null {
			return "*-1"
		}
		return "*" + strconv.Itoa(len(r.Array))
	default:
		return string(r.Type)
	}
}

// Text returns the reply as a single line of text: status text, integer
// digits or bulk payload. It reports false for arrays, errors and nulls.
func (r Reply) Text() (string, bool) {
	switch r.Type {
	case TypeStatus:
		return r.Str, true
	case TypeInteger:
		return strconv.FormatInt(r.Int, 10), true
	case TypeBulk:
		if r.Null {
			return "", false
		}
		return string(r.Bulk), true
	default:
		return "", false
	}
}

// Any converts the reply into a generic tree: string for status, int64 for
// integers, []byte for bulk payloads, []any for arrays and nil for nulls.
// An error reply anywhere in the tree fails the conversion.
func (r Reply) Any() (any, error) {
	switch r.Type {
	case TypeStatus:
		return r.Str, nil
	case TypeError:
		return nil, r.Err()
	case TypeInteger:
		return r.Int, nil
	case TypeBulk:
		if r.Null {
			return nil, nil
		}
		return r.Bulk, nil
	case TypeArray:
		if r.Null {
			return nil, nil
		}
		out := make([]any, len(r.Array))
		for i, el := range r.Array {
			v, err := el.Any()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, domain.ErrUnexpectedReply.WithDetails(r.Raw())
	}
}

// String formats the reply the way redis-cli prints it.
func (r Reply) String() string {
	var sb strings.Builder
	r.format(&sb, "")
	return sb.String()
}

func (r Reply) format(sb *strings.Builder, indent string) {
	switch r.Type {
	case TypeStatus:
		sb.WriteString(r.Str)
	case TypeError:
		sb.WriteString("(error) ")
		sb.WriteString(r.Str)
	case TypeInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(r.Int, 10))
	case TypeBulk:
		if r.Null {
			sb.WriteString("(nil)")
			return
		}
		sb.WriteString(strconv.Quote(string(r.Bulk)))
	case TypeArray:
		if r.Null {
			sb.WriteString("(nil)")
			return
		}
		if len(r.Array) == 0 {
			sb.WriteString("(empty array)")
			return
		}
		for i, el := range r.Array {
			if i > 0 {
				sb.WriteString("\n")
				sb.WriteString(indent)
			}
			prefix := strconv.Itoa(i+1) + ") "
			sb.WriteString(prefix)
			el.format(sb, indent+strings.Repeat(" ", len(prefix)))
		}
	}
}
