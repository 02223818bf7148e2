package repl

import (
	"errors"
	"strconv"
	"strings"
)

var errUnbalancedQuotes = errors.New("invalid argument(s): unbalanced quotes")

// Split breaks a command line into arguments. Double-quoted arguments
// understand \n, \r, \t, \b, \a, \xHH and backslash-escaped characters;
// single-quoted arguments only \'. A closing quote must be followed by
// whitespace or the end of the line.
func Split(line string) ([]string, error) {
	var args []string
	i := 0
	for {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i == len(line) {
			return args, nil
		}

		var cur strings.Builder
		inDouble, inSingle := false, false
	scan:
		for {
			if i == len(line) {
				if inDouble || inSingle {
					return nil, errUnbalancedQuotes
				}
				break scan
			}
			ch := line[i]

			switch {
			case inDouble:
				switch {
				case ch == '\\' && i+3 < len(line) && line[i+1] == 'x' && isHex(line[i+2]) && isHex(line[i+3]):
					n, _ := strconv.ParseUint(line[i+2:i+4], 16, 8)
					cur.WriteByte(byte(n))
					i += 3
				case ch == '\\' && i+1 < len(line):
					i++
					cur.WriteByte(unescape(line[i]))
				case ch == '"':
					if i+1 < len(line) && !isSpace(line[i+1]) {
						return nil, errUnbalancedQuotes
					}
					inDouble = false
				default:
					cur.WriteByte(ch)
				}
			case inSingle:
				switch {
				case ch == '\\' && i+1 < len(line) && line[i+1] == '\'':
					i++
					cur.WriteByte('\'')
				case ch == '\'':
					if i+1 < len(line) && !isSpace(line[i+1]) {
						return nil, errUnbalancedQuotes
					}
					inSingle = false
				default:
					cur.WriteByte(ch)
				}
			case isSpace(ch):
				break scan
			case ch == '"':
				inDouble = true
			case ch == '\'':
				inSingle = true
			default:
				cur.WriteByte(ch)
			}
			i++
		}
		args = append(args, cur.String())
	}
}

func unescape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'a':
		return '\a'
	default:
		return ch
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isHex(ch byte) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
