package command

import (
	"math"
	"strconv"

	"github.com/yndnr/goresp/internal/core/domain"
)

// argv builds a command vector.
type argv [][]byte

func cmd(name string, hint int) argv {
	a := make(argv, 0, hint+1)
	return append(a, []byte(name))
}

func (a argv) str(ss ...string) argv {
	for _, s := range ss {
		a = append(a, []byte(s))
	}
	return a
}

func (a argv) raw(bs ...[]byte) argv {
	return append(a, bs...)
}

func (a argv) int(n int64) argv {
	return append(a, strconv.AppendInt(nil, n, 10))
}

func (a argv) float(f float64) argv {
	return append(a, []byte(formatFloat(f)))
}

// formatFloat renders f the way the server parses scores and increments.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func requireKey(name, value string) error {
	if value == "" {
		return domain.InvalidArgument(name, "must not be empty")
	}
	return nil
}

func requireKeys(name string, values []string) error {
	if len(values) == 0 {
		return domain.InvalidArgument(name, "at least one is required")
	}
	for _, v := range values {
		if v == "" {
			return domain.InvalidArgument(name, "must not contain empty names")
		}
	}
	return nil
}

func requireFloat(name string, f float64) error {
	if math.IsNaN(f) {
		return domain.InvalidArgument(name, "must be a number")
	}
	return nil
}

func toStrings(items [][]byte) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, b := range items {
		out[i] = string(b)
	}
	return out
}

// pairs folds a flat field/value reply into KeyValues.
func pairs(items [][]byte) ([]domain.KeyValue, error) {
	if len(items)%2 != 0 {
		return nil, domain.ErrUnexpectedReply.WithDetailsf("odd pair reply of %d items", len(items))
	}
	out := make([]domain.KeyValue, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		out = append(out, domain.KeyValue{Key: string(items[i]), Value: items[i+1]})
	}
	return out, nil
}

// offset converts a 1-based page into a LIMIT offset.
func offset(pageSize, pageIndex int) int64 {
	if pageIndex <= 1 {
		return 0
	}
	return int64(pageSize) * int64(pageIndex-1)
}
