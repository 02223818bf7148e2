package output

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yndnr/goresp/internal/core/domain"
)

// TableFormatter renders replies the way redis-cli does and structured
// results as aligned columns.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as text.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case *Table:
		return v.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return v.RenderWithOptions(w, f.NoHeaders)
	case map[string]string:
		return mapToTable(v).RenderWithOptions(w, f.NoHeaders)
	case []domain.KeyValue, []domain.ScoreValue:
		t := &Table{Headers: []string{"KEY", "VALUE"}}
		for _, fl := range normalize(v).([]Field) {
			t.AddRow(fl.Key, fl.Value)
		}
		return t.RenderWithOptions(w, f.NoHeaders)
	case [][]byte:
		items := make([]any, len(v))
		for i, b := range v {
			items[i] = bulk(b)
		}
		return writeReply(w, items)
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = []byte(s)
		}
		return writeReply(w, items)
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct && rv.Type() != reflect.TypeOf(time.Time{}) {
		return structToTable(rv).RenderWithOptions(w, f.NoHeaders)
	}
	return writeReply(w, data)
}

// bulk keeps a nil element nil instead of a typed nil slice.
func bulk(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

// writeReply prints a reply tree: arrays as numbered lists with nested
// arrays indented under their number, nil as (nil), integers as
// (integer) n, bulk strings ([]byte) quoted, errors as (error) msg and
// status lines (string) as they are.
func writeReply(w io.Writer, v any) error {
	var b strings.Builder
	appendReply(&b, v, "")
	_, err := io.WriteString(w, b.String())
	return err
}

func appendReply(b *strings.Builder, v any, indent string) {
	items, ok := v.([]any)
	if !ok {
		b.WriteString(scalar(v))
		b.WriteByte('\n')
		return
	}
	if len(items) == 0 {
		b.WriteString("(empty array)\n")
		return
	}
	width := len(strconv.Itoa(len(items)))
	for i, el := range items {
		prefix := fmt.Sprintf("%*d) ", width, i+1)
		if i > 0 {
			b.WriteString(indent)
		}
		b.WriteString(prefix)
		appendReply(b, el, indent+strings.Repeat(" ", len(prefix)))
	}
}

func scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return "(nil)"
	case []byte:
		if x == nil {
			return "(nil)"
		}
		return strconv.Quote(string(x))
	case string:
		return x
	case int64:
		return "(integer) " + strconv.FormatInt(x, 10)
	case int:
		return "(integer) " + strconv.Itoa(x)
	case float64:
		return "(double) " + formatScore(x)
	case bool:
		if x {
			return "(integer) 1"
		}
		return "(integer) 0"
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	case error:
		return "(error) " + x.Error()
	default:
		return fmt.Sprintf("%v", x)
	}
}

func formatScore(f float64) string {
	switch {
	case math.IsNaN(f):
		return "(nil)"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// mapToTable converts a map to a key-value table sorted by key.
func mapToTable(m map[string]string) *Table {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &Table{Headers: []string{"KEY", "VALUE"}}
	for _, k := range keys {
		t.AddRow(k, m[k])
	}
	return t
}

// structToTable flattens a struct into dotted FIELD/VALUE rows, naming
// fields after their yaml tags.
func structToTable(v reflect.Value) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	appendFields(t, "", v)
	return t
}

func appendFields(t *Table, prefix string, v reflect.Value) {
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("yaml"); tag != "" {
			if n, _, _ := strings.Cut(tag, ","); n != "" && n != "-" {
				name = n
			}
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		fv := v.Field(i)
		if fv.Kind() == reflect.Struct && fv.Type() != reflect.TypeOf(time.Time{}) {
			appendFields(t, name, fv)
			continue
		}
		t.AddRow(name, formatValue(fv))
	}
}

// formatValue formats a reflect.Value for display.
func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return "-"
	}
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}

	switch x := v.Interface().(type) {
	case time.Duration:
		return x.String()
	case time.Time:
		if x.IsZero() {
			return "-"
		}
		return x.Format(time.RFC3339)
	case []byte:
		return string(x)
	}

	switch v.Kind() {
	case reflect.String:
		if v.String() == "" {
			return "-"
		}
		return v.String()
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', 2, 64)
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
