package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Cell is one column of a raw input row, kept in column order.
type Cell struct {
	Header string
	Value  string
}

// RawRow is a single input line before any normalization.
type RawRow struct {
	LineNo int
	Cells  []Cell
}

// Crosswalk maps original column headers to canonical field identifiers.
type Crosswalk map[string]string

func (c Crosswalk) Lookup(header string) (string, bool) {
	field, ok := c[header]
	return field, ok
}

// Fields returns the distinct canonical identifiers, sorted.
func (c Crosswalk) Fields() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(c))
	for _, field := range c {
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindSingle
	KindMultiple
)

// Value is a field slot: either a single scalar or an ordered list of two or
// more scalars. Scalars are string, int, bool or float64 (JSON input only).
type Value struct {
	Kind  ValueKind
	Items []any
}

func Single(v any) Value {
	return Value{Kind: KindSingle, Items: []any{v}}
}

func Multiple(vs ...any) Value {
	var out Value
	for _, v := range vs {
		out = out.Append(v)
	}
	return out
}

// Append returns a copy of v with s added: empty becomes single, single
// becomes multiple, multiple grows.
func (v Value) Append(s any) Value {
	items := make([]any, len(v.Items), len(v.Items)+1)
	copy(items, v.Items)
	items = append(items, s)
	kind := KindSingle
	if len(items) > 1 {
		kind = KindMultiple
	}
	return Value{Kind: kind, Items: items}
}

func (v Value) IsZero() bool { return len(v.Items) == 0 }

func (v Value) IsMultiple() bool { return v.Kind == KindMultiple }

// Scalar returns the first item, or nil for an empty slot.
func (v Value) Scalar() any {
	if len(v.Items) == 0 {
		return nil
	}
	return v.Items[0]
}

// Strings renders every item with FormatScalar.
func (v Value) Strings() []string {
	out := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		out = append(out, FormatScalar(item))
	}
	return out
}

// CellString is the flat-table rendering: a single value as plain text, a
// multiple value as a JSON array.
func (v Value) CellString() string {
	switch v.Kind {
	case KindEmpty:
		return ""
	case KindSingle:
		return FormatScalar(v.Items[0])
	default:
		blob, err := json.Marshal(v.Items)
		if err != nil {
			return fmt.Sprint(v.Items)
		}
		return string(blob)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindEmpty:
		return []byte("null"), nil
	case KindSingle:
		return json.Marshal(v.Items[0])
	default:
		return json.Marshal(v.Items)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Value{}
	case []any:
		out := Value{}
		for _, item := range t {
			out = out.Append(scalarFromJSON(item))
		}
		*v = out
	default:
		*v = Single(scalarFromJSON(t))
	}
	return nil
}

func scalarFromJSON(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// FormatScalar renders a scalar the way it appears in input tables.
func FormatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Record maps canonical field identifiers to values.
type Record map[string]Value

func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	if !ok || v.IsZero() {
		return Value{}, false
	}
	return v, true
}

// ID returns the record identifier rendered as text.
func (r Record) ID(idField string) string {
	v, ok := r.Get(idField)
	if !ok {
		return ""
	}
	return FormatScalar(v.Scalar())
}

func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
