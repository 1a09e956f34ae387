package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/koustreak/biconnector/internal/errs"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Condition is one filter applied to a field. It is one of Scalar, List or
// Node.
type Condition interface {
	isCondition()
}

// Scalar is an implicit equality test.
type Scalar struct {
	Value any
}

// List is an implicit IN test. An empty List adds no predicate.
type List struct {
	Values []any
}

// Node is an explicit operator condition. From and To are only read by
// BETWEEN.
type Node struct {
	Operator string
	Value    any
	From     any
	To       any
}

func (Scalar) isCondition() {}
func (List) isCondition()   {}
func (Node) isCondition()   {}

// Filters maps field names to conditions in the order the caller wrote them.
type Filters = orderedmap.OrderedMap[string, Condition]

// NewFilters returns an empty Filters.
func NewFilters() *Filters {
	return orderedmap.New[string, Condition]()
}

// DecodeFilters parses a JSON object of field → condition, keeping key
// order. Empty input and JSON null yield an empty Filters.
func DecodeFilters(data []byte) (*Filters, error) {
	out := NewFilters()
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return out, nil
	}
	if data[0] == '[' {
		// An empty JSON array is what some clients send for "no filter".
		var arr []json.RawMessage
		if err := json.Unmarshal(data, &arr); err == nil && len(arr) == 0 {
			return out, nil
		}
	}

	raw := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "filter must be a JSON object", err)
	}

	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		cond, err := ParseCondition(pair.Value)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("invalid filter for field %q", pair.Key), err)
		}
		out.Set(pair.Key, cond)
	}
	return out, nil
}

// ParseCondition classifies one raw filter value.
//
//   - a JSON object with an "operator" member is a Node;
//   - any other object or array is a List of its values in written order;
//   - everything else is a Scalar.
func ParseCondition(data json.RawMessage) (Condition, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Scalar{}, nil
	}

	switch data[0] {
	case '{':
		obj := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(data, obj); err != nil {
			return nil, err
		}
		if op, ok := obj.Get("operator"); ok && !isNull(op) {
			return parseNode(obj, op)
		}
		values := make([]any, 0, obj.Len())
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			v, err := decodeValue(pair.Value)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return List{Values: values}, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		values := make([]any, 0, len(items))
		for _, item := range items {
			v, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return List{Values: values}, nil

	default:
		v, err := decodeValue(data)
		if err != nil {
			return nil, err
		}
		return Scalar{Value: v}, nil
	}
}

func parseNode(obj *orderedmap.OrderedMap[string, json.RawMessage], op json.RawMessage) (Node, error) {
	opVal, err := decodeValue(op)
	if err != nil {
		return Node{}, err
	}
	n := Node{Operator: fmt.Sprint(opVal)}

	for _, f := range []struct {
		key string
		dst *any
	}{{"value", &n.Value}, {"from", &n.From}, {"to", &n.To}} {
		raw, ok := obj.Get(f.key)
		if !ok {
			continue
		}
		if *f.dst, err = decodeValue(raw); err != nil {
			return Node{}, err
		}
	}
	return n, nil
}

// decodeValue decodes a JSON value with integers kept as int64 rather than
// float64, so they bind as integers.
func decodeValue(data json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
		return t
	default:
		return v
	}
}

func isNull(data json.RawMessage) bool {
	return strings.TrimSpace(string(data)) == "null"
}
