// Package value defines the runtime values blocks produce and consume
//
// Scalars are nil, bool, int64, float64 and string. Containers are the
// ordered Sequence and the keyed HashMap, whose keys are restricted to
// int64 or string
package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	TypeNull     = "null"
	TypeBool     = "boolean"
	TypeInteger  = "integer"
	TypeFloat    = "float"
	TypeString   = "string"
	TypeSequence = "sequence"
	TypeHashMap  = "hashmap"
	TypeUnknown  = "unknown"
)

var ErrUnsupportedValue = errors.New("unsupported value")

// TypeName returns the dynamic type name of a runtime value
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBool
	case int64:
		return TypeInteger
	case float64:
		return TypeFloat
	case string:
		return TypeString
	case *Sequence:
		return TypeSequence
	case *HashMap:
		return TypeHashMap
	default:
		return TypeUnknown
	}
}

// IsScalar reports whether v is nil, bool, a number or a string
func IsScalar(v any) bool {
	switch v.(type) {
	case nil, bool, int64, float64, string:
		return true
	default:
		return false
	}
}

// Clone returns a deep copy of container values; scalars are returned as is
func Clone(v any) any {
	switch v := v.(type) {
	case *Sequence:
		return v.Clone()
	case *HashMap:
		return v.Clone()
	default:
		return v
	}
}

// Equal compares two runtime values structurally. Integers and floats
// compare numerically
func Equal(l, r any) bool {
	switch l := l.(type) {
	case int64:
		switch r := r.(type) {
		case int64:
			return l == r
		case float64:
			return float64(l) == r
		}
		return false
	case float64:
		switch r := r.(type) {
		case int64:
			return l == float64(r)
		case float64:
			return l == r
		}
		return false
	case *Sequence:
		rs, ok := r.(*Sequence)
		return ok && l.Equal(rs)
	case *HashMap:
		rm, ok := r.(*HashMap)
		return ok && l.Equal(rm)
	default:
		if !IsScalar(l) || !IsScalar(r) {
			return false
		}
		return l == r
	}
}

// FromJSON converts a decoded JSON value (maps, slices, float64, etc.) into
// a runtime value. Integral numbers become int64
func FromJSON(v any) (any, error) {
	switch v := v.(type) {
	case nil, bool, string, int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return normalizeNumber(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, v)
		}
		return f, nil
	case []any:
		seq := NewSequence()
		for _, elem := range v {
			conv, err := FromJSON(elem)
			if err != nil {
				return nil, err
			}
			seq.Append(conv)
		}
		return seq, nil
	case map[string]any:
		m := NewHashMap()
		for k, elem := range v {
			conv, err := FromJSON(elem)
			if err != nil {
				return nil, err
			}
			m.Set(StringKey(k), conv)
		}
		return m, nil
	case *Sequence, *HashMap:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// ToJSON converts a runtime value into plain Go values suitable for
// encoding/json
func ToJSON(v any) any {
	switch v := v.(type) {
	case *Sequence:
		out := make([]any, 0, v.Len())
		for _, elem := range v.Items() {
			out = append(out, ToJSON(elem))
		}
		return out
	case *HashMap:
		out := make(map[string]any, v.Len())
		for k, elem := range v.All() {
			out[k.String()] = ToJSON(elem)
		}
		return out
	default:
		return v
	}
}

// ParseJSON decodes a JSON document into a runtime value
func ParseJSON(data []byte) (any, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return FromJSON(raw)
}

func normalizeNumber(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) &&
		f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}
