package value

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// FromResult converts a gjson query result into a runtime value. Integral
// numbers become int64
func FromResult(r gjson.Result) any {
	switch r.Type {
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return r.Str
	case gjson.Number:
		if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return i
		}
		return r.Num
	case gjson.JSON:
		if r.IsArray() {
			seq := NewSequence()
			r.ForEach(func(_, elem gjson.Result) bool {
				seq.Append(FromResult(elem))
				return true
			})
			return seq
		}
		m := NewHashMap()
		r.ForEach(func(k, elem gjson.Result) bool {
			m.Set(StringKey(k.Str), FromResult(elem))
			return true
		})
		return m
	default:
		return nil
	}
}
