package value

import (
	"errors"
	"fmt"
	"strconv"
)

// Key is a HashMap key: either an int64 or a string
type Key struct {
	str   string
	num   int64
	isInt bool
}

var ErrInvalidKey = errors.New("invalid map key")

// StringKey creates a string key
func StringKey(s string) Key {
	return Key{str: s}
}

// IntKey creates an integer key
func IntKey(i int64) Key {
	return Key{num: i, isInt: true}
}

// MakeKey converts a runtime scalar into a Key. Only integers and strings
// are valid keys
func MakeKey(v any) (Key, error) {
	switch v := v.(type) {
	case string:
		return StringKey(v), nil
	case int64:
		return IntKey(v), nil
	default:
		return Key{}, fmt.Errorf("%w: %s", ErrInvalidKey, TypeName(v))
	}
}

// ParseKey converts an entry name into a Key. A name that is the canonical
// decimal form of an int64 becomes an integer key; "01" or "+1" stay strings
func ParseKey(name string) Key {
	if i, err := strconv.ParseInt(name, 10, 64); err == nil &&
		strconv.FormatInt(i, 10) == name {
		return IntKey(i)
	}
	return StringKey(name)
}

// IsInt reports whether the key is an integer key
func (k Key) IsInt() bool {
	return k.isInt
}

// Value returns the key as a runtime value
func (k Key) Value() any {
	if k.isInt {
		return k.num
	}
	return k.str
}

// String renders the key as a string, used for JSON object keys
func (k Key) String() string {
	if k.isInt {
		return strconv.FormatInt(k.num, 10)
	}
	return k.str
}

// Less orders integer keys before string keys, then by natural order
func (k Key) Less(o Key) bool {
	switch {
	case k.isInt && o.isInt:
		return k.num < o.num
	case k.isInt != o.isInt:
		return k.isInt
	default:
		return k.str < o.str
	}
}
