package api

import "maps"

// Metadata carries account, transaction and access-control details that
// travel with a plan execution
type Metadata map[string]any

const (
	MetaAccountID     = "account_id"
	MetaAccountName   = "account_name"
	MetaTransactionID = "transaction_id"
	MetaRoles         = "roles"
)

// Apply will merge the keys/values of the other metadata set into this one
func (m Metadata) Apply(other Metadata) Metadata {
	if len(other) == 0 {
		return m
	}
	res := make(Metadata, len(m)+len(other))
	maps.Copy(res, m)
	maps.Copy(res, other)
	return res
}

// GetMetaString returns a non-empty string value stored under key
func GetMetaString[T ~string](meta Metadata, key string) (T, bool) {
	var zero T
	val, ok := meta[key]
	if !ok {
		return zero, false
	}

	switch v := val.(type) {
	case T:
		if v == "" {
			return zero, false
		}
		return v, true
	case string:
		if v == "" {
			return zero, false
		}
		return T(v), true
	default:
		return zero, false
	}
}
