// Package text provides string manipulation blocks. Lengths and offsets
// count characters, not bytes
package text

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
)

const Type = "text"

const (
	ActionConcat    = "concat"
	ActionLength    = "length"
	ActionUpper     = "upper"
	ActionLower     = "lower"
	ActionTrim      = "trim"
	ActionReplace   = "replace"
	ActionSplit     = "split"
	ActionJoin      = "join"
	ActionSubstring = "substring"
	ActionContains  = "contains"
	ActionToString  = "to-string"
)

// Child slots
const (
	SlotValues    = "values"
	SlotValue     = "value"
	SlotSearch    = "search"
	SlotReplace   = "replace"
	SlotSeparator = "separator"
	SlotTarget    = "target"
	SlotStart     = "start"
	SlotLength    = "length"
)

// Register adds the text family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionConcat: common.DefineSpec(common.Spec{
			Run:   concat,
			Lists: []string{SlotValues},
		}),
		ActionLength: common.Define(length, SlotValue),
		ActionUpper:  common.Define(mapString(strings.ToUpper), SlotValue),
		ActionLower:  common.Define(mapString(strings.ToLower), SlotValue),
		ActionTrim:   common.Define(mapString(strings.TrimSpace), SlotValue),
		ActionReplace: common.Define(replace,
			SlotValue, SlotSearch, SlotReplace),
		ActionSplit: common.Define(split, SlotValue, SlotSeparator),
		ActionJoin:  common.Define(join, SlotTarget, SlotSeparator),
		ActionSubstring: common.DefineSpec(common.Spec{
			Run:      substring,
			Required: []string{SlotValue, SlotStart},
			Optional: []string{SlotLength},
		}),
		ActionContains: common.Define(contains, SlotValue, SlotSearch),
		ActionToString: common.Define(toString, SlotValue),
	})
}

func concat(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	var sb strings.Builder
	for _, b := range op.List(SlotValues).All() {
		s, err := op.EvalString(ctx, st, b)
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func length(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	s, err := op.StringArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	return int64(len([]rune(s))), nil
}

func mapString(fn func(string) string) common.RunFunc {
	return func(
		ctx context.Context, st *session.Storage, op *common.Op,
	) (any, error) {
		s, err := op.StringArg(ctx, st, SlotValue)
		if err != nil {
			return nil, err
		}
		return fn(s), nil
	}
}

func replace(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	args, err := stringArgs(ctx, st, op, SlotValue, SlotSearch, SlotReplace)
	if err != nil {
		return nil, err
	}
	return strings.ReplaceAll(args[0], args[1], args[2]), nil
}

func split(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	args, err := stringArgs(ctx, st, op, SlotValue, SlotSeparator)
	if err != nil {
		return nil, err
	}
	res := value.NewSequence()
	for _, part := range strings.Split(args[0], args[1]) {
		res.Append(part)
	}
	return res, nil
}

func join(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	seq, err := op.SequenceArg(ctx, st, SlotTarget)
	if err != nil {
		return nil, err
	}
	sep, err := op.StringArg(ctx, st, SlotSeparator)
	if err != nil {
		return nil, err
	}
	parts := make([]string, 0, seq.Len())
	for _, v := range seq.All() {
		s, ok := v.(string)
		if !ok {
			return nil, op.WrongType(value.TypeString, v)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

func substring(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	s, err := op.StringArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	start, err := op.IntArg(ctx, st, SlotStart)
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	end := int64(len(runes))
	if start < 0 || start > end {
		return nil, op.Invalid("%w: %d", value.ErrIndexOutOfRange, start)
	}
	if op.Has(SlotLength) {
		n, err := op.IntArg(ctx, st, SlotLength)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, op.Invalid("%w: length %d", value.ErrIndexOutOfRange, n)
		}
		if n < end-start {
			end = start + n
		}
	}
	return string(runes[start:end]), nil
}

func contains(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	args, err := stringArgs(ctx, st, op, SlotValue, SlotSearch)
	if err != nil {
		return nil, err
	}
	return strings.Contains(args[0], args[1]), nil
}

func toString(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	v, err := op.AnyArg(ctx, st, SlotValue)
	if err != nil {
		return nil, err
	}
	return Format(v)
}

// Format renders a runtime value as text. Containers render as JSON
func Format(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		data, err := json.Marshal(value.ToJSON(v))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func stringArgs(
	ctx context.Context, st *session.Storage, op *common.Op, slots ...string,
) ([]string, error) {
	res := make([]string, len(slots))
	for i, slot := range slots {
		s, err := op.StringArg(ctx, st, slot)
		if err != nil {
			return nil, err
		}
		res[i] = s
	}
	return res, nil
}
