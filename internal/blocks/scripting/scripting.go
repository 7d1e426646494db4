// Package scripting provides blocks that run user-authored scripts in
// sandboxed interpreters. The entries of the optional inputs hashmap are
// bound to script variables of the same name
package scripting

import (
	"context"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/script"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/internal/value"
)

const Type = "script"

const (
	ActionLua = script.LangLua
	ActionAle = script.LangAle
)

// Child slots
const (
	SlotSource = "source"
	SlotInputs = "inputs"
)

// Register adds the script family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionLua: define(script.LangLua),
		ActionAle: define(script.LangAle),
	})
}

func define(lang string) block.Constructor {
	return common.DefineSpec(common.Spec{
		Required: []string{SlotSource},
		Optional: []string{SlotInputs},
		Run: func(
			ctx context.Context, st *session.Storage, op *common.Op,
		) (any, error) {
			scripts, err := st.Scripts()
			if err != nil {
				return nil, op.StorageFailure(st, err)
			}
			src, err := op.StringArg(ctx, st, SlotSource)
			if err != nil {
				return nil, err
			}
			var inputs *value.HashMap
			if op.Has(SlotInputs) {
				inputs, err = op.HashMapArg(ctx, st, SlotInputs)
				if err != nil {
					return nil, err
				}
			}
			return scripts.Run(lang, src, inputs)
		},
	})
}
