// Package logging provides blocks that write to the execution logger
package logging

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/blocks/common"
	"github.com/kode4food/bizunit/internal/session"
	"github.com/kode4food/bizunit/pkg/log"
)

const Type = "log"

const (
	ActionDebug     = "debug"
	ActionInfo      = "info"
	ActionError     = "error"
	ActionException = "exception"
)

// Child slots
const (
	SlotMessage   = "message"
	SlotReference = "reference"
)

// Register adds the log family to r
func Register(r *block.Registry) error {
	return r.RegisterFamily(Type, block.Actions{
		ActionDebug: common.Define(write(slog.LevelDebug), SlotMessage),
		ActionInfo:  common.Define(write(slog.LevelInfo), SlotMessage),
		ActionError: common.Define(write(slog.LevelError), SlotMessage),
		ActionException: common.DefineSpec(common.Spec{
			Run:      exception,
			Required: []string{SlotMessage},
			Optional: []string{SlotReference},
		}),
	})
}

func write(level slog.Level) common.RunFunc {
	return func(
		ctx context.Context, st *session.Storage, op *common.Op,
	) (any, error) {
		msg, err := op.StringArg(ctx, st, SlotMessage)
		if err != nil {
			return nil, err
		}
		st.Logger().Log(ctx, level, msg,
			log.BlockType(op.Type()),
			log.BlockAction(op.Action()),
			log.Extra(op.Extra()))
		return msg, nil
	}
}

// exception logs message as a failure tagged with an optional reference
func exception(
	ctx context.Context, st *session.Storage, op *common.Op,
) (any, error) {
	msg, err := op.StringArg(ctx, st, SlotMessage)
	if err != nil {
		return nil, err
	}
	var ref string
	if op.Has(SlotReference) {
		if ref, err = op.StringArg(ctx, st, SlotReference); err != nil {
			return nil, err
		}
	}
	st.LogException(errors.New(msg), ref)
	return msg, nil
}
