package log

import "log/slog"

func PlanID[T ~string](id T) slog.Attr {
	return slog.String("plan_id", string(id))
}

func ExecutionID[T ~string](id T) slog.Attr {
	return slog.String("execution_id", string(id))
}

func BlockType(typ string) slog.Attr {
	return slog.String("block_type", typ)
}

func BlockAction(action string) slog.Attr {
	return slog.String("block_action", action)
}

func Extra[T ~map[string]any](extra T) slog.Attr {
	return slog.Any("extra", map[string]any(extra))
}

func Reference(tag string) slog.Attr {
	return slog.String("reference", tag)
}

func Error(err error) slog.Attr {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return slog.String("error", msg)
}

func ErrorString(msg string) slog.Attr {
	return slog.String("error", msg)
}
