package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/bizunit/pkg/api"
	"github.com/kode4food/bizunit/pkg/log"
)

type errStub string

func TestPlanID(t *testing.T) {
	attr := log.PlanID(api.PlanID("plan-123"))
	assertAttrEqual(t, attr, "plan_id", "plan-123")
}

func TestExecutionID(t *testing.T) {
	attr := log.ExecutionID(api.ExecutionID("exec-abc"))
	assertAttrEqual(t, attr, "execution_id", "exec-abc")
}

func TestBlockAttrs(t *testing.T) {
	assertAttrEqual(t, log.BlockType("control"), "block_type", "control")
	assertAttrEqual(t, log.BlockAction("for"), "block_action", "for")
}

func TestReference(t *testing.T) {
	attr := log.Reference("kv-set")
	assertAttrEqual(t, attr, "reference", "kv-set")
}

func TestError(t *testing.T) {
	attr := log.Error(nil)
	assertAttrEqual(t, attr, "error", "")

	attr = log.Error(errStub("boom"))
	assertAttrEqual(t, attr, "error", "boom")
}

func TestErrorString(t *testing.T) {
	attr := log.ErrorString("badness")
	assertAttrEqual(t, attr, "error", "badness")
}

func (e errStub) Error() string { return string(e) }

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
