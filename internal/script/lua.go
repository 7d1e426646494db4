package script

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/kode4food/bizunit/internal/value"
)

type (
	// LuaEnv provides a Lua script execution environment with state pooling
	LuaEnv struct {
		*compiler[*CompiledLua]
		statePool chan *lua.State
	}

	// CompiledLua represents a compiled Lua script
	CompiledLua struct {
		bytecode []byte
		argNames []string
	}
)

const (
	luaStatePoolSize    = 10
	luaGlobalTableIndex = -2
	luaTableIndex       = -3
	luaArgLocalTemplate = "local %s = select(%d, ...)"
	luaGlobalTableName  = "_G"
	luaSeparator        = "\n"
)

var (
	ErrLuaLoad      = errors.New("lua load error")
	ErrLuaExecution = errors.New("lua execution error")
	ErrLuaArgName   = errors.New("invalid lua argument name")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

var luaIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewLuaEnv creates a new Lua script execution environment with a state pool
// for efficient script reuse
func NewLuaEnv(cacheSize int) *LuaEnv {
	luaEnv := &LuaEnv{
		statePool: make(chan *lua.State, luaStatePoolSize),
	}
	luaEnv.compiler = newCompiler(cacheSize,
		func(src string, argNames []string) (*CompiledLua, error) {
			wrapped, err := luaEnv.wrapSource(src, argNames)
			if err != nil {
				return nil, err
			}
			return luaEnv.compile(wrapped, argNames)
		},
	)
	return luaEnv
}

// Execute runs a compiled Lua script with the provided arguments and
// returns its first result as a runtime value
func (e *LuaEnv) Execute(c Compiled, args []any) (any, error) {
	proc, ok := c.(*CompiledLua)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadCompiledType, c)
	}

	L := e.getState()
	defer e.returnState(L)

	e.setupSandbox(L)
	err := L.Load(bytes.NewReader(proc.bytecode), "chunk", "b")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	for _, arg := range args {
		goToLua(L, arg)
	}

	if err := L.ProtectedCall(len(args), 1, 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}

	res := luaToGo(L, -1)
	L.Pop(1)
	return res, nil
}

func (e *LuaEnv) wrapSource(src string, argNames []string) (string, error) {
	argLocals := make([]string, len(argNames))
	for i, name := range argNames {
		if !luaIdent.MatchString(name) {
			return "", fmt.Errorf("%w: %q", ErrLuaArgName, name)
		}
		argLocals[i] = fmt.Sprintf(luaArgLocalTemplate, name, i+1)
	}
	return strings.Join([]string{
		strings.Join(argLocals, luaSeparator), src,
	}, luaSeparator), nil
}

func (e *LuaEnv) compile(src string, argNames []string) (*CompiledLua, error) {
	L := lua.NewState()

	e.setupSandbox(L)

	if err := lua.LoadString(L, src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	return &CompiledLua{
		bytecode: buf.Bytes(),
		argNames: argNames,
	}, nil
}

func (e *LuaEnv) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func (e *LuaEnv) getState() *lua.State {
	select {
	case L := <-e.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (e *LuaEnv) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case e.statePool <- L:
	default:
	}
}

func goToLua(L *lua.State, v any) {
	switch v := v.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int64:
		L.PushInteger(int(v))
	case float64:
		L.PushNumber(v)
	case *value.Sequence:
		pushLuaSequence(L, v)
	case *value.HashMap:
		pushLuaHashMap(L, v)
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaSequence(L *lua.State, s *value.Sequence) {
	L.CreateTable(s.Len(), 0)
	for i, item := range s.All() {
		L.PushInteger(int(i) + 1)
		goToLua(L, item)
		L.SetTable(luaTableIndex)
	}
}

func pushLuaHashMap(L *lua.State, m *value.HashMap) {
	L.CreateTable(0, m.Len())
	for k, item := range m.All() {
		if k.IsInt() {
			L.PushInteger(int(k.Value().(int64)))
		} else {
			L.PushString(k.String())
		}
		goToLua(L, item)
		L.SetTable(luaTableIndex)
	}
}

func luaNumberToGo(L *lua.State, index int) any {
	num, _ := L.ToNumber(index)
	if num == math.Trunc(num) && math.Abs(num) < math.MaxInt64 {
		return int64(num)
	}
	return num
}

func luaToGo(L *lua.State, index int) any {
	switch L.TypeOf(index) {
	case lua.TypeBoolean:
		return L.ToBoolean(index)
	case lua.TypeNumber:
		return luaNumberToGo(L, index)
	case lua.TypeString:
		s, _ := L.ToString(index)
		return s
	case lua.TypeTable:
		return luaTableToValue(L, L.AbsIndex(index))
	default:
		return nil
	}
}

// luaTableToValue converts a table into a Sequence when its keys are
// exactly 1..n, otherwise into a HashMap
func luaTableToValue(L *lua.State, index int) any {
	length := 0
	isSeq := true

	L.PushNil()
	for L.Next(index) {
		if L.TypeOf(-2) != lua.TypeNumber {
			isSeq = false
		}
		length++
		L.Pop(1)
	}

	if isSeq && length > 0 && luaHasIndexes(L, index, length) {
		seq := value.NewSequence()
		for i := 1; i <= length; i++ {
			L.RawGetInt(index, i)
			seq.Append(luaToGo(L, -1))
			L.Pop(1)
		}
		return seq
	}

	res := value.NewHashMap()
	L.PushNil()
	for L.Next(index) {
		res.Set(luaKey(L, -2), luaToGo(L, -1))
		L.Pop(1)
	}
	return res
}

func luaHasIndexes(L *lua.State, index, length int) bool {
	for i := 1; i <= length; i++ {
		L.RawGetInt(index, i)
		isNil := L.IsNil(-1)
		L.Pop(1)
		if isNil {
			return false
		}
	}
	return true
}

func luaKey(L *lua.State, index int) value.Key {
	if L.TypeOf(index) == lua.TypeNumber {
		if n, ok := luaNumberToGo(L, index).(int64); ok {
			return value.IntKey(n)
		}
		num, _ := L.ToNumber(index)
		return value.StringKey(fmt.Sprintf("%v", num))
	}
	if L.TypeOf(index) == lua.TypeString {
		s, _ := L.ToString(index)
		return value.StringKey(s)
	}
	return value.StringKey(fmt.Sprintf("%v", luaToGo(L, index)))
}
