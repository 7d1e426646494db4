package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kode4food/ale"
	"github.com/kode4food/ale/core/bootstrap"
	"github.com/kode4food/ale/data"
	"github.com/kode4food/ale/env"
	"github.com/kode4food/ale/eval"

	"github.com/kode4food/bizunit/internal/value"
)

type (
	// AleEnv provides an Ale script execution environment
	AleEnv struct {
		*compiler[data.Procedure]
		env *env.Environment
	}
)

const aleLambdaTemplate = "(lambda (%s) %s)"

var (
	ErrAleNotProcedure = errors.New("not a procedure")
	ErrAleCompile      = errors.New("ale compile error")
	ErrAleCall         = errors.New("ale execution error")
)

// NewAleEnv creates an Ale environment bootstrapped with the core library
func NewAleEnv(cacheSize int) *AleEnv {
	e := env.NewEnvironment()
	bootstrap.Into(e)
	aleEnv := &AleEnv{env: e}
	aleEnv.compiler = newCompiler(cacheSize, aleEnv.compile)
	return aleEnv
}

// Execute calls the compiled procedure with the provided arguments
func (e *AleEnv) Execute(c Compiled, args []any) (any, error) {
	proc, ok := c.(data.Procedure)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadCompiledType, c)
	}

	vals := make(data.Vector, 0, len(args))
	for _, arg := range args {
		vals = append(vals, goToAle(arg))
	}

	res, err := catchPanic(ErrAleCall,
		func() (ale.Value, error) {
			return proc.Call(vals...), nil
		},
	)
	if err != nil {
		return nil, err
	}
	return aleToGo(res), nil
}

func (e *AleEnv) compile(
	src string, argNames []string,
) (data.Procedure, error) {
	wrapped := fmt.Sprintf(
		aleLambdaTemplate, strings.Join(argNames, " "), src,
	)

	return catchPanic(ErrAleCompile,
		func() (data.Procedure, error) {
			ns := e.env.GetAnonymous()
			res, err := eval.String(ns, data.String(wrapped))
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrAleCompile, err)
			}

			proc, ok := res.(data.Procedure)
			if !ok {
				return nil, fmt.Errorf("%w, got: %T", ErrAleNotProcedure, res)
			}
			return proc, nil
		},
	)
}

func goToAle(v any) ale.Value {
	switch v := v.(type) {
	case string:
		return data.String(v)
	case bool:
		return data.Bool(v)
	case int64:
		return data.Integer(v)
	case float64:
		return data.Float(v)
	case *value.Sequence:
		vec := make(data.Vector, 0, v.Len())
		for _, item := range v.All() {
			vec = append(vec, goToAle(item))
		}
		return vec
	case *value.HashMap:
		obj := data.NewObject()
		for k, item := range v.All() {
			pair := data.NewCons(aleKey(k), goToAle(item))
			obj = obj.Put(pair).(*data.Object)
		}
		return obj
	case nil:
		return data.Null
	default:
		return data.String(fmt.Sprintf("%v", v))
	}
}

func aleKey(k value.Key) ale.Value {
	if k.IsInt() {
		return data.Integer(k.Value().(int64))
	}
	return data.Keyword(k.String())
}

func aleToGo(v ale.Value) any {
	switch v := v.(type) {
	case data.Bool:
		return bool(v)
	case data.String:
		return string(v)
	case data.Keyword:
		return string(v)
	case data.Integer:
		return int64(v)
	case data.Float:
		return float64(v)
	case data.Vector:
		seq := value.NewSequence()
		for _, item := range v {
			seq.Append(aleToGo(item))
		}
		return seq
	case *data.List:
		return aleListToGo(v)
	case *data.Object:
		return aleObjectToGo(v)
	default:
		if v == data.Null {
			return nil
		}
		return fmt.Sprintf("%v", v)
	}
}

func aleListToGo(list *data.List) *value.Sequence {
	seq := value.NewSequence()
	for l := list; !l.IsEmpty(); {
		head, tail, ok := l.Split()
		if !ok {
			break
		}
		seq.Append(aleToGo(head))
		l = tail.(*data.List)
	}
	return seq
}

func aleObjectToGo(obj *data.Object) *value.HashMap {
	res := value.NewHashMap()
	for _, pair := range obj.Pairs() {
		switch k := aleToGo(pair.Car()).(type) {
		case int64:
			res.Set(value.IntKey(k), aleToGo(pair.Cdr()))
		default:
			res.Set(value.StringKey(fmt.Sprintf("%v", k)), aleToGo(pair.Cdr()))
		}
	}
	return res
}
