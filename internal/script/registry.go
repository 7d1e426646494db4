// Package script hosts the sandboxed interpreters that run user-authored
// scripts from script blocks
package script

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/kode4food/lru"

	"github.com/kode4food/bizunit/internal/value"
)

type (
	// Registry manages script environments for different languages
	Registry struct {
		envs map[string]Environment
	}

	// Environment defines the interface for script environments
	Environment interface {
		// Compile compiles a script taking the named arguments, in order
		Compile(src string, argNames []string) (Compiled, error)

		// Execute runs a compiled script with positional runtime values
		Execute(c Compiled, args []any) (any, error)
	}

	// Compiled represents a compiled script for any supported language
	Compiled any

	compileFunc[T any] func(src string, argNames []string) (T, error)

	compiler[T any] struct {
		cache *lru.Cache[T]
		build compileFunc[T]
	}
)

const (
	LangLua = "lua"
	LangAle = "ale"

	DefaultCacheSize = 4096
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported script language")
	ErrEmptyScript         = errors.New("script is empty")
	ErrBadCompiledType     = errors.New("unexpected compiled script type")
)

// NewRegistry creates a script registry with Lua and Ale environments,
// each caching up to cacheSize compiled scripts
func NewRegistry(cacheSize int) *Registry {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Registry{
		envs: map[string]Environment{
			LangAle: NewAleEnv(cacheSize),
			LangLua: NewLuaEnv(cacheSize),
		},
	}
}

func (r *Registry) Register(language string, env Environment) {
	r.envs[language] = env
}

// Get returns the script environment for the given language
func (r *Registry) Get(language string) (Environment, error) {
	env, ok := r.envs[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return env, nil
}

// Run compiles (or fetches from cache) and executes src. The entries of
// inputs become the script's arguments, bound by name in key order
func (r *Registry) Run(
	language, src string, inputs *value.HashMap,
) (any, error) {
	env, err := r.Get(language)
	if err != nil {
		return nil, err
	}

	var names []string
	var args []any
	if inputs != nil {
		for k, v := range inputs.All() {
			names = append(names, k.String())
			args = append(args, v)
		}
	}

	c, err := env.Compile(src, names)
	if err != nil {
		return nil, err
	}
	return env.Execute(c, args)
}

func newCompiler[T any](size int, build compileFunc[T]) *compiler[T] {
	return &compiler[T]{
		cache: lru.NewCache[T](size),
		build: build,
	}
}

func (c *compiler[T]) Compile(src string, argNames []string) (Compiled, error) {
	if src == "" {
		return nil, ErrEmptyScript
	}
	return c.cache.Get(hashScript(src, argNames), func() (T, error) {
		return c.build(src, argNames)
	})
}

func hashScript(src string, argNames []string) string {
	h := sha256.New()
	_, _ = h.Write([]byte(src))
	for _, arg := range argNames {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(arg))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func catchPanic[T any](baseErr error, fn func() (T, error)) (res T, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if e, ok := r.(error); ok {
			err = fmt.Errorf("%w: %w", baseErr, e)
			return
		}
		err = fmt.Errorf("%w: %v", baseErr, r)
	}()
	return fn()
}
