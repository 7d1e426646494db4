// Package helpers provides template builders and an in-memory execution
// environment for tests
package helpers

import (
	"github.com/kode4food/bizunit/internal/blocks/control"
	"github.com/kode4food/bizunit/internal/blocks/expression"
	"github.com/kode4food/bizunit/internal/blocks/hashmap"
	"github.com/kode4food/bizunit/internal/blocks/primitive"
	"github.com/kode4food/bizunit/internal/blocks/sequence"
	"github.com/kode4food/bizunit/internal/blocks/variable"
	"github.com/kode4food/bizunit/pkg/api"
)

// Args maps child slot names to single-block children
type Args map[string]*api.Template

// Block creates a template of the given type and action with one
// single-block child per entry of args
func Block(typ, action string, args Args) *api.Template {
	res := api.NewTemplate(typ, action)
	for name, child := range args {
		res.WithBlock(name, child)
	}
	return res
}

// Str creates a string literal
func Str(s string) *api.Template {
	return api.NewTemplate(primitive.Type, primitive.ActionString).
		WithValue(s)
}

// Int creates an integer literal
func Int(i int64) *api.Template {
	return api.NewTemplate(primitive.Type, primitive.ActionInteger).
		WithValue(i)
}

// Float creates a float literal
func Float(f float64) *api.Template {
	return api.NewTemplate(primitive.Type, primitive.ActionFloat).
		WithValue(f)
}

// Bool creates a boolean literal
func Bool(b bool) *api.Template {
	return api.NewTemplate(primitive.Type, primitive.ActionBoolean).
		WithValue(b)
}

// Null creates a null literal
func Null() *api.Template {
	return api.NewTemplate(primitive.Type, primitive.ActionNull)
}

// Create declares a variable
func Create(name string) *api.Template {
	return Block(variable.Type, variable.ActionCreate, Args{
		variable.SlotName: Str(name),
	})
}

// Get reads a variable
func Get(name string) *api.Template {
	return Block(variable.Type, variable.ActionGet, Args{
		variable.SlotName: Str(name),
	})
}

// Set assigns a declared variable
func Set(name string, v *api.Template) *api.Template {
	return Block(variable.Type, variable.ActionSet, Args{
		variable.SlotName:  Str(name),
		variable.SlotValue: v,
	})
}

// Exists reports whether a variable is declared
func Exists(name string) *api.Template {
	return Block(variable.Type, variable.ActionExists, Args{
		variable.SlotName: Str(name),
	})
}

// Let declares a variable and assigns it, as two templates
func Let(name string, v *api.Template) []*api.Template {
	return []*api.Template{Create(name), Set(name, v)}
}

// Operand wraps a block as an expression fragment
func Operand(v *api.Template) *api.Template {
	return api.NewTemplate(expression.Type, expression.ActionOperand).
		WithBlock(expression.SlotValue, v)
}

// Op creates a binary operator fragment
func Op(sym string) *api.Template {
	return api.NewTemplate(expression.Type, expression.ActionOperator).
		WithValue(sym)
}

// Not creates a negation fragment
func Not() *api.Template {
	return api.NewTemplate(expression.Type, expression.ActionNot)
}

// Open creates an opening parenthesis fragment
func Open() *api.Template {
	return api.NewTemplate(expression.Type, expression.ActionOpen)
}

// Close creates a closing parenthesis fragment
func Close() *api.Template {
	return api.NewTemplate(expression.Type, expression.ActionClose)
}

// Condition creates a boolean expression from fragments
func Condition(frags ...*api.Template) *api.Template {
	return api.NewTemplate(expression.Type, expression.ActionCondition).
		WithList(expression.SlotExpression, frags...)
}

// Evaluate creates a value expression from fragments
func Evaluate(frags ...*api.Template) *api.Template {
	return api.NewTemplate(expression.Type, expression.ActionEvaluate).
		WithList(expression.SlotExpression, frags...)
}

// Compare creates the condition "l op r"
func Compare(l *api.Template, op string, r *api.Template) *api.Template {
	return Condition(Operand(l), Op(op), Operand(r))
}

// Arith creates the evaluation "l op r"
func Arith(l *api.Template, op string, r *api.Template) *api.Template {
	return Evaluate(Operand(l), Op(op), Operand(r))
}

// If creates a branch without an else list
func If(cond *api.Template, then ...*api.Template) *api.Template {
	return api.NewTemplate(control.Type, control.ActionIf).
		WithBlock(control.SlotCondition, cond).
		WithList(control.SlotThen, then...)
}

// IfElse creates a branch with both lists
func IfElse(
	cond *api.Template, then, otherwise []*api.Template,
) *api.Template {
	return If(cond, then...).WithList(control.SlotElse, otherwise...)
}

// Group creates a control sequence
func Group(body ...*api.Template) *api.Template {
	return api.NewTemplate(control.Type, control.ActionSequence).
		WithList(control.SlotBody, body...)
}

// For creates a counted loop. A nil cond is omitted
func For(
	init []*api.Template, cond *api.Template, counter []*api.Template,
	body ...*api.Template,
) *api.Template {
	res := api.NewTemplate(control.Type, control.ActionFor).
		WithList(control.SlotInit, init...).
		WithList(control.SlotCounter, counter...).
		WithList(control.SlotBody, body...)
	if cond != nil {
		res.WithBlock(control.SlotCondition, cond)
	}
	return res
}

// While creates a conditional loop
func While(cond *api.Template, body ...*api.Template) *api.Template {
	return api.NewTemplate(control.Type, control.ActionWhile).
		WithBlock(control.SlotCondition, cond).
		WithList(control.SlotBody, body...)
}

// ForEach creates an iteration over source binding key and val. Empty
// names are omitted
func ForEach(
	source *api.Template, key, val string, body ...*api.Template,
) *api.Template {
	res := api.NewTemplate(control.Type, control.ActionForEach).
		WithBlock(control.SlotSource, source).
		WithList(control.SlotBody, body...)
	if key != "" {
		res.WithBlock(control.SlotKey, Str(key))
	}
	if val != "" {
		res.WithBlock(control.SlotValue, Str(val))
	}
	return res
}

// Break stops the nearest loop
func Break() *api.Template {
	return api.NewTemplate(control.Type, control.ActionBreak)
}

// Continue ends the current iteration of the nearest loop
func Continue() *api.Template {
	return api.NewTemplate(control.Type, control.ActionContinue)
}

// Seq creates a sequence literal from entries
func Seq(entries ...*api.Template) *api.Template {
	return api.NewTemplate(sequence.Type, sequence.ActionCreate).
		WithList(sequence.SlotEntries, entries...)
}

// Map creates a hashmap literal from entries
func Map(entries map[string]*api.Template) *api.Template {
	return api.NewTemplate(hashmap.Type, hashmap.ActionCreate).
		WithMap(hashmap.SlotEntries, entries)
}

// Increment creates "name = name + 1"
func Increment(name string) *api.Template {
	return Set(name, Arith(Get(name), "+", Int(1)))
}

// Flatten joins template groups into one list
func Flatten(groups ...[]*api.Template) []*api.Template {
	var res []*api.Template
	for _, g := range groups {
		res = append(res, g...)
	}
	return res
}
