// Package expr parses the fragment blocks of a conditional expression into
// a typed syntax tree and evaluates it. Operands are blocks, evaluated
// lazily; no source text is ever generated or compiled
package expr

import (
	"github.com/kode4food/bizunit/internal/block"
)

type (
	// Kind identifies the role a fragment plays in an expression
	Kind int

	// Token is the syntax contributed by one fragment block
	Token struct {
		Operand block.Block
		Op      string
		Kind    Kind
	}

	// Fragment is a block that contributes a token to an expression
	Fragment interface {
		block.Block
		Token() Token
	}
)

const (
	KindOperand Kind = iota
	KindOperator
	KindNot
	KindOpen
	KindClose
)

// Operator symbols
const (
	OpOr  = "||"
	OpAnd = "&&"
	OpEq  = "=="
	OpNeq = "!="
	OpLt  = "<"
	OpLte = "<="
	OpGt  = ">"
	OpGte = ">="
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "%"
)

var precedence = map[string]int{
	OpOr:  1,
	OpAnd: 2,
	OpEq:  3,
	OpNeq: 3,
	OpLt:  4,
	OpLte: 4,
	OpGt:  4,
	OpGte: 4,
	OpAdd: 5,
	OpSub: 5,
	OpMul: 6,
	OpDiv: 6,
	OpMod: 6,
}

// IsOperator reports whether sym is a supported binary operator
func IsOperator(sym string) bool {
	_, ok := precedence[sym]
	return ok
}

// Tokens collects the tokens of a list of fragment blocks
func Tokens(frags ...Fragment) []Token {
	res := make([]Token, len(frags))
	for i, f := range frags {
		res[i] = f.Token()
	}
	return res
}
