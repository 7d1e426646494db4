package expr

import (
	"errors"
	"fmt"
)

type parser struct {
	tokens []Token
	pos    int
}

var (
	ErrSyntax          = errors.New("malformed expression")
	ErrUnknownOperator = errors.New("unknown operator")
)

// Parse builds the syntax tree for a fragment sequence using precedence
// climbing. Binary operators are left associative
func Parse(tokens []Token) (Node, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	p := &parser{tokens: tokens}
	n, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.tokens) {
		return nil, fmt.Errorf("%w: unexpected fragment at %d", ErrSyntax, p.pos)
	}
	return n, nil
}

func (p *parser) parseBinary(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.peek()
		if !ok || tok.Kind != KindOperator {
			return left, nil
		}
		prec, ok := precedence[tok.Op]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, tok.Op)
		}
		if prec < minPrec {
			return left, nil
		}
		p.pos++
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.Op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	tok, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end", ErrSyntax)
	}
	switch {
	case tok.Kind == KindNot:
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notNode{expr: x}, nil
	case tok.Kind == KindOperator && tok.Op == OpSub:
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &negNode{expr: x}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok, _ := p.peek()
	switch tok.Kind {
	case KindOperand:
		p.pos++
		if tok.Operand == nil {
			return nil, fmt.Errorf("%w: operand without value", ErrSyntax)
		}
		return &operandNode{block: tok.Operand}, nil
	case KindOpen:
		p.pos++
		x, err := p.parseBinary(1)
		if err != nil {
			return nil, err
		}
		closing, ok := p.peek()
		if !ok || closing.Kind != KindClose {
			return nil, fmt.Errorf("%w: unbalanced parenthesis", ErrSyntax)
		}
		p.pos++
		return x, nil
	default:
		return nil, fmt.Errorf("%w: unexpected fragment at %d", ErrSyntax, p.pos)
	}
}

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}
