// Package parser turns a lexed filter expression into an expression tree,
// via the classic shunting-yard algorithm: operators pushed to postfix order
// respecting precedence (NOT > AND > OR) and parens, then the postfix
// sequence is reduced into a tree. Grounded on the shape of
// original_source/src/query/filter.rs, extended here for NOT and the
// trailing-wildcard atom spec.md §4.F adds on top of that older grammar.
package parser

import (
	"fmt"

	"github.com/cuemby/talna/internal/query/lexer"
	"github.com/cuemby/talna/internal/tsdberr"
)

// NodeKind enumerates the expression tree node types.
type NodeKind int

const (
	NodeEq NodeKind = iota
	NodeWildcard
	NodeAnd
	NodeOr
	NodeNot
	NodeAllStar
)

// Node is a single expression tree node. Eq/Wildcard nodes carry Key/Value;
// And/Or/Not carry Children.
type Node struct {
	Kind     NodeKind
	Key      string
	Value    string
	Children []*Node
}

// Parse lexes and parses expr into an expression tree.
func Parse(expr string) (*Node, error) {
	tokens, err := lexer.Lex(expr)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty filter expression", tsdberr.ErrInvalidQuery)
	}
	postfix, err := toPostfix(tokens)
	if err != nil {
		return nil, err
	}
	return reduce(postfix)
}

type opToken struct {
	kind lexer.TokenKind
}

func precedence(k lexer.TokenKind) int {
	switch k {
	case lexer.TokenNot:
		return 3
	case lexer.TokenAnd:
		return 2
	case lexer.TokenOr:
		return 1
	default:
		return 0
	}
}

// toPostfix runs shunting-yard over tokens, emitting a postfix token stream
// (atoms and AllStar pass through verbatim; And/Or/Not are emitted in
// postfix order with parens stripped).
func toPostfix(tokens []lexer.Token) ([]lexer.Token, error) {
	var output []lexer.Token
	var ops []opToken

	popWhile := func(cond func(lexer.TokenKind) bool) {
		for len(ops) > 0 && cond(ops[len(ops)-1].kind) {
			output = append(output, lexer.Token{Kind: ops[len(ops)-1].kind})
			ops = ops[:len(ops)-1]
		}
	}

	for _, t := range tokens {
		switch t.Kind {
		case lexer.TokenAtom, lexer.TokenAllStar:
			output = append(output, t)
		case lexer.TokenNot:
			// right-associative unary: only pop higher-precedence NOTs
			popWhile(func(k lexer.TokenKind) bool {
				return k != lexer.TokenLParen && precedence(k) > precedence(lexer.TokenNot)
			})
			ops = append(ops, opToken{kind: lexer.TokenNot})
		case lexer.TokenAnd, lexer.TokenOr:
			popWhile(func(k lexer.TokenKind) bool {
				return k != lexer.TokenLParen && precedence(k) >= precedence(t.Kind)
			})
			ops = append(ops, opToken{kind: t.Kind})
		case lexer.TokenLParen:
			ops = append(ops, opToken{kind: lexer.TokenLParen})
		case lexer.TokenRParen:
			found := false
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.kind == lexer.TokenLParen {
					found = true
					break
				}
				output = append(output, lexer.Token{Kind: top.kind})
			}
			if !found {
				return nil, fmt.Errorf("%w: unmatched closing paren", tsdberr.ErrInvalidQuery)
			}
		}
	}
	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.kind == lexer.TokenLParen {
			return nil, fmt.Errorf("%w: unmatched opening paren", tsdberr.ErrInvalidQuery)
		}
		output = append(output, lexer.Token{Kind: top.kind})
	}
	return output, nil
}

func reduce(postfix []lexer.Token) (*Node, error) {
	var stack []*Node
	pop := func() (*Node, error) {
		if len(stack) == 0 {
			return nil, fmt.Errorf("%w: malformed expression", tsdberr.ErrInvalidQuery)
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n, nil
	}

	for _, t := range postfix {
		switch t.Kind {
		case lexer.TokenAtom:
			kind := NodeEq
			if t.Wildcard {
				kind = NodeWildcard
			}
			stack = append(stack, &Node{Kind: kind, Key: t.Key, Value: t.Value})
		case lexer.TokenAllStar:
			stack = append(stack, &Node{Kind: NodeAllStar})
		case lexer.TokenNot:
			child, err := pop()
			if err != nil {
				return nil, err
			}
			stack = append(stack, &Node{Kind: NodeNot, Children: []*Node{child}})
		case lexer.TokenAnd, lexer.TokenOr:
			right, err := pop()
			if err != nil {
				return nil, err
			}
			left, err := pop()
			if err != nil {
				return nil, err
			}
			kind := NodeAnd
			if t.Kind == lexer.TokenOr {
				kind = NodeOr
			}
			stack = append(stack, &Node{Kind: kind, Children: []*Node{left, right}})
		default:
			return nil, fmt.Errorf("%w: unexpected token in postfix stream", tsdberr.ErrInvalidQuery)
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: malformed expression", tsdberr.ErrInvalidQuery)
	}
	return stack[0], nil
}
