// Package lexer tokenizes the filter mini-language described in spec.md
// §4.F: identifier ":" value["*"], "!", "AND", "OR", parens, and the bare
// "*" wildcard meaning "every series of this metric".
package lexer

import (
	"fmt"
	"regexp"

	"github.com/cuemby/talna/internal/tsdberr"
)

// TokenKind enumerates the token types the lexer emits.
type TokenKind int

const (
	TokenAtom TokenKind = iota // identifier:value or identifier:value*
	TokenAllStar               // bare *
	TokenAnd
	TokenOr
	TokenNot
	TokenLParen
	TokenRParen
)

// Token is a single lexed unit. For TokenAtom, Key/Value/Wildcard are
// populated.
type Token struct {
	Kind     TokenKind
	Key      string
	Value    string
	Wildcard bool
}

var tokenPattern = regexp.MustCompile(
	`\s*(` +
		`\(|\)|!|` +
		`(?i:AND)\b|(?i:OR)\b|` +
		`\*|` +
		`[a-zA-Z_-][a-zA-Z0-9_.-]*:[a-zA-Z0-9_.-]*\*?` +
		`)`,
)

// Lex tokenizes expr, returning ErrInvalidQuery if any part of the input is
// not covered by the grammar (e.g. stray characters, unterminated atoms).
func Lex(expr string) ([]Token, error) {
	var tokens []Token
	pos := 0
	for pos < len(expr) {
		loc := tokenPattern.FindStringSubmatchIndex(expr[pos:])
		if loc == nil || loc[0] != 0 {
			return nil, fmt.Errorf("%w: unexpected input at %q", tsdberr.ErrInvalidQuery, expr[pos:])
		}
		matchText := expr[pos+loc[2] : pos+loc[3]]
		pos += loc[1]

		tok, err := classify(matchText)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func classify(text string) (Token, error) {
	switch {
	case text == "(":
		return Token{Kind: TokenLParen}, nil
	case text == ")":
		return Token{Kind: TokenRParen}, nil
	case text == "!":
		return Token{Kind: TokenNot}, nil
	case text == "*":
		return Token{Kind: TokenAllStar}, nil
	case equalsFold(text, "AND"):
		return Token{Kind: TokenAnd}, nil
	case equalsFold(text, "OR"):
		return Token{Kind: TokenOr}, nil
	default:
		return classifyAtom(text)
	}
}

func equalsFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ac, bc := a[i], b[i]
		if 'a' <= ac && ac <= 'z' {
			ac -= 'a' - 'A'
		}
		if 'a' <= bc && bc <= 'z' {
			bc -= 'a' - 'A'
		}
		if ac != bc {
			return false
		}
	}
	return true
}

var atomPattern = regexp.MustCompile(`^([a-zA-Z_-][a-zA-Z0-9_.-]*):([a-zA-Z0-9_.-]*)(\*)?$`)

func classifyAtom(text string) (Token, error) {
	m := atomPattern.FindStringSubmatch(text)
	if m == nil {
		return Token{}, fmt.Errorf("%w: malformed atom %q", tsdberr.ErrInvalidQuery, text)
	}
	return Token{
		Kind:     TokenAtom,
		Key:      m[1],
		Value:    m[2],
		Wildcard: m[3] == "*",
	}, nil
}
