// Package ast contains definitions for the precompiled representation of a
// Twig template: the token structure that a Twig.js runtime accepts in place
// of template source when it is told the template is precompiled.
//
// Tokens serialize to JSON in the same shape Twig.js produces from its own
// compiler. Expressions are stored as stacks in postfix order.
package ast

// Pos represents a byte position in the original input text from which this
// template was parsed.  It is useful to construct helpful error messages.
type Pos int

// Position returns this position.
func (p Pos) Position() Pos {
	return p
}

// Template is a compiled template: the identifier it was compiled under and
// its top-level tokens.
type Template struct {
	ID     string  `json:"id"`
	Tokens []Token `json:"tokens"`
}

// TokenType identifies a top-level token.
type TokenType string

const (
	TokenRaw    TokenType = "raw"    // literal text
	TokenOutput TokenType = "output" // {{ expression }}
	TokenLogic  TokenType = "logic"  // {% tag %}
)

// Token is a single top-level piece of a template.
type Token struct {
	Type  TokenType `json:"type"`
	Value string    `json:"value,omitempty"` // raw text
	Stack []Expr    `json:"stack,omitempty"` // output expression
	Logic Logic     `json:"token,omitempty"` // logic tag
}

// Raw returns a raw text token.
func Raw(text string) Token {
	return Token{Type: TokenRaw, Value: text}
}

// Output returns a token that prints the given expression.
func Output(stack []Expr) Token {
	return Token{Type: TokenOutput, Stack: stack}
}

// NewLogic returns a token wrapping the given logic tag.
func NewLogic(l Logic) Token {
	return Token{Type: TokenLogic, Logic: l}
}
