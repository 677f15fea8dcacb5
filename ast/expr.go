package ast

import "encoding/json"

// Expression token types.
const (
	ExprString      = "Twig.expression.type.string"
	ExprNumber      = "Twig.expression.type.number"
	ExprBool        = "Twig.expression.type.bool"
	ExprNull        = "Twig.expression.type.null"
	ExprVariable    = "Twig.expression.type.variable"
	ExprKeyPeriod   = "Twig.expression.type.key.period"
	ExprKeyBrackets = "Twig.expression.type.key.brackets"
	ExprFilter      = "Twig.expression.type.filter"
	ExprFunction    = "Twig.expression.type._function"
	ExprTest        = "Twig.expression.type.test"
	ExprBinary      = "Twig.expression.type.operator.binary"
	ExprUnary       = "Twig.expression.type.operator.unary"
	ExprComma       = "Twig.expression.type.comma"
	ExprParamStart  = "Twig.expression.type.parameter.start"
	ExprParamEnd    = "Twig.expression.type.parameter.end"
	ExprArrayStart  = "Twig.expression.type.array.start"
	ExprArrayEnd    = "Twig.expression.type.array.end"
	ExprObjectStart = "Twig.expression.type.object.start"
	ExprObjectEnd   = "Twig.expression.type.object.end"
)

// Associativity of operators.
const (
	LeftToRight = "leftToRight"
	RightToLeft = "rightToLeft"
)

// Expr is one entry of an expression stack. Only the fields relevant to its
// Type are set.
//
// Stacks are postfix: operands precede their operator, and the subject of a
// filter, test or key lookup precedes it. Array and object literals are
// delimited by start/end entries, with a comma entry between elements. Each
// object value is preceded by a ":" operator entry carrying its key, or, for
// a computed key, the key's stack in Params.
//
// The arguments of a filter, test, function or method call are a single
// stack in Params, opening with a parameter start entry and closing with a
// parameter end entry, arguments separated by commas. A parenthesized
// expression is a parameter end entry with Expression set and the inner
// stack in Params.
type Expr struct {
	Type          string      `json:"type"`
	Value         interface{} `json:"value,omitempty"`
	Match         []string    `json:"match,omitempty"`
	Key           string      `json:"key,omitempty"`
	Stack         []Expr      `json:"stack,omitempty"`
	Fn            string      `json:"fn,omitempty"`
	Filter        string      `json:"filter,omitempty"`
	Modifier      string      `json:"modifier,omitempty"`
	Params        []Expr      `json:"params,omitempty"`
	Expression    *bool       `json:"expression,omitempty"`
	Precedence    int         `json:"precidence,omitempty"`
	Associativity string      `json:"associativity,omitempty"`
	Operator      string      `json:"operator,omitempty"`
}

// null is the encoded value of a null literal, which must be present rather
// than omitted.
var null = json.RawMessage("null")

// String returns a string literal entry.
func String(s string) Expr {
	return Expr{Type: ExprString, Value: s}
}

// Number returns a number literal entry.
func Number(n float64) Expr {
	return Expr{Type: ExprNumber, Value: n}
}

// Bool returns a boolean literal entry.
func Bool(b bool) Expr {
	return Expr{Type: ExprBool, Value: b}
}

// Null returns a null literal entry.
func Null() Expr {
	return Expr{Type: ExprNull, Value: null}
}

// Variable returns a context lookup of the given name.
func Variable(name string) Expr {
	return Expr{Type: ExprVariable, Value: name, Match: []string{name}}
}

// Binary returns a binary operator entry.
func Binary(op string, precedence int, associativity string) Expr {
	return Expr{
		Type:          ExprBinary,
		Value:         op,
		Precedence:    precedence,
		Associativity: associativity,
		Operator:      op,
	}
}

// Unary returns a prefix operator entry.
func Unary(op string, precedence int) Expr {
	return Expr{
		Type:          ExprUnary,
		Value:         op,
		Precedence:    precedence,
		Associativity: RightToLeft,
		Operator:      op,
	}
}

// Filter returns a filter entry; params is nil when the filter has no
// argument list.
func Filter(name string, params []Expr) Expr {
	return Expr{Type: ExprFilter, Value: name, Match: []string{"|" + name, name}, Params: params}
}

// Comma returns the separator between arguments or literal elements.
func Comma() Expr {
	return Expr{Type: ExprComma}
}

func punct(typ, val string) Expr {
	return Expr{Type: typ, Value: val, Match: []string{val}}
}

func ArrayStart() Expr  { return punct(ExprArrayStart, "[") }
func ArrayEnd() Expr    { return punct(ExprArrayEnd, "]") }
func ObjectStart() Expr { return punct(ExprObjectStart, "{") }
func ObjectEnd() Expr   { return punct(ExprObjectEnd, "}") }

// Params returns the argument stack for the given arguments.
func Params(args ...[]Expr) []Expr {
	var params = []Expr{punct(ExprParamStart, "(")}
	for i, arg := range args {
		if i > 0 {
			params = append(params, Comma())
		}
		params = append(params, arg...)
	}
	var end = punct(ExprParamEnd, ")")
	end.Expression = new(bool)
	return append(params, end)
}

// Group returns a parenthesized expression.
func Group(inner []Expr) Expr {
	var expression = true
	var group = punct(ExprParamEnd, ")")
	group.Expression = &expression
	group.Params = inner
	return group
}
