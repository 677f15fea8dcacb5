package parse

import (
	"strconv"

	"github.com/robfig/twigify/ast"
)

type operator struct {
	precedence    int
	associativity string
}

// binaryOperators are Twig's binary operators and their precedence. A lower
// precedence binds tighter.
var binaryOperators = map[string]operator{
	"..":          {20, ast.LeftToRight},
	"??":          {15, ast.RightToLeft},
	"or":          {14, ast.LeftToRight},
	"and":         {13, ast.LeftToRight},
	"b-or":        {12, ast.LeftToRight},
	"b-xor":       {11, ast.LeftToRight},
	"b-and":       {10, ast.LeftToRight},
	"==":          {9, ast.LeftToRight},
	"!=":          {9, ast.LeftToRight},
	"<":           {8, ast.LeftToRight},
	">":           {8, ast.LeftToRight},
	">=":          {8, ast.LeftToRight},
	"<=":          {8, ast.LeftToRight},
	"not in":      {8, ast.LeftToRight},
	"in":          {8, ast.LeftToRight},
	"matches":     {8, ast.LeftToRight},
	"starts with": {8, ast.LeftToRight},
	"ends with":   {8, ast.LeftToRight},
	"~":           {6, ast.LeftToRight},
	"+":           {6, ast.LeftToRight},
	"-":           {6, ast.LeftToRight},
	"*":           {5, ast.LeftToRight},
	"/":           {5, ast.LeftToRight},
	"//":          {5, ast.LeftToRight},
	"%":           {5, ast.LeftToRight},
	"**":          {5, ast.LeftToRight},
}

// The conditional operators "?", "?:" and ":" share one precedence.
const (
	conditionalPrecedence = 16
	loosestPrecedence     = 20
	notPrecedence         = 3
)

// testNames maps two-word tests to the name they are registered under.
var testNames = map[string]map[string]string{
	"divisible": {"by": "divisibleby"},
	"same":      {"as": "same as"},
}

// Expr parses a standalone Twig expression into its postfix stack.
func Expr(str string) (stack []ast.Expr, err error) {
	var t = &tree{name: str, text: str, lex: lex(str, "{{ "+str+" }}")}
	defer t.recover(&err)
	t.expect(itemOutputOpen, "expression")
	stack = t.parseExpression()
	t.expect(itemOutputClose, "expression")
	t.expect(itemEOF, "expression")
	t.lex = nil
	return stack, nil
}

// parseExpression parses a full expression.
func (t *tree) parseExpression() []ast.Expr {
	return t.parseBinary(loosestPrecedence)
}

// parseBinary parses operators binding at least as tight as limit, by
// precedence climbing. Operands are emitted before their operator.
func (t *tree) parseBinary(limit int) []ast.Expr {
	var stack = t.parseUnary()
	for {
		if t.peekPunct("?") && conditionalPrecedence <= limit {
			t.next()
			stack = t.parseConditional(stack)
			continue
		}
		var tok = t.peek()
		var op, ok = binaryOperators[tok.val]
		if tok.typ != itemOperator || !ok || op.precedence > limit {
			return stack
		}
		t.next()
		var next = op.precedence - 1
		if op.associativity == ast.RightToLeft {
			next = op.precedence
		}
		stack = append(stack, t.parseBinary(next)...)
		stack = append(stack, ast.Binary(tok.val, op.precedence, op.associativity))
	}
}

// parseConditional parses "then : else" or ": else" following cond and "?".
// A missing else branch yields the empty string.
func (t *tree) parseConditional(cond []ast.Expr) []ast.Expr {
	if t.peekPunct(":") {
		t.next()
		cond = append(cond, t.parseBinary(conditionalPrecedence)...)
		return append(cond, ast.Binary("?:", conditionalPrecedence, ast.RightToLeft))
	}
	cond = append(cond, t.parseExpression()...)
	if t.peekPunct(":") {
		t.next()
		cond = append(cond, t.parseBinary(conditionalPrecedence)...)
	} else {
		cond = append(cond, ast.String(""))
	}
	return append(cond,
		ast.Binary(":", conditionalPrecedence, ast.RightToLeft),
		ast.Binary("?", conditionalPrecedence, ast.RightToLeft))
}

// parseUnary parses a prefix operator application or a postfix expression.
// "not" applies to everything binding tighter than itself. A minus before a
// number makes a negative literal; other signs subtract from or add to zero.
func (t *tree) parseUnary() []ast.Expr {
	var tok = t.peek()
	if tok.typ != itemOperator {
		return t.parsePostfix(t.parsePrimary())
	}
	switch tok.val {
	case "not":
		t.next()
		var stack = t.parseBinary(notPrecedence)
		return append(stack, ast.Unary("not", notPrecedence))
	case "-", "+":
		t.next()
		if tok.val == "-" && t.peek().typ == itemNumber {
			var n = t.parseNumber(t.next())
			return t.parsePostfix([]ast.Expr{ast.Number(-n)})
		}
		var op = binaryOperators[tok.val]
		var stack = append([]ast.Expr{ast.Number(0)}, t.parseUnary()...)
		return append(stack, ast.Binary(tok.val, op.precedence, op.associativity))
	}
	return t.parsePostfix(t.parsePrimary())
}

// parsePrimary parses a literal, variable, function call, parenthesized
// expression, array or hash.
func (t *tree) parsePrimary() []ast.Expr {
	var tok = t.next()
	switch tok.typ {
	case itemName:
		switch tok.val {
		case "true", "TRUE":
			return []ast.Expr{ast.Bool(true)}
		case "false", "FALSE":
			return []ast.Expr{ast.Bool(false)}
		case "null", "NULL", "none", "NONE":
			return []ast.Expr{ast.Null()}
		}
		if t.peekPunct("(") {
			t.next()
			return []ast.Expr{{Type: ast.ExprFunction, Fn: tok.val, Params: t.parseArguments()}}
		}
		return []ast.Expr{ast.Variable(tok.val)}
	case itemNumber:
		return []ast.Expr{ast.Number(t.parseNumber(tok))}
	case itemString:
		var s, err = unquoteString(tok.val)
		if err != nil {
			t.errorf("%v", err)
		}
		return []ast.Expr{ast.String(s)}
	case itemPunctuation:
		switch tok.val {
		case "(":
			return []ast.Expr{t.parseGroup("expression")}
		case "[":
			return t.parseArray()
		case "{":
			return t.parseHash()
		}
	}
	t.unexpected(tok, "expression")
	return nil
}

func (t *tree) parseNumber(tok item) float64 {
	var n, err = strconv.ParseFloat(tok.val, 64)
	if err != nil {
		t.errorf("invalid number %q: %v", tok.val, err)
	}
	return n
}

// parseGroup parses the rest of a parenthesized expression. "(" has just
// been read.
func (t *tree) parseGroup(context string) ast.Expr {
	var inner = t.parseExpression()
	t.expectValue(itemPunctuation, ")", context)
	return ast.Group(inner)
}

// parseArray parses an array literal. "[" has just been read.
func (t *tree) parseArray() []ast.Expr {
	var stack = []ast.Expr{ast.ArrayStart()}
	for first := true; !t.peekPunct("]"); first = false {
		if !first {
			t.expectValue(itemPunctuation, ",", "array")
			if t.peekPunct("]") {
				break // trailing comma
			}
			stack = append(stack, ast.Comma())
		}
		stack = append(stack, t.parseExpression()...)
	}
	t.next()
	return append(stack, ast.ArrayEnd())
}

// parseHash parses a hash literal. "{" has just been read.
// Keys may be names, strings, numbers or parenthesized expressions; each
// value is preceded by a ":" entry carrying its key.
func (t *tree) parseHash() []ast.Expr {
	var stack = []ast.Expr{ast.ObjectStart()}
	for first := true; !t.peekPunct("}"); first = false {
		if !first {
			t.expectValue(itemPunctuation, ",", "hash")
			if t.peekPunct("}") {
				break // trailing comma
			}
			stack = append(stack, ast.Comma())
		}
		var entry = ast.Binary(":", conditionalPrecedence, ast.RightToLeft)
		switch key := t.next(); {
		case key.typ == itemName:
			entry.Key = key.val
		case key.typ == itemString:
			var s, err = unquoteString(key.val)
			if err != nil {
				t.errorf("%v", err)
			}
			entry.Key = s
		case key.typ == itemNumber:
			entry.Key = strconv.FormatFloat(t.parseNumber(key), 'f', -1, 64)
		case key.typ == itemPunctuation && key.val == "(":
			entry.Params = t.parseGroup("hash key").Params
		default:
			t.unexpected(key, "hash key")
		}
		t.expectValue(itemPunctuation, ":", "hash")
		stack = append(stack, entry)
		stack = append(stack, t.parseExpression()...)
	}
	t.next()
	return append(stack, ast.ObjectEnd())
}

// parseArguments parses a parenthesized, comma-separated argument list into
// a parameter stack. "(" has just been read.
func (t *tree) parseArguments() []ast.Expr {
	var args [][]ast.Expr
	for !t.peekPunct(")") {
		if len(args) > 0 {
			t.expectValue(itemPunctuation, ",", "arguments")
		}
		args = append(args, t.parseExpression())
	}
	t.next()
	return ast.Params(args...)
}

// parsePostfix parses attribute access, subscripts, filters and tests
// applied to the given operand.
func (t *tree) parsePostfix(stack []ast.Expr) []ast.Expr {
	for {
		var tok = t.peek()
		if tok.typ == itemOperator && (tok.val == "is" || tok.val == "is not") {
			t.next()
			stack = append(stack, t.parseTest(tok))
			continue
		}
		if tok.typ != itemPunctuation {
			return stack
		}
		switch tok.val {
		case ".":
			t.next()
			var key = t.next()
			if key.typ != itemName && key.typ != itemNumber {
				t.unexpected(key, "attribute")
			}
			var expr = ast.Expr{Type: ast.ExprKeyPeriod, Key: key.val}
			if t.peekPunct("(") {
				t.next()
				expr.Params = t.parseArguments()
			}
			stack = append(stack, expr)
		case "[":
			t.next()
			var key = t.parseExpression()
			t.expectValue(itemPunctuation, "]", "subscript")
			stack = append(stack, ast.Expr{Type: ast.ExprKeyBrackets, Stack: key})
		case "|":
			t.next()
			stack = append(stack, t.parseFilter())
		default:
			return stack
		}
	}
}

// parseFilter parses a filter name and its optional arguments.
func (t *tree) parseFilter() ast.Expr {
	var name = t.expect(itemName, "filter").val
	var params []ast.Expr
	if t.peekPunct("(") {
		t.next()
		params = t.parseArguments()
	}
	return ast.Filter(name, params)
}

// parseTest parses the test following "is" or "is not".
func (t *tree) parseTest(op item) ast.Expr {
	var name = t.next()
	if name.typ != itemName {
		t.unexpected(name, "test")
	}
	var test = ast.Expr{Type: ast.ExprTest, Filter: name.val}
	for second, registered := range testNames[name.val] {
		t.expectValue(itemName, second, "test")
		test.Filter = registered
	}
	if op.val == "is not" {
		test.Modifier = "not"
	}
	if t.peekPunct("(") {
		t.next()
		test.Params = t.parseArguments()
	}
	return test
}
