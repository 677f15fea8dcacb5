// Package parse compiles Twig template source into its precompiled token
// representation (see package ast).
package parse

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/robfig/twigify/ast"
	"github.com/robfig/twigify/errortypes"
)

// tree is the parse state of a single template.
type tree struct {
	name      string  // name provided for the input
	text      string  // the full input text
	lex       *lexer  // lexer provides a sequence of tokens
	token     [2]item // two-token lookahead
	peekCount int     // how many tokens have we backed up?
}

// Template parses the input into its precompiled representation.  The name
// identifies the template in error messages.
func Template(name, text string) (tmpl *ast.Template, err error) {
	var t = &tree{
		name: name,
		text: text,
		lex:  lex(name, text),
	}
	defer t.recover(&err)
	tokens, _ := t.subparse()
	t.lex = nil
	return &ast.Template{ID: name, Tokens: tokens}, nil
}

// subparse reads raw text, output and tags until it comes across one of the
// given end tags (or EOF, if there are none). It returns the name of the end
// tag found; the remainder of that tag is left to the caller.
func (t *tree) subparse(ends ...string) ([]ast.Token, string) {
	var list = []ast.Token{}
	for {
		switch token := t.next(); token.typ {
		case itemEOF:
			if len(ends) > 0 {
				t.errorf("unexpected end of template, expected %s", quoteAll(ends))
			}
			return list, ""
		case itemText:
			list = append(list, ast.Raw(token.val))
		case itemOutputOpen:
			var stack = t.parseExpression()
			t.expect(itemOutputClose, "output")
			list = append(list, ast.Output(stack))
		case itemTagOpen:
			var name = t.expect(itemName, "tag")
			if inStringSlice(name.val, ends) {
				return list, name.val
			}
			list = append(list, t.beginTag(name)...)
		default:
			t.unexpected(token, "template")
		}
	}
}

// beginTag parses the remainder of a {% tag %}, whose name has been read.
func (t *tree) beginTag(name item) []ast.Token {
	switch name.val {
	case "if":
		return t.parseIf(name)
	case "for":
		return t.parseFor(name)
	case "set":
		return t.parseSet(name)
	case "block":
		return t.parseBlock(name)
	case "extends":
		return t.parseStack(name, ast.LogicExtends)
	case "do":
		return t.parseStack(name, ast.LogicDo)
	case "include":
		return t.parseInclude(name)
	case "filter":
		return t.parseFilterTag(name, ast.LogicFilter, "endfilter")
	case "apply":
		return t.parseFilterTag(name, ast.LogicApply, "endapply")
	case "spaceless":
		t.expect(itemTagClose, "spaceless")
		var body = t.parseBody("endspaceless")
		return one(&ast.Body{Type: ast.LogicSpaceless, Output: body})
	case "verbatim", "raw":
		return t.parseVerbatim(name)
	case "with":
		return t.parseWith(name)
	case "macro":
		return t.parseMacro(name)
	case "import":
		return t.parseImport(name)
	case "from":
		return t.parseFrom(name)
	}
	if strings.HasPrefix(name.val, "end") || name.val == "else" || name.val == "elseif" {
		t.errorf("unexpected %q tag", name.val)
	}
	t.errorf("unknown tag %q", name.val)
	return nil
}

func one(l ast.Logic) []ast.Token {
	return []ast.Token{ast.NewLogic(l)}
}

// parseBody reads tokens until the given end tag, and the end of that tag.
func (t *tree) parseBody(end string) []ast.Token {
	var body, _ = t.subparse(end)
	t.expect(itemTagClose, end)
	return body
}

// if has just been read.
func (t *tree) parseIf(token item) []ast.Token {
	var tokens []ast.Token
	var typ, context = ast.LogicIf, token.val
	for {
		var stack = t.parseExpression()
		t.expect(itemTagClose, context)
		var body, end = t.subparse("elseif", "else", "endif")
		tokens = append(tokens, ast.NewLogic(&ast.Body{Type: typ, Stack: stack, Output: body}))
		switch end {
		case "elseif":
			typ, context = ast.LogicElseif, end
			continue
		case "else":
			t.expect(itemTagClose, "else")
			body = t.parseBody("endif")
			return append(tokens, ast.NewLogic(&ast.Body{Type: ast.LogicElse, Output: body}))
		}
		t.expect(itemTagClose, "endif")
		return tokens
	}
}

// for has just been read.
// {% for [key,] value in expr [if cond] %}
func (t *tree) parseFor(token item) []ast.Token {
	var loop = &ast.For{Type: ast.LogicFor}
	loop.ValueVar = t.expect(itemName, "for").val
	if t.peekPunct(",") {
		t.next()
		loop.KeyVar = loop.ValueVar
		loop.ValueVar = t.expect(itemName, "for").val
	}
	t.expectValue(itemOperator, "in", "for")
	loop.Expression = t.parseExpression()
	if t.peekName("if") {
		t.next()
		loop.Conditional = t.parseExpression()
	}
	t.expect(itemTagClose, "for")

	var end string
	loop.Output, end = t.subparse("else", "endfor")
	var tokens = one(loop)
	if end == "else" {
		t.expect(itemTagClose, "else")
		var body = t.parseBody("endfor")
		return append(tokens, ast.NewLogic(&ast.Body{Type: ast.LogicElse, Output: body}))
	}
	t.expect(itemTagClose, "endfor")
	return tokens
}

// set has just been read.
// {% set a, b = x, y %} or {% set a %}...{% endset %}
func (t *tree) parseSet(token item) []ast.Token {
	var keys = []string{t.expect(itemName, "set").val}
	for t.peekPunct(",") {
		t.next()
		keys = append(keys, t.expect(itemName, "set").val)
	}

	if t.peekPunct("=") {
		t.next()
		var tokens []ast.Token
		for i, key := range keys {
			if i > 0 {
				t.expectValue(itemPunctuation, ",", "set")
			}
			tokens = append(tokens, ast.NewLogic(&ast.Set{
				Type:       ast.LogicSet,
				Key:        key,
				Expression: t.parseExpression(),
			}))
		}
		t.expect(itemTagClose, "set")
		return tokens
	}

	if len(keys) > 1 {
		t.errorf("when using set with a block, you cannot have a multi-target")
	}
	t.expect(itemTagClose, "set")
	return one(&ast.SetCapture{
		Type:   ast.LogicSetCapture,
		Key:    keys[0],
		Output: t.parseBody("endset"),
	})
}

// block has just been read.
// {% block name %}...{% endblock [name] %} or {% block name expr %}
func (t *tree) parseBlock(token item) []ast.Token {
	var name = t.expect(itemName, "block").val
	if t.peek().typ != itemTagClose {
		var stack = t.parseExpression()
		t.expect(itemTagClose, "block")
		return one(&ast.Block{Type: ast.LogicBlock, Block: name, Output: []ast.Token{ast.Output(stack)}})
	}
	t.next()

	var body, _ = t.subparse("endblock")
	if t.peek().typ == itemName {
		if end := t.next(); end.val != name {
			t.errorf("expected endblock for block %q (but %q given)", name, end.val)
		}
	}
	t.expect(itemTagClose, "endblock")
	return one(&ast.Block{Type: ast.LogicBlock, Block: name, Output: body})
}

// parseStack parses a tag consisting of a single expression.
func (t *tree) parseStack(token item, typ string) []ast.Token {
	var stack = t.parseExpression()
	t.expect(itemTagClose, token.val)
	return one(&ast.Stack{Type: typ, Stack: stack})
}

// include has just been read.
// {% include expr [ignore missing] [with expr] [only] %}
func (t *tree) parseInclude(token item) []ast.Token {
	var include = &ast.Include{Type: ast.LogicInclude, Stack: t.parseExpression()}
	if t.peekName("ignore") {
		t.next()
		t.expectValue(itemName, "missing", "include")
		include.IgnoreMissing = true
	}
	if t.peekName("with") {
		t.next()
		include.WithStack = t.parseExpression()
	}
	if t.peekName("only") {
		t.next()
		include.Only = true
	}
	t.expect(itemTagClose, "include")
	return one(include)
}

// filter or apply has just been read.
// {% filter upper|escape('html') %}...{% endfilter %}
func (t *tree) parseFilterTag(token item, typ, end string) []ast.Token {
	var stack = []ast.Expr{t.parseFilter()}
	for t.peekPunct("|") {
		t.next()
		stack = append(stack, t.parseFilter())
	}
	t.expect(itemTagClose, token.val)
	return one(&ast.Body{Type: typ, Stack: stack, Output: t.parseBody(end)})
}

// verbatim or raw has just been read. The lexer emits the body as text.
func (t *tree) parseVerbatim(token item) []ast.Token {
	t.expect(itemTagClose, token.val)
	var body = []ast.Token{}
	if text := t.next(); text.typ == itemText {
		body = append(body, ast.Raw(text.val))
	} else {
		t.backup()
	}
	t.expect(itemTagOpen, token.val)
	t.expectValue(itemName, "end"+token.val, token.val)
	t.expect(itemTagClose, "end"+token.val)
	return one(&ast.Body{Type: ast.LogicVerbatim, Output: body})
}

// with has just been read.
// {% with [expr] [only] %}...{% endwith %}
func (t *tree) parseWith(token item) []ast.Token {
	var with = &ast.With{Type: ast.LogicWith}
	if t.peek().typ != itemTagClose && !t.peekName("only") {
		with.Stack = t.parseExpression()
	}
	if t.peekName("only") {
		t.next()
		with.Only = true
	}
	t.expect(itemTagClose, "with")
	with.Output = t.parseBody("endwith")
	return one(with)
}

// macro has just been read.
// {% macro name(a, b = 1) %}...{% endmacro [name] %}
func (t *tree) parseMacro(token item) []ast.Token {
	var macro = &ast.Macro{
		Type:       ast.LogicMacro,
		MacroName:  t.expect(itemName, "macro").val,
		Parameters: []string{},
	}
	t.expectValue(itemPunctuation, "(", "macro")
	for !t.peekPunct(")") {
		if len(macro.Parameters) > 0 {
			t.expectValue(itemPunctuation, ",", "macro arguments")
		}
		var param = t.expect(itemName, "macro arguments").val
		macro.Parameters = append(macro.Parameters, param)
		if t.peekPunct("=") {
			t.next()
			if macro.Defaults == nil {
				macro.Defaults = make(map[string][]ast.Expr)
			}
			macro.Defaults[param] = t.parseExpression()
		}
	}
	t.next()
	t.expect(itemTagClose, "macro")

	macro.Output, _ = t.subparse("endmacro")
	if t.peek().typ == itemName {
		if end := t.next(); end.val != macro.MacroName {
			t.errorf("expected endmacro for macro %q (but %q given)", macro.MacroName, end.val)
		}
	}
	t.expect(itemTagClose, "endmacro")
	return one(macro)
}

// import has just been read.
// {% import expr as name %}
func (t *tree) parseImport(token item) []ast.Token {
	var expr = t.parseExpression()
	t.expectValue(itemName, "as", "import")
	var name = t.expect(itemName, "import").val
	t.expect(itemTagClose, "import")
	return one(&ast.Import{Type: ast.LogicImport, Expression: expr, ContextName: name})
}

// from has just been read.
// {% from expr import a [as b], c %}
func (t *tree) parseFrom(token item) []ast.Token {
	var from = &ast.From{
		Type:       ast.LogicFrom,
		Expression: t.parseExpression(),
		MacroNames: make(map[string]string),
	}
	t.expectValue(itemName, "import", "from")
	for {
		var name = t.expect(itemName, "from").val
		var alias = name
		if t.peekName("as") {
			t.next()
			alias = t.expect(itemName, "from").val
		}
		from.MacroNames[name] = alias
		if !t.peekPunct(",") {
			break
		}
		t.next()
	}
	t.expect(itemTagClose, "from")
	return one(from)
}

// Helpers --------------------------------------------------------------------

func inStringSlice(item string, group []string) bool {
	for _, x := range group {
		if x == item {
			return true
		}
	}
	return false
}

func quoteAll(names []string) string {
	var quoted = make([]string, len(names))
	for i, name := range names {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return strings.Join(quoted, " or ")
}

// next returns the next token.
func (t *tree) next() item {
	if t.peekCount > 0 {
		t.peekCount--
	} else {
		t.token[0] = t.lex.nextItem()
	}
	return t.token[t.peekCount]
}

// backup backs the input stream up one token.
func (t *tree) backup() {
	t.peekCount++
}

// peek returns but does not consume the next token.
func (t *tree) peek() item {
	if t.peekCount > 0 {
		return t.token[t.peekCount-1]
	}
	t.peekCount = 1
	t.token[0] = t.lex.nextItem()
	return t.token[0]
}

// peekPunct reports whether the next token is the given punctuation.
func (t *tree) peekPunct(val string) bool {
	var tok = t.peek()
	return tok.typ == itemPunctuation && tok.val == val
}

// peekName reports whether the next token is the given name.
func (t *tree) peekName(val string) bool {
	var tok = t.peek()
	return tok.typ == itemName && tok.val == val
}

// recover is the handler that turns panics into returns from the top level of
// Template.
func (t *tree) recover(errp *error) {
	e := recover()
	if e == nil {
		return
	}
	if _, ok := e.(runtime.Error); ok {
		panic(e)
	}
	if t.lex != nil {
		t.lex.drain()
		t.lex = nil
	}
	*errp = e.(error)
}

// expect consumes the next token and guarantees it has the required type.
func (t *tree) expect(expected itemType, context string) item {
	token := t.next()
	if token.typ != expected {
		t.unexpected(token, fmt.Sprintf("%v (expected %v)", context, expected))
	}
	return token
}

// expectValue consumes the next token and guarantees it has the required
// type and value.
func (t *tree) expectValue(expected itemType, val, context string) item {
	token := t.next()
	if token.typ != expected || token.val != val {
		t.unexpected(token, fmt.Sprintf("%v (expected %q)", context, val))
	}
	return token
}

// unexpected complains about the token and terminates processing.
func (t *tree) unexpected(token item, context string) {
	if token.typ == itemError {
		t.errorf("lexical error: %v", token)
	}
	t.errorf("unexpected %v in %s", token, context)
}

// errorf formats the error, annotated with the position of the current token,
// and terminates processing.
func (t *tree) errorf(format string, args ...interface{}) {
	// get current token (taking account of backups)
	var tok = t.token[0]
	if t.peekCount > 0 {
		tok = t.token[t.peekCount-1]
	}
	panic(errortypes.NewErrFilePosf(t.name,
		t.lex.lineNumber(tok.pos), t.lex.columnNumber(tok.pos), format, args...))
}
