package parse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/robfig/twigify/ast"
)

// Lexer design from text/template

// Tokens ---------------------------------------------------------------------

// item represents a token or text string returned from the scanner.
type item struct {
	typ itemType // The type of this item.
	pos ast.Pos  // The starting position, in bytes, of this item in the input string.
	val string   // The value of this item.
}

func (i item) String() string {
	switch {
	case i.typ == itemEOF:
		return "EOF"
	case i.typ == itemError:
		return i.val
	case len(i.val) > 10:
		return fmt.Sprintf("%.10q...", i.val)
	}
	return fmt.Sprintf("%q", i.val)
}

// itemType identifies the type of lexical items.
type itemType int

// All items.
const (
	itemError itemType = iota // error occurred; value is text of error
	itemEOF

	itemText // plain text outside of tags

	// Delimiters. The value includes any whitespace control dash.
	itemOutputOpen  // {{
	itemOutputClose // }}
	itemTagOpen     // {%
	itemTagClose    // %}

	// Expression items
	itemName        // e.g. a variable, filter, test or tag name
	itemNumber      // e.g. 42 or 1.5
	itemString      // e.g. 'hello' or "hello", including the quotes
	itemOperator    // e.g. +, ==, not in, starts with
	itemPunctuation // one of ( ) [ ] { } , . : | ? =
)

// String converts the itemType into a description for error messages.
func (t itemType) String() string {
	var r, ok = map[itemType]string{
		itemError:       "<error>",
		itemEOF:         "<eof>",
		itemText:        "<text>",
		itemOutputOpen:  "{{",
		itemOutputClose: "}}",
		itemTagOpen:     "{%",
		itemTagClose:    "%}",
		itemName:        "<name>",
		itemNumber:      "<number>",
		itemString:      "<string>",
		itemOperator:    "<operator>",
		itemPunctuation: "<punctuation>",
	}[t]
	if ok {
		return r
	}
	return fmt.Sprintf("item(%d)", t)
}

// Symbolic operators, longest first so that the first match is the longest.
var symbolOperators = []string{
	"**", "//", "==", "!=", "<=", ">=", "..", "??",
	"<", ">", "+", "-", "~", "*", "/", "%",
}

// Word operators. Two-word operators are recognized from their first word.
var wordOperators = map[string]string{
	"and":     "",
	"or":      "",
	"in":      "",
	"matches": "",
	"not":     "in",
	"is":      "not",
	"starts":  "with",
	"ends":    "with",
}

const punctuation = "()[]{},.:|?="

// Lexer ----------------------------------------------------------------------

const eof = -1

// stateFn represents the state of the lexer as a function that returns the
// next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the lexical scanning.
//
// Based on the lexer from the "text/template" package.
// See http://www.youtube.com/watch?v=HxaD_trXwRE
type lexer struct {
	name       string    // the name of the input; used only during errors.
	input      string    // the string being scanned.
	state      stateFn   // the next lexing function to enter.
	pos        ast.Pos   // current position in the input.
	start      ast.Pos   // start position of this item.
	width      int       // width of last rune read from input.
	items      chan item // channel of scanned items.
	lastEmit   item      // most recent item emitted
	closeDelim string    // closing delimiter of the tag being scanned
	tagName    string    // name of the {% tag %} being scanned
	brackets   []rune    // open brackets within the current tag
	trimNext   bool      // strip leading whitespace from the next text
}

// nextItem returns the next item from the input.
func (l *lexer) nextItem() item {
	return <-l.items
}

// drain consumes the remaining items so the lexing goroutine can exit.
func (l *lexer) drain() {
	for range l.items {
	}
}

// lex creates a new scanner for the input string.
func lex(name, input string) *lexer {
	l := &lexer{
		name:  name,
		input: input,
		items: make(chan item),
		state: lexText,
	}
	go l.run()
	return l
}

// run runs the state machine for the lexer.
func (l *lexer) run() {
	for l.state != nil {
		l.state = l.state(l)
	}
	close(l.items)
}

// next returns the next rune in the input.
func (l *lexer) next() (r rune) {
	if l.pos >= ast.Pos(len(l.input)) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += ast.Pos(l.width)
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune. Can only be called once per call of next.
func (l *lexer) backup() {
	l.pos -= ast.Pos(l.width)
}

// emit passes an item back to the client.
func (l *lexer) emit(t itemType) {
	l.emitValue(t, l.input[l.start:l.pos])
}

// emitValue passes an item with the given value back to the client.
func (l *lexer) emitValue(t itemType, val string) {
	l.lastEmit = item{t, l.start, val}
	l.items <- l.lastEmit
	l.start = l.pos
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.start = l.pos
}

// acceptRun consumes a run of runes satisfying the predicate.
func (l *lexer) acceptRun(valid func(rune) bool) bool {
	pos := l.pos
	for valid(l.next()) {
	}
	l.backup()
	return l.pos > pos
}

// lineNumber reports which line the given position is on.
func (l *lexer) lineNumber(pos ast.Pos) int {
	return 1 + strings.Count(l.input[:pos], "\n")
}

// columnNumber reports which column in its line the given position is on.
func (l *lexer) columnNumber(pos ast.Pos) int {
	return int(pos) - strings.LastIndex(l.input[:pos], "\n")
}

// errorf returns an error item and terminates the scan by passing
// back a nil pointer that will be the next state, terminating l.nextItem.
func (l *lexer) errorf(format string, args ...interface{}) stateFn {
	l.items <- item{itemError, l.start, fmt.Sprintf(format, args...)}
	return nil
}

// State functions ------------------------------------------------------------

// emitText emits the pending text, if any. If trim is set, trailing
// whitespace is removed first.
func (l *lexer) emitText(trim bool) {
	var text = l.input[l.start:l.pos]
	if trim {
		text = strings.TrimRightFunc(text, unicode.IsSpace)
	}
	if len(text) > 0 {
		l.emitValue(itemText, text)
	}
	l.start = l.pos
}

// skipLeadingSpace drops whitespace following a "-}}" or "-%}" delimiter.
func (l *lexer) skipLeadingSpace() {
	if l.trimNext {
		l.acceptRun(unicode.IsSpace)
		l.ignore()
		l.trimNext = false
	}
}

// lexText scans until an opening delimiter: "{{", "{%" or "{#".
func lexText(l *lexer) stateFn {
	l.skipLeadingSpace()
	for {
		var i = strings.IndexByte(l.input[l.pos:], '{')
		if i == -1 || int(l.pos)+i+1 >= len(l.input) {
			break
		}
		l.pos += ast.Pos(i)
		var trim = int(l.pos)+2 < len(l.input) && l.input[l.pos+2] == '-'
		switch l.input[l.pos+1] {
		case '{':
			l.emitText(trim)
			return lexOpen(itemOutputOpen, "}}")
		case '%':
			l.emitText(trim)
			return lexOpen(itemTagOpen, "%}")
		case '#':
			l.emitText(trim)
			return lexComment
		}
		l.pos++
	}
	l.pos = ast.Pos(len(l.input))
	l.emitText(false)
	l.emit(itemEOF)
	return nil
}

// lexOpen returns a stateFn that scans an opening delimiter of the given type.
func lexOpen(typ itemType, closeDelim string) stateFn {
	return func(l *lexer) stateFn {
		l.pos += 2
		if l.peek() == '-' {
			l.next()
		}
		l.closeDelim = closeDelim
		l.tagName = ""
		l.brackets = l.brackets[:0]
		l.emit(typ)
		return lexInside
	}
}

// lexComment skips a {# comment #}.
func lexComment(l *lexer) stateFn {
	var i = strings.Index(l.input[l.pos+2:], "#}")
	if i == -1 {
		return l.errorf("unclosed comment")
	}
	var end = l.pos + 2 + ast.Pos(i)
	l.trimNext = l.input[end-1] == '-' && end-1 > l.pos+2
	l.pos = end + 2
	l.ignore()
	return lexText
}

// lexClose scans the closing delimiter of the current tag.
func lexClose(l *lexer) stateFn {
	if l.peek() == '-' {
		l.next()
		l.trimNext = true
	}
	l.pos += 2
	if l.closeDelim == "}}" {
		l.emit(itemOutputClose)
		return lexText
	}
	l.emit(itemTagClose)
	if l.tagName == "verbatim" || l.tagName == "raw" {
		return lexVerbatim
	}
	return lexText
}

var endVerbatim = regexp.MustCompile(`\{%(-?)\s*end(?:verbatim|raw)\s*-?%\}`)

// lexVerbatim scans the body of a verbatim block as text, up to the
// tag that closes it.
func lexVerbatim(l *lexer) stateFn {
	l.skipLeadingSpace()
	var loc = endVerbatim.FindStringSubmatchIndex(l.input[l.pos:])
	if loc == nil {
		return l.errorf("unclosed verbatim block")
	}
	l.pos += ast.Pos(loc[0])
	l.emitText(loc[3] > loc[2])
	return lexOpen(itemTagOpen, "%}")
}

// lexInside is called repeatedly to scan elements inside a tag.
func lexInside(l *lexer) stateFn {
	if len(l.brackets) == 0 {
		var rest = l.input[l.pos:]
		if strings.HasPrefix(rest, l.closeDelim) || strings.HasPrefix(rest, "-"+l.closeDelim) {
			return lexClose
		}
	}

	switch r := l.next(); {
	case r == eof:
		return l.errorf("unclosed tag, expected %s", l.closeDelim)
	case unicode.IsSpace(r):
		l.ignore()
	case isDigit(r):
		l.backup()
		return lexNumber
	case r == '"', r == '\'':
		return stringLexer(r)
	case isLetterOrUnderscore(r):
		l.backup()
		return lexName
	default:
		l.backup()
		return lexSymbol
	}
	return lexInside
}

// lexSymbol scans an operator or punctuation character.
func lexSymbol(l *lexer) stateFn {
	var rest = l.input[l.pos:]
	for _, op := range symbolOperators {
		if strings.HasPrefix(rest, op) {
			l.pos += ast.Pos(len(op))
			l.emit(itemOperator)
			return lexInside
		}
	}

	var r = l.next()
	if !strings.ContainsRune(punctuation, r) {
		return l.errorf("unrecognized character in tag: %#U", r)
	}
	switch r {
	case '(', '[', '{':
		l.brackets = append(l.brackets, r)
	case ')', ']', '}':
		var n = len(l.brackets)
		if n == 0 || l.brackets[n-1] != matchingBracket[r] {
			return l.errorf("unexpected %q", r)
		}
		l.brackets = l.brackets[:n-1]
	}
	l.emit(itemPunctuation)
	return lexInside
}

var matchingBracket = map[rune]rune{')': '(', ']': '[', '}': '{'}

// lexName scans a name, which may turn out to be a word operator.
func lexName(l *lexer) stateFn {
	l.acceptRun(isAlphaNumeric)
	var word = l.input[l.start:l.pos]

	// attribute and filter names are never operators
	if l.lastEmit.typ == itemPunctuation && (l.lastEmit.val == "." || l.lastEmit.val == "|") {
		l.emit(itemName)
		return lexInside
	}

	if word == "b" {
		for _, op := range []string{"-and", "-or", "-xor"} {
			if end, ok := l.followedBy(l.pos, op, false); ok {
				l.pos = end
				l.emit(itemOperator)
				return lexInside
			}
		}
	}

	if second, ok := wordOperators[word]; ok {
		if second != "" {
			if end, ok := l.followedBy(l.pos, second, true); ok {
				l.pos = end
				l.emitValue(itemOperator, word+" "+second)
				return lexInside
			}
			if word == "starts" || word == "ends" {
				l.emit(itemName)
				return lexInside
			}
		}
		l.emit(itemOperator)
		return lexInside
	}

	if l.lastEmit.typ == itemTagOpen {
		l.tagName = word
	}
	l.emit(itemName)
	return lexInside
}

// followedBy reports whether the input at pos continues with word, optionally
// after whitespace, and not followed by another name character. It returns
// the position after the word.
func (l *lexer) followedBy(pos ast.Pos, word string, skipSpace bool) (ast.Pos, bool) {
	var rest = l.input[pos:]
	if skipSpace {
		var trimmed = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if len(trimmed) == len(rest) {
			return pos, false
		}
		pos += ast.Pos(len(rest) - len(trimmed))
		rest = trimmed
	}
	if !strings.HasPrefix(rest, word) {
		return pos, false
	}
	var end = pos + ast.Pos(len(word))
	if r, _ := utf8.DecodeRuneInString(l.input[end:]); isAlphaNumeric(r) {
		return pos, false
	}
	return end, true
}

// stringLexer returns a stateFn that lexes strings surrounded by the given quote character.
func stringLexer(quoteChar rune) stateFn {
	// the quote char has already been read.
	return func(l *lexer) stateFn {
		for {
			switch l.next() {
			case eof:
				return l.errorf("unexpected eof while scanning string")
			case '\\':
				l.next() // skip escape sequences
			case quoteChar:
				l.emit(itemString)
				return lexInside
			}
		}
	}
}

// lexNumber scans an integer or a decimal number. A dot is only part of the
// number when a digit follows it, so that "1..5" is a range.
func lexNumber(l *lexer) stateFn {
	l.acceptRun(isDigit)
	if l.peek() == '.' && int(l.pos)+1 < len(l.input) && isDigit(rune(l.input[l.pos+1])) {
		l.next()
		l.acceptRun(isDigit)
	}
	l.emit(itemNumber)
	return lexInside
}

// Helpers --------------------------------------------------------------------

// isAlphaNumeric reports whether r is an alphabetic, digit, or underscore.
func isAlphaNumeric(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isLetterOrUnderscore(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
