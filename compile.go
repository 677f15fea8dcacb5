package twigify

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/twigify/ast"
	"github.com/robfig/twigify/parse"
)

// Compiler compiles template text into its precompiled tokens. The id
// identifies the template to the compiler, e.g. in error messages.
type Compiler func(id, text string) (*ast.Template, error)

// DefaultCompiler is the Twig compiler from package parse.
var DefaultCompiler Compiler = parse.Template

// CompileError reports a template that could not be compiled.
type CompileError struct {
	Path string // path of the template file
	Err  error  // error returned by the compiler
}

func (e *CompileError) Error() string {
	return e.Err.Error()
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

const identifierChars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewIdentifier returns 32 random alphanumeric characters followed by the
// last 5 digits of the current Unix time in milliseconds. It is unlikely,
// but not guaranteed, to be unique.
func NewIdentifier() string {
	var b = make([]byte, 32, 37)
	for i := range b {
		b[i] = identifierChars[rand.Intn(len(identifierChars))]
	}
	var ms = strconv.FormatInt(time.Now().UnixMilli(), 10)
	return string(append(b, ms[len(ms)-5:]...))
}

// Compile compiles the template text read from path and returns a
// Twig.twig(...) expression registering it, shaped by cfg.
func Compile(path, text string, cfg Config, compile Compiler) (string, error) {
	if compile == nil {
		compile = DefaultCompiler
	}
	var tmpl, err = compile(NewIdentifier(), text)
	if err != nil {
		return "", &CompileError{Path: path, Err: err}
	}
	data, err := encodeTokens(tmpl.Tokens)
	if err != nil {
		return "", &CompileError{Path: path, Err: err}
	}

	var b strings.Builder
	b.WriteString("Twig.twig({ id: ")
	if cfg.RelativePath {
		b.WriteString("__filename, path: __dirname")
	} else {
		b.WriteString(strconv.Quote(cfg.ReplacePaths.Apply(path)))
	}
	b.WriteString(", data:")
	b.Write(data)
	b.WriteString(", precompiled: true, allowInlineIncludes: ")
	b.WriteString(strconv.FormatBool(cfg.AllowInlineIncludes))
	b.WriteString(", autoescape: ")
	b.WriteString(strconv.FormatBool(cfg.Autoescape))
	b.WriteString(" })")
	return b.String(), nil
}

// encodeTokens serializes tokens as compact JSON, leaving HTML characters
// unescaped.
func encodeTokens(tokens []ast.Token) ([]byte, error) {
	if tokens == nil {
		tokens = []ast.Token{}
	}
	var buf bytes.Buffer
	var enc = json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tokens); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Wrap returns module source that exports the given expression.
func Wrap(expr string) string {
	return "\nmodule.exports = " + expr + ";"
}
