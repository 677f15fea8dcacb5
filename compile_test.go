package twigify

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/robertkrimen/otto"
	"github.com/robfig/twigify/ast"
)

func TestNewIdentifier(t *testing.T) {
	var valid = regexp.MustCompile(`^[0-9a-zA-Z]{32}[0-9]{5}$`)
	var seen = make(map[string]bool)
	for i := 0; i < 100; i++ {
		var id = NewIdentifier()
		if !valid.MatchString(id) {
			t.Errorf("malformed identifier %q", id)
		}
		if seen[id] {
			t.Errorf("duplicate identifier %q", id)
		}
		seen[id] = true
	}
}

func TestWrap(t *testing.T) {
	if actual := Wrap("undefined"); actual != "\nmodule.exports = undefined;" {
		t.Errorf("got %q", actual)
	}
}

func TestCompile(t *testing.T) {
	var tests = []struct {
		name     string
		path     string
		text     string
		cfg      Config
		expected string
	}{
		{"default", "/views/x.twig", "hello", DefaultConfig(),
			`Twig.twig({ id: "/views/x.twig", data:[{"type":"raw","value":"hello"}], precompiled: true, allowInlineIncludes: false, autoescape: false })`},
		{"empty template", "/views/x.twig", "", DefaultConfig(),
			`Twig.twig({ id: "/views/x.twig", data:[], precompiled: true, allowInlineIncludes: false, autoescape: false })`},
		{"flags", "/views/x.twig", "hello", Config{AllowInlineIncludes: true, Autoescape: true},
			`Twig.twig({ id: "/views/x.twig", data:[{"type":"raw","value":"hello"}], precompiled: true, allowInlineIncludes: true, autoescape: true })`},
		{"relative path", "/views/x.twig", "hello", Config{RelativePath: true, ReplacePaths: ReplacePaths{{"/views", "@v"}}},
			`Twig.twig({ id: __filename, path: __dirname, data:[{"type":"raw","value":"hello"}], precompiled: true, allowInlineIncludes: false, autoescape: false })`},
		{"replace paths", "/usr/app/views/x.twig", "hello", Config{ReplacePaths: ReplacePaths{{"/app", "@app"}}},
			`Twig.twig({ id: "@app/views/x.twig", data:[{"type":"raw","value":"hello"}], precompiled: true, allowInlineIncludes: false, autoescape: false })`},
		{"html is not escaped", "/views/x.twig", "<b>&</b>", DefaultConfig(),
			`Twig.twig({ id: "/views/x.twig", data:[{"type":"raw","value":"<b>&</b>"}], precompiled: true, allowInlineIncludes: false, autoescape: false })`},
		{"quoted path", `C:\views\"x".twig`, "hello", DefaultConfig(),
			`Twig.twig({ id: "C:\\views\\\"x\".twig", data:[{"type":"raw","value":"hello"}], precompiled: true, allowInlineIncludes: false, autoescape: false })`},
	}
	for _, test := range tests {
		var actual, err = Compile(test.path, test.text, test.cfg, nil)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		if actual != test.expected {
			t.Errorf("%s: did not get expected results:\n%v", test.name, diff.LineDiff(test.expected, actual))
		}
	}
}

func TestCompilePassesIdentifier(t *testing.T) {
	var gotID, gotText string
	var stub = func(id, text string) (*ast.Template, error) {
		gotID, gotText = id, text
		return &ast.Template{ID: id}, nil
	}
	var actual, err = Compile("/views/x.twig", "some text", DefaultConfig(), stub)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotID) != 37 || gotText != "some text" {
		t.Errorf("compiler called with (%q, %q)", gotID, gotText)
	}
	if strings.Contains(actual, gotID) {
		t.Errorf("generated identifier leaked into output: %s", actual)
	}
	if !strings.Contains(actual, "data:[]") {
		t.Errorf("nil tokens should encode as an empty array: %s", actual)
	}
}

func TestCompileError(t *testing.T) {
	var cause = errors.New("boom")
	var stub = func(id, text string) (*ast.Template, error) { return nil, cause }
	var _, err = Compile("/views/x.twig", "text", DefaultConfig(), stub)

	var cerr *CompileError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a *CompileError, got %T: %v", err, err)
	}
	if cerr.Path != "/views/x.twig" || !errors.Is(err, cause) || err.Error() != "boom" {
		t.Errorf("unexpected error %#v", cerr)
	}
}

// newVM returns a JavaScript VM with a stub Twig runtime whose twig function
// returns its parameters, and CommonJS module globals for the given file.
func newVM(t *testing.T, filename, dirname string) *otto.Otto {
	var vm = otto.New()
	var _, err = vm.Run(`
var module = {exports: null};
var Twig = {twig: function(params) { return params; }};
`)
	if err != nil {
		t.Fatal(err)
	}
	vm.Set("__filename", filename)
	vm.Set("__dirname", dirname)
	return vm
}

func TestCompiledModuleEvaluates(t *testing.T) {
	var tests = []struct {
		name   string
		cfg    Config
		text   string
		checks map[string]string // js expression => expected string value
	}{
		{"raw", DefaultConfig(), "hello", map[string]string{
			"module.exports.id":                  "/views/x.twig",
			"module.exports.precompiled":         "true",
			"module.exports.allowInlineIncludes": "false",
			"module.exports.autoescape":          "false",
			"module.exports.data.length":         "1",
			"module.exports.data[0].type":        "raw",
			"module.exports.data[0].value":       "hello",
			"typeof module.exports.path":         "undefined",
		}},
		{"output", Config{Autoescape: true}, "Hi {{ name|upper }}!", map[string]string{
			"module.exports.autoescape":             "true",
			"module.exports.data.length":            "3",
			"module.exports.data[1].type":           "output",
			"module.exports.data[1].stack[0].type":  ast.ExprVariable,
			"module.exports.data[1].stack[0].value": "name",
			"module.exports.data[1].stack[1].type":  ast.ExprFilter,
			"module.exports.data[1].stack[1].value": "upper",
		}},
		{"logic", Config{RelativePath: true}, "{% if ok %}yes{% endif %}", map[string]string{
			"module.exports.id":                            "/views/x.twig",
			"module.exports.path":                          "/views",
			"module.exports.data[0].type":                  "logic",
			"module.exports.data[0].token.type":            ast.LogicIf,
			"module.exports.data[0].token.stack[0].value":  "ok",
			"module.exports.data[0].token.output[0].value": "yes",
		}},
		{"expression tokens", DefaultConfig(), "{{ {a: x ? null : f(1)} }}", map[string]string{
			"module.exports.data[0].stack.length":                  "8",
			"module.exports.data[0].stack[1].key":                  "a",
			"module.exports.data[0].stack[1].operator":             ":",
			"module.exports.data[0].stack[3].value === null":       "true",
			"module.exports.data[0].stack[4].fn":                   "f",
			"module.exports.data[0].stack[4].params.length":        "3",
			"module.exports.data[0].stack[4].params[2].expression": "false",
			"module.exports.data[0].stack[6].type":                 ast.ExprBinary,
			"module.exports.data[0].stack[6].value":                "?",
			"module.exports.data[0].stack[6].precidence":           "16",
		}},
		{"script text", DefaultConfig(), "</script><script>alert(1)</script>\u2028", map[string]string{
			"module.exports.data[0].value": "</script><script>alert(1)</script>\u2028",
		}},
	}
	for _, test := range tests {
		var expr, err = Compile("/views/x.twig", test.text, test.cfg, nil)
		if err != nil {
			t.Errorf("%s: %v", test.name, err)
			continue
		}
		var vm = newVM(t, "/views/x.twig", "/views")
		if _, err = vm.Run(Wrap(expr)); err != nil {
			t.Errorf("%s: %v\n%s", test.name, err, expr)
			continue
		}
		for js, expected := range test.checks {
			var value, err = vm.Run(js)
			if err != nil {
				t.Errorf("%s: %s: %v", test.name, js, err)
				continue
			}
			if value.String() != expected {
				t.Errorf("%s: %s = %q, expected %q", test.name, js, value.String(), expected)
			}
		}
	}
}

func TestUndefinedModuleEvaluates(t *testing.T) {
	var vm = newVM(t, "/views/x.twig", "/views")
	if _, err := vm.Run(Wrap("undefined")); err != nil {
		t.Fatal(err)
	}
	var value, err = vm.Run("module.exports")
	if err != nil {
		t.Fatal(err)
	}
	if !value.IsUndefined() {
		t.Errorf("module.exports = %v, expected undefined", value)
	}
}
