package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robfig/twigify"
)

func writeTree(t *testing.T, files map[string]string) string {
	var dir = t.TempDir()
	for name, content := range files {
		var path = filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	var cmd = newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	var old = twigify.Logger
	t.Cleanup(func() { twigify.Logger = old })
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestStdout(t *testing.T) {
	var dir = writeTree(t, map[string]string{
		"b.twig":     "b",
		"a.html":     "a",
		"skip.js":    "js",
		"sub/c.twig": "c",
	})
	var stdout, _, err = execute(t, dir)
	if err != nil {
		t.Fatal(err)
	}
	var expected = strings.Join([]string{
		"// " + filepath.Join(dir, "a.html"),
		`module.exports = Twig.twig({ id: ` + strconv.Quote(filepath.Join(dir, "a.html")) + `, data:[{"type":"raw","value":"a"}], precompiled: true, allowInlineIncludes: false, autoescape: false });`,
		"// " + filepath.Join(dir, "b.twig"),
		`module.exports = Twig.twig({ id: ` + strconv.Quote(filepath.Join(dir, "b.twig")) + `, data:[{"type":"raw","value":"b"}], precompiled: true, allowInlineIncludes: false, autoescape: false });`,
		"// " + filepath.Join(dir, "sub", "c.twig"),
		`module.exports = Twig.twig({ id: ` + strconv.Quote(filepath.Join(dir, "sub", "c.twig")) + `, data:[{"type":"raw","value":"c"}], precompiled: true, allowInlineIncludes: false, autoescape: false });`,
		"",
	}, "\n")
	if diff := cmp.Diff(expected, stdout); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestOutDir(t *testing.T) {
	var dir = writeTree(t, map[string]string{
		"index.twig":        "index",
		"partials/nav.html": "nav",
	})
	var out = filepath.Join(t.TempDir(), "build")
	var stdout, _, err = execute(t, "--out", out, "--relative-path", dir)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("stdout: %q", stdout)
	}
	for _, name := range []string{"index.twig.js", "partials/nav.html.js"} {
		content, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Error(err)
			continue
		}
		if !strings.HasPrefix(string(content), "\nmodule.exports = Twig.twig({ id: __filename, path: __dirname, data:") {
			t.Errorf("%s: %q", name, content)
		}
	}
}

func TestConfigFile(t *testing.T) {
	var dir = writeTree(t, map[string]string{
		"views/a.njk":  "a",
		"views/b.twig": "b",
		"twigify.yaml": `
extensions: [.njk]
autoescape: true
allowInlineIncludes: true
replacePaths:
  /views: "@views"
`,
	})
	var stdout, _, err = execute(t,
		"--config", filepath.Join(dir, "twigify.yaml"),
		"--autoescape=false",
		filepath.Join(dir, "views"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(stdout, "b.twig") {
		t.Errorf("extension from config not used: %q", stdout)
	}
	for _, s := range []string{`id: "@views/a.njk"`, "allowInlineIncludes: true", "autoescape: false"} {
		if !strings.Contains(stdout, s) {
			t.Errorf("missing %q in %q", s, stdout)
		}
	}
}

func TestReplaceFlag(t *testing.T) {
	var dir = writeTree(t, map[string]string{"app/views/x.twig": "x"})
	var stdout, _, err = execute(t,
		"--replace", "/nomatch=@n",
		"--replace", "/app=@app",
		filepath.Join(dir, "app", "views", "x.twig"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, `id: "@app/views/x.twig"`) {
		t.Errorf("got %q", stdout)
	}
}

func TestParseReplacements(t *testing.T) {
	var rp, err = parseReplacements([]string{"/a=@a", "/b=", "/c=x=y"})
	if err != nil {
		t.Fatal(err)
	}
	var expected = twigify.ReplacePaths{
		{Search: "/a", Replace: "@a"},
		{Search: "/b", Replace: ""},
		{Search: "/c", Replace: "x=y"},
	}
	if diff := cmp.Diff(expected, rp); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	for _, bad := range []string{"noequals", "=x"} {
		if _, err := parseReplacements([]string{bad}); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	var dir = writeTree(t, map[string]string{"bad.twig": "{% if %}"})

	var stdout, stderr, err = execute(t, dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "module.exports = undefined;") {
		t.Errorf("stdout: %q", stdout)
	}
	if strings.Count(stderr, "Twig compile error: ") != 1 {
		t.Errorf("stderr: %q", stderr)
	}

	stdout, _, err = execute(t, "--fail-on-error", dir)
	if err == nil {
		t.Error("expected an error")
	}
	if stdout != "" {
		t.Errorf("stdout: %q", stdout)
	}
}

func TestErrors(t *testing.T) {
	var dir = t.TempDir()
	var tests = [][]string{
		{},
		{filepath.Join(dir, "missing")},
		{"--config", filepath.Join(dir, "missing.yaml"), dir},
		{"--replace", "bad", dir},
	}
	for _, args := range tests {
		if _, _, err := execute(t, args...); err == nil {
			t.Errorf("%q: expected an error", args)
		}
	}
}

func TestRelativeTo(t *testing.T) {
	var roots = []string{"/srv/views", "/srv/other/x.twig"}
	var tests = []struct{ path, expected string }{
		{"/srv/views/a.twig", "a.twig"},
		{"/srv/views/sub/b.twig", filepath.Join("sub", "b.twig")},
		{"/srv/other/x.twig", "x.twig"},
		{"/elsewhere/y.twig", "y.twig"},
	}
	for _, test := range tests {
		if actual := relativeTo(roots, test.path); actual != test.expected {
			t.Errorf("relativeTo(%q) = %q, expected %q", test.path, actual, test.expected)
		}
	}
}
