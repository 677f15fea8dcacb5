package errortypes

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewErrFilePosf(t *testing.T) {
	var tests = []struct {
		file      string
		line, col int
		format    string
		args      []interface{}
		expected  string
	}{
		{"page.twig", 1, 2, "message", nil, "template page.twig:1:2: message"},
		{"page.twig", 3, 14, "unexpected %q in %s", []interface{}{"}}", "output"}, `template page.twig:3:14: unexpected "}}" in output`},
		{"", 1, 1, "%d%%", []interface{}{100}, "template :1:1: 100%"},
	}
	for _, test := range tests {
		var err = NewErrFilePosf(test.file, test.line, test.col, test.format, test.args...)
		if err.Error() != test.expected {
			t.Errorf("got %q, expected %q", err.Error(), test.expected)
		}
		var pos = ToErrFilePos(err)
		if pos.File() != test.file || pos.Line() != test.line || pos.Col() != test.col {
			t.Errorf("%q: got position %s:%d:%d", test.expected, pos.File(), pos.Line(), pos.Col())
		}
	}
}

type wrapper struct{ err error }

func (w wrapper) Error() string { return "wrapped: " + w.err.Error() }
func (w wrapper) Unwrap() error { return w.err }

func TestToErrFilePos(t *testing.T) {
	var posErr = NewErrFilePosf("page.twig", 4, 2, "unknown tag %q", "foo")
	var tests = []struct {
		name  string
		in    error
		found bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("an error"), false},
		{"direct", posErr, true},
		{"fmt wrapped", fmt.Errorf("compiling: %w", posErr), true},
		{"twice wrapped", wrapper{fmt.Errorf("compiling: %w", posErr)}, true},
		{"formatted, not wrapped", fmt.Errorf("compiling: %v", posErr), false},
	}
	for _, test := range tests {
		if actual := IsErrFilePos(test.in); actual != test.found {
			t.Errorf("%s: IsErrFilePos = %v, expected %v", test.name, actual, test.found)
		}
		var pos = ToErrFilePos(test.in)
		if (pos != nil) != test.found {
			t.Errorf("%s: ToErrFilePos = %v", test.name, pos)
			continue
		}
		if pos != nil && (pos.Line() != 4 || pos.Col() != 2 || pos.Error() != `template page.twig:4:2: unknown tag "foo"`) {
			t.Errorf("%s: got %v", test.name, pos)
		}
	}
}
