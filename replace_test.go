package twigify

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestReplacePathsApply(t *testing.T) {
	var tests = []struct {
		name     string
		replace  ReplacePaths
		path     string
		expected string
	}{
		{"none", nil, "/usr/app/views/x.twig", "/usr/app/views/x.twig"},
		{"no match", ReplacePaths{{"/lib", "@lib"}}, "/usr/app/views/x.twig", "/usr/app/views/x.twig"},
		{"truncates", ReplacePaths{{"/app", "@app"}}, "/usr/app/views/x.twig", "@app/views/x.twig"},
		{"last occurrence", ReplacePaths{{"/app", "@app"}}, "/app/src/app/x.twig", "@app/x.twig"},
		{"first match wins",
			ReplacePaths{{"/views", "@views"}, {"/app", "@app"}},
			"/usr/app/views/x.twig", "@views/x.twig"},
		{"later pair used when earlier misses",
			ReplacePaths{{"/lib", "@lib"}, {"/app", "@app"}},
			"/usr/app/views/x.twig", "@app/views/x.twig"},
		{"empty replacement", ReplacePaths{{"/usr/", ""}}, "/usr/app/x.twig", "app/x.twig"},
		{"empty search", ReplacePaths{{"", "@"}}, "/usr/x.twig", "@"},
	}
	for _, test := range tests {
		if actual := test.replace.Apply(test.path); actual != test.expected {
			t.Errorf("%s: Apply(%q) = %q, expected %q", test.name, test.path, actual, test.expected)
		}
	}
}

func TestReplacePathsYAMLOrder(t *testing.T) {
	var r ReplacePaths
	var err = yaml.Unmarshal([]byte("/z: '@z'\n/a: '@a'\n/m: '@m'\n"), &r)
	if err != nil {
		t.Fatal(err)
	}
	var expected = ReplacePaths{{"/z", "@z"}, {"/a", "@a"}, {"/m", "@m"}}
	if diff := cmp.Diff(expected, r); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestReplacePathsYAMLRejectsSequence(t *testing.T) {
	var r ReplacePaths
	if err := yaml.Unmarshal([]byte("- /app\n"), &r); err == nil {
		t.Errorf("expected an error, got %v", r)
	}
}
