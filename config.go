package twigify

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the settings that shape the generated module source.
// It is a value: Merge returns an updated copy and never modifies the
// receiver.
type Config struct {
	Extensions          []string     // lower-cased extensions eligible for transformation
	RelativePath        bool         // identify templates by __filename / __dirname
	AllowInlineIncludes bool         // passed through to Twig.twig
	Autoescape          bool         // passed through to Twig.twig
	ReplacePaths        ReplacePaths // rewrites applied to the template path
	FailOnError         bool         // compile errors abort the stream instead of emitting undefined
}

// DefaultConfig returns the configuration used before any options apply.
func DefaultConfig() Config {
	return Config{Extensions: ResolveExtensions(nil)}
}

// Options are per-invocation overrides of a Config. A nil field is unset and
// leaves the corresponding setting unchanged.
type Options struct {
	// Extensions replaces the default extension list for this invocation
	// only. Unlike the other fields, it does not carry over to later
	// invocations.
	Extensions          []string
	RelativePath        *bool
	AllowInlineIncludes *bool
	Autoescape          *bool
	// ReplacePaths replaces the path rewrites. A non-nil empty value clears
	// them.
	ReplacePaths ReplacePaths
	FailOnError  *bool
}

// Bool returns a pointer to b, for use in Options.
func Bool(b bool) *bool {
	return &b
}

// Merge returns c with every option that is set in o applied.
func (c Config) Merge(o Options) Config {
	c.Extensions = ResolveExtensions(o.Extensions)
	if o.RelativePath != nil {
		c.RelativePath = *o.RelativePath
	}
	if o.AllowInlineIncludes != nil {
		c.AllowInlineIncludes = *o.AllowInlineIncludes
	}
	if o.Autoescape != nil {
		c.Autoescape = *o.Autoescape
	}
	if o.ReplacePaths != nil {
		c.ReplacePaths = append(ReplacePaths{}, o.ReplacePaths...)
	}
	if o.FailOnError != nil {
		c.FailOnError = *o.FailOnError
	}
	return c
}

// LoadOptions reads Options from a YAML document. An empty document yields
// empty Options.
func LoadOptions(r io.Reader) (Options, error) {
	var opts Options
	if err := yaml.NewDecoder(r).Decode(&opts); err != nil && err != io.EOF {
		return Options{}, fmt.Errorf("twigify: reading options: %w", err)
	}
	return opts, nil
}

// UnmarshalYAML decodes options the way a bundler passes them in:
//   - a sequence is taken as the extension list;
//   - extensions may be a sequence or a mapping with its own extensions key;
//   - flags accept any value and are coerced by truthiness, null is unset;
//   - replacePaths is used only when it is a mapping (null clears it); other
//     kinds are ignored.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		return value.Decode(&o.Extensions)
	case yaml.MappingNode:
	default:
		if value.ShortTag() == "!!null" {
			return nil
		}
		return fmt.Errorf("line %d: options must be a mapping or a sequence of extensions", value.Line)
	}

	for i := 0; i+1 < len(value.Content); i += 2 {
		var key, val = value.Content[i].Value, value.Content[i+1]
		var err error
		switch key {
		case "extensions":
			o.Extensions, err = yamlExtensions(val)
		case "relativePath":
			o.RelativePath = truthy(val)
		case "allowInlineIncludes":
			o.AllowInlineIncludes = truthy(val)
		case "autoescape":
			o.Autoescape = truthy(val)
		case "failOnError":
			o.FailOnError = truthy(val)
		case "replacePaths":
			switch {
			case val.Kind == yaml.MappingNode:
				err = val.Decode(&o.ReplacePaths)
			case val.ShortTag() == "!!null":
				o.ReplacePaths = ReplacePaths{}
			}
		}
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
	}
	return nil
}

func yamlExtensions(n *yaml.Node) ([]string, error) {
	var exts []string
	switch n.Kind {
	case yaml.SequenceNode:
		return exts, n.Decode(&exts)
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == "extensions" {
				return yamlExtensions(n.Content[i+1])
			}
		}
	}
	return nil, nil
}

// truthy coerces a YAML value to a boolean: null is unset; false, zero and
// the empty string are false; anything else is true.
func truthy(n *yaml.Node) *bool {
	if n.Kind != yaml.ScalarNode {
		return Bool(true)
	}
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return Bool(b)
		}
	case "!!int", "!!float":
		var f, err = strconv.ParseFloat(n.Value, 64)
		if err != nil {
			var i int64
			if n.Decode(&i) == nil {
				return Bool(i != 0)
			}
			return Bool(true)
		}
		return Bool(f != 0 && !math.IsNaN(f))
	}
	return Bool(n.Value != "")
}
