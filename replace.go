package twigify

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathReplacement rewrites the template path from the last occurrence of
// Search, substituting Replace for it.
type PathReplacement struct {
	Search  string
	Replace string
}

// ReplacePaths is an ordered list of path rewrites. Only the first one that
// matches is applied.
type ReplacePaths []PathReplacement

// Apply returns the identifier for the template at path.
//
// For each replacement in order, the last occurrence of Search in path is
// located. On the first match, path is cut to start at that occurrence and
// Search is replaced with Replace. Later replacements are not considered. If
// nothing matches, path is returned unchanged.
func (r ReplacePaths) Apply(path string) string {
	for _, rp := range r {
		if pos := strings.LastIndex(path, rp.Search); pos > -1 {
			return strings.Replace(path[pos:], rp.Search, rp.Replace, 1)
		}
	}
	return path
}

// UnmarshalYAML decodes a mapping of search to replacement strings,
// preserving the order of its keys.
func (r *ReplacePaths) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: replacePaths must be a mapping", value.Line)
	}
	var paths = ReplacePaths{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var rp = PathReplacement{Search: value.Content[i].Value}
		if err := value.Content[i+1].Decode(&rp.Replace); err != nil {
			return err
		}
		paths = append(paths, rp)
	}
	*r = paths
	return nil
}
