package twigify

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultExtensions are transformed when no extensions are configured.
var DefaultExtensions = []string{".twig", ".html"}

// ResolveExtensions returns the lower-cased extension list to use: exts if
// it is non-nil, otherwise DefaultExtensions. Entries are not validated; one
// without a leading dot never matches.
func ResolveExtensions(exts []string) []string {
	if exts == nil {
		exts = DefaultExtensions
	}
	var lower = cases.Lower(language.Und)
	var resolved = make([]string, len(exts))
	for i, ext := range exts {
		resolved[i] = lower.String(ext)
	}
	return resolved
}

// Ext returns the extension of the last element of path: the suffix starting
// at its final dot. A leading dot does not start an extension, so ".twig"
// has none.
func Ext(path string) string {
	var base = filepath.Base(path)
	if base == ".." {
		return ""
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		return base[i:]
	}
	return ""
}

// IsEligible reports whether the extension of path, compared without regard
// to case, is one of exts. The entries of exts must already be lower-cased.
func IsEligible(path string, exts []string) bool {
	var ext = cases.Lower(language.Und).String(Ext(path))
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
