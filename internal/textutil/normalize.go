package textutil

import (
	"path/filepath"
	"strings"
)

// NormalizeKey strips every character that is not an ASCII letter or digit and
// lowercases the rest. The empty string maps to the empty string.
func NormalizeKey(value string) string {
	if value == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		}
	}
	return b.String()
}

// NormalizeFileKey normalizes a file name with its extension removed.
func NormalizeFileKey(name string) string {
	base, _ := SplitExt(name)
	return NormalizeKey(base)
}

// SplitExt splits name into its base and extension (including the dot).
// Leading-dot names such as ".env" are treated as having no extension.
func SplitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}
