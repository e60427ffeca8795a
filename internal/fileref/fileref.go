// Package fileref resolves file references (e.g. waypoint images) stored in
// track documents against the directory of the document itself.
package fileref

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects how file references are written.
type Format int

const (
	FormatAbsolute Format = iota
	FormatRelative
)

func (f Format) String() string {
	if f == FormatRelative {
		return "relative"
	}
	return "absolute"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "absolute":
		return FormatAbsolute, nil
	case "relative":
		return FormatRelative, nil
	default:
		return 0, fmt.Errorf("unknown file reference format %q", s)
	}
}

// Absolute joins a relative path onto dir. It returns "" when path is
// already absolute or dir is empty, in which case the caller keeps path as-is.
func Absolute(path, dir string) string {
	if path == "" || dir == "" || filepath.IsAbs(path) {
		return ""
	}
	return filepath.Clean(filepath.Join(dir, path))
}

// Relative expresses path relative to base. The original path is returned
// when no relative form exists (different volume, relative input).
func Relative(base, path string) string {
	if base == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
