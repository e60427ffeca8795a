package gpspoint

import "strings"

// Escape prepares raw for use inside a double-quoted value: backslashes and
// quotes are prefixed with a backslash, and line breaks become spaces since a
// record must stay on one line.
func Escape(raw string) string {
	if !strings.ContainsAny(raw, "\\\"\n\r") {
		return raw
	}
	var b strings.Builder
	b.Grow(len(raw) + 8)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n', '\r':
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Unescape reverses Escape on the bytes found between a value's quotes. A
// backslash makes the following byte literal and is itself dropped; a lone
// trailing backslash escaped the closing quote and is dropped as well.
func Unescape(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out := make([]byte, 0, len(b))
	escaped := false
	for _, c := range b {
		if c == '\\' && !escaped {
			escaped = true
			continue
		}
		out = append(out, c)
		escaped = false
	}
	return string(out)
}
