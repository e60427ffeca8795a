package gpspoint

// span is a token's position within its line.
type span struct {
	start int
	len   int
}

// tokenizer splits one line into whitespace separated tokens. Whitespace
// inside a double-quoted section does not split, and a backslash protects
// the byte after it. A token beginning with '#' ends the line.
//
// Quote and escape state carry across tokens on the same line, matching how
// files have always been read; a fresh tokenizer is used for every line.
type tokenizer struct {
	line     []byte
	pos      int
	inQuote  bool
	escaped  bool
	finished bool
}

func newTokenizer(line []byte) *tokenizer {
	return &tokenizer{line: line}
}

// next returns the next token span, or false when the line is exhausted.
func (tz *tokenizer) next() (span, bool) {
	if tz.finished {
		return span{}, false
	}
	for tz.pos < len(tz.line) && isSpace(tz.line[tz.pos]) {
		tz.pos++
	}
	if tz.pos >= len(tz.line) || tz.line[tz.pos] == '#' {
		tz.finished = true
		return span{}, false
	}

	start := tz.pos
	for ; tz.pos < len(tz.line); tz.pos++ {
		c := tz.line[tz.pos]
		if tz.escaped {
			tz.escaped = false
			continue
		}
		if c == '\\' {
			tz.escaped = true
			continue
		}
		if c == '"' {
			tz.inQuote = !tz.inQuote
			continue
		}
		if !tz.inQuote && isSpace(c) {
			break
		}
	}
	sp := span{start: start, len: tz.pos - start}
	if tz.pos >= len(tz.line) {
		tz.finished = true
	} else {
		tz.pos++ // skip the separator
	}
	return sp, true
}

func (tz *tokenizer) bytes(sp span) []byte {
	return tz.line[sp.start : sp.start+sp.len]
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
