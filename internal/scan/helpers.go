package scan

// LineEnd returns the offset of the next line terminator (LF, or the CR of
// a CRLF/lone-CR pair) at or after pos, or len(src) if none remains. The
// terminator itself is not included in the returned excluded region, per the
// line-comment rule in section 4.1.
func LineEnd(src []byte, pos int) int {
	for i := pos; i < len(src); i++ {
		if src[i] == '\n' || src[i] == '\r' {
			return i
		}
	}
	return len(src)
}

// QuotedEnd scans a backslash-escaped quoted string body starting at pos
// (the position right after the opening quote) and returns the offset just
// past the closing quote. If allowNewline is false, an unescaped newline
// terminates the region immediately (the offset of the newline is
// returned, i.e. the string is treated as unterminated). Reaching EOF
// without a closing quote also returns len(src).
func QuotedEnd(src []byte, pos int, quote byte, allowNewline bool) int {
	for i := pos; i < len(src); i++ {
		switch src[i] {
		case '\\':
			if i+1 < len(src) {
				i++
				continue
			}
		case quote:
			return i + 1
		case '\n':
			if !allowNewline {
				return i
			}
		}
	}
	return len(src)
}

// DoubledQuoteEnd scans a string whose only escape is a doubled quote
// ('' inside a '...' string), per Pascal's string rule. pos is just after
// the opening quote.
func DoubledQuoteEnd(src []byte, pos int, quote byte) int {
	for i := pos; i < len(src); i++ {
		if src[i] == '\n' {
			return i
		}
		if src[i] == quote {
			if i+1 < len(src) && src[i+1] == quote {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(src)
}

// BlockCommentEnd scans a (possibly nestable) block comment body starting
// at pos (just after the opening delimiter) and returns the offset just
// past the matching close delimiter, or len(src) if unterminated.
func BlockCommentEnd(src []byte, pos int, open, close string, nestable bool) int {
	depth := 1
	i := pos
	for i < len(src) {
		if nestable && hasPrefixAt(src, i, open) {
			depth++
			i += len(open)
			continue
		}
		if hasPrefixAt(src, i, close) {
			depth--
			i += len(close)
			if depth == 0 {
				return i
			}
			continue
		}
		i++
	}
	return len(src)
}

func hasPrefixAt(src []byte, i int, s string) bool {
	if i+len(s) > len(src) {
		return false
	}
	return string(src[i:i+len(s)]) == s
}
