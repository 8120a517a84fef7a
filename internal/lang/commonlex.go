package lang

import (
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

// This file holds excluded-region scanning helpers shared by the
// interpolating, heredoc-using languages: recursing into #{...}
// interpolation (Ruby, Crystal, Elixir), regex-vs-division disambiguation
// (Ruby, Crystal), and multi-opener heredocs (Ruby, Crystal, Bash).
// Each language's own file wires these together with its own delimiter and
// comment conventions.

func atLineStart(src []byte, i int) bool {
	if i == 0 {
		return true
	}
	return src[i-1] == '\n'
}

func hasPrefix(src []byte, i int, s string) bool {
	if i+len(s) > len(src) {
		return false
	}
	return string(src[i:i+len(s)]) == s
}

func indexByteFrom(src []byte, from int, c byte) int {
	for i := from; i < len(src); i++ {
		if src[i] == c {
			return i
		}
	}
	return -1
}

// findLineStartMarker scans line by line from "from" for a line whose
// content begins with marker, returning the offset of that line's
// terminator (the region end, terminator excluded). Used for Ruby's
// =begin/=end block comments.
func findLineStartMarker(src []byte, from int, marker string) int {
	i := from
	for i < len(src) {
		nl := indexByteFrom(src, i, '\n')
		if nl == -1 {
			return len(src)
		}
		if hasPrefix(src, i, marker) {
			return nl
		}
		i = nl + 1
	}
	return len(src)
}

func isAsciiLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isAsciiLetterOrDigit(b byte) bool {
	return isAsciiLetter(b) || (b >= '0' && b <= '9')
}

func wordEndingAt(src []byte, end int) string {
	start := end
	for start > 0 && scan.IsIdentByte(src[start-1]) {
		start--
	}
	return string(src[start:end])
}

// scanInterpolationBody scans the contents of a #{...} interpolation
// starting just past its opening brace (depth already at 1), recursively
// excluding any nested strings or comments it contains while leaving the
// rest of the interpolation live (keywords inside interpolation are real
// code and must still be tokenized). hashComment selects whether a bare '#'
// not followed by '{' starts a line comment inside the interpolation; the
// Ruby, Crystal and Elixir scanners, its only callers, all pass true.
func scanInterpolationBody(rs *span.Regions, src []byte, pos int, hashComment bool) int {
	depth := 1
	i := pos
	for i < len(src) {
		switch {
		case src[i] == '\\':
			if i+1 < len(src) {
				i += 2
				continue
			}
			i++
		case src[i] == '\'':
			end := scan.QuotedEnd(src, i+1, '\'', true)
			rs.Add(i, end)
			i = end
		case src[i] == '"':
			end := scanInterpolatedString(rs, src, i+1, '"', hashComment)
			rs.Add(i, end)
			i = end
		case src[i] == '`':
			end := scanInterpolatedString(rs, src, i+1, '`', hashComment)
			rs.Add(i, end)
			i = end
		case hashComment && src[i] == '#' && i+1 < len(src) && src[i+1] == '{':
			i = scanInterpolationBody(rs, src, i+2, hashComment)
		case hashComment && src[i] == '#':
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
		case src[i] == '{':
			depth++
			i++
		case src[i] == '}':
			depth--
			i++
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return len(src)
}

// scanInterpolatedString scans a double-quoted or backtick string body
// starting just after its opening quote, recursing into #{...}
// interpolation and returning the offset just past the closing quote (or
// len(src) if unterminated).
func scanInterpolatedString(rs *span.Regions, src []byte, pos int, quote byte, hashComment bool) int {
	i := pos
	for i < len(src) {
		switch {
		case src[i] == '\\':
			if i+1 < len(src) {
				i += 2
				continue
			}
			i++
		case src[i] == quote:
			return i + 1
		case src[i] == '#' && i+1 < len(src) && src[i+1] == '{':
			i = scanInterpolationBody(rs, src, i+2, hashComment)
		default:
			i++
		}
	}
	return len(src)
}

// scanInterpolatedRegex scans a /regex/flags body starting just after the
// opening slash, recursing into interpolation and stopping at an
// unescaped newline (unterminated regex ends at newline per spec).
func scanInterpolatedRegex(rs *span.Regions, src []byte, pos int, hashComment bool) int {
	i := pos
	for i < len(src) {
		switch {
		case src[i] == '\\':
			if i+1 < len(src) {
				i += 2
				continue
			}
			i++
		case src[i] == '/':
			j := i + 1
			for j < len(src) && isAsciiLetter(src[j]) {
				j++
			}
			return j
		case src[i] == '#' && i+1 < len(src) && src[i+1] == '{':
			i = scanInterpolationBody(rs, src, i+2, hashComment)
		case src[i] == '\n':
			return i
		default:
			i++
		}
	}
	return len(src)
}

// regexForcingWords lists keywords after which a '/' is unambiguously a
// regex literal rather than division.
var regexForcingWords = map[string]bool{
	"if": true, "unless": true, "while": true, "until": true, "when": true,
	"return": true, "yield": true, "and": true, "or": true, "not": true,
	"case": true, "elsif": true, "in": true, "do": true,
}

// looksLikeRegexStart implements the division-vs-regex heuristic: after an
// identifier, number, closing bracket, or closing quote/backtick, '/' is
// division; otherwise (including right after a forcing keyword) it is a
// regex.
func looksLikeRegexStart(src []byte, i int) bool {
	j := i - 1
	for j >= 0 && (src[j] == ' ' || src[j] == '\t') {
		j--
	}
	if j < 0 {
		return true
	}
	c := src[j]
	switch {
	case isAsciiLetterOrDigit(c) || c == '_':
		return regexForcingWords[wordEndingAt(src, j+1)]
	case c == ')' || c == ']' || c == '"' || c == '\'' || c == '`':
		return false
	default:
		return true
	}
}

// pendingHeredoc records one heredoc opener recognized on an opener line,
// awaiting its body starting on the following line.
type pendingHeredoc struct {
	tag    string
	dash   bool // '-' or '~' variant: terminator line may be indented
	squash bool // '~' variant additionally strips leading whitespace per body line
	quote  byte // 0, '\'', or '"': quoting used around TAG; single-quote disables interpolation
}

// parseHeredocOpener recognizes `<<[-|~][quote]TAG[quote]` at src[pos],
// requiring a leading '-' or '~' when requireDash is true (Crystal's
// stricter rule from the open question). Returns the tag text, the dash
// flag (set for both '-' and '~'), quote byte used, the offset just past
// the opener, and whether an opener was recognized at all.
func parseHeredocOpener(src []byte, pos int, requireDash bool) (tag string, dash bool, quote byte, after int, ok bool) {
	if !hasPrefix(src, pos, "<<") {
		return "", false, 0, 0, false
	}
	i := pos + 2
	squash := false
	if i < len(src) && src[i] == '-' {
		dash = true
		i++
	} else if i < len(src) && src[i] == '~' {
		dash = true
		squash = true
		i++
	} else if requireDash {
		return "", false, 0, 0, false
	}

	if i < len(src) && (src[i] == '"' || src[i] == '\'') {
		quote = src[i]
		i++
		start := i
		for i < len(src) && src[i] != quote && src[i] != '\n' {
			i++
		}
		if i >= len(src) || src[i] != quote {
			return "", false, 0, 0, false
		}
		tag = string(src[start:i])
		i++
	} else {
		start := i
		for i < len(src) && (scan.IsIdentByte(src[i])) {
			i++
		}
		tag = string(src[start:i])
	}
	if tag == "" {
		return "", false, 0, 0, false
	}
	_ = squash
	return tag, dash, quote, i, true
}

// consumeHeredocBodies consumes the bodies of pending heredocs in opener
// order, each running from bodyStart to the line that exactly matches its
// tag (optionally indented, when dash is set). Returns the offset where
// the last heredoc body's content ends (terminator line start) and the
// offset right after the terminator line's own newline (or end of input),
// which is where ordinary scanning resumes.
func consumeHeredocBodies(src []byte, bodyStart int, docs []pendingHeredoc) (bodyEnd int, resumeAt int) {
	pos := bodyStart
	bodyEnd = bodyStart
	for _, doc := range docs {
		lineStart := pos
		bodyEnd, pos = len(src), len(src)
		for lineStart < len(src) {
			nl := indexByteFrom(src, lineStart, '\n')
			lineEnd := nl
			if lineEnd == -1 {
				lineEnd = len(src)
			}
			line := src[lineStart:lineEnd]
			if heredocTerminates(line, doc) {
				bodyEnd, pos = lineStart, lineEnd
				if nl != -1 {
					pos = nl + 1
				}
				break
			}
			if nl == -1 {
				break
			}
			lineStart = nl + 1
		}
	}
	return bodyEnd, pos
}

func heredocTerminates(line []byte, doc pendingHeredoc) bool {
	trimmed := line
	if doc.dash {
		j := 0
		for j < len(trimmed) && (trimmed[j] == ' ' || trimmed[j] == '\t') {
			j++
		}
		trimmed = trimmed[j:]
	}
	return string(trimmed) == doc.tag
}
