package lang

import (
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

func init() {
	Register(&Descriptor{
		Tag:             Julia,
		CaseInsensitive: false,
		FindExcluded:    findJuliaExcluded,
		Keywords: []scan.Keyword{
			{Text: "if", Class: blocktok.Open},
			{Text: "for", Class: blocktok.Open},
			{Text: "while", Class: blocktok.Open},
			{Text: "function", Class: blocktok.Open},
			{Text: "struct", Class: blocktok.Open},
			{Text: "let", Class: blocktok.Open},
			{Text: "do", Class: blocktok.Open},
			{Text: "try", Class: blocktok.Open},
			{Text: "quote", Class: blocktok.Open},
			{Text: "begin", Class: blocktok.Open},
			{Text: "module", Class: blocktok.Open},
			{Text: "macro", Class: blocktok.Open},
			{Text: "abstract", Class: blocktok.Open},
			{Text: "primitive", Class: blocktok.Open},
			{Text: "end", Class: blocktok.Close},
			{Text: "else", Class: blocktok.Middle},
			{Text: "elseif", Class: blocktok.Middle},
			{Text: "catch", Class: blocktok.Middle},
			{Text: "finally", Class: blocktok.Middle},
		},
		Validate: validateJulia,
	})
}

// validateJulia implements the bracket/paren-context suppression rules:
// for/if inside either [...] or (...) are comprehension/generator syntax,
// not openers; every other block keyword is suppressed only inside [...]
// (blocks are allowed inside parens); end inside [...] is array indexing,
// not a close; abstract/primitive are openers only when "type" follows.
func validateJulia(ctx *scan.Context, cand *scan.Candidate) bool {
	switch cand.Keyword.Text {
	case "for", "if":
		return ctx.BracketDepth(cand.Start) == 0 && ctx.ParenDepth(cand.Start) == 0
	case "end":
		return ctx.BracketDepth(cand.Start) == 0
	case "abstract", "primitive":
		_, pos := ctx.FollowingNonSpace(cand.End)
		if pos < 0 {
			return false
		}
		end := pos
		for end < len(ctx.Src) && scan.IsIdentByte(ctx.Src[end]) {
			end++
		}
		return string(ctx.Src[pos:end]) == "type"
	default:
		return ctx.BracketDepth(cand.Start) == 0
	}
}

// findJuliaExcluded recognizes "#"/"#= =#" comments (the latter nestable),
// triple- and single-quoted strings and backtick commands (recursing into
// $(...)/$identifier interpolation), and character literals, distinguishing
// them from the transpose operator per the "after identifier/closing
// bracket" heuristic.
func findJuliaExcluded(src []byte) span.Regions {
	var rs span.Regions
	i := 0
	for i < len(src) {
		switch {
		case hasPrefix(src, i, "#="):
			end := scan.BlockCommentEnd(src, i+2, "#=", "=#", true)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '#':
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, `"""`):
			interpolates := !juliaHasRawPrefix(src, i)
			end := juliaTripleQuoteEnd(&rs, src, i+3, interpolates)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '"':
			interpolates := !juliaHasRawPrefix(src, i)
			end := juliaStringEnd(&rs, src, i+1, '"', interpolates)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '`':
			end := juliaStringEnd(&rs, src, i+1, '`', true)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '\'':
			if juliaIsTransposeContext(src, i) {
				i++
				continue
			}
			if end, ok := juliaCharLiteralEnd(src, i); ok {
				rs.Add(i, end)
				i = end
				continue
			}
		}
		i++
	}
	rs.Finalize()
	return rs
}

// juliaHasRawPrefix reports whether the string literal opening at quoteStart
// is prefixed by the "r" or "raw" macro name, the two non-interpolating
// forms; any other (or absent) prefix interpolates.
func juliaHasRawPrefix(src []byte, quoteStart int) bool {
	j := quoteStart
	for j > 0 && scan.IsIdentByte(src[j-1]) {
		j--
	}
	word := string(src[j:quoteStart])
	return word == "r" || word == "raw"
}

func juliaSkipInterpolation(rs *span.Regions, src []byte, i int) int {
	if i+1 < len(src) && src[i+1] == '(' {
		return juliaInterpolationBody(rs, src, i+2)
	}
	if i+1 < len(src) && (isAsciiLetter(src[i+1]) || src[i+1] == '_') {
		j := i + 1
		for j < len(src) && scan.IsIdentByte(src[j]) {
			j++
		}
		return j
	}
	return i + 1
}

// juliaInterpolationBody scans a $(...) interpolation body, recursing into
// nested strings and comments while leaving the rest live for tokenization.
func juliaInterpolationBody(rs *span.Regions, src []byte, pos int) int {
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
		case src[i] == '"':
			end := juliaStringEnd(rs, src, i+1, '"', true)
			rs.Add(i, end)
			i = end
		case src[i] == '`':
			end := juliaStringEnd(rs, src, i+1, '`', true)
			rs.Add(i, end)
			i = end
		case hasPrefix(src, i, "#="):
			end := scan.BlockCommentEnd(src, i+2, "#=", "=#", true)
			rs.Add(i, end)
			i = end
		case src[i] == '#':
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
		case src[i] == '(':
			depth++
			i++
		case src[i] == ')':
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

// juliaStringEnd scans a single-delimiter (double-quote or backtick) string
// body, recursing into $(...)/$identifier interpolation when interpolates.
func juliaStringEnd(rs *span.Regions, src []byte, pos int, quote byte, interpolates bool) int {
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
		case interpolates && src[i] == '$':
			i = juliaSkipInterpolation(rs, src, i)
		default:
			i++
		}
	}
	return len(src)
}

// juliaTripleQuoteEnd scans a """...""" string body.
func juliaTripleQuoteEnd(rs *span.Regions, src []byte, pos int, interpolates bool) int {
	i := pos
	for i < len(src) {
		switch {
		case src[i] == '\\':
			if i+1 < len(src) {
				i += 2
				continue
			}
			i++
		case hasPrefix(src, i, `"""`):
			return i + 3
		case interpolates && src[i] == '$':
			i = juliaSkipInterpolation(rs, src, i)
		default:
			i++
		}
	}
	return len(src)
}

// juliaIsTransposeContext reports whether the tick at i follows an
// identifier character or a closing bracket, in which case it is the
// transpose operator rather than the start of a character literal.
func juliaIsTransposeContext(src []byte, i int) bool {
	if i == 0 {
		return false
	}
	switch src[i-1] {
	case ')', ']', '}':
		return true
	}
	return scan.IsIdentByte(src[i-1])
}

// juliaCharLiteralEnd recognizes a 'c' character literal, including the
// \n/\t/\\/\' escapes and \uXXXX/\u{...}/\xNN/\oNNN escape forms
// (approximated as a backslash followed by up to four further hex/octal
// digits), starting at the opening tick.
func juliaCharLiteralEnd(src []byte, pos int) (int, bool) {
	i := pos + 1
	if i >= len(src) || src[i] == '\n' {
		return 0, false
	}
	if src[i] == '\\' {
		i++
		if i < len(src) && src[i] == 'u' && i+1 < len(src) && src[i+1] == '{' {
			j := i + 2
			for j < len(src) && src[j] != '}' && src[j] != '\n' {
				j++
			}
			if j >= len(src) || src[j] != '}' {
				return 0, false
			}
			i = j + 1
		} else if i < len(src) {
			i++
			for k := 0; k < 4 && i < len(src) && isJuliaHexDigit(src[i]); k++ {
				i++
			}
		}
	} else {
		i++
	}
	if i < len(src) && src[i] == '\'' {
		return i + 1, true
	}
	return 0, false
}

func isJuliaHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
