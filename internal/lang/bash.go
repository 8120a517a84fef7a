package lang

import (
	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

func init() {
	Register(&Descriptor{
		Tag:             Bash,
		CaseInsensitive: false,
		FindExcluded:    findBashExcluded,
		Keywords: []scan.Keyword{
			{Text: "if", Class: blocktok.Open},
			{Text: "case", Class: blocktok.Open},
			{Text: "for", Class: blocktok.Open},
			{Text: "while", Class: blocktok.Open},
			{Text: "until", Class: blocktok.Open},
			{Text: "select", Class: blocktok.Open},
			{Text: "{", Class: blocktok.Open},
			{Text: "fi", Class: blocktok.Close},
			{Text: "esac", Class: blocktok.Close},
			{Text: "done", Class: blocktok.Close},
			{Text: "}", Class: blocktok.Close},
			{Text: "elif", Class: blocktok.Middle},
			{Text: "else", Class: blocktok.Middle},
			{Text: "in", Class: blocktok.Middle},
		},
		Validate: validateBash,
		Resolvers: map[string]blockmatcher.Resolver{
			"fi":   resolveNearestOf("if"),
			"esac": resolveNearestOf("case"),
			"done": resolveNearestOf("for", "while", "until", "select"),
			"}":    resolveNearestOf("{"),
		},
	})
}

// validateBash implements command-position gating, case-pattern
// suppression, and the brace-grouping whitespace rules.
func validateBash(ctx *scan.Context, cand *scan.Candidate) bool {
	if cand.End < len(ctx.Src) && ctx.Src[cand.End] == ')' {
		// A keyword directly followed by ')' is a case pattern, e.g. "for)".
		return false
	}
	switch cand.Keyword.Text {
	case "{":
		if cand.End >= len(ctx.Src) {
			return true
		}
		switch ctx.Src[cand.End] {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
		return bashCommandPosition(ctx, cand.Start)
	case "}":
		return bashClosingBracePosition(ctx, cand.Start)
	default:
		return bashCommandPosition(ctx, cand.Start)
	}
}

// bashCommandPosition reports whether start begins a simple command: the
// start of the buffer, the start of a line, or immediately (modulo
// whitespace) after ';', '|', '&', '(', '{', '`', '!', '}', or one of the
// command-starter reserved words "do"/"then"/"else"/"elif"/"time".
func bashCommandPosition(ctx *scan.Context, start int) bool {
	src := ctx.Src
	i := start - 1
	for i >= 0 {
		if ctx.Excluded.Contains(i) {
			i--
			continue
		}
		c := src[i]
		if c == ' ' || c == '\t' || c == '\r' {
			i--
			continue
		}
		break
	}
	if i < 0 || src[i] == '\n' {
		return true
	}
	switch src[i] {
	case ';', '|', '&', '(', '{', '`', '!', '}':
		return true
	}
	if scan.IsIdentByte(src[i]) {
		switch wordEndingAt(src, i+1) {
		case "do", "then", "else", "elif", "time":
			return true
		}
	}
	return false
}

// bashClosingBracePosition implements "} requires preceding ;, newline, or
// a close keyword".
func bashClosingBracePosition(ctx *scan.Context, start int) bool {
	src := ctx.Src
	i := start - 1
	for i >= 0 {
		if ctx.Excluded.Contains(i) {
			i--
			continue
		}
		c := src[i]
		if c == ' ' || c == '\t' || c == '\r' {
			i--
			continue
		}
		break
	}
	if i < 0 || src[i] == '\n' {
		return true
	}
	if src[i] == ';' {
		return true
	}
	if scan.IsIdentByte(src[i]) {
		switch wordEndingAt(src, i+1) {
		case "fi", "esac", "done":
			return true
		}
	}
	return false
}

// findBashExcluded recognizes line comments, single/double-quoted and
// ANSI-C/locale strings, heredocs, backtick and $(...) command
// substitution, ${...} parameter expansion, $((...))/$[...] arithmetic
// expansion, and <(...)/>(...)process substitution.
func findBashExcluded(src []byte) span.Regions {
	var rs span.Regions
	var heredocs []pendingHeredoc

	i := 0
	for i < len(src) {
		switch {
		case src[i] == '#' && (i == 0 || !scan.IsIdentByte(src[i-1])):
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '\'':
			end := scan.QuotedEnd(src, i+1, '\'', true)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '"':
			end := bashDoubleQuoteEnd(&rs, src, i+1)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '`':
			end := bashBacktickEnd(&rs, src, i+1)
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "$'"):
			end := scan.QuotedEnd(src, i+2, '\'', true)
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "$\""):
			end := bashDoubleQuoteEnd(&rs, src, i+2)
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "$(("):
			end := bashArithEnd(&rs, src, i+2, '(', ')')
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "(("):
			end := bashArithEnd(&rs, src, i+1, '(', ')')
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "$["):
			end := bashArithEnd(&rs, src, i+2, '[', ']')
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "$("):
			end := bashSubstEnd(&rs, src, i+2)
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "${"):
			end := bashParamEnd(&rs, src, i+2)
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "<(") || hasPrefix(src, i, ">("):
			end := bashSubstEnd(&rs, src, i+2)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '<':
			if tag, dash, quote, after, ok := parseHeredocOpener(src, i, false); ok {
				heredocs = append(heredocs, pendingHeredoc{tag: tag, dash: dash, quote: quote})
				rs.Add(i, after)
				i = after
				continue
			}
		case src[i] == '\n':
			if len(heredocs) > 0 {
				bodyEnd, gapEnd := consumeHeredocBodies(src, i+1, heredocs)
				rs.Add(i+1, bodyEnd)
				heredocs = nil
				i = gapEnd
				continue
			}
		}
		i++
	}
	rs.Finalize()
	return rs
}

// bashDoubleQuoteEnd scans a double-quoted string body, recursing into
// $(...)/${...}/$((...))/`...` substitutions it contains.
func bashDoubleQuoteEnd(rs *span.Regions, src []byte, pos int) int {
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
			return i + 1
		case hasPrefix(src, i, "$(("):
			end := bashArithEnd(rs, src, i+2, '(', ')')
			rs.Add(i, end)
			i = end
		case hasPrefix(src, i, "$("):
			end := bashSubstEnd(rs, src, i+2)
			rs.Add(i, end)
			i = end
		case hasPrefix(src, i, "${"):
			end := bashParamEnd(rs, src, i+2)
			rs.Add(i, end)
			i = end
		case src[i] == '`':
			end := bashBacktickEnd(rs, src, i+1)
			rs.Add(i, end)
			i = end
		default:
			i++
		}
	}
	return len(src)
}

// bashBacktickEnd scans a backtick command substitution body.
func bashBacktickEnd(rs *span.Regions, src []byte, pos int) int {
	i := pos
	for i < len(src) {
		switch {
		case src[i] == '\\':
			if i+1 < len(src) {
				i += 2
				continue
			}
			i++
		case src[i] == '`':
			return i + 1
		default:
			i++
		}
	}
	return len(src)
}

// bashSubstEnd scans a $(...), <(...) or >(...) body starting just past its
// opening paren, tracking a case/esac depth counter so that a ')'
// terminating a case pattern does not prematurely close the substitution.
func bashSubstEnd(rs *span.Regions, src []byte, pos int) int {
	depth := 1
	caseDepth := 0
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
			end := bashDoubleQuoteEnd(rs, src, i+1)
			rs.Add(i, end)
			i = end
		case src[i] == '`':
			end := bashBacktickEnd(rs, src, i+1)
			rs.Add(i, end)
			i = end
		case src[i] == '#' && (i == pos || !scan.IsIdentByte(src[i-1])):
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
		case hasPrefix(src, i, "$(("):
			end := bashArithEnd(rs, src, i+2, '(', ')')
			rs.Add(i, end)
			i = end
		case hasPrefix(src, i, "$("):
			end := bashSubstEnd(rs, src, i+2)
			rs.Add(i, end)
			i = end
		case hasPrefix(src, i, "${"):
			end := bashParamEnd(rs, src, i+2)
			rs.Add(i, end)
			i = end
		case wordAt(src, i, "case"):
			caseDepth++
			i += 4
		case wordAt(src, i, "esac"):
			if caseDepth > 0 {
				caseDepth--
			}
			i += 4
		case src[i] == '(':
			depth++
			i++
		case src[i] == ')':
			if caseDepth > 0 {
				i++
				continue
			}
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

// bashArithEnd scans a $((...)), ((...)) or $[...] arithmetic body. pos
// must point just past exactly one of the construct's two opening
// delimiters, leaving the other to be counted as ordinary nesting.
func bashArithEnd(rs *span.Regions, src []byte, pos int, openByte, closeByte byte) int {
	return scan.SkipBalanced(src, pos, openByte, closeByte)
}

// bashParamEnd scans a ${...} parameter expansion body, recursing into
// nested ${...} and $(...) forms it may embed.
func bashParamEnd(rs *span.Regions, src []byte, pos int) int {
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
			end := bashDoubleQuoteEnd(rs, src, i+1)
			rs.Add(i, end)
			i = end
		case hasPrefix(src, i, "$("):
			end := bashSubstEnd(rs, src, i+2)
			rs.Add(i, end)
			i = end
		case hasPrefix(src, i, "${"):
			end := bashParamEnd(rs, src, i+2)
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

func wordAt(src []byte, i int, word string) bool {
	if i > 0 && scan.IsIdentByte(src[i-1]) {
		return false
	}
	if !hasPrefix(src, i, word) {
		return false
	}
	end := i + len(word)
	if end < len(src) && scan.IsIdentByte(src[end]) {
		return false
	}
	return true
}
