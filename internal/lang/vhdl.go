package lang

import (
	"strings"

	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

// vhdlCompoundEndTypes is the set of reserved words that, following a bare
// "end", identify their own opener directly. "generate" is handled
// separately since it resolves against a set of possible generate headers
// rather than its own literal keyword.
var vhdlCompoundEndTypes = map[string]bool{
	"if": true, "loop": true, "case": true, "record": true,
	"process": true, "block": true, "component": true, "configuration": true,
	"entity": true, "architecture": true, "package": true,
	"procedure": true, "function": true,
}

var vhdlBeginContextKeywords = map[string]bool{
	"process": true, "procedure": true, "function": true, "package": true,
	"architecture": true, "block": true, "entity": true,
}

func init() {
	Register(&Descriptor{
		Tag:             VHDL,
		CaseInsensitive: true,
		FindExcluded:    findVHDLExcluded,
		Keywords: []scan.Keyword{
			{Text: "entity", Class: blocktok.Open},
			{Text: "architecture", Class: blocktok.Open},
			{Text: "process", Class: blocktok.Open},
			{Text: "procedure", Class: blocktok.Open},
			{Text: "function", Class: blocktok.Open},
			{Text: "package", Class: blocktok.Open},
			{Text: "block", Class: blocktok.Open},
			{Text: "generate", Class: blocktok.Open},
			{Text: "for", Class: blocktok.Open},
			{Text: "while", Class: blocktok.Open},
			{Text: "if", Class: blocktok.Open},
			{Text: "case", Class: blocktok.Open},
			{Text: "loop", Class: blocktok.Open},
			{Text: "record", Class: blocktok.Open},
			{Text: "component", Class: blocktok.Open},
			{Text: "configuration", Class: blocktok.Open},
			{Text: "begin", Class: blocktok.Open},
			{Text: "end", Class: blocktok.Close},
			{Text: "else", Class: blocktok.Middle},
			{Text: "elsif", Class: blocktok.Middle},
			{Text: "when", Class: blocktok.Middle},
		},
		Validate: validateVHDL,
		Resolvers: map[string]blockmatcher.Resolver{
			"end":               adaResolveBareEnd,
			"end if":            resolveNearestOf("if"),
			"end loop":          resolveNearestOf("loop", "for", "while"),
			"end case":          resolveNearestOf("case"),
			"end record":        resolveNearestOf("record"),
			"end process":       resolveNearestOf("process"),
			"end block":         resolveNearestOf("block"),
			"end component":     resolveNearestOf("component"),
			"end configuration": resolveNearestOf("configuration"),
			"end entity":        resolveNearestOf("entity"),
			"end architecture":  resolveNearestOf("architecture"),
			"end package":       resolveNearestOf("package"),
			"end procedure":     resolveNearestOf("procedure"),
			"end function":      resolveNearestOf("function"),
			"end generate":      resolveNearestOf("generate", "for", "while", "if"),
		},
	})
}

// validateVHDL implements VHDL's variation points: the wait/for
// suppression, entity-as-type-name suppression, declaration-only
// function/procedure suppression, loop-header suppression, conditional
// signal assignment when/else suppression, and the bare-end compound
// rewrite, which works like Ada's but over vhdlCompoundEndTypes plus
// "generate".
func validateVHDL(ctx *scan.Context, cand *scan.Candidate) bool {
	switch cand.Keyword.Text {
	case "for":
		if vhdlStatementLeadingWord(ctx, cand.Start) == "wait" {
			return false
		}
	case "entity":
		if b, _ := ctx.PrecedingNonSpace(cand.Start); b == ':' {
			return false
		}
		if vhdlPrecedingWord(ctx, cand.Start) == "use" {
			return false
		}
	case "procedure", "function":
		if !vhdlSubprogramHasBody(ctx, cand.End) {
			return false
		}
	case "loop":
		if vhdlLoopHasForWhileHeader(ctx, cand.Start) {
			return false
		}
	case "when", "else":
		if vhdlInConditionalSignalAssignment(ctx, cand.Start) {
			return false
		}
	case "end":
		_, pos := ctx.FollowingNonSpace(cand.End)
		if pos < 0 {
			break
		}
		wordEnd := pos
		for wordEnd < len(ctx.Src) && scan.IsIdentByte(ctx.Src[wordEnd]) {
			wordEnd++
		}
		word := strings.ToLower(string(ctx.Src[pos:wordEnd]))
		if vhdlCompoundEndTypes[word] || word == "generate" {
			cand.End = wordEnd
			cand.Keyword.Text = "end " + word
		}
	}
	return true
}

// vhdlPrecedingWord returns the lowercase word immediately preceding start
// (skipping whitespace), or "" if the preceding byte is not an identifier
// character.
func vhdlPrecedingWord(ctx *scan.Context, start int) string {
	b, pos := ctx.PrecedingNonSpace(start)
	if pos < 0 || !scan.IsIdentByte(b) {
		return ""
	}
	return strings.ToLower(scan.TrailingWord(ctx.Src[:pos+1]))
}

// vhdlStatementLeadingWord returns the lowercase leading word of the
// statement containing pos, where a statement begins just after the
// nearest preceding ';' (or buffer/line start if none), covering
// multi-line statements such as "wait\n  for 10 ns;".
func vhdlStatementLeadingWord(ctx *scan.Context, pos int) string {
	src := ctx.Src
	i := pos - 1
	for i >= 0 {
		if ctx.Excluded.Contains(i) {
			i--
			continue
		}
		if src[i] == ';' {
			break
		}
		i--
	}
	stmtStart := i + 1
	prefix := scan.VisiblePrefix(ctx, stmtStart, pos)
	return strings.ToLower(scan.LeadingWord(prefix))
}

// vhdlLoopHasForWhileHeader mirrors Ada's rule: loop is not its own opener
// when the current line leads with for/while, since that keyword is the
// real opener.
func vhdlLoopHasForWhileHeader(ctx *scan.Context, start int) bool {
	lineStart := ctx.LineStart(start)
	prefix := scan.VisiblePrefix(ctx, lineStart, start)
	word := strings.ToLower(scan.LeadingWord(prefix))
	return word == "for" || word == "while"
}

// vhdlSubprogramHasBody scans forward from end of a function/procedure
// keyword, skipping any parenthesized parameter list or return-type
// expression, and reports whether the next top-level token is "is" (a body
// follows) rather than ';' (a bare declaration, not an opener).
func vhdlSubprogramHasBody(ctx *scan.Context, end int) bool {
	src := ctx.Src
	depth := 0
	i := end
	for i < len(src) {
		if ctx.Excluded.Contains(i) {
			i++
			continue
		}
		c := src[i]
		switch {
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			i++
		case depth > 0:
			i++
		case c == ';':
			return false
		case scan.IsIdentByte(c):
			j := i
			for j < len(src) && scan.IsIdentByte(src[j]) {
				j++
			}
			if strings.ToLower(string(src[i:j])) == "is" {
				return true
			}
			i = j
		default:
			i++
		}
	}
	return false
}

// vhdlInConditionalSignalAssignment reports whether pos lies within a
// conditional/selected signal assignment statement, i.e. "<=" appears
// somewhere between the statement's start and pos.
func vhdlInConditionalSignalAssignment(ctx *scan.Context, pos int) bool {
	src := ctx.Src
	i := pos - 1
	for i >= 0 {
		if ctx.Excluded.Contains(i) {
			i--
			continue
		}
		if src[i] == ';' {
			break
		}
		i--
	}
	stmtStart := i + 1
	stmt := scan.VisiblePrefix(ctx, stmtStart, pos)
	return strings.Contains(string(stmt), "<=")
}

// findVHDLExcluded recognizes "--" line comments, newline-terminated
// double-quoted strings, and tick-delimited character literals (an
// attribute tick, like 'range or 'loop, is distinguished from a char
// literal by checking whether a quote closes three bytes later; the
// identifier following an attribute tick is skipped so its text cannot
// collide with a keyword).
func findVHDLExcluded(src []byte) span.Regions {
	var rs span.Regions
	i := 0
	for i < len(src) {
		switch {
		case hasPrefix(src, i, "--"):
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '"':
			end := scan.QuotedEnd(src, i+1, '"', false)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '\'' && i+2 < len(src) && src[i+2] == '\'':
			rs.Add(i, i+3)
			i += 3
			continue
		case src[i] == '\'':
			j := i + 1
			for j < len(src) && scan.IsIdentByte(src[j]) {
				j++
			}
			rs.Add(i, j)
			i = j
			continue
		}
		i++
	}
	rs.Finalize()
	return rs
}
