package lang

import (
	"strings"

	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

func init() {
	Register(&Descriptor{
		Tag:             Pascal,
		CaseInsensitive: true,
		FindExcluded:    findPascalExcluded,
		Keywords: []scan.Keyword{
			{Text: "begin", Class: blocktok.Open},
			{Text: "case", Class: blocktok.Open},
			{Text: "record", Class: blocktok.Open},
			{Text: "repeat", Class: blocktok.Open},
			{Text: "class", Class: blocktok.Open},
			{Text: "object", Class: blocktok.Open},
			{Text: "interface", Class: blocktok.Open},
			{Text: "try", Class: blocktok.Open},
			{Text: "end", Class: blocktok.Close},
			{Text: "until", Class: blocktok.Close},
			{Text: "else", Class: blocktok.Middle},
			{Text: "except", Class: blocktok.Middle},
			{Text: "finally", Class: blocktok.Middle},
		},
		Validate: validatePascal,
		Resolvers: map[string]blockmatcher.Resolver{
			"end":   resolveEndSkippingRepeat,
			"until": resolveUntilRepeat,
		},
	})
}

// validatePascal implements the case-inside-record variant-tag suppression
// and the class/object/interface type-definition-only gating.
func validatePascal(ctx *scan.Context, cand *scan.Candidate) bool {
	switch cand.Keyword.Text {
	case "case":
		return !pascalCaseInsideRecord(ctx, cand.Start)
	case "class", "object", "interface":
		if !pascalFollowsTypeEquals(ctx, cand.Start) {
			return false
		}
		// "class of T", "class;" and "class(Parent);" have no body.
		b, pos := ctx.FollowingNonSpace(cand.End)
		if b == '(' {
			b, pos = ctx.FollowingNonSpace(scan.SkipBalanced(ctx.Src, pos+1, '(', ')'))
		}
		if b == ';' {
			return false
		}
		if pos >= 0 && len(ctx.Src)-pos >= 2 && strings.EqualFold(string(ctx.Src[pos:pos+2]), "of") &&
			(pos+2 == len(ctx.Src) || !scan.IsIdentByte(ctx.Src[pos+2])) {
			return false
		}
	}
	return true
}

// pascalCaseInsideRecord reports whether the nearest still-open record-like
// context reached by scanning backward for unmatched record/end pairs is a
// record, meaning this "case" is a variant-part tag rather than a case
// statement. A lightweight backward scan (not the real stack) is used since
// validity predicates run before the stack exists.
func pascalCaseInsideRecord(ctx *scan.Context, pos int) bool {
	src := ctx.Src
	depth := 0
	i := pos - 1
	for i >= 0 {
		if ctx.Excluded.Contains(i) {
			i--
			continue
		}
		if scan.IsIdentByte(src[i]) {
			end := i + 1
			for i >= 0 && scan.IsIdentByte(src[i]) {
				i--
			}
			word := strings.ToLower(string(src[i+1 : end]))
			switch word {
			case "end":
				depth++
			case "record":
				if depth == 0 {
					return true
				}
				depth--
			case "begin", "class", "object", "interface":
				if depth == 0 {
					return false
				}
				depth--
			}
			continue
		}
		i--
	}
	return false
}

// pascalFollowsTypeEquals reports whether cand's keyword sits in a type
// definition ("Name = class ... end"), i.e. the nearest preceding
// non-whitespace byte is '='. validatePascal additionally rejects the
// bodiless "class of", "class;" and "class(Parent);" forms.
func pascalFollowsTypeEquals(ctx *scan.Context, start int) bool {
	b, _ := ctx.PrecedingNonSpace(start)
	return b == '='
}

// findPascalExcluded recognizes "//" line comments, "{ }" and "(* *)" block
// comments, and doubled-quote-escaped single-quoted strings (Pascal has no
// backslash escape; '' inside a string is a literal quote).
func findPascalExcluded(src []byte) span.Regions {
	var rs span.Regions
	i := 0
	for i < len(src) {
		switch {
		case hasPrefix(src, i, "//"):
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '{':
			end := scan.BlockCommentEnd(src, i+1, "{", "}", false)
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "(*"):
			end := scan.BlockCommentEnd(src, i+2, "(*", "*)", false)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '\'':
			end := scan.DoubledQuoteEnd(src, i+1, '\'')
			rs.Add(i, end)
			i = end
			continue
		}
		i++
	}
	rs.Finalize()
	return rs
}
