package lang

import (
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

var crystalDoHeaders = map[string]bool{"while": true, "until": true, "for": true}
var crystalDoStops = map[string]bool{"do": true, "end": true}

func init() {
	Register(&Descriptor{
		Tag:             Crystal,
		CaseInsensitive: false,
		FindExcluded:    findCrystalExcluded,
		Keywords: []scan.Keyword{
			{Text: "if", Class: blocktok.Open},
			{Text: "unless", Class: blocktok.Open},
			{Text: "while", Class: blocktok.Open},
			{Text: "until", Class: blocktok.Open},
			{Text: "def", Class: blocktok.Open},
			{Text: "class", Class: blocktok.Open},
			{Text: "module", Class: blocktok.Open},
			{Text: "struct", Class: blocktok.Open},
			{Text: "begin", Class: blocktok.Open},
			{Text: "case", Class: blocktok.Open},
			{Text: "for", Class: blocktok.Open},
			{Text: "do", Class: blocktok.Open},
			{Text: "end", Class: blocktok.Close},
			{Text: "else", Class: blocktok.Middle},
			{Text: "elsif", Class: blocktok.Middle},
			{Text: "when", Class: blocktok.Middle},
			{Text: "ensure", Class: blocktok.Middle},
			{Text: "rescue", Class: blocktok.Middle},
			{Text: "in", Class: blocktok.Middle},
		},
		Validate: validateCrystal,
	})
}

// validateCrystal mirrors Ruby's shared predicate row: postfix
// if/unless/while/until, do-loop-connector, for-in suppression,
// method-call-suffix and named-tuple-key suppression.
func validateCrystal(ctx *scan.Context, cand *scan.Candidate) bool {
	switch cand.Keyword.Text {
	case "if", "unless", "while", "until", "rescue":
		if isPostfixModifier(ctx, cand.Start) {
			return false
		}
	case "do":
		if doIsLoopConnector(ctx, cand.Start, crystalDoHeaders, crystalDoStops) {
			return false
		}
	case "in":
		lineStart := ctx.LineStart(cand.Start)
		prefix := scan.VisiblePrefix(ctx, lineStart, cand.Start)
		if scan.LeadingWord(prefix) == "for" {
			return false
		}
	}
	if isMethodCallSuffix(ctx, cand.Start) {
		return false
	}
	if isNamedTupleKey(ctx, cand.End) {
		return false
	}
	return true
}

// findCrystalExcluded finds comments, double-quoted interpolating strings,
// percent literals, regex, heredocs (strict "<<-TAG" form only, per the
// stricter of the two observed heredoc conventions), character literals
// (single-quoted, unlike Ruby where a single quote is a plain string), and
// symbol literals in their bare, double-, and single-quoted forms.
func findCrystalExcluded(src []byte) span.Regions {
	var rs span.Regions
	var heredocs []pendingHeredoc

	i := 0
	for i < len(src) {
		switch src[i] {
		case '#':
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		case '"':
			end := scanInterpolatedString(&rs, src, i+1, '"', true)
			rs.Add(i, end)
			i = end
			continue
		case '\'':
			if end, ok := crystalCharLiteralEnd(src, i); ok {
				rs.Add(i, end)
				i = end
				continue
			}
		case ':':
			switch {
			case i+1 < len(src) && src[i+1] == '"':
				end := scanInterpolatedString(&rs, src, i+2, '"', true)
				rs.Add(i, end)
				i = end
				continue
			case i+1 < len(src) && src[i+1] == '\'':
				end := scan.QuotedEnd(src, i+2, '\'', false)
				rs.Add(i, end)
				i = end
				continue
			default:
				if end, ok := rubySymbolEnd(src, i); ok {
					rs.Add(i, end)
					i = end
					continue
				}
			}
		case '%':
			if end, ok := rubyPercentLiteral(&rs, src, i); ok {
				rs.Add(i, end)
				i = end
				continue
			}
		case '/':
			if looksLikeRegexStart(src, i) {
				end := scanInterpolatedRegex(&rs, src, i+1, true)
				rs.Add(i, end)
				i = end
				continue
			}
		case '<':
			if tag, dash, quote, after, ok := parseHeredocOpener(src, i, true); ok {
				heredocs = append(heredocs, pendingHeredoc{tag: tag, dash: dash, quote: quote})
				rs.Add(i, after)
				i = after
				continue
			}
		case '\n':
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

// crystalCharLiteralEnd recognizes 'c', '\n'/'\t'/'\\'/'\'' and the
// '\uXXXX'/'\u{...}'/'\xNN'/'\oNNN' escape forms.
func crystalCharLiteralEnd(src []byte, pos int) (int, bool) {
	i := pos + 1
	if i >= len(src) || src[i] == '\n' {
		return 0, false
	}
	if src[i] == '\\' {
		i++
		if i >= len(src) {
			return 0, false
		}
		switch src[i] {
		case 'u':
			i++
			if i < len(src) && src[i] == '{' {
				j := i + 1
				for j < len(src) && src[j] != '}' && src[j] != '\n' {
					j++
				}
				if j >= len(src) || src[j] != '}' {
					return 0, false
				}
				i = j + 1
			} else {
				for k := 0; k < 4 && i < len(src) && isJuliaHexDigit(src[i]); k++ {
					i++
				}
			}
		case 'x':
			i++
			for k := 0; k < 2 && i < len(src) && isJuliaHexDigit(src[i]); k++ {
				i++
			}
		case 'o':
			i++
			for k := 0; k < 3 && i < len(src) && src[i] >= '0' && src[i] <= '7'; k++ {
				i++
			}
		default:
			i++
		}
	} else {
		i++
	}
	if i < len(src) && src[i] == '\'' {
		return i + 1, true
	}
	return 0, false
}
