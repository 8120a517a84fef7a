package lang

import (
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

var rubyDoHeaders = map[string]bool{"while": true, "until": true, "for": true}
var rubyDoStops = map[string]bool{"do": true, "end": true}

func init() {
	Register(&Descriptor{
		Tag:             Ruby,
		CaseInsensitive: false,
		FindExcluded:    findRubyExcluded,
		Keywords: []scan.Keyword{
			{Text: "if", Class: blocktok.Open},
			{Text: "unless", Class: blocktok.Open},
			{Text: "while", Class: blocktok.Open},
			{Text: "until", Class: blocktok.Open},
			{Text: "def", Class: blocktok.Open},
			{Text: "class", Class: blocktok.Open},
			{Text: "module", Class: blocktok.Open},
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
		Validate: validateRuby,
	})
}

func validateRuby(ctx *scan.Context, cand *scan.Candidate) bool {
	switch cand.Keyword.Text {
	case "if", "unless", "while", "until", "rescue":
		if isPostfixModifier(ctx, cand.Start) {
			return false
		}
	case "do":
		if doIsLoopConnector(ctx, cand.Start, rubyDoHeaders, rubyDoStops) {
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

// findRubyExcluded finds comments, string/backtick/regex/percent-literal
// bodies (recursing into #{...} interpolation), heredoc bodies, and bare
// symbol literals (:sym) whose spelling would otherwise collide with a
// block keyword.
func findRubyExcluded(src []byte) span.Regions {
	var rs span.Regions
	var heredocs []pendingHeredoc

	i := 0
	for i < len(src) {
		if atLineStart(src, i) && hasPrefix(src, i, "=begin") {
			end := findLineStartMarker(src, i, "=end")
			rs.Add(i, end)
			i = end
			continue
		}
		switch src[i] {
		case '#':
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		case '\'':
			end := scan.QuotedEnd(src, i+1, '\'', false)
			rs.Add(i, end)
			i = end
			continue
		case '"':
			end := scanInterpolatedString(&rs, src, i+1, '"', true)
			rs.Add(i, end)
			i = end
			continue
		case '`':
			end := scanInterpolatedString(&rs, src, i+1, '`', true)
			rs.Add(i, end)
			i = end
			continue
		case ':':
			if end, ok := rubySymbolEnd(src, i); ok {
				rs.Add(i, end)
				i = end
				continue
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
			if tag, dash, quote, after, ok := parseHeredocOpener(src, i, false); ok {
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

// rubyPercentLiteral recognizes %w/%i/%q/%Q/%r/%x (and bare %, a %Q
// synonym) literals, honoring the paired-bracket nesting rule for their
// delimiter and recursing into interpolation for the %Q/%r/%x/%W/%I forms.
func rubyPercentLiteral(rs *span.Regions, src []byte, pos int) (int, bool) {
	// After an operand (identifier, number, closing bracket or quote) '%' is
	// modulo; the same test decides regex-vs-division for '/'.
	if !looksLikeRegexStart(src, pos) {
		return 0, false
	}
	i := pos + 1
	letter := byte(0)
	if i < len(src) && isAsciiLetter(src[i]) {
		letter = src[i]
		i++
	}
	switch letter {
	case 0, 'w', 'i', 'q', 'Q', 'r', 'x', 'W', 'I':
	default:
		return 0, false
	}
	if i >= len(src) {
		return 0, false
	}
	open := src[i]
	if isAsciiLetterOrDigit(open) || open == ' ' || open == '\t' || open == '\n' {
		return 0, false
	}
	close, paired := scan.PercentLiteralClose(open)
	interpolates := letter != 'q' && letter != 'w' && letter != 'i'
	body := i + 1
	if paired {
		end := scan.SkipBalanced(src, body, open, close)
		if interpolates {
			rescan := body
			for rescan < end {
				if src[rescan] == '#' && rescan+1 < end && src[rescan+1] == '{' {
					rescan = scanInterpolationBody(rs, src, rescan+2, true)
					continue
				}
				rescan++
			}
		}
		return end, true
	}
	if interpolates {
		end := scanInterpolatedString(rs, src, body, close, true)
		return end, true
	}
	end := scan.QuotedEnd(src, body, close, true)
	return end, true
}

// rubySymbolEnd recognizes a bare symbol literal `:name`, `:name?`,
// `:name!`, or `:name=`, provided it is not `::` scope resolution.
func rubySymbolEnd(src []byte, pos int) (int, bool) {
	if pos+1 >= len(src) {
		return 0, false
	}
	if src[pos+1] == ':' {
		return 0, false
	}
	c := src[pos+1]
	if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return 0, false
	}
	j := pos + 1
	for j < len(src) && scan.IsIdentByte(src[j]) {
		j++
	}
	if j < len(src) && (src[j] == '?' || src[j] == '!' || src[j] == '=') {
		j++
	}
	return j, true
}
