package lang

import (
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

func init() {
	Register(&Descriptor{
		Tag:             Elixir,
		CaseInsensitive: false,
		FindExcluded:    findElixirExcluded,
		Keywords: []scan.Keyword{
			{Text: "do", Class: blocktok.Open},
			{Text: "fn", Class: blocktok.Open},
			{Text: "end", Class: blocktok.Close},
			{Text: "else", Class: blocktok.Middle},
			{Text: "rescue", Class: blocktok.Middle},
			{Text: "catch", Class: blocktok.Middle},
			{Text: "after", Class: blocktok.Middle},
		},
		Validate: validateElixir,
	})
}

// validateElixir suppresses the keyword-list form of these words used as
// map/option keys (the one-liner "if x, do: y, else: z" syntax, where
// "do:"/"else:" etc. are atoms, not block keywords) and method-call-style
// suffix usage.
func validateElixir(ctx *scan.Context, cand *scan.Candidate) bool {
	if isNamedTupleKey(ctx, cand.End) {
		return false
	}
	if isMethodCallSuffix(ctx, cand.Start) {
		return false
	}
	return true
}

// findElixirExcluded finds "#" comments, double-quoted and single-quoted
// (charlist) interpolating strings in both their single- and triple-quoted
// forms, sigils (~s(...), ~r/.../, ~w[...], uppercase variants
// non-interpolating), and atom literals in their bare and quoted forms.
func findElixirExcluded(src []byte) span.Regions {
	var rs span.Regions
	i := 0
	for i < len(src) {
		switch {
		case src[i] == '#':
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		case elixirTriplePrefix(src, i, '"'):
			end := elixirStringEnd(&rs, src, i+3, '"', true)
			rs.Add(i, end)
			i = end
			continue
		case elixirTriplePrefix(src, i, '\''):
			end := elixirStringEnd(&rs, src, i+3, '\'', true)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '"':
			end := elixirStringEnd(&rs, src, i+1, '"', false)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '\'':
			end := elixirStringEnd(&rs, src, i+1, '\'', false)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '~':
			if end, ok := elixirSigilEnd(&rs, src, i); ok {
				rs.Add(i, end)
				i = end
				continue
			}
		case src[i] == ':':
			switch {
			case i+1 < len(src) && src[i+1] == '"':
				end := scanInterpolatedString(&rs, src, i+2, '"', true)
				rs.Add(i, end)
				i = end
				continue
			case i+1 < len(src) && src[i+1] == '\'':
				end := scanInterpolatedString(&rs, src, i+2, '\'', true)
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
		}
		i++
	}
	rs.Finalize()
	return rs
}

func elixirTriplePrefix(src []byte, i int, quote byte) bool {
	return i+3 <= len(src) && src[i] == quote && src[i+1] == quote && src[i+2] == quote
}

// elixirStringEnd scans a double-quoted, single-quoted (charlist), or
// triple-quoted string body, recursing into #{...} interpolation.
func elixirStringEnd(rs *span.Regions, src []byte, pos int, quote byte, triple bool) int {
	i := pos
	for i < len(src) {
		switch {
		case src[i] == '\\':
			if i+1 < len(src) {
				i += 2
				continue
			}
			i++
		case triple && elixirTriplePrefix(src, i, quote):
			return i + 3
		case !triple && src[i] == quote:
			return i + 1
		case src[i] == '#' && i+1 < len(src) && src[i+1] == '{':
			i = scanInterpolationBody(rs, src, i+2, true)
		default:
			i++
		}
	}
	return len(src)
}

// elixirSigilEnd recognizes ~s(...)/~r/.../~w[...] and their uppercase
// (non-interpolating) counterparts, honoring the paired-bracket nesting
// rule for the delimiter.
func elixirSigilEnd(rs *span.Regions, src []byte, pos int) (int, bool) {
	i := pos + 1
	if i >= len(src) || !isAsciiLetter(src[i]) {
		return 0, false
	}
	interpolates := src[i] >= 'a' && src[i] <= 'z'
	i++
	if i >= len(src) {
		return 0, false
	}
	open := src[i]
	close, paired := scan.PercentLiteralClose(open)
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
		return scanInterpolatedString(rs, src, body, close, true), true
	}
	return scan.QuotedEnd(src, body, close, true), true
}
