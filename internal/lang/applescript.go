package lang

import (
	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

// appleScriptStatementStarters is the set of leading words whose following
// word is being used as a variable name rather than a keyword ("set tell to
// 5", "copy script to x").
var appleScriptStatementStarters = map[string]bool{"set": true, "copy": true}

func init() {
	Register(&Descriptor{
		Tag:             AppleScript,
		CaseInsensitive: true,
		FindExcluded:    findAppleScriptExcluded,
		Keywords: []scan.Keyword{
			{Text: "using terms from", Class: blocktok.Open},
			{Text: "considering", Class: blocktok.Open},
			{Text: "ignoring", Class: blocktok.Open},
			{Text: "repeat", Class: blocktok.Open},
			{Text: "script", Class: blocktok.Open},
			{Text: "tell", Class: blocktok.Open},
			{Text: "try", Class: blocktok.Open},
			{Text: "if", Class: blocktok.Open},
			{Text: "on", Class: blocktok.Open},
			{Text: "to", Class: blocktok.Open},
			{Text: "end using terms from", Class: blocktok.Close},
			{Text: "end considering", Class: blocktok.Close},
			{Text: "end ignoring", Class: blocktok.Close},
			{Text: "end repeat", Class: blocktok.Close},
			{Text: "end script", Class: blocktok.Close},
			{Text: "end tell", Class: blocktok.Close},
			{Text: "end try", Class: blocktok.Close},
			{Text: "end if", Class: blocktok.Close},
			{Text: "end on", Class: blocktok.Close},
			{Text: "end", Class: blocktok.Close},
			{Text: "else if", Class: blocktok.Middle},
			{Text: "else", Class: blocktok.Middle},
			{Text: "on error", Class: blocktok.Middle},
		},
		Validate: validateAppleScript,
		Resolvers: map[string]blockmatcher.Resolver{
			"end using terms from": resolveNearestOf("using terms from"),
			"end considering":      resolveNearestOf("considering"),
			"end ignoring":         resolveNearestOf("ignoring"),
			"end repeat":           resolveNearestOf("repeat"),
			"end script":           resolveNearestOf("script"),
			"end tell":             resolveNearestOf("tell"),
			"end try":              resolveNearestOf("try"),
			"end if":               resolveNearestOf("if"),
			"end on":               resolveNearestOf("on", "to"),
		},
	})
}

// validateAppleScript implements: tell ... to one-liners are not blocks;
// single-line if ... then action is not a block; keywords used as variable
// names (set X to, copy X to, X of Y) are suppressed; on/to are openers
// only at line start.
//
// This uses the lexicon variant that supports one-liner and variable-name
// suppression (see the design note recorded for AppleScript's comment
// lexicon: the two observed variants are mutually exclusive, and this one
// was chosen over "#" line-comment support).
func validateAppleScript(ctx *scan.Context, cand *scan.Candidate) bool {
	switch cand.Keyword.Text {
	case "tell":
		if appleScriptTellIsOneLiner(ctx, cand.End) {
			return false
		}
	case "if":
		if appleScriptIfIsOneLiner(ctx, cand.End) {
			return false
		}
	case "on", "to":
		if !appleScriptAtLineStart(ctx, cand.Start) {
			return false
		}
	}
	if appleScriptIsVariableUsage(ctx, cand) {
		return false
	}
	return true
}

// appleScriptAtLineStart reports whether cand's keyword is the first
// non-whitespace token on its line.
func appleScriptAtLineStart(ctx *scan.Context, start int) bool {
	prefix := scan.VisiblePrefix(ctx, ctx.LineStart(start), start)
	return len(scan.TrimTrailingSpace(prefix)) == 0
}

// appleScriptTellIsOneLiner reports whether a bare word "to" appears on the
// same line after "tell", outside any string, meaning this is the one-liner
// "tell X to action" form rather than a multi-statement tell block.
func appleScriptTellIsOneLiner(ctx *scan.Context, end int) bool {
	return appleScriptWordFollowsOnLine(ctx, end, "to")
}

// appleScriptIfIsOneLiner reports whether something follows "then" on the
// same line (the one-liner "if ... then action" form) rather than "then"
// being the last token before a real multi-line if block.
func appleScriptIfIsOneLiner(ctx *scan.Context, end int) bool {
	src := ctx.Src
	lineEnd := scan.LineEnd(src, end)
	i := end
	for i < lineEnd {
		if ctx.Excluded.Contains(i) {
			i++
			continue
		}
		if scan.IsIdentByte(src[i]) {
			wordEnd := i
			for wordEnd < lineEnd && scan.IsIdentByte(src[wordEnd]) {
				wordEnd++
			}
			if string(src[i:wordEnd]) == "then" {
				rest := scan.VisiblePrefix(ctx, wordEnd, lineEnd)
				return len(scan.TrimTrailingSpace(rest)) > 0
			}
			i = wordEnd
			continue
		}
		i++
	}
	return false
}

// appleScriptWordFollowsOnLine reports whether word appears as a bare
// identifier token between pos and the end of its line.
func appleScriptWordFollowsOnLine(ctx *scan.Context, pos int, word string) bool {
	src := ctx.Src
	lineEnd := scan.LineEnd(src, pos)
	i := pos
	for i < lineEnd {
		if ctx.Excluded.Contains(i) {
			i++
			continue
		}
		if scan.IsIdentByte(src[i]) {
			wordEnd := i
			for wordEnd < lineEnd && scan.IsIdentByte(src[wordEnd]) {
				wordEnd++
			}
			if string(src[i:wordEnd]) == word {
				return true
			}
			i = wordEnd
			continue
		}
		i++
	}
	return false
}

// appleScriptIsVariableUsage reports whether cand's keyword spelling is
// actually being used as a variable name: immediately after "set"/"copy" at
// the start of the statement ("set tell to 5"), or immediately followed by
// " of " (property-style reference, "tell of app").
func appleScriptIsVariableUsage(ctx *scan.Context, cand *scan.Candidate) bool {
	lineStart := ctx.LineStart(cand.Start)
	prefix := scan.VisiblePrefix(ctx, lineStart, cand.Start)
	leading := scan.LeadingWord(prefix)
	if appleScriptStatementStarters[leading] && len(scan.TrimTrailingSpace(prefix)) == len(leading) {
		return true
	}
	b, pos := ctx.FollowingNonSpace(cand.End)
	if b == 'o' && pos >= 0 {
		if pos+2 <= len(ctx.Src) && string(ctx.Src[pos:pos+2]) == "of" {
			end := pos + 2
			if end >= len(ctx.Src) || !scan.IsIdentByte(ctx.Src[end]) {
				return true
			}
		}
	}
	return false
}

// findAppleScriptExcluded recognizes "--" line comments, nested "(* *)"
// block comments, and double-quoted strings (no interpolation, no
// multi-line bodies).
func findAppleScriptExcluded(src []byte) span.Regions {
	var rs span.Regions
	i := 0
	for i < len(src) {
		switch {
		case hasPrefix(src, i, "--"):
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		case hasPrefix(src, i, "(*"):
			end := scan.BlockCommentEnd(src, i+2, "(*", "*)", true)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '"':
			end := scan.QuotedEnd(src, i+1, '"', false)
			rs.Add(i, end)
			i = end
			continue
		}
		i++
	}
	rs.Finalize()
	return rs
}
