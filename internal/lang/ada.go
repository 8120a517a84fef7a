package lang

import (
	"strings"

	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

// adaCompoundEndTypes is the set of reserved words that, following a bare
// "end", form a compound closer identifying their own opener directly
// ("end if", "end loop", ...) rather than the begin-context merge bare "end"
// otherwise uses.
var adaCompoundEndTypes = map[string]bool{
	"if": true, "loop": true, "case": true, "record": true, "select": true,
}

// adaBeginContextKeywords is the set of openers that, found directly beneath
// a begin frame on the stack, are closed by the same bare "end" token that
// closes the begin.
var adaBeginContextKeywords = map[string]bool{
	"declare": true, "procedure": true, "function": true, "task": true,
	"protected": true, "package": true, "entry": true, "accept": true,
}

func init() {
	Register(&Descriptor{
		Tag:             Ada,
		CaseInsensitive: true,
		FindExcluded:    findAdaExcluded,
		Keywords: []scan.Keyword{
			{Text: "procedure", Class: blocktok.Open},
			{Text: "function", Class: blocktok.Open},
			{Text: "package", Class: blocktok.Open},
			{Text: "task", Class: blocktok.Open},
			{Text: "protected", Class: blocktok.Open},
			{Text: "entry", Class: blocktok.Open},
			{Text: "declare", Class: blocktok.Open},
			{Text: "begin", Class: blocktok.Open},
			{Text: "if", Class: blocktok.Open},
			{Text: "loop", Class: blocktok.Open},
			{Text: "for", Class: blocktok.Open},
			{Text: "while", Class: blocktok.Open},
			{Text: "case", Class: blocktok.Open},
			{Text: "record", Class: blocktok.Open},
			{Text: "select", Class: blocktok.Open},
			{Text: "accept", Class: blocktok.Open},
			{Text: "end", Class: blocktok.Close},
			{Text: "else", Class: blocktok.Middle},
			{Text: "elsif", Class: blocktok.Middle},
			{Text: "when", Class: blocktok.Middle},
			{Text: "exception", Class: blocktok.Middle},
		},
		Validate: validateAda,
		Resolvers: map[string]blockmatcher.Resolver{
			"end":        adaResolveBareEnd,
			"end if":     resolveNearestOf("if"),
			"end loop":   resolveNearestOf("loop", "for", "while"),
			"end case":   resolveNearestOf("case"),
			"end record": resolveNearestOf("record"),
			"end select": resolveNearestOf("select"),
		},
	})
}

// validateAda implements the loop/for/while suppression rule and rewrites a
// bare "end" candidate into its compound "end TYPE" form when one of the
// reserved TYPE words follows.
func validateAda(ctx *scan.Context, cand *scan.Candidate) bool {
	switch cand.Keyword.Text {
	case "loop":
		if adaLoopHasForWhileHeader(ctx, cand.Start) {
			return false
		}
	case "end":
		adaRewriteCompoundEnd(ctx, cand)
	}
	return true
}

// adaLoopHasForWhileHeader reports whether the current line (the
// portion from line start up to the loop keyword) opens with "for" or
// "while", in which case the for/while keyword itself is the real opener
// and this loop is not one.
func adaLoopHasForWhileHeader(ctx *scan.Context, start int) bool {
	lineStart := ctx.LineStart(start)
	prefix := scan.VisiblePrefix(ctx, lineStart, start)
	word := strings.ToLower(scan.LeadingWord(prefix))
	return word == "for" || word == "while"
}

// adaRewriteCompoundEnd peeks past a bare "end" for a following reserved
// TYPE word (if/loop/case/record/select). If found, it widens cand.End to
// span the whole compound and rewrites cand.Keyword.Text to "end TYPE" so
// the emitted token resolves against the matching compound Resolver instead
// of the begin-context bare-end merge, and the tokenizer's advance past
// cand.End suppresses the TYPE word as its own token.
func adaRewriteCompoundEnd(ctx *scan.Context, cand *scan.Candidate) {
	b, pos := ctx.FollowingNonSpace(cand.End)
	if pos < 0 {
		return
	}
	_ = b
	end := pos
	for end < len(ctx.Src) && scan.IsIdentByte(ctx.Src[end]) {
		end++
	}
	word := strings.ToLower(string(ctx.Src[pos:end]))
	if !adaCompoundEndTypes[word] {
		return
	}
	cand.End = end
	cand.Keyword.Text = "end " + word
}

// adaResolveBareEnd closes the nearest begin frame and, if the frame
// directly beneath it is one of the begin-context keywords, closes that
// frame too with the same token (e.g. "end P;" for "procedure P is begin
// ... end P;").
func adaResolveBareEnd(stack *blockmatcher.Stack, close blocktok.Token) []blocktok.Pair {
	depth, ok := stack.FindFromTop(func(e *blockmatcher.Entry) bool { return e.Keyword == "begin" })
	if !ok {
		return nil
	}
	beginEntry := stack.RemoveAt(depth)
	pairs := []blocktok.Pair{blockmatcher.MakePair(beginEntry, close)}

	if top := stack.Top(); top != nil && adaBeginContextKeywords[top.Keyword] {
		ctxEntry := stack.Pop()
		pairs = append(pairs, blockmatcher.MakePair(ctxEntry, close))
	}
	return pairs
}

// findAdaExcluded recognizes "--" line comments, newline-terminated
// double-quoted strings, and tick-delimited character literals, the latter
// disambiguated from an attribute tick by checking whether a quote closes
// three bytes later.
func findAdaExcluded(src []byte) span.Regions {
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
		}
		i++
	}
	rs.Finalize()
	return rs
}
