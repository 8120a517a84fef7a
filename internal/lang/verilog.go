package lang

import (
	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

// verilogControlKeywords is the set of openers that push their own stack
// frame only when a begin follows, and that a merging "end" folds into the
// same close as the begin frame sitting directly above them.
var verilogControlKeywords = map[string]bool{
	"always": true, "always_comb": true, "always_ff": true, "always_latch": true,
	"initial": true, "final": true,
	"if": true, "for": true, "while": true, "repeat": true, "forever": true,
}

func init() {
	Register(&Descriptor{
		Tag:             Verilog,
		CaseInsensitive: false,
		FindExcluded:    findVerilogExcluded,
		Keywords: []scan.Keyword{
			{Text: "always", Class: blocktok.Open},
			{Text: "always_comb", Class: blocktok.Open},
			{Text: "always_ff", Class: blocktok.Open},
			{Text: "always_latch", Class: blocktok.Open},
			{Text: "initial", Class: blocktok.Open},
			{Text: "final", Class: blocktok.Open},
			{Text: "if", Class: blocktok.Open},
			{Text: "for", Class: blocktok.Open},
			{Text: "while", Class: blocktok.Open},
			{Text: "forever", Class: blocktok.Open},
			{Text: "repeat", Class: blocktok.Open},
			{Text: "case", Class: blocktok.Open},
			{Text: "casex", Class: blocktok.Open},
			{Text: "casez", Class: blocktok.Open},
			{Text: "function", Class: blocktok.Open},
			{Text: "task", Class: blocktok.Open},
			{Text: "module", Class: blocktok.Open},
			{Text: "class", Class: blocktok.Open},
			{Text: "interface", Class: blocktok.Open},
			{Text: "package", Class: blocktok.Open},
			{Text: "program", Class: blocktok.Open},
			{Text: "clocking", Class: blocktok.Open},
			{Text: "covergroup", Class: blocktok.Open},
			{Text: "generate", Class: blocktok.Open},
			{Text: "fork", Class: blocktok.Open},
			{Text: "begin", Class: blocktok.Open},
			{Text: "`ifdef", Class: blocktok.Open},
			{Text: "`ifndef", Class: blocktok.Open},
			{Text: "end", Class: blocktok.Close},
			{Text: "endcase", Class: blocktok.Close},
			{Text: "endfunction", Class: blocktok.Close},
			{Text: "endtask", Class: blocktok.Close},
			{Text: "endmodule", Class: blocktok.Close},
			{Text: "endclass", Class: blocktok.Close},
			{Text: "endinterface", Class: blocktok.Close},
			{Text: "endpackage", Class: blocktok.Close},
			{Text: "endprogram", Class: blocktok.Close},
			{Text: "endclocking", Class: blocktok.Close},
			{Text: "endcovergroup", Class: blocktok.Close},
			{Text: "endgenerate", Class: blocktok.Close},
			{Text: "join", Class: blocktok.Close},
			{Text: "join_any", Class: blocktok.Close},
			{Text: "join_none", Class: blocktok.Close},
			{Text: "`endif", Class: blocktok.Close},
			{Text: "else", Class: blocktok.Middle},
			{Text: "default", Class: blocktok.Middle},
			{Text: "`elsif", Class: blocktok.Middle},
			{Text: "`else", Class: blocktok.Middle},
		},
		Validate: validateVerilog,
		Resolvers: map[string]blockmatcher.Resolver{
			"end":           verilogResolveEnd,
			"endcase":       resolveNearestOf("case", "casex", "casez"),
			"endfunction":   resolveNearestOf("function"),
			"endtask":       resolveNearestOf("task"),
			"endmodule":     resolveNearestOf("module"),
			"endclass":      resolveNearestOf("class"),
			"endinterface":  resolveNearestOf("interface"),
			"endpackage":    resolveNearestOf("package"),
			"endprogram":    resolveNearestOf("program"),
			"endclocking":   resolveNearestOf("clocking"),
			"endcovergroup": resolveNearestOf("covergroup"),
			"endgenerate":   resolveNearestOf("generate"),
			"join":          resolveNearestOf("fork"),
			"join_any":      resolveNearestOf("fork"),
			"join_none":     resolveNearestOf("fork"),
			"`endif":        resolveNearestOf("`ifdef", "`ifndef"),
		},
	})
}

// validateVerilog implements the two Verilog-specific variation points:
// control keywords only open a frame when a begin follows (skipping event
// controls and condition parens), and default classifies as middle only
// when followed by ':'.
func validateVerilog(ctx *scan.Context, cand *scan.Candidate) bool {
	switch cand.Keyword.Text {
	case "default":
		b, _ := ctx.FollowingNonSpace(cand.End)
		return b == ':'
	}
	if verilogControlKeywords[cand.Keyword.Text] {
		return verilogPrecedesBegin(ctx, cand.End)
	}
	return true
}

// verilogPrecedesBegin skips whitespace, at most one event-control (@(...),
// @*, or @identifier), and at most one condition/sensitivity parenthesis
// group, repeating while those forms continue to appear, then reports
// whether the next word is "begin".
func verilogPrecedesBegin(ctx *scan.Context, pos int) bool {
	src := ctx.Src
	i := pos
	for {
		for i < len(src) && isVerilogSpace(src[i]) {
			i++
		}
		if i < len(src) && src[i] == '@' {
			i++
			if i < len(src) && src[i] == '*' {
				i++
				continue
			}
			if i < len(src) && src[i] == '(' {
				i = scan.SkipBalanced(src, i+1, '(', ')')
				continue
			}
			for i < len(src) && scan.IsIdentByte(src[i]) {
				i++
			}
			continue
		}
		if i < len(src) && src[i] == '(' {
			i = scan.SkipBalanced(src, i+1, '(', ')')
			continue
		}
		break
	}
	for i < len(src) && isVerilogSpace(src[i]) {
		i++
	}
	return verilogWordAt(src, i) == "begin"
}

func isVerilogSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func verilogWordAt(src []byte, i int) string {
	j := i
	for j < len(src) && scan.IsIdentByte(src[j]) {
		j++
	}
	return string(src[i:j])
}

// verilogResolveEnd closes the nearest begin frame, additionally folding in
// the control keyword (always*, initial, if, for, while, repeat, forever)
// sitting directly beneath it, if any, sharing the same close token.
func verilogResolveEnd(stack *blockmatcher.Stack, close blocktok.Token) []blocktok.Pair {
	depth, ok := stack.FindFromTop(func(e *blockmatcher.Entry) bool { return e.Keyword == "begin" })
	if !ok {
		return nil
	}
	beginEntry := stack.RemoveAt(depth)
	pairs := []blocktok.Pair{blockmatcher.MakePair(beginEntry, close)}

	if top := stack.Top(); top != nil && verilogControlKeywords[top.Keyword] {
		controlEntry := stack.Pop()
		pairs = append(pairs, blockmatcher.MakePair(controlEntry, close))
	}
	return pairs
}

// findVerilogExcluded recognizes line and block comments and single-line
// (unterminated strings do not span lines) double-quoted strings.
func findVerilogExcluded(src []byte) span.Regions {
	var rs span.Regions
	i := 0
	for i < len(src) {
		switch {
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '/':
			end := scan.LineEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '*':
			end := scan.BlockCommentEnd(src, i+2, "/*", "*/", false)
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
