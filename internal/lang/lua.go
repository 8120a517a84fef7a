package lang

import (
	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

func init() {
	Register(&Descriptor{
		Tag:             Lua,
		CaseInsensitive: false,
		FindExcluded:    findLuaExcluded,
		Keywords: []scan.Keyword{
			{Text: "function", Class: blocktok.Open},
			{Text: "if", Class: blocktok.Open},
			{Text: "for", Class: blocktok.Open},
			{Text: "while", Class: blocktok.Open},
			{Text: "repeat", Class: blocktok.Open},
			{Text: "do", Class: blocktok.Open},
			{Text: "end", Class: blocktok.Close},
			{Text: "until", Class: blocktok.Close},
			{Text: "else", Class: blocktok.Middle},
			{Text: "elseif", Class: blocktok.Middle},
		},
		Validate: validateLua,
		Resolvers: map[string]blockmatcher.Resolver{
			"end":   resolveEndSkippingRepeat,
			"until": resolveUntilRepeat,
		},
	})
}

// validateLua implements the one Lua-specific variation point: "do" is not
// an opener when it is the loop connector terminating a while/for header.
func validateLua(ctx *scan.Context, cand *scan.Candidate) bool {
	if cand.Keyword.Text != "do" {
		return true
	}
	return !luaDoIsLoopConnector(ctx, cand.Start)
}

// luaDoIsLoopConnector searches backward, across newlines, for the nearest
// preceding while/for/do/end keyword. If it is while or for, this "do"
// terminates that header and is not a block opener in its own right.
func luaDoIsLoopConnector(ctx *scan.Context, pos int) bool {
	src := ctx.Src
	for i := pos - 1; i >= 0; i-- {
		if ctx.Excluded.Contains(i) {
			continue
		}
		if !scan.IsIdentByte(src[i]) {
			continue
		}
		end := i + 1
		for i >= 0 && scan.IsIdentByte(src[i]) && !ctx.Excluded.Contains(i) {
			i--
		}
		start := i + 1
		if start > 0 && scan.IsIdentByte(src[start-1]) {
			// not actually a word boundary (shouldn't happen given the scan)
			continue
		}
		word := string(src[start:end])
		switch word {
		case "while", "for":
			return true
		case "do", "end":
			return false
		}
		i = start
	}
	return false
}

func findLuaExcluded(src []byte) span.Regions {
	var rs span.Regions
	i := 0
	for i < len(src) {
		if src[i] == '-' && i+1 < len(src) && src[i+1] == '-' {
			if level, bodyStart, ok := luaLongBracketOpen(src, i+2); ok {
				end := luaLongBracketClose(src, bodyStart, level)
				rs.Add(i, end)
				i = end
				continue
			}
			end := scan.LineEnd(src, i+2)
			rs.Add(i, end)
			i = end
			continue
		}
		if src[i] == '[' {
			if level, bodyStart, ok := luaLongBracketOpen(src, i); ok {
				end := luaLongBracketClose(src, bodyStart, level)
				rs.Add(i, end)
				i = end
				continue
			}
		}
		if src[i] == '"' || src[i] == '\'' {
			end := luaQuotedEnd(src, i+1, src[i])
			rs.Add(i, end)
			i = end
			continue
		}
		if src[i] == ':' && i+1 < len(src) && src[i+1] == ':' {
			end := luaGotoLabelEnd(src, i)
			rs.Add(i, end)
			i = end
			continue
		}
		i++
	}
	rs.Finalize()
	return rs
}

// luaLongBracketOpen recognizes "[=*[" starting at pos, returning the
// equal-sign count and the offset where the bracket body begins.
func luaLongBracketOpen(src []byte, pos int) (level, bodyStart int, ok bool) {
	if pos >= len(src) || src[pos] != '[' {
		return 0, 0, false
	}
	i := pos + 1
	n := 0
	for i < len(src) && src[i] == '=' {
		n++
		i++
	}
	if i >= len(src) || src[i] != '[' {
		return 0, 0, false
	}
	return n, i + 1, true
}

// luaLongBracketClose scans for the matching "]=*]" of the given level.
func luaLongBracketClose(src []byte, pos, level int) int {
	for i := pos; i < len(src); i++ {
		if src[i] != ']' {
			continue
		}
		j := i + 1
		n := 0
		for j < len(src) && src[j] == '=' {
			n++
			j++
		}
		if n == level && j < len(src) && src[j] == ']' {
			return j + 1
		}
	}
	return len(src)
}

// luaQuotedEnd scans a Lua short string body starting just after its
// opening quote: "\z" skips following whitespace (including newlines),
// "\<newline>" is a line continuation, and any other unescaped newline
// terminates the string as unterminated.
func luaQuotedEnd(src []byte, pos int, quote byte) int {
	i := pos
	for i < len(src) {
		switch src[i] {
		case '\\':
			if i+1 < len(src) && src[i+1] == 'z' {
				i += 2
				for i < len(src) && isLuaSpace(src[i]) {
					i++
				}
				continue
			}
			if i+1 < len(src) {
				i += 2
				continue
			}
			i++
		case quote:
			return i + 1
		case '\n':
			return i
		default:
			i++
		}
	}
	return len(src)
}

func isLuaSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func luaGotoLabelEnd(src []byte, pos int) int {
	for i := pos + 2; i+1 < len(src); i++ {
		if src[i] == ':' && src[i+1] == ':' {
			return i + 2
		}
		if src[i] == '\n' {
			return i
		}
	}
	return len(src)
}
