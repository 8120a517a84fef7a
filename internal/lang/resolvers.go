package lang

import (
	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
)

// resolveNearestOf builds a Resolver that closes the nearest open frame
// whose keyword is any of the given set. Shared by every language whose
// compound closer maps to more than one possible opener: Bash's
// fi/esac/done/}, Verilog's endcase/endmodule/join family, and Ada/VHDL's
// end TYPE family.
func resolveNearestOf(keywords ...string) blockmatcher.Resolver {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}
	return func(stack *blockmatcher.Stack, close blocktok.Token) []blocktok.Pair {
		depth, ok := stack.FindFromTop(func(e *blockmatcher.Entry) bool { return set[e.Keyword] })
		if !ok {
			return nil
		}
		e := stack.RemoveAt(depth)
		return []blocktok.Pair{blockmatcher.MakePair(e, close)}
	}
}

// resolveUntilRepeat is Lua/Pascal's "until" policy: resolve the nearest
// repeat frame from the top.
func resolveUntilRepeat(stack *blockmatcher.Stack, close blocktok.Token) []blocktok.Pair {
	depth, ok := stack.FindFromTop(func(e *blockmatcher.Entry) bool { return e.Keyword == "repeat" })
	if !ok {
		return nil
	}
	e := stack.RemoveAt(depth)
	return []blocktok.Pair{blockmatcher.MakePair(e, close)}
}

// resolveEndSkippingRepeat is Lua/Pascal's "end" policy: resolve the
// nearest non-repeat frame from the top, but only if the topmost frame
// is not itself an unmatched repeat (an "end" must never skip over one).
func resolveEndSkippingRepeat(stack *blockmatcher.Stack, close blocktok.Token) []blocktok.Pair {
	if top := stack.Top(); top != nil && top.Keyword == "repeat" {
		return nil
	}
	depth, ok := stack.FindFromTop(func(e *blockmatcher.Entry) bool { return e.Keyword != "repeat" })
	if !ok {
		return nil
	}
	e := stack.RemoveAt(depth)
	return []blocktok.Pair{blockmatcher.MakePair(e, close)}
}
