package blockmatcher

import (
	"sort"

	"github.com/opal-lang/blockmatch/internal/blocktok"
)

// Resolver resolves one close token against the current stack, mutating the
// stack to remove whichever frame(s) it closes, and returns the resulting
// pair(s). Most closes resolve exactly one frame; the Ada/VHDL/Verilog
// bare "end" policies may close two frames with the same token and so
// return two pairs. An unmatched close returns nil and leaves the stack
// untouched.
type Resolver func(stack *Stack, close blocktok.Token) []blocktok.Pair

// PopTop is the generic resolution policy: a close always resolves the
// innermost open frame, regardless of keyword. This is correct for every
// language whose grammar has only one opener/closer family in play at a
// given nesting point.
func PopTop(stack *Stack, close blocktok.Token) []blocktok.Pair {
	e := stack.Pop()
	if e == nil {
		return nil
	}
	return []blocktok.Pair{MakePair(e, close)}
}

// Run consumes tokens in order and emits block pairs. Tokens must already be
// classified and sorted by ascending start offset (the tokenizer guarantees
// this). The resolve function is looked up per close keyword; closes with no
// matching entry in resolvers fall back to PopTop.
func Run(tokens []blocktok.Token, resolvers map[string]Resolver) []blocktok.Pair {
	stack := &Stack{}
	var pairs []blocktok.Pair

	for _, tok := range tokens {
		switch tok.Class {
		case blocktok.Open:
			stack.Push(tok)
		case blocktok.Middle:
			stack.AddMiddle(tok)
		case blocktok.Close:
			resolve := resolvers[tok.Text]
			if resolve == nil {
				resolve = PopTop
			}
			if got := resolve(stack, tok); got != nil {
				pairs = append(pairs, got...)
			}
		}
	}
	// Remaining stack entries are unmatched opens at EOF: discarded.

	Recompute(pairs)
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Close.Start != pairs[j].Close.Start {
			return pairs[i].Close.Start < pairs[j].Close.Start
		}
		// Pairs sharing a close token: innermost (later-opened) first.
		return pairs[i].Open.Start > pairs[j].Open.Start
	})
	return pairs
}

// Recompute assigns each pair's Nest level as the exact count of other pairs
// that strictly contain it, independent of the matching stack's depth (which
// may be inflated by stray unmatched opens). O(n^2) in pair count, per spec.
func Recompute(pairs []blocktok.Pair) {
	for i := range pairs {
		nest := 0
		for j := range pairs {
			if i == j {
				continue
			}
			if pairs[j].Open.Start < pairs[i].Open.Start && pairs[j].Close.Start >= pairs[i].Close.Start {
				nest++
			}
		}
		pairs[i].Nest = nest
	}
}
