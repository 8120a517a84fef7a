package blockmatcher

import (
	"testing"

	"github.com/opal-lang/blockmatch/internal/blocktok"
)

func tok(class blocktok.Class, text string, start, end int) blocktok.Token {
	return blocktok.Token{Class: class, Text: text, Start: start, End: end}
}

func TestRunPopTopFallbackForUnregisteredCloses(t *testing.T) {
	tokens := []blocktok.Token{
		tok(blocktok.Open, "if", 0, 2),
		tok(blocktok.Open, "if", 5, 7),
		tok(blocktok.Close, "end", 10, 13),
		tok(blocktok.Close, "end", 15, 18),
	}
	pairs := Run(tokens, nil)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2: %+v", len(pairs), pairs)
	}
	// Innermost "if" (start 5) must close first, against the first "end".
	if pairs[0].Open.Start != 5 || pairs[0].Close.Start != 10 {
		t.Errorf("pairs[0] = %+v, want open@5 close@10", pairs[0])
	}
	if pairs[1].Open.Start != 0 || pairs[1].Close.Start != 15 {
		t.Errorf("pairs[1] = %+v, want open@0 close@15", pairs[1])
	}
	if pairs[0].Nest != 1 || pairs[1].Nest != 0 {
		t.Errorf("nest levels = %d,%d, want 1,0", pairs[0].Nest, pairs[1].Nest)
	}
}

func TestRunMiddleAttachesToInnermostFrame(t *testing.T) {
	tokens := []blocktok.Token{
		tok(blocktok.Open, "if", 0, 2),
		tok(blocktok.Middle, "else", 5, 9),
		tok(blocktok.Close, "end", 12, 15),
	}
	pairs := Run(tokens, nil)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if len(pairs[0].Intermediate) != 1 || pairs[0].Intermediate[0].Text != "else" {
		t.Errorf("intermediate = %+v, want [else]", pairs[0].Intermediate)
	}
}

func TestRunStrayMiddleOutsideAnyBlockIsDropped(t *testing.T) {
	tokens := []blocktok.Token{
		tok(blocktok.Middle, "else", 0, 4),
	}
	pairs := Run(tokens, nil)
	if pairs != nil {
		t.Errorf("got %+v, want nil", pairs)
	}
}

func TestRunUnmatchedCloseIsNoOp(t *testing.T) {
	tokens := []blocktok.Token{
		tok(blocktok.Close, "end", 0, 3),
	}
	pairs := Run(tokens, nil)
	if pairs != nil {
		t.Errorf("got %+v, want nil", pairs)
	}
}

func TestRunUnmatchedOpenAtEOFIsDiscarded(t *testing.T) {
	tokens := []blocktok.Token{
		tok(blocktok.Open, "if", 0, 2),
		tok(blocktok.Open, "if", 5, 7),
		tok(blocktok.Close, "end", 10, 13),
	}
	pairs := Run(tokens, nil)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 (outer if stays unmatched at EOF)", len(pairs))
	}
	if pairs[0].Open.Start != 5 {
		t.Errorf("pairs[0].Open.Start = %d, want 5 (innermost closes)", pairs[0].Open.Start)
	}
}

func TestRunCustomResolverCanCloseTwoFrames(t *testing.T) {
	// A custom resolver that closes the top frame and, when the frame
	// beneath it is a begin, that begin too, sharing one close token the way
	// the Ada/Verilog bare "end" policies do.
	closeBoth := func(stack *Stack, close blocktok.Token) []blocktok.Pair {
		top := stack.Pop()
		if top == nil {
			return nil
		}
		pairs := []blocktok.Pair{MakePair(top, close)}
		if under := stack.Top(); under != nil && under.Keyword == "begin" {
			pairs = append(pairs, MakePair(stack.Pop(), close))
		}
		return pairs
	}
	tokens := []blocktok.Token{
		tok(blocktok.Open, "begin", 0, 5),
		tok(blocktok.Open, "if", 8, 10),
		tok(blocktok.Close, "end", 15, 18),
	}
	resolvers := map[string]Resolver{"end": closeBoth}
	pairs := Run(tokens, resolvers)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2: %+v", len(pairs), pairs)
	}
	for _, p := range pairs {
		if p.Close.Start != 15 {
			t.Errorf("pair %+v should share the single close token", p)
		}
	}
}

func TestRecomputeIgnoresRawStackDepth(t *testing.T) {
	// A stray, never-closed outer "if" should not inflate the nest level of
	// an unrelated inner pair that both opens and closes after it.
	pairs := []blocktok.Pair{
		{Open: tok(blocktok.Open, "if", 20, 22), Close: tok(blocktok.Close, "end", 30, 33)},
	}
	Recompute(pairs)
	if pairs[0].Nest != 0 {
		t.Errorf("Nest = %d, want 0 (no other pair strictly contains it)", pairs[0].Nest)
	}
}

func TestRecomputeStrictContainment(t *testing.T) {
	pairs := []blocktok.Pair{
		{Open: tok(blocktok.Open, "if", 0, 2), Close: tok(blocktok.Close, "end", 30, 33)},
		{Open: tok(blocktok.Open, "if", 5, 7), Close: tok(blocktok.Close, "end", 20, 23)},
		{Open: tok(blocktok.Open, "if", 8, 10), Close: tok(blocktok.Close, "end", 20, 23)}, // shares close with the middle one
	}
	Recompute(pairs)
	if pairs[0].Nest != 0 {
		t.Errorf("outermost Nest = %d, want 0", pairs[0].Nest)
	}
	if pairs[1].Nest != 1 {
		t.Errorf("middle Nest = %d, want 1", pairs[1].Nest)
	}
	if pairs[2].Nest != 2 {
		t.Errorf("innermost (sharing close) Nest = %d, want 2 (both outer pairs contain it)", pairs[2].Nest)
	}
}

func TestStackFindFromTopAndRemoveAt(t *testing.T) {
	s := &Stack{}
	s.Push(tok(blocktok.Open, "begin", 0, 5))
	s.Push(tok(blocktok.Open, "if", 8, 10))
	s.Push(tok(blocktok.Open, "procedure", 15, 24))

	depth, ok := s.FindFromTop(func(e *Entry) bool { return e.Keyword == "begin" })
	if !ok || depth != 2 {
		t.Fatalf("FindFromTop(begin) = (%d, %v), want (2, true)", depth, ok)
	}

	removed := s.RemoveAt(1) // the "if" frame
	if removed == nil || removed.Keyword != "if" {
		t.Fatalf("RemoveAt(1) = %+v, want the if frame", removed)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after removal", s.Len())
	}
	if s.Top().Keyword != "procedure" {
		t.Errorf("Top() = %+v, want procedure frame untouched", s.Top())
	}
	if s.At(1).Keyword != "begin" {
		t.Errorf("At(1) = %+v, want begin frame", s.At(1))
	}
}
