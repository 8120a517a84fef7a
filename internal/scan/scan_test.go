package scan

import (
	"testing"

	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/span"
)

func newTestContext(src string, excluded span.Regions) *Context {
	return NewContext([]byte(src), excluded)
}

func TestTokenizeRespectsWordBoundaries(t *testing.T) {
	table := Compile([]Keyword{
		{Text: "if", Class: blocktok.Open},
		{Text: "end", Class: blocktok.Close},
	}, false)
	ctx := newTestContext("ifx = 1\nendif\nif x\nend", nil)

	tokens := Tokenize(ctx, table, nil)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(tokens), tokens)
	}
	if tokens[0].Text != "if" || tokens[0].Start != 14 {
		t.Errorf("token 0 = %+v, want if at 14", tokens[0])
	}
	if tokens[1].Text != "end" || tokens[1].Start != 19 {
		t.Errorf("token 1 = %+v, want end at 19", tokens[1])
	}
}

func TestTokenizeSkipsExcludedRegions(t *testing.T) {
	table := Compile([]Keyword{
		{Text: "if", Class: blocktok.Open},
		{Text: "end", Class: blocktok.Close},
	}, false)
	src := "if x\n  -- if end\nend"
	excluded := span.Regions{{Start: 7, End: 17}} // the "-- if end" comment
	ctx := newTestContext(src, excluded)

	tokens := Tokenize(ctx, table, nil)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(tokens), tokens)
	}
	if tokens[0].Text != "if" || tokens[1].Text != "end" {
		t.Errorf("tokens = %+v, want [if end]", tokens)
	}
}

func TestTokenizeLongestKeywordWins(t *testing.T) {
	table := Compile([]Keyword{
		{Text: "end", Class: blocktok.Close},
		{Text: "end if", Class: blocktok.Close},
	}, false)
	ctx := newTestContext("end if\nend", nil)

	tokens := Tokenize(ctx, table, nil)
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens, want 2: %+v", len(tokens), tokens)
	}
	if tokens[0].Text != "end if" {
		t.Errorf("token 0 = %+v, want \"end if\" (longest match)", tokens[0])
	}
	if tokens[1].Text != "end" {
		t.Errorf("token 1 = %+v, want \"end\"", tokens[1])
	}
}

func TestTokenizeCaseInsensitive(t *testing.T) {
	table := Compile([]Keyword{
		{Text: "if", Class: blocktok.Open},
	}, true)
	ctx := newTestContext("IF x", nil)

	tokens := Tokenize(ctx, table, nil)
	if len(tokens) != 1 || tokens[0].Text != "if" {
		t.Fatalf("tokens = %+v, want one normalized \"if\" token", tokens)
	}
}

func TestTokenizeValidatorCanRejectOrRewrite(t *testing.T) {
	table := Compile([]Keyword{
		{Text: "if", Class: blocktok.Open},
		{Text: "end", Class: blocktok.Close},
	}, false)
	ctx := newTestContext("if x\nend loop", nil)

	validate := func(ctx *Context, cand *Candidate) bool {
		if cand.Keyword.Text == "if" {
			return false
		}
		if cand.Keyword.Text == "end" {
			if _, pos := ctx.FollowingNonSpace(cand.End); pos >= 0 {
				word := string(ctx.Src[pos : pos+4])
				if word == "loop" {
					cand.End = pos + 4
					cand.Keyword.Text = "end loop"
				}
			}
		}
		return true
	}

	tokens := Tokenize(ctx, table, validate)
	if len(tokens) != 1 {
		t.Fatalf("got %d tokens, want 1: %+v", len(tokens), tokens)
	}
	if tokens[0].Text != "end loop" {
		t.Errorf("token = %+v, want rewritten \"end loop\"", tokens[0])
	}
}

func TestContextDepthTracking(t *testing.T) {
	ctx := newTestContext("a(b[c{d}]e)f", nil)

	tests := []struct {
		offset   int
		paren    int
		bracket  int
		brace    int
	}{
		{0, 0, 0, 0},
		{2, 1, 0, 0},
		{4, 1, 1, 0},
		{6, 1, 1, 1},
		{8, 1, 1, 0},
		{9, 1, 0, 0},
		{11, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := ctx.ParenDepth(tt.offset); got != tt.paren {
			t.Errorf("ParenDepth(%d) = %d, want %d", tt.offset, got, tt.paren)
		}
		if got := ctx.BracketDepth(tt.offset); got != tt.bracket {
			t.Errorf("BracketDepth(%d) = %d, want %d", tt.offset, got, tt.bracket)
		}
		if got := ctx.BraceDepth(tt.offset); got != tt.brace {
			t.Errorf("BraceDepth(%d) = %d, want %d", tt.offset, got, tt.brace)
		}
	}
}

func TestContextDepthIgnoresBracketsInExcludedRegions(t *testing.T) {
	src := "a(b \"(\" c)d"
	excluded := span.Regions{{Start: 4, End: 7}} // the quoted "("
	ctx := newTestContext(src, excluded)

	// The quoted '(' must not count, so depth at the final ')' is still 1.
	if got := ctx.ParenDepth(9); got != 1 {
		t.Errorf("ParenDepth(9) = %d, want 1 (quoted paren excluded)", got)
	}
}

func TestPrecedingAndFollowingNonSpace(t *testing.T) {
	ctx := newTestContext("foo   bar", nil)

	b, pos := ctx.PrecedingNonSpace(6)
	if b != 'o' || pos != 2 {
		t.Errorf("PrecedingNonSpace(6) = (%q, %d), want ('o', 2)", b, pos)
	}

	b, pos = ctx.FollowingNonSpace(3)
	if b != 'b' || pos != 6 {
		t.Errorf("FollowingNonSpace(3) = (%q, %d), want ('b', 6)", b, pos)
	}
}

func TestPrecedingNonSpaceSameLineStopsAtNewline(t *testing.T) {
	ctx := newTestContext("foo\n   bar", nil)

	_, pos := ctx.PrecedingNonSpaceSameLine(7)
	if pos != -1 {
		t.Errorf("PrecedingNonSpaceSameLine should not cross the newline, got pos=%d", pos)
	}
}

func TestLinePrefix(t *testing.T) {
	ctx := newTestContext("abc\n  def", nil)
	if got := string(ctx.LinePrefix(8)); got != "  de" {
		t.Errorf("LinePrefix(8) = %q, want %q", got, "  de")
	}
}

func TestIsIdentByte(t *testing.T) {
	tests := []struct {
		b    byte
		want bool
	}{
		{'a', true},
		{'Z', true},
		{'5', true},
		{'_', true},
		{' ', false},
		{'(', false},
		{0x80, true},
	}
	for _, tt := range tests {
		if got := IsIdentByte(tt.b); got != tt.want {
			t.Errorf("IsIdentByte(%q) = %v, want %v", tt.b, got, tt.want)
		}
	}
}
