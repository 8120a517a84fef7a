package lang

import (
	"testing"

	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

func parse(t *testing.T, tag Tag, src string) []blocktok.Pair {
	t.Helper()
	d := Get(tag)
	if d == nil {
		t.Fatalf("no descriptor registered for %q", tag)
	}
	excluded := d.FindExcluded([]byte(src))
	ctx := scan.NewContext([]byte(src), span.Regions(excluded))
	tokens := scan.Tokenize(ctx, d.KeywordTable(), d.Validate)
	return blockmatcher.Run(tokens, d.Resolvers)
}

func closeTexts(pairs []blocktok.Pair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Close.Text
	}
	return out
}

func TestAllElevenLanguagesRegistered(t *testing.T) {
	for _, tag := range All() {
		if Get(tag) == nil {
			t.Errorf("tag %q declared in All() but not registered", tag)
		}
	}
	if len(All()) != 11 {
		t.Fatalf("All() has %d tags, want 11", len(All()))
	}
}

func TestGetUnknownTagReturnsNil(t *testing.T) {
	if Get(Tag("cobol")) != nil {
		t.Error("Get of an unregistered tag should return nil")
	}
}

func TestAdaCompoundEndMergesBeginContext(t *testing.T) {
	src := "procedure P is\nbegin\n  null;\nend P;"
	pairs := parse(t, Ada, src)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2: %+v", len(pairs), pairs)
	}
	// Neither close is widened to "end p": "p" is a name, not a reserved
	// compound-end TYPE word, so the keyword stays the bare "end".
	for _, p := range pairs {
		if p.Close.Text != "end" {
			t.Errorf("close token = %q, want bare \"end\"", p.Close.Text)
		}
	}
}

func TestAdaCompoundEndWidensOnReservedType(t *testing.T) {
	src := "if X then\n  null;\nend if;"
	pairs := parse(t, Ada, src)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1: %+v", len(pairs), pairs)
	}
	if pairs[0].Close.Text != "end if" {
		t.Errorf("close token = %q, want \"end if\"", pairs[0].Close.Text)
	}
}

func TestBashHeredocBodyIsExcluded(t *testing.T) {
	src := "cat <<EOF\nif then fi\nEOF\nif true; then :; fi"
	pairs := parse(t, Bash, src)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 (heredoc body excluded): %+v", len(pairs), pairs)
	}
	if pairs[0].Open.Text != "if" || pairs[0].Close.Text != "fi" {
		t.Errorf("pair = %+v, want if/fi", pairs[0])
	}
}

func TestJuliaSuppressesComprehensionKeywords(t *testing.T) {
	src := "x = [i for i in 1:10 if i>3]\nfor j in v\n  g(j)\nend"
	pairs := parse(t, Julia, src)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 (bracketed for/if suppressed): %+v", len(pairs), pairs)
	}
	if pairs[0].Open.Start != 29 { // the second, real "for"
		t.Errorf("pairs[0].Open.Start = %d, want the statement-level for", pairs[0].Open.Start)
	}
}

func TestRubyPostfixIfIsNotAnOpener(t *testing.T) {
	src := "return x if cond\nif y\n  z\nend"
	pairs := parse(t, Ruby, src)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 (postfix if suppressed): %+v", len(pairs), pairs)
	}
}

func TestCrystalCharLiteralIsNotAString(t *testing.T) {
	src := "x = 'a'\nif x\n  puts x\nend"
	pairs := parse(t, Crystal, src)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 (char literal excluded, not confused with a string): %+v", len(pairs), pairs)
	}
}

func TestAppleScriptOneLinerTellDoesNotOpenABlock(t *testing.T) {
	src := "tell application \"Finder\" to activate\ntell application \"Finder\"\n  activate\nend tell"
	pairs := parse(t, AppleScript, src)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1 (one-liner tell suppressed): %+v", len(pairs), pairs)
	}
	if pairs[0].Close.Text != "end tell" {
		t.Errorf("close = %q, want \"end tell\"", pairs[0].Close.Text)
	}
}

func TestVerilogControlKeywordMergesWithBegin(t *testing.T) {
	src := "always @(posedge clk) begin\n  if (x) begin a; end\nend"
	pairs := parse(t, Verilog, src)
	if len(pairs) != 4 {
		t.Fatalf("got %d pairs, want 4 (two begins, each merged with its control keyword): %+v",
			len(pairs), pairs)
	}
	for _, text := range closeTexts(pairs) {
		if text != "end" {
			t.Errorf("close text = %q, want \"end\"", text)
		}
	}
}

func TestVHDLReusesAdaCompoundEndMachinery(t *testing.T) {
	src := "entity E is\nend entity E;"
	pairs := parse(t, VHDL, src)
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1: %+v", len(pairs), pairs)
	}
}

func TestElixirDoEndBlock(t *testing.T) {
	src := "defmodule M do\n  def f(x) do\n    if x do\n      1\n    end\n  end\nend"
	pairs := parse(t, Elixir, src)
	if len(pairs) != 3 {
		t.Fatalf("got %d pairs, want 3: %+v", len(pairs), pairs)
	}
}

func TestPascalBeginEndWithDotTerminator(t *testing.T) {
	src := "begin\n  if x then\n  begin\n    y := 1;\n  end;\nend."
	pairs := parse(t, Pascal, src)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2: %+v", len(pairs), pairs)
	}
}

func TestLuaRepeatUntilWithNestedIf(t *testing.T) {
	src := "repeat\n  if x then a end\nuntil y"
	pairs := parse(t, Lua, src)
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2: %+v", len(pairs), pairs)
	}
}
