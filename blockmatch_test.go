package blockmatch_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opal-lang/blockmatch"
)

// pairSummary reduces a BlockPair down to the fields the scenarios in
// SPEC_FULL.md section 8 actually assert on, so test expectations read as
// plain data rather than a wall of token boilerplate.
type pairSummary struct {
	Open  string
	Close string
	Nest  int
}

func summarize(pairs []blockmatch.BlockPair) []pairSummary {
	out := make([]pairSummary, len(pairs))
	for i, p := range pairs {
		out[i] = pairSummary{Open: p.Open.Text, Close: p.Close.Text, Nest: p.Nest}
	}
	return out
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name  string
		lang  blockmatch.Language
		input string
		want  []pairSummary
	}{
		{
			name:  "lua repeat with nested if",
			lang:  blockmatch.Lua,
			input: "repeat\n  if x then a end\nuntil y",
			want: []pairSummary{
				{Open: "if", Close: "end", Nest: 1},
				{Open: "repeat", Close: "until", Nest: 0},
			},
		},
		{
			name:  "ruby postfix if",
			lang:  blockmatch.Ruby,
			input: "return x if cond\nif y\n  z\nend",
			want: []pairSummary{
				{Open: "if", Close: "end", Nest: 0},
			},
		},
		{
			name:  "bash heredoc hides keywords",
			lang:  blockmatch.Bash,
			input: "cat <<EOF\nif then fi\nEOF\nif true; then :; fi",
			want: []pairSummary{
				{Open: "if", Close: "fi", Nest: 0},
			},
		},
		{
			name:  "ada compound end",
			lang:  blockmatch.Ada,
			input: "procedure P is\nbegin\n  null;\nend P;",
			want: []pairSummary{
				{Open: "begin", Close: "end", Nest: 1},
				{Open: "procedure", Close: "end", Nest: 0},
			},
		},
		{
			name:  "julia comprehension suppression",
			lang:  blockmatch.Julia,
			input: "x = [i for i in 1:10 if i>3]\nfor j in v\n  g(j)\nend",
			want: []pairSummary{
				{Open: "for", Close: "end", Nest: 0},
			},
		},
		{
			name:  "crystal char literal not a string",
			lang:  blockmatch.Crystal,
			input: "x = 'a'\nif x\n  puts x\nend",
			want: []pairSummary{
				{Open: "if", Close: "end", Nest: 0},
			},
		},
		{
			name:  "applescript compound end and one-liner",
			lang:  blockmatch.AppleScript,
			input: "tell application \"Finder\" to activate\ntell application \"Finder\"\n  activate\nend tell",
			want: []pairSummary{
				{Open: "tell", Close: "end tell", Nest: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := blockmatch.Parse([]byte(tt.input), tt.lang)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, summarize(got)); diff != "" {
				t.Fatalf("pairs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVerilogControlAndBeginMerge(t *testing.T) {
	input := "always @(posedge clk) begin\n  if (x) begin a; end\nend"
	got, err := blockmatch.Parse([]byte(input), blockmatch.Verilog)
	require.NoError(t, err)

	// Both "end" tokens close two frames apiece: the begin directly above
	// them and the control keyword folded into the same close.
	assert.Len(t, got, 4)

	byOpen := map[string]pairSummary{}
	for _, p := range summarize(got) {
		byOpen[p.Open] = p
	}
	assert.Equal(t, "end", byOpen["if"].Close)
	assert.Equal(t, "end", byOpen["always"].Close)
}

func TestUnsupportedLanguage(t *testing.T) {
	_, err := blockmatch.Parse([]byte("x"), blockmatch.Language("cobol"))
	require.Error(t, err)
	var unsupported *blockmatch.UnsupportedLanguageError
	assert.ErrorAs(t, err, &unsupported)
}

func TestLanguagesListsAllEleven(t *testing.T) {
	assert.Len(t, blockmatch.Languages(), 11)
}

// TestProperties checks the determinism, sortedness, exclusion-respect,
// pair-validity and nest-consistency properties from SPEC_FULL.md section
// 8 against a representative sample per language rather than every
// language's full grammar.
func TestProperties(t *testing.T) {
	samples := map[blockmatch.Language]string{
		blockmatch.Ruby:        "class Foo\n  def bar\n    if x\n      1\n    end\n  end\nend",
		blockmatch.Lua:         "function f()\n  if x then\n    return 1\n  end\nend",
		blockmatch.Bash:        "if true; then\n  for i in 1 2; do\n    echo $i\n  done\nfi",
		blockmatch.Verilog:     "module m;\n  always @(posedge clk) begin\n    if (x) y <= 1;\n  end\nendmodule",
		blockmatch.Ada:         "procedure P is\nbegin\n  if X then\n    null;\n  end if;\nend P;",
		blockmatch.VHDL:        "entity E is\nend entity E;",
		blockmatch.Julia:       "function f(x)\n  if x > 0\n    return x\n  end\nend",
		blockmatch.Pascal:      "begin\n  if x then\n  begin\n    y := 1;\n  end;\nend.",
		blockmatch.Crystal:     "class Foo\n  def bar\n    if x\n      1\n    end\n  end\nend",
		blockmatch.Elixir:      "defmodule M do\n  def f(x) do\n    if x do\n      1\n    end\n  end\nend",
		blockmatch.AppleScript: "tell application \"Finder\"\n  if x is 1 then\n    activate\n  end if\nend tell",
	}

	for lang, src := range samples {
		lang, src := lang, src
		t.Run(string(lang), func(t *testing.T) {
			excluded, err := blockmatch.ExcludedRegionsOf([]byte(src), lang)
			require.NoError(t, err)
			assertSortedNonOverlapping(t, excluded, len(src))

			tokens, err := blockmatch.TokensOf([]byte(src), lang)
			require.NoError(t, err)
			for _, tok := range tokens {
				for _, r := range excluded {
					assert.Falsef(t, tok.Start < r.End && r.Start < tok.End,
						"token %q [%d,%d) overlaps excluded region [%d,%d)",
						tok.Text, tok.Start, tok.End, r.Start, r.End)
				}
			}

			pairs, err := blockmatch.Parse([]byte(src), lang)
			require.NoError(t, err)
			for _, p := range pairs {
				assert.Less(t, p.Open.Start, p.Close.Start)
				for _, im := range p.Intermediate {
					assert.Greater(t, im.Start, p.Open.Start)
					assert.Less(t, im.Start, p.Close.Start)
				}
				wantNest := 0
				for _, q := range pairs {
					if q.Open.Start < p.Open.Start && q.Close.Start >= p.Close.Start && !(q.Open == p.Open && q.Close == p.Close) {
						wantNest++
					}
				}
				assert.Equal(t, wantNest, p.Nest)
			}

			again, err := blockmatch.Parse([]byte(src), lang)
			require.NoError(t, err)
			if diff := cmp.Diff(pairs, again); diff != "" {
				t.Fatalf("non-deterministic parse (-first +second):\n%s", diff)
			}
		})
	}
}

func assertSortedNonOverlapping(t *testing.T, regions []blockmatch.ExcludedRegion, srcLen int) {
	t.Helper()
	for i, r := range regions {
		assert.GreaterOrEqual(t, r.Start, 0)
		assert.LessOrEqual(t, r.End, srcLen)
		assert.Less(t, r.Start, r.End)
		if i > 0 {
			assert.LessOrEqualf(t, regions[i-1].End, r.Start, "regions %d and %d overlap", i-1, i)
		}
	}
}
