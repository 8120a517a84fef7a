package scan

import (
	"sort"
	"strings"

	"github.com/opal-lang/blockmatch/internal/blocktok"
)

// Keyword is one entry in a language's keyword table.
type Keyword struct {
	Text  string // canonical lowercase form for case-insensitive languages
	Class blocktok.Class
}

// Table is a keyword set compiled for matching: longest-first so that
// compound keywords (AppleScript "using terms from", Verilog
// "always_comb") win over any shorter keyword that is a prefix of them.
type Table struct {
	keywords        []Keyword
	caseInsensitive bool
	byText          map[string]blocktok.Class
}

// Compile builds a matching Table from a language's keyword list.
func Compile(keywords []Keyword, caseInsensitive bool) *Table {
	sorted := make([]Keyword, len(keywords))
	copy(sorted, keywords)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].Text) > len(sorted[j].Text) })

	byText := make(map[string]blocktok.Class, len(sorted))
	for _, k := range sorted {
		byText[k.Text] = k.Class
	}
	return &Table{keywords: sorted, caseInsensitive: caseInsensitive, byText: byText}
}

// ClassOf returns the classification of a keyword (already normalized to
// lowercase if the table is case-insensitive), or false if it is not a
// block keyword.
func (t *Table) ClassOf(text string) (blocktok.Class, bool) {
	c, ok := t.byText[text]
	return c, ok
}

// Candidate is a keyword occurrence found by Match before any per-language
// validity predicate has run.
type Candidate struct {
	Keyword Keyword
	Start   int
	End     int
	// Literal is the exact source bytes matched (original case preserved),
	// distinct from Keyword.Text when the language is case-insensitive.
	Literal string
}

// Validator decides whether a raw keyword match is actually a valid token
// occurrence (rejecting postfix conditionals, method-call suffixes,
// comprehension keywords inside brackets, and the rest of section 4.2's
// per-language predicates). It receives the candidate by pointer so that
// Ada/VHDL's compound-end handling can widen End and rewrite Keyword to the
// synthesized "end if"/"end loop" form when a TYPE keyword follows.
type Validator func(ctx *Context, cand *Candidate) bool

// Tokenize scans src for t's keywords, skipping matches that start inside an
// excluded region or that a Validator rejects, and returns the resulting
// token stream in ascending start-offset order.
func Tokenize(ctx *Context, t *Table, validate Validator) []blocktok.Token {
	src := ctx.Src
	n := len(src)
	var tokens []blocktok.Token

	i := 0
	for i < n {
		if ctx.Excluded.Contains(i) {
			i++
			continue
		}
		// Word boundary: previous byte (if any) must not be an identifier
		// continuation character.
		if i > 0 && IsIdentByte(src[i-1]) {
			i++
			continue
		}

		cand, matched := t.matchAt(src, i)
		if !matched {
			i++
			continue
		}
		if ctx.Excluded.Overlaps(cand.Start, cand.End) {
			i++
			continue
		}
		if validate != nil && !validate(ctx, &cand) {
			i++
			continue
		}

		tokens = append(tokens, blocktok.Token{
			Class: cand.Keyword.Class,
			Text:  cand.Keyword.Text,
			Start: cand.Start,
			End:   cand.End,
			Pos:   ctx.Table.Position(cand.Start),
		})
		i = cand.End
	}
	return tokens
}

func (t *Table) matchAt(src []byte, i int) (Candidate, bool) {
	n := len(src)
	for _, kw := range t.keywords {
		klen := len(kw.Text)
		if i+klen > n {
			continue
		}
		slice := src[i : i+klen]
		var eq bool
		if t.caseInsensitive {
			eq = strings.EqualFold(string(slice), kw.Text)
		} else {
			eq = string(slice) == kw.Text
		}
		if !eq {
			continue
		}
		end := i + klen
		if end < n && IsIdentByte(src[end]) {
			continue
		}
		return Candidate{Keyword: kw, Start: i, End: end, Literal: string(slice)}, true
	}
	return Candidate{}, false
}
