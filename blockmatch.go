// Package blockmatch finds matching open/close keyword pairs (if/end,
// begin/end, do/done, tell/end tell, and so on) across eleven block-
// structured languages, skipping occurrences inside comments, strings,
// heredocs and interpolations, and reports their nesting depth.
//
// The pipeline is four stages, run once per Parse call: locate excluded
// regions (comments and string-like literals), tokenize keyword
// occurrences against the language's table, match opens to closes on a
// stack using the language's close-resolution policy, and recompute each
// pair's nesting level from the final pair set. See internal/lang for the
// per-language tables and internal/blockmatcher for the matching stage.
package blockmatch

import (
	"fmt"

	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/blocktok"
	"github.com/opal-lang/blockmatch/internal/lang"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

// Language identifies one of the supported languages by name.
type Language = lang.Tag

const (
	Ada         Language = lang.Ada
	AppleScript Language = lang.AppleScript
	Bash        Language = lang.Bash
	Crystal     Language = lang.Crystal
	Elixir      Language = lang.Elixir
	Julia       Language = lang.Julia
	Lua         Language = lang.Lua
	Pascal      Language = lang.Pascal
	Ruby        Language = lang.Ruby
	Verilog     Language = lang.Verilog
	VHDL        Language = lang.VHDL
)

// Languages lists every supported language tag.
func Languages() []Language {
	return lang.All()
}

// Position is a zero-based line and column (in code points).
type Position = span.Position

// Token is one recognized block keyword occurrence.
type Token = blocktok.Token

// BlockPair is a matched opening/closing keyword pair. Nest is the number
// of other pairs that strictly contain it, computed from the final pair
// set rather than the raw matching stack depth, so an unmatched stray
// opener earlier in the file cannot inflate the nesting level reported for
// unrelated pairs.
type BlockPair = blocktok.Pair

// ExcludedRegion is a byte range skipped during keyword scanning: a
// comment, string, heredoc body, or interpolation.
type ExcludedRegion = span.Region

// UnsupportedLanguageError is returned by Parse when asked for a language
// tag with no registered descriptor.
type UnsupportedLanguageError struct {
	Language Language
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("blockmatch: unsupported language %q", string(e.Language))
}

// Parse scans source and returns every matched block pair, sorted by
// ascending close offset (pairs sharing a close are ordered innermost
// first). The returned slice is nil, not an error, when source has no
// block keywords at all.
func Parse(source []byte, language Language) ([]BlockPair, error) {
	d := lang.Get(language)
	if d == nil {
		return nil, &UnsupportedLanguageError{Language: language}
	}
	ctx := buildContext(source, d)
	tokens := scan.Tokenize(ctx, d.KeywordTable(), d.Validate)
	return blockmatcher.Run(tokens, d.Resolvers), nil
}

// TokensOf returns the raw keyword token stream for source without running
// the block matcher, primarily for tests that assert on tokenization
// behavior independent of pairing.
func TokensOf(source []byte, language Language) ([]Token, error) {
	d := lang.Get(language)
	if d == nil {
		return nil, &UnsupportedLanguageError{Language: language}
	}
	ctx := buildContext(source, d)
	return scan.Tokenize(ctx, d.KeywordTable(), d.Validate), nil
}

// ExcludedRegionsOf returns the comment/string/heredoc regions source's
// language descriptor finds, primarily for tests that assert on exclusion
// behavior independent of tokenization.
func ExcludedRegionsOf(source []byte, language Language) ([]ExcludedRegion, error) {
	d := lang.Get(language)
	if d == nil {
		return nil, &UnsupportedLanguageError{Language: language}
	}
	return []ExcludedRegion(d.FindExcluded(source)), nil
}

func buildContext(source []byte, d *lang.Descriptor) *scan.Context {
	excluded := d.FindExcluded(source)
	return scan.NewContext(source, span.Regions(excluded))
}
