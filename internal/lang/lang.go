// Package lang holds the per-language descriptor registry: each language
// registers its keyword table, excluded-region finder, tokenizer validity
// predicate and close-resolution policy here. The shared pipeline in the
// root blockmatch package is a single function parameterized by whichever
// Descriptor the caller selects, per the "polymorphism over language
// variants" design note: one algorithm, a table of function pointers per
// language, instead of a parser subclass per language.
package lang

import (
	"github.com/opal-lang/blockmatch/internal/blockmatcher"
	"github.com/opal-lang/blockmatch/internal/scan"
	"github.com/opal-lang/blockmatch/internal/span"
)

// Tag identifies one of the supported languages.
type Tag string

const (
	Ada         Tag = "ada"
	AppleScript Tag = "applescript"
	Bash        Tag = "bash"
	Crystal     Tag = "crystal"
	Elixir      Tag = "elixir"
	Julia       Tag = "julia"
	Lua         Tag = "lua"
	Pascal      Tag = "pascal"
	Ruby        Tag = "ruby"
	Verilog     Tag = "verilog"
	VHDL        Tag = "vhdl"
)

// All lists every registered language tag, in declaration order.
func All() []Tag {
	return []Tag{Ada, AppleScript, Bash, Crystal, Elixir, Julia, Lua, Pascal, Ruby, Verilog, VHDL}
}

// Descriptor is the complete set of variation points one language supplies.
// It carries only immutable configuration: keyword tables and stateless
// functions. Descriptors are built once at package init and may be shared
// freely across concurrent Parse calls.
type Descriptor struct {
	Tag             Tag
	CaseInsensitive bool

	// FindExcluded performs the language's lexical scan for comments,
	// strings, heredocs, interpolations and the rest of section 4.1's
	// excluded-region rules.
	FindExcluded func(src []byte) span.Regions

	// Keywords is the language's open/close/middle keyword table.
	Keywords []scan.Keyword

	// Validate rejects keyword matches that are not valid block tokens in
	// context: postfix conditionals, method-call suffixes, comprehension
	// keywords inside brackets, and so on (section 4.2's per-language
	// predicates).
	Validate scan.Validator

	// Resolvers maps a close keyword to the policy that resolves it
	// against the open stack. Keywords absent from the map use the
	// generic "pop the top" policy.
	Resolvers map[string]blockmatcher.Resolver

	keywordTable *scan.Table
}

var registry = map[Tag]*Descriptor{}

// Register adds a language descriptor, compiling its keyword table.
func Register(d *Descriptor) {
	d.keywordTable = scan.Compile(d.Keywords, d.CaseInsensitive)
	registry[d.Tag] = d
}

// Get returns the descriptor for tag, or nil if unknown.
func Get(tag Tag) *Descriptor {
	return registry[tag]
}

// KeywordTable returns the compiled keyword table for this descriptor.
func (d *Descriptor) KeywordTable() *scan.Table {
	return d.keywordTable
}
