// Package scan implements the shared keyword tokenizer: given source bytes,
// an excluded-region list and a language's keyword table, it produces the
// ordered token stream the block matcher consumes. Per-language validity
// predicates (postfix-conditional checks, bracket-depth suppression, command
// position, and the rest of section 4.2's variation points) are plugged in
// by the caller; this package only owns the keyword-boundary scan and a set
// of small backward-looking helpers those predicates are built from.
package scan

import (
	"github.com/opal-lang/blockmatch/internal/span"
)

// Context bundles the source buffer with the precomputed structures that
// validity predicates repeatedly need: a line/column table, the excluded
// region list, and running bracket-depth counters so a predicate can ask
// "how many parens/brackets/braces are open at this offset" in O(1) instead
// of re-scanning from the start of the buffer.
type Context struct {
	Src      []byte
	Excluded span.Regions
	Table    *span.Table

	// parenDepth[i], bracketDepth[i], braceDepth[i] hold the nesting depth
	// of (), [], {} immediately BEFORE byte i, counting only brackets that
	// lie outside excluded regions.
	parenDepth   []int
	bracketDepth []int
	braceDepth   []int
}

// NewContext builds a Context over src given its already-computed excluded
// regions.
func NewContext(src []byte, excluded span.Regions) *Context {
	c := &Context{
		Src:      src,
		Excluded: excluded,
		Table:    span.NewTable(src),
	}
	c.computeDepths()
	return c
}

func (c *Context) computeDepths() {
	n := len(c.Src)
	c.parenDepth = make([]int, n+1)
	c.bracketDepth = make([]int, n+1)
	c.braceDepth = make([]int, n+1)

	paren, bracket, brace := 0, 0, 0
	for i := 0; i < n; i++ {
		c.parenDepth[i] = paren
		c.bracketDepth[i] = bracket
		c.braceDepth[i] = brace

		if c.Excluded.Contains(i) {
			continue
		}
		switch c.Src[i] {
		case '(':
			paren++
		case ')':
			if paren > 0 {
				paren--
			}
		case '[':
			bracket++
		case ']':
			if bracket > 0 {
				bracket--
			}
		case '{':
			brace++
		case '}':
			if brace > 0 {
				brace--
			}
		}
	}
	c.parenDepth[n] = paren
	c.bracketDepth[n] = bracket
	c.braceDepth[n] = brace
}

// ParenDepth, BracketDepth and BraceDepth report nesting depth immediately
// before offset.
func (c *Context) ParenDepth(offset int) int   { return c.parenDepth[clampIdx(offset, len(c.parenDepth))] }
func (c *Context) BracketDepth(offset int) int {
	return c.bracketDepth[clampIdx(offset, len(c.bracketDepth))]
}
func (c *Context) BraceDepth(offset int) int { return c.braceDepth[clampIdx(offset, len(c.braceDepth))] }

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// LineStart returns the byte offset where the line containing offset
// begins.
func (c *Context) LineStart(offset int) int {
	pos := c.Table.Position(offset)
	return c.Table.LineStartOffset(pos.Line)
}

// LinePrefix returns the bytes from the start of offset's line up to
// offset, exclusive.
func (c *Context) LinePrefix(offset int) []byte {
	start := c.LineStart(offset)
	if start > offset {
		start = offset
	}
	return c.Src[start:offset]
}

// IsIdentByte reports whether b can appear inside an identifier for the
// purposes of keyword word-boundary and postfix-suffix checks: ASCII
// letters, digits, underscore, or any non-ASCII byte (treated as identifier
// continuation per the specification).
func IsIdentByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

// PrecedingNonSpace scans backward from offset (exclusive) and returns the
// last non-whitespace byte and its offset, skipping bytes that fall inside
// excluded regions. Returns (0, -1) if none found.
func (c *Context) PrecedingNonSpace(offset int) (byte, int) {
	for i := offset - 1; i >= 0; i-- {
		if c.Excluded.Contains(i) {
			continue
		}
		b := c.Src[i]
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			continue
		}
		return b, i
	}
	return 0, -1
}

// PrecedingNonSpaceSameLine behaves like PrecedingNonSpace but does not
// cross a newline, returning (0, -1) if the start of line is reached first.
func (c *Context) PrecedingNonSpaceSameLine(offset int) (byte, int) {
	for i := offset - 1; i >= 0; i-- {
		if c.Excluded.Contains(i) {
			continue
		}
		b := c.Src[i]
		if b == '\n' {
			return 0, -1
		}
		if b == ' ' || b == '\t' || b == '\r' {
			continue
		}
		return b, i
	}
	return 0, -1
}

// FollowingNonSpace scans forward from offset and returns the first
// non-whitespace byte and its offset, skipping excluded bytes.
func (c *Context) FollowingNonSpace(offset int) (byte, int) {
	for i := offset; i < len(c.Src); i++ {
		if c.Excluded.Contains(i) {
			continue
		}
		b := c.Src[i]
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			continue
		}
		return b, i
	}
	return 0, -1
}
