package scan

// VisiblePrefix returns the bytes of src[from:to] with any byte that falls
// inside an excluded region removed. Validity predicates use this to look
// at "the code so far on this line" without tripping over semicolons or
// keywords that happen to sit inside a string or comment.
func VisiblePrefix(ctx *Context, from, to int) []byte {
	if from > to {
		return nil
	}
	buf := make([]byte, 0, to-from)
	for i := from; i < to; i++ {
		if ctx.Excluded.Contains(i) {
			continue
		}
		buf = append(buf, ctx.Src[i])
	}
	return buf
}

// TrimTrailingSpace trims ASCII whitespace from the end of b.
func TrimTrailingSpace(b []byte) []byte {
	i := len(b)
	for i > 0 {
		switch b[i-1] {
		case ' ', '\t', '\r', '\n':
			i--
			continue
		}
		break
	}
	return b[:i]
}

// LastIndexByte returns the last index of c in b, or -1.
func LastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}

// TrailingWord returns the identifier-like word ending at the end of b,
// tolerating one trailing '!' or '?' (Ruby/Crystal/Elixir method-name
// suffixes): the suffix character itself is stripped from the returned
// word so callers can compare against plain keyword spellings.
func TrailingWord(b []byte) string {
	end := len(b)
	if end > 0 && (b[end-1] == '!' || b[end-1] == '?') {
		end--
	}
	start := end
	for start > 0 && IsIdentByte(b[start-1]) {
		start--
	}
	return string(b[start:end])
}

// LeadingWord returns the identifier-like word starting at the beginning of
// b, after skipping leading ASCII whitespace.
func LeadingWord(b []byte) string {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	start := i
	for i < len(b) && IsIdentByte(b[i]) {
		i++
	}
	return string(b[start:i])
}
