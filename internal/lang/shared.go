package lang

import "github.com/opal-lang/blockmatch/internal/scan"

// isPostfixModifier implements the Ruby/Crystal postfix-conditional check
// shared by if/unless/while/until(/rescue): the keyword is a trailing
// statement modifier, not a block opener, when the code preceding it on the
// same statement is non-empty, does not end in an operator that still
// expects an expression, and is not itself a preceding block keyword
// (meaning this keyword actually starts a fresh block body rather than
// modifying what came before).
func isPostfixModifier(ctx *scan.Context, start int) bool {
	lineStart := ctx.LineStart(start)
	vis := scan.VisiblePrefix(ctx, lineStart, start)
	if idx := scan.LastIndexByte(vis, ';'); idx >= 0 {
		vis = vis[idx+1:]
	}
	vis = scan.TrimTrailingSpace(vis)
	if len(vis) == 0 {
		return false
	}
	last := vis[len(vis)-1]
	// "x.nil? if y": a '?' ending an identifier is not an operator.
	identSuffix := last == '?' && len(vis) > 1 && scan.IsIdentByte(vis[len(vis)-2])
	if !identSuffix {
		switch last {
		case '=', '+', '-', '*', '/', '%', '<', '>', '&', '|', '^', '~', ',', '(', '[', '{', ':', '?', '.':
			return false
		}
	}
	switch scan.TrailingWord(vis) {
	case "do", "then", "else", "elsif", "begin", "ensure", "and", "or", "not", "return", "yield", "when", "in":
		return false
	}
	return true
}

// isMethodCallSuffix reports whether the byte immediately preceding start
// (no intervening whitespace) is '.' or '&.', meaning the keyword spelling
// here is actually a method call/reference (foo.class, foo&.then) rather
// than a block keyword.
func isMethodCallSuffix(ctx *scan.Context, start int) bool {
	if start == 0 {
		return false
	}
	i := start - 1
	for i >= 0 && ctx.Excluded.Contains(i) {
		i--
	}
	if i < 0 {
		return false
	}
	return ctx.Src[i] == '.'
}

// isNamedTupleKey reports whether the keyword is immediately followed
// (no intervening whitespace) by a single ':' that is not the start of
// '::' (scope resolution) or '=>' - i.e. it is being used as a hash/named
// tuple key like `for: 1` rather than as a block keyword.
func isNamedTupleKey(ctx *scan.Context, end int) bool {
	if end >= len(ctx.Src) || ctx.Src[end] != ':' {
		return false
	}
	if end+1 < len(ctx.Src) && ctx.Src[end+1] == ':' {
		return false
	}
	return true
}

// doIsLoopConnector implements the shared Ruby/Crystal heuristic for
// "do" (or any loop-trailer keyword): search backward, across newlines,
// for the nearest preceding keyword drawn from headers or stops. If the
// nearest hit is one of headers, this occurrence merely terminates that
// header and is not an opener in its own right.
func doIsLoopConnector(ctx *scan.Context, pos int, headers, stops map[string]bool) bool {
	src := ctx.Src
	i := pos - 1
	for i >= 0 {
		if ctx.Excluded.Contains(i) {
			i--
			continue
		}
		if !scan.IsIdentByte(src[i]) {
			i--
			continue
		}
		end := i + 1
		for i >= 0 && scan.IsIdentByte(src[i]) && !ctx.Excluded.Contains(i) {
			i--
		}
		start := i + 1
		word := string(src[start:end])
		if headers[word] {
			return true
		}
		if stops[word] {
			return false
		}
		i = start - 1
	}
	return false
}
