package router

// Tree pairs a pattern trie with a canonical-path handler table. The trie
// answers "which inserted pattern does this path match"; the table maps the
// canonical pattern string to the handler bound at registration. A lookup is
// a miss if either step fails.
type Tree[H any] struct {
	trie     *Trie
	handlers map[string]H
}

// NewTree creates an empty route tree.
func NewTree[H any]() *Tree[H] {
	return &Tree[H]{
		trie:     NewTrie(),
		handlers: make(map[string]H),
	}
}

// Add registers a handler for the pattern and returns the canonical path.
// Registering a second handler for the same pattern replaces the first.
func (t *Tree[H]) Add(pattern string, handler H) string {
	canonical := t.trie.Insert(pattern)
	t.handlers[canonical] = handler
	return canonical
}

// Lookup matches the request path against the trie and fetches the handler
// bound to the matched pattern.
func (t *Tree[H]) Lookup(path string) (H, Match, bool) {
	var zero H

	match, ok := t.trie.Lookup(path)
	if !ok {
		return zero, Match{}, false
	}

	handler, ok := t.handlers[match.Path]
	if !ok {
		return zero, Match{}, false
	}
	return handler, match, true
}

// Patterns returns the canonical path of every registered pattern.
func (t *Tree[H]) Patterns() []string {
	patterns := make([]string, 0, len(t.handlers))
	for canonical := range t.handlers {
		patterns = append(patterns, canonical)
	}
	return patterns
}
