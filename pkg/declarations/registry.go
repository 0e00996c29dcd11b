package declarations

import (
	"sort"
	"sync"
)

// Registry collects declarations for a single page render. Entries are kept
// per kind in one ordered list. Entries without an insertion index are
// appended in call order; indexed entries are placed at their index in the
// resulting list, clamped to its bounds. Entries sharing an index keep their
// call order relative to each other.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]entry
	seq     int
}

type entry struct {
	decl  Declaration
	at    int
	fixed bool
	seq   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string][]entry),
	}
}

// AddDeclaration registers decl. A nil insertAt appends; otherwise the entry is
// positioned at *insertAt. Negative indexes are treated as zero.
func (r *Registry) AddDeclaration(decl Declaration, insertAt *int) {
	if r == nil || decl == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string][]entry)
	}

	item := entry{decl: decl, seq: r.seq}
	r.seq++
	if insertAt != nil {
		item.fixed = true
		item.at = max(*insertAt, 0)
	}
	kind := decl.Kind()
	r.entries[kind] = append(r.entries[kind], item)
}

// ordered resolves the final order of a kind's entries. Callers hold r.mu.
func (r *Registry) ordered(kind string) []Declaration {
	list := r.entries[kind]
	if len(list) == 0 {
		return nil
	}

	out := make([]Declaration, 0, len(list))
	var indexed []entry
	for _, item := range list {
		if item.fixed {
			indexed = append(indexed, item)
			continue
		}
		out = append(out, item.decl)
	}
	if len(indexed) == 0 {
		return out
	}

	sort.SliceStable(indexed, func(i, j int) bool {
		if indexed[i].at == indexed[j].at {
			return indexed[i].seq < indexed[j].seq
		}
		return indexed[i].at < indexed[j].at
	})

	prevAt, prevPos := -1, -1
	for _, item := range indexed {
		pos := min(item.at, len(out))
		if item.at == prevAt {
			pos = prevPos + 1
		}
		out = append(out, nil)
		copy(out[pos+1:], out[pos:])
		out[pos] = item.decl
		prevAt, prevPos = item.at, pos
	}
	return out
}

// Declarations returns the entries of the given kind routed to key, in
// registry order.
func (r *Registry) Declarations(kind, key string) []Declaration {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Declaration
	for _, decl := range r.ordered(kind) {
		if decl.Key() == key {
			out = append(out, decl)
		}
	}
	return out
}

// All returns every entry of the given kind regardless of emitter key.
func (r *Registry) All(kind string) []Declaration {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.ordered(kind)
}

// Templates returns the template declarations routed to key.
func (r *Registry) Templates(key string) []TemplateDeclaration {
	decls := r.Declarations(KindTemplate, key)
	if len(decls) == 0 {
		return nil
	}
	out := make([]TemplateDeclaration, 0, len(decls))
	for _, decl := range decls {
		switch typed := decl.(type) {
		case TemplateDeclaration:
			out = append(out, typed)
		case *TemplateDeclaration:
			if typed != nil {
				out = append(out, *typed)
			}
		}
	}
	return out
}

// Keys returns the sorted emitter keys that hold entries of the given kind.
func (r *Registry) Keys(kind string) []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, item := range r.entries[kind] {
		seen[item.decl.Key()] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the total number of registered entries across kinds.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, list := range r.entries {
		total += len(list)
	}
	return total
}

// Reset drops every entry.
func (r *Registry) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string][]entry)
	r.seq = 0
}
