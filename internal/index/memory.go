package index

import (
	"sort"

	"github.com/sasha-s/go-deadlock"
)

// MemoryIndex is the reference Index implementation: everything lives in
// Go maps guarded by a single lock, directly generalizing the teacher's
// internal/workspace/symbol_index.go (a mutex-guarded map from symbol name
// to []SymbolLocation) from "indexed by human-readable name" to "indexed by
// USR", and adding the override-relation and file-deletion bookkeeping the
// teacher's index never needed.
type MemoryIndex struct {
	mu            deadlock.RWMutex
	occurrences  map[USR][]Occurrence
	overrides    map[USR][]USR // usr -> USRs it overrides
	overriddenBy map[USR][]USR // usr -> USRs that override it
	deletedFiles map[string]bool
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		occurrences:  make(map[USR][]Occurrence),
		overrides:    make(map[USR][]USR),
		overriddenBy: make(map[USR][]USR),
		deletedFiles: make(map[string]bool),
	}
}

// AddOccurrence records one occurrence of usr.
func (idx *MemoryIndex) AddOccurrence(occ Occurrence) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.occurrences[occ.USR] = append(idx.occurrences[occ.USR], occ)
}

// AddOverride records that child overrides parent (e.g. a subclass method
// overriding a superclass method).
func (idx *MemoryIndex) AddOverride(child, parent USR) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.overrides[child] = append(idx.overrides[child], parent)
	idx.overriddenBy[parent] = append(idx.overriddenBy[parent], child)
}

// MarkFileDeleted records that uri no longer exists in the workspace.
func (idx *MemoryIndex) MarkFileDeleted(uri string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.deletedFiles[uri] = true
}

// RemoveFile drops every occurrence recorded against uri, used when a file
// is re-indexed from scratch.
func (idx *MemoryIndex) RemoveFile(uri string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for usr, occs := range idx.occurrences {
		filtered := occs[:0]
		for _, o := range occs {
			if o.URI != uri {
				filtered = append(filtered, o)
			}
		}
		if len(filtered) == 0 {
			delete(idx.occurrences, usr)
		} else {
			idx.occurrences[usr] = filtered
		}
	}
}

func (idx *MemoryIndex) Occurrences(usr USR) []Occurrence {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]Occurrence, len(idx.occurrences[usr]))
	copy(out, idx.occurrences[usr])
	return out
}

func (idx *MemoryIndex) Definitions(usr USR) []Occurrence {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var defs []Occurrence
	for _, o := range idx.occurrences[usr] {
		if o.Role == RoleDefinition || o.Role == RoleDeclaration {
			defs = append(defs, o)
		}
	}
	// Deterministic, smallest-sorting-first selection per SPEC_FULL.md §4.6 step 3.
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].URI != defs[j].URI {
			return defs[i].URI < defs[j].URI
		}
		if defs[i].Line != defs[j].Line {
			return defs[i].Line < defs[j].Line
		}
		return defs[i].Column < defs[j].Column
	})
	return defs
}

func (idx *MemoryIndex) OverrideRelations(usr USR) (overrides []USR, overriddenBy []USR) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	overrides = append(overrides, idx.overrides[usr]...)
	overriddenBy = append(overriddenBy, idx.overriddenBy[usr]...)
	return overrides, overriddenBy
}

func (idx *MemoryIndex) FileDeleted(uri string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.deletedFiles[uri]
}

// OverrideClosure computes the transitive closure of USRs that usr overrides
// or is overridden by, in both directions (SPEC_FULL.md §4.6 step 4). usr
// itself is included.
func OverrideClosure(idx Index, usr USR) []USR {
	seen := map[USR]bool{usr: true}
	queue := []USR{usr}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		overrides, overriddenBy := idx.OverrideRelations(cur)
		for _, u := range append(overrides, overriddenBy...) {
			if !seen[u] {
				seen[u] = true
				queue = append(queue, u)
			}
		}
	}
	out := make([]USR, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
