package document

import (
	"fmt"
	"os"

	"github.com/sasha-s/go-deadlock"

	"github.com/polylsp/polylsp/internal/corerr"
)

// URI is the opaque document identifier the rest of the core treats as a
// value type. We keep it a plain string (as LSP wire format requires) rather
// than introducing a distinct type, matching how the teacher repo and every
// glsp-based server in the retrieval pack pass URIs around.
type URI = string

// Document is the mutable record DocumentManager owns exclusively. Nothing
// outside this package ever holds a *Document; everything else is handed a
// Snapshot instead.
type Document struct {
	uri       URI
	language  string
	version   int
	lineTable LineTable
}

// Snapshot is an immutable, shareable view of a document at a specific
// version. Once constructed it is never mutated (SPEC_FULL.md data model
// invariants).
type Snapshot struct {
	URI       URI
	Language  string
	Version   int
	LineTable LineTable
}

// Text is a convenience accessor equivalent to Snapshot.LineTable.Content().
func (s Snapshot) Text() string { return s.LineTable.Content() }

// Manager is the authoritative store of open documents: the sole producer of
// snapshots and the translator from LSP contentChanges into sequential
// SourceEdits (SPEC_FULL.md §4.1). All methods are internally serialized;
// Snapshots returned to callers are safe to share across goroutines.
type Manager struct {
	mu        deadlock.RWMutex
	documents map[URI]*Document
}

// NewManager creates an empty document manager.
func NewManager() *Manager {
	return &Manager{documents: make(map[URI]*Document)}
}

// Open tracks a newly opened document and returns its initial snapshot.
// Returns corerr.ErrAlreadyOpen if uri is already tracked.
func (m *Manager) Open(uri URI, language string, version int, text string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[uri]; exists {
		return Snapshot{}, corerr.Wrap(fmt.Sprintf("open %s", uri), corerr.ErrAlreadyOpen)
	}

	doc := &Document{
		uri:       uri,
		language:  language,
		version:   version,
		lineTable: NewLineTable(text),
	}
	m.documents[uri] = doc

	return snapshotOf(doc), nil
}

// Close stops tracking uri. Returns corerr.ErrMissingDocument if unknown.
func (m *Manager) Close(uri URI) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[uri]; !exists {
		return corerr.Wrap(fmt.Sprintf("close %s", uri), corerr.ErrMissingDocument)
	}
	delete(m.documents, uri)
	return nil
}

// Change describes one LSP contentChange event. Range == nil means a
// full-document replacement.
type Change struct {
	Range       *struct{ Start, End Position }
	Replacement string
}

// RangeChange is a convenience constructor for an incremental edit.
func RangeChange(start, end Position, replacement string) Change {
	r := struct{ Start, End Position }{Start: start, End: end}
	return Change{Range: &r, Replacement: replacement}
}

// FullChange is a convenience constructor for a full-text replacement.
func FullChange(replacement string) Change {
	return Change{Range: nil, Replacement: replacement}
}

// Edit applies changes sequentially to the tracked document, reporting a
// strictly-monotonic version. A reported version <= the current one is
// applied anyway (the latest wins) but the caller should fault-log it; Edit
// reports this via the monotonic bool return so the dispatcher can log it.
//
// Returns the pre-edit snapshot, the post-edit snapshot, and the sequential
// SourceEdits produced (each interpreting offsets against the
// post-earlier-edit content, per SPEC_FULL.md §4.1).
func (m *Manager) Edit(uri URI, newVersion int, changes []Change) (pre, post Snapshot, edits []SourceEdit, monotonic bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.documents[uri]
	if !exists {
		return Snapshot{}, Snapshot{}, nil, true, corerr.Wrap(fmt.Sprintf("edit %s", uri), corerr.ErrMissingDocument)
	}

	pre = snapshotOf(doc)
	monotonic = newVersion > doc.version

	edits = make([]SourceEdit, 0, len(changes))
	table := doc.lineTable
	for _, change := range changes {
		var edit SourceEdit
		if change.Range == nil {
			table, edit = table.ApplyFullReplace(change.Replacement)
		} else {
			var applyErr error
			table, edit, applyErr = table.ApplyRangeEdit(change.Range.Start, change.Range.End, change.Replacement)
			if applyErr != nil {
				// Continue with the unchanged table for this change to avoid
				// corrupting the document; the caller's log records the fault.
				continue
			}
		}
		edits = append(edits, edit)
	}

	doc.lineTable = table
	// The latest wins even when the client reported a stale/non-monotonic
	// version; we still record whatever was sent.
	doc.version = newVersion

	post = snapshotOf(doc)
	return pre, post, edits, monotonic, nil
}

// LatestSnapshot returns the current snapshot for uri.
func (m *Manager) LatestSnapshot(uri URI) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, exists := m.documents[uri]
	if !exists {
		return Snapshot{}, corerr.Wrap(fmt.Sprintf("latestSnapshot %s", uri), corerr.ErrMissingDocument)
	}
	return snapshotOf(doc), nil
}

// OpenDocuments returns the set of currently tracked URIs.
func (m *Manager) OpenDocuments() []URI {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uris := make([]URI, 0, len(m.documents))
	for uri := range m.documents {
		uris = append(uris, uri)
	}
	return uris
}

// FileHasInMemoryModifications reports whether the in-memory text differs
// from what is currently on disk. If the file cannot be read (deleted,
// permission denied, ...) it conservatively returns true.
func (m *Manager) FileHasInMemoryModifications(uri URI, path string) bool {
	m.mu.RLock()
	doc, exists := m.documents[uri]
	m.mu.RUnlock()
	if !exists {
		return false
	}

	onDisk, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	return string(onDisk) != doc.lineTable.Content()
}

func snapshotOf(doc *Document) Snapshot {
	return Snapshot{
		URI:       doc.uri,
		Language:  doc.language,
		Version:   doc.version,
		LineTable: doc.lineTable,
	}
}
