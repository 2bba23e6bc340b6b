// Package workspace resolves which Workspace owns a given document URI,
// creates implicit workspaces on demand, and fans out folder-change and
// watched-file notifications (SPEC_FULL.md §4.3). Grounded on the
// teacher's internal/workspace package (originally a single
// workspace-wide symbol indexer keyed by URI), generalized here into a
// router over possibly-many Workspace instances instead of one implicit
// global workspace.
package workspace

import (
	"path"
	"strings"

	"github.com/sasha-s/go-deadlock"

	"github.com/polylsp/polylsp/internal/capability"
	"github.com/polylsp/polylsp/internal/document"
	"github.com/polylsp/polylsp/internal/index"
	"github.com/polylsp/polylsp/internal/testindex"
)

// FileHandlingCapability is the ordered enum SPEC_FULL.md §4.3 names:
// unhandled < fallback < handled.
type FileHandlingCapability int

const (
	Unhandled FileHandlingCapability = iota
	Fallback
	Handled
)

// BuildSystemManager is the interface a workspace's build system delegate
// implements; GlobBuildSystem (internal/buildsystem) is the reference
// implementation.
type BuildSystemManager interface {
	// FileHandling reports how well this build system recognizes uri.
	FileHandling(uri document.URI) FileHandlingCapability

	// WatchedFileChanged is called for every workspace/didChangeWatchedFiles
	// event; the core does not filter by path (SPEC_FULL.md §4.3).
	WatchedFileChanged(uri document.URI, changeType int)
}

// Workspace is one root the router can dispatch documents to.
type Workspace struct {
	RootURI      string // may be empty for a rootless implicit workspace
	Capabilities *capability.Registry
	BuildSystem  BuildSystemManager
	Index        index.Index // optional
	TestIndex    *testindex.Index

	isImplicit bool

	// documentService maps a document URI to the language family serving it
	// (e.g. "ast", "cfamily"); set by the router when ownership is computed.
	documentService map[document.URI]string
}

// NewWorkspace creates a Workspace rooted at rootURI (may be "").
func NewWorkspace(rootURI string, bs BuildSystemManager, caps *capability.Registry) *Workspace {
	return &Workspace{
		RootURI:         rootURI,
		Capabilities:    caps,
		BuildSystem:     bs,
		documentService: make(map[document.URI]string),
	}
}

func (w *Workspace) fileHandling(uri document.URI) FileHandlingCapability {
	if w.BuildSystem == nil {
		return Unhandled
	}
	return w.BuildSystem.FileHandling(uri)
}

type entry struct {
	workspace  *Workspace
	isImplicit bool
}

// Router resolves the workspace owning a URI, creating implicit workspaces
// on demand. All mutating methods are expected to be called from the
// server's single "workspace queue" goroutine; Router itself still guards
// its state with a lock so ResolveCached reads (from request-handling
// goroutines) stay consistent with concurrent mutation.
type Router struct {
	mu         deadlock.Mutex
	workspaces []entry
	cache      map[document.URI]*Workspace

	// instantiate creates a candidate implicit workspace rooted at dir; the
	// router appends it only if its build system can handle the URI.
	instantiate func(rootDir string) *Workspace
}

// NewRouter creates a router. instantiate is called to probe a candidate
// implicit-workspace root directory; it may return nil to mean "no
// workspace could be created here."
func NewRouter(instantiate func(rootDir string) *Workspace) *Router {
	return &Router{
		cache:       make(map[document.URI]*Workspace),
		instantiate: instantiate,
	}
}

// AddWorkspace registers an explicit (non-implicit) workspace.
func (r *Router) AddWorkspace(w *Workspace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.isImplicit = false
	r.workspaces = append(r.workspaces, entry{workspace: w})
}

// Resolve implements the selection rule from SPEC_FULL.md §4.3.
func (r *Router) Resolve(uri document.URI) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.cache[uri]; ok {
		return w, true
	}

	best := Unhandled
	var bestEntry *entry
	for i := range r.workspaces {
		cap := r.workspaces[i].workspace.fileHandling(uri)
		if cap > best {
			best = cap
			bestEntry = &r.workspaces[i]
		}
	}

	if bestEntry != nil && best == Handled {
		r.cache[uri] = bestEntry.workspace
		return bestEntry.workspace, true
	}

	// Step 3: walk parent directories bounded by declared workspace roots.
	if r.instantiate != nil {
		for _, dir := range parentDirs(uri, r.declaredRoots()) {
			candidate := r.instantiate(dir)
			if candidate == nil {
				continue
			}
			if candidate.fileHandling(uri) == Handled {
				candidate.isImplicit = true
				r.workspaces = append(r.workspaces, entry{workspace: candidate, isImplicit: true})
				r.cache[uri] = candidate
				return candidate, true
			}
		}
	}

	// Step 4: single-workspace legacy fallback.
	if len(r.workspaces) == 1 {
		w := r.workspaces[0].workspace
		r.cache[uri] = w
		return w, true
	}

	if bestEntry != nil {
		r.cache[uri] = bestEntry.workspace
		return bestEntry.workspace, true
	}

	return nil, false
}

func (r *Router) declaredRoots() []string {
	var roots []string
	for _, e := range r.workspaces {
		if !e.isImplicit && e.workspace.RootURI != "" {
			roots = append(roots, e.workspace.RootURI)
		}
	}
	return roots
}

// parentDirs walks parent directories of uri's path, stopping once it
// leaves every declared root (or immediately if there are no declared
// roots, returning just the immediate parent).
func parentDirs(uri document.URI, roots []string) []string {
	p := strings.TrimPrefix(uri, "file://")
	dir := path.Dir(p)

	var dirs []string
	for {
		within := len(roots) == 0
		for _, root := range roots {
			rootPath := strings.TrimPrefix(root, "file://")
			if strings.HasPrefix(dir, rootPath) {
				within = true
				break
			}
		}
		if !within {
			break
		}
		dirs = append(dirs, dir)
		if len(roots) == 0 {
			break
		}
		parent := path.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dirs
}

// FolderChangeEvent mirrors workspace/didChangeWorkspaceFolders.
type FolderChangeEvent struct {
	Added   []string
	Removed []string
}

// SyntheticNotifier lets HandleFolderChange send a synthetic close/open to
// backends when a document's owning workspace changes.
type SyntheticNotifier interface {
	SyntheticClose(uri document.URI, from *Workspace)
	SyntheticOpen(uri document.URI, to *Workspace)
}

// HandleFolderChange implements SPEC_FULL.md §4.3's workspaceFolders/didChange
// steps: snapshot current ownership, remove stale + implicit workspaces,
// create added ones, then recompute ownership for every open document.
func (r *Router) HandleFolderChange(event FolderChangeEvent, openDocuments []document.URI, makeWorkspace func(rootURI string) *Workspace, notifier SyntheticNotifier) {
	r.mu.Lock()
	before := make(map[document.URI]*Workspace, len(openDocuments))
	for _, uri := range openDocuments {
		if w, ok := r.cache[uri]; ok {
			before[uri] = w
		}
	}

	removed := make(map[string]bool, len(event.Removed))
	for _, root := range event.Removed {
		removed[root] = true
	}

	kept := r.workspaces[:0]
	for _, e := range r.workspaces {
		if e.isImplicit {
			continue // implicit workspaces are always dropped on a folder change
		}
		if removed[e.workspace.RootURI] {
			continue
		}
		kept = append(kept, e)
	}
	r.workspaces = kept
	r.cache = make(map[document.URI]*Workspace)

	for _, root := range event.Added {
		r.workspaces = append(r.workspaces, entry{workspace: makeWorkspace(root)})
	}
	r.mu.Unlock()

	for _, uri := range openDocuments {
		after, ok := r.Resolve(uri)
		prior := before[uri]
		if !ok || prior == after {
			continue
		}
		if notifier != nil {
			if prior != nil {
				notifier.SyntheticClose(uri, prior)
			}
			notifier.SyntheticOpen(uri, after)
		}
	}
}

// HandleWatchedFiles notifies every workspace independently; the core does
// not filter events by path (SPEC_FULL.md §4.3).
func (r *Router) HandleWatchedFiles(uri document.URI, changeType int) {
	r.mu.Lock()
	workspaces := make([]*Workspace, len(r.workspaces))
	for i, e := range r.workspaces {
		workspaces[i] = e.workspace
	}
	r.mu.Unlock()

	for _, w := range workspaces {
		if w.BuildSystem != nil {
			w.BuildSystem.WatchedFileChanged(uri, changeType)
		}
	}
}
