// Package testindex implements the syntactic test-item index (SPEC_FULL.md
// §4.7): a workspace-wide, in-memory map from document URI to the test
// items it declares, kept current without needing the semantic index to be
// up to date. Grounded on the teacher's internal/workspace symbol indexer
// (a mutex-guarded, URI-keyed map refreshed by an injected scanner) and on
// golang.org/x/sync/errgroup for the batched rescan fan-out (the queue
// package, internal/queue, bounds its worker pool with the sibling
// golang.org/x/sync/semaphore).
package testindex

import (
	"context"
	"runtime"
	"time"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/errgroup"

	"github.com/polylsp/polylsp/internal/document"
)

// TestItem is a syntactically discovered test symbol. Id is derived by
// joining ancestor symbol names with "/" (e.g. "MySuite/testFoo").
type TestItem struct {
	ID       string
	Label    string
	URI      document.URI
	Range    document.OffsetRange
	Children []TestItem
	Tags     []string
}

// Scanner is backend-specific and injected; the index only owns the task
// shape and the read-after-write ordering, not how a file is parsed.
type Scanner interface {
	ScanFile(ctx context.Context, uri document.URI) ([]TestItem, error)
}

// Index is the workspace's syntactic test-item index.
//
// Index tasks conflict only when their URI sets intersect (SPEC_FULL.md
// §4.7); this implementation takes the simpler, still-correct approach of
// serializing all index(...) tasks behind one lock rather than computing
// pairwise set intersections, since test-discovery rescans are not a
// latency-sensitive path the way document requests are.
type Index struct {
	mu          deadlock.Mutex
	items       map[document.URI][]TestItem
	sourceMtime map[document.URI]time.Time
	removed     map[document.URI]bool
	scanner     Scanner
	populated   bool
}

// NewIndex creates an empty index backed by scanner.
func NewIndex(scanner Scanner) *Index {
	return &Index{
		items:       make(map[document.URI][]TestItem),
		sourceMtime: make(map[document.URI]time.Time),
		removed:     make(map[document.URI]bool),
		scanner:     scanner,
	}
}

// InitialPopulation scans every uri exactly once; it must run before any
// other index or read task and blocks everything else while it runs
// (SPEC_FULL.md §4.7's initialPopulation task).
func (idx *Index) InitialPopulation(ctx context.Context, uris map[document.URI]time.Time) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.populated {
		return nil
	}
	for uri, mtime := range uris {
		if err := idx.scanLocked(ctx, uri, mtime); err != nil {
			return err
		}
	}
	idx.populated = true
	return nil
}

// Reindex rescans the given URIs, batched into 4×numCPU batches
// (SPEC_FULL.md §4.7), skipping any URI whose recorded mtime is not older
// than the one supplied.
func (idx *Index) Reindex(ctx context.Context, mtimes map[document.URI]time.Time) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	stale := make([]document.URI, 0, len(mtimes))
	for uri, mtime := range mtimes {
		if recorded, ok := idx.sourceMtime[uri]; !ok || mtime.After(recorded) {
			stale = append(stale, uri)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	batchCount := 4 * runtime.NumCPU()
	if batchCount > len(stale) {
		batchCount = len(stale)
	}
	if batchCount < 1 {
		batchCount = 1
	}

	batches := make([][]document.URI, batchCount)
	for i, uri := range stale {
		b := i % batchCount
		batches[b] = append(batches[b], uri)
	}

	group, gctx := errgroup.WithContext(ctx)
	results := make([]map[document.URI][]TestItem, batchCount)
	for b, uris := range batches {
		b, uris := b, uris
		group.Go(func() error {
			out := make(map[document.URI][]TestItem, len(uris))
			for _, uri := range uris {
				items, err := idx.scanner.ScanFile(gctx, uri)
				if err != nil {
					return err
				}
				out[uri] = items
			}
			results[b] = out
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, out := range results {
		for uri, items := range out {
			idx.items[uri] = items
			idx.sourceMtime[uri] = mtimes[uri]
			delete(idx.removed, uri)
		}
	}
	return nil
}

func (idx *Index) scanLocked(ctx context.Context, uri document.URI, mtime time.Time) error {
	items, err := idx.scanner.ScanFile(ctx, uri)
	if err != nil {
		return err
	}
	idx.items[uri] = items
	idx.sourceMtime[uri] = mtime
	delete(idx.removed, uri)
	return nil
}

// RemoveFile drops uri from the index and marks it removed so a
// concurrently enqueued rescan of a stale URI set doesn't resurrect it.
func (idx *Index) RemoveFile(uri document.URI) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.items, uri)
	delete(idx.sourceMtime, uri)
	idx.removed[uri] = true
}

// Items is a read task: concurrent with other reads, and reflects only the
// state as of the moment it is called (it does not wait for in-flight
// index tasks).
func (idx *Index) Items(uri document.URI) []TestItem {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	items := idx.items[uri]
	result := make([]TestItem, len(items))
	copy(result, items)
	return result
}

// AllItems returns every indexed item, grouped by URI.
func (idx *Index) AllItems() map[document.URI][]TestItem {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	result := make(map[document.URI][]TestItem, len(idx.items))
	for uri, items := range idx.items {
		cp := make([]TestItem, len(items))
		copy(cp, items)
		result[uri] = cp
	}
	return result
}
