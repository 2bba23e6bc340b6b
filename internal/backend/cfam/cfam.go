// Package cfam implements a synthetic "C-family" LanguageService backend
// (SPEC_FULL.md line 59): it carries no external parser and recognizes only
// a trivial declaration/call grammar via regular expressions. Its only
// purpose is to give the cross-language rename engine (internal/rename) a
// second, real LanguageService implementation with native-name conventions
// distinct from the AST backend's, so propagation between two providers of
// the same underlying symbol can be exercised against actual backend code
// rather than only test doubles.
//
// Grounded on the teacher's internal/lsp text-sync handlers (didOpen /
// didClose / didChange keeping a simple per-URI document store) for the
// lifecycle shape, generalized onto langservice.LanguageService.
package cfam

import (
	"context"
	"regexp"
	"strings"

	"github.com/sasha-s/go-deadlock"

	"github.com/polylsp/polylsp/internal/document"
	"github.com/polylsp/polylsp/internal/index"
	"github.com/polylsp/polylsp/internal/langservice"
)

// Language identifies this backend's occurrences in a shared index.Index,
// mirroring dwscript.Language ("ast") for the cross-language rename engine
// (SPEC_FULL.md §4.6).
const Language index.Language = "cfamily"

// declRe recognizes a one-line function declaration or definition: a single
// return-type token, the function name, a parenthesized parameter list, and
// an optional opening brace. This is deliberately the "trivial" grammar
// SPEC_FULL.md calls for, not a real C parser.
var declRe = regexp.MustCompile(`(?m)^[ \t]*[A-Za-z_][A-Za-z0-9_]*[ \t]+\**([A-Za-z_][A-Za-z0-9_]*)[ \t]*\(([^)]*)\)[ \t]*(\{)?`)

// Backend is the synthetic C-family LanguageService.
type Backend struct {
	langservice.DefaultUnimplemented
	*langservice.StateMachine

	mu   deadlock.Mutex
	docs map[document.URI]string
}

// NewBackend creates an idle Backend.
func NewBackend() *Backend {
	return &Backend{
		StateMachine: langservice.NewStateMachine(),
		docs:         make(map[document.URI]string),
	}
}

func (b *Backend) Initialize(ctx context.Context, workspaceRoot string) error { return nil }
func (b *Backend) Shutdown(ctx context.Context) error                        { return nil }

// CanHandle reports true unconditionally: the synthetic backend has no
// manifest conventions of its own to check against, and exists only to
// stand in for a real clang-family backend in tests.
func (b *Backend) CanHandle(workspaceRoot string) bool { return true }

func (b *Backend) OpenDocument(ctx context.Context, snap document.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[snap.URI] = snap.Text()
	return nil
}

func (b *Backend) CloseDocument(ctx context.Context, uri document.URI) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.docs, uri)
	return nil
}

func (b *Backend) ReopenDocument(ctx context.Context, snap document.Snapshot) error {
	return b.OpenDocument(ctx, snap)
}

func (b *Backend) ChangeDocument(ctx context.Context, pre, post document.Snapshot, edits []document.SourceEdit) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[post.URI] = post.Text()
	return nil
}

// RenameLocal implements langservice.RenamingService. It resolves the
// identifier at (line, column), renames every word-boundary occurrence of it
// within the current file, and reports a USR derived from the identifier's
// spelling: this synthetic backend has no semantic model to disambiguate
// same-named declarations, so identity is name-based.
func (b *Backend) RenameLocal(ctx context.Context, snap document.Snapshot, line, column int, newName string) ([]document.SourceEdit, string, error) {
	text := snap.Text()
	offset := lineColToOffset(text, line, column)
	start, end, ok := wordAt(text, offset)
	if !ok {
		return nil, "", nil
	}
	oldName := text[start:end]

	var edits []document.SourceEdit
	for _, span := range findWordSpans(text, oldName) {
		edits = append(edits, document.SourceEdit{
			Range:       document.OffsetRange{Start: span[0], End: span[1]},
			Replacement: newName,
		})
	}
	return edits, "cfam:" + oldName, nil
}

// EditsToRename implements langservice.RenamingService.
func (b *Backend) EditsToRename(ctx context.Context, snap document.Snapshot, locations []langservice.RenameLocation, oldName, newName string) ([]document.SourceEdit, error) {
	text := snap.Text()
	var edits []document.SourceEdit
	for _, loc := range locations {
		offset := lineColToOffset(text, loc.Line, loc.UTF8Column)
		start, end, ok := wordAt(text, offset)
		if !ok || text[start:end] != oldName {
			continue
		}
		edits = append(edits, document.SourceEdit{
			Range:       document.OffsetRange{Start: start, End: end},
			Replacement: newName,
		})
	}
	return edits, nil
}

// EditsToRenameParametersInFunctionBody implements langservice.RenamingService
// (SPEC_FULL.md §4.6 step 8). loc identifies where the renamed identifier
// literally sits in this definition's signature; the old spelling is read
// from the text at that position rather than passed in, matching how
// RenameLocal resolves its own oldName. Every occurrence of that spelling
// within the enclosing function's body is renamed alongside it.
func (b *Backend) EditsToRenameParametersInFunctionBody(ctx context.Context, snap document.Snapshot, loc langservice.RenameLocation, newName string) ([]document.SourceEdit, error) {
	text := snap.Text()
	offset := lineColToOffset(text, loc.Line, loc.UTF8Column)
	start, end, ok := wordAt(text, offset)
	if !ok {
		return nil, nil
	}
	oldName := text[start:end]

	bodyStart, bodyEnd, ok := enclosingFunctionBody(text, offset)
	if !ok {
		return nil, nil
	}

	var edits []document.SourceEdit
	for _, span := range findWordSpans(text[bodyStart:bodyEnd], oldName) {
		edits = append(edits, document.SourceEdit{
			Range:       document.OffsetRange{Start: bodyStart + span[0], End: bodyStart + span[1]},
			Replacement: newName,
		})
	}
	return edits, nil
}

// lineColToOffset converts a 1-based line and 1-based UTF-8 byte column
// into a byte offset into text.
func lineColToOffset(text string, line, col int) int {
	lineStart := 0
	current := 1
	for current < line {
		idx := strings.IndexByte(text[lineStart:], '\n')
		if idx < 0 {
			return len(text)
		}
		lineStart += idx + 1
		current++
	}
	offset := lineStart + (col - 1)
	if offset < lineStart {
		offset = lineStart
	}
	if offset > len(text) {
		offset = len(text)
	}
	return offset
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// wordAt returns the [start,end) span of the identifier run containing (or
// immediately preceding) offset.
func wordAt(text string, offset int) (start, end int, ok bool) {
	if offset > len(text) {
		offset = len(text)
	}
	start = offset
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	end = offset
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	if start == end {
		return 0, 0, false
	}
	return start, end, true
}

// findWordSpans returns every [start,end) span where word appears in text as
// a whole identifier (not a substring of a longer one).
func findWordSpans(text, word string) [][2]int {
	if word == "" {
		return nil
	}
	var spans [][2]int
	for i := 0; i+len(word) <= len(text); {
		idx := strings.Index(text[i:], word)
		if idx < 0 {
			break
		}
		start := i + idx
		end := start + len(word)
		before := start == 0 || !isIdentByte(text[start-1])
		after := end == len(text) || !isIdentByte(text[end])
		if before && after {
			spans = append(spans, [2]int{start, end})
		}
		i = start + 1
	}
	return spans
}

// enclosingFunctionBody finds the declaration whose signature-through-body
// span contains offset (covering both a reference inside the parameter list
// and one inside the body itself), via brace counting from the opening
// brace declRe reports. When more than one declaration's span contains
// offset, the innermost (latest-starting) one wins.
func enclosingFunctionBody(text string, offset int) (start, end int, ok bool) {
	bestDeclStart := -1
	for _, m := range declRe.FindAllStringSubmatchIndex(text, -1) {
		if m[6] < 0 { // group 3 (the optional brace) didn't match: a prototype, not a body
			continue
		}
		declStart, braceOffset := m[0], m[6]

		depth := 0
		closeIdx := -1
		for i := braceOffset; i < len(text); i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					closeIdx = i
				}
			}
			if closeIdx >= 0 {
				break
			}
		}
		if closeIdx < 0 || offset < declStart || offset > closeIdx {
			continue
		}
		if declStart > bestDeclStart {
			bestDeclStart = declStart
			start, end = braceOffset+1, closeIdx
		}
	}
	return start, end, bestDeclStart >= 0
}

// IndexDeclarations scans text for top-level function declarations/
// definitions and records a RoleDeclaration occurrence for each into mi,
// using the same "cfam:" + name USR convention RenameLocal reports. Mirrors
// dwscript's Indexer.recordDeclaration, generalized from an AST walk to a
// declRe scan since this backend has no real parser.
func IndexDeclarations(mi *index.MemoryIndex, uri document.URI, text string) {
	if mi == nil {
		return
	}
	for _, m := range declRe.FindAllStringSubmatchIndex(text, -1) {
		// "return f(x);" has the same shape as a prototype but is a call.
		if strings.Fields(text[m[0]:m[2]])[0] == "return" {
			continue
		}
		name := text[m[2]:m[3]]
		if name == "" {
			continue
		}
		line, col := lineColAt(text, m[2])
		mi.AddOccurrence(index.Occurrence{
			USR:          index.USR("cfam:" + name),
			URI:          uri,
			Line:         line,
			Column:       col,
			Role:         index.RoleDeclaration,
			Language:     Language,
			IsDefinition: m[6] >= 0,
		})
	}
}

// lineColAt converts a byte offset into a 1-based (line, column) pair.
func lineColAt(text string, offset int) (line, col int) {
	line = 1
	lineStart := 0
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, offset - lineStart + 1
}

// WordAt reports the identifier spelling at a 1-based (line, utf8Column)
// position, for callers outside this package that need the old name before
// calling RenameLocal (the cross-language rename engine needs it up front
// to resolve name translation; RenameLocal only reports it alongside the
// resulting edits).
func WordAt(text string, line, utf8Column int) (string, bool) {
	offset := lineColToOffset(text, line, utf8Column)
	start, end, ok := wordAt(text, offset)
	if !ok {
		return "", false
	}
	return text[start:end], true
}

var _ langservice.LanguageService = (*Backend)(nil)
var _ langservice.RenamingService = (*Backend)(nil)
