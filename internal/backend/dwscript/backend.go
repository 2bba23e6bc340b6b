package dwscript

import (
	"context"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/polylsp/polylsp/internal/analysis"
	"github.com/polylsp/polylsp/internal/document"
	"github.com/polylsp/polylsp/internal/langservice"
)

// Backend adapts a Server, the DWScript handlers' own state and document
// cache, to langservice.LanguageService and langservice.RenamingService: the
// generic lifecycle/text-sync/name-translation/rename contract the
// WorkspaceRouter and the cross-language rename engine need in order to
// treat this backend the same way they treat any other. The remaining
// feature handlers (Completion, Hover, Definition, DocumentSymbol,
// WorkspaceSymbol) stay outside this contract, as free functions reading the
// shared serverInstance singleton set via SetServer, matching the teacher's
// one-workspace-at-a-time shape for the handlers the router/queue pipeline
// dispatches straight through; see DESIGN.md for why that boundary was kept
// rather than threaded through every handler.
type Backend struct {
	*Server
	*langservice.StateMachine

	workspaceRoot string

	diagMu          sync.Mutex
	lastDiagnostics map[document.URI][]protocol.Diagnostic
}

// NewBackend wraps srv as a LanguageService.
func NewBackend(srv *Server) *Backend {
	return &Backend{
		Server:          srv,
		StateMachine:    langservice.NewStateMachine(),
		lastDiagnostics: make(map[document.URI][]protocol.Diagnostic),
	}
}

// TakeDiagnostics returns and clears the diagnostics most recently produced
// for uri by OpenDocument/ChangeDocument, so a caller driving this backend
// through the LanguageService interface (rather than DidOpen/DidChange,
// which publish directly) can still forward them to the client.
func (b *Backend) TakeDiagnostics(uri document.URI) []protocol.Diagnostic {
	b.diagMu.Lock()
	defer b.diagMu.Unlock()
	diags := b.lastDiagnostics[uri]
	delete(b.lastDiagnostics, uri)
	return diags
}

func (b *Backend) recordDiagnostics(uri document.URI, diags []protocol.Diagnostic) {
	b.diagMu.Lock()
	defer b.diagMu.Unlock()
	b.lastDiagnostics[uri] = diags
}

func (b *Backend) Initialize(ctx context.Context, workspaceRoot string) error {
	b.workspaceRoot = workspaceRoot
	return nil
}

func (b *Backend) Shutdown(ctx context.Context) error {
	b.Server.SetShuttingDown()
	return nil
}

// CanHandle reports true unconditionally: DWScript files are recognized by
// extension at open time, not by workspace root conventions, so this
// instance can serve any workspace handed to it.
func (b *Backend) CanHandle(workspaceRoot string) bool { return true }

func (b *Backend) OpenDocument(ctx context.Context, snap document.Snapshot) error {
	diags := updateDocumentFromSnapshot(b.Server, snap)
	b.recordDiagnostics(snap.URI, diags)
	return nil
}

func (b *Backend) CloseDocument(ctx context.Context, uri document.URI) error {
	closeDocumentState(b.Server, uri)
	b.recordDiagnostics(uri, nil)
	return nil
}

func (b *Backend) ReopenDocument(ctx context.Context, snap document.Snapshot) error {
	return b.OpenDocument(ctx, snap)
}

func (b *Backend) ChangeDocument(ctx context.Context, pre, post document.Snapshot, edits []document.SourceEdit) error {
	diags := updateDocumentFromSnapshot(b.Server, post)
	b.recordDiagnostics(post.URI, diags)
	return nil
}

func (b *Backend) DocumentUpdatedBuildSettings(ctx context.Context, uri document.URI) error {
	return nil
}

func (b *Backend) DocumentDependenciesUpdated(ctx context.Context, uris []document.URI) error {
	return nil
}

// TranslateClangToSwift implements the AST side of cross-language name
// translation (SPEC_FULL.md §4.6 step 3): the DWScript convention appends a
// trailing "()" to a plain function name, the same marker PrepareRename
// strips back off for this language.
func (b *Backend) TranslateClangToSwift(ctx context.Context, uri document.URI, line, column int, kind langservice.NameKind, name string) (string, error) {
	if strings.HasSuffix(name, "()") {
		return name, nil
	}
	return name + "()", nil
}

// TranslateSwiftToClang strips the DWScript function-name suffix back off
// for a C-family counterpart.
func (b *Backend) TranslateSwiftToClang(ctx context.Context, uri document.URI, name string) (string, error) {
	return strings.TrimSuffix(name, "()"), nil
}

// closeDocumentState removes uri from srv's document store and invalidates
// its cached completions; shared with DidClose's identical teardown.
func closeDocumentState(srv *Server, uri document.URI) {
	srv.Documents().Delete(uri)
	if srv.CompletionCache() != nil {
		srv.CompletionCache().InvalidateDocument(uri)
	}
}

// RenameLocal implements langservice.RenamingService, reusing the same
// symbol-identification and reference-gathering logic as the free-function
// Rename handler (rename.go), but scoped to edits within snap.URI only: the
// cross-language rename engine attributes every edit RenameLocal returns to
// snap.URI unconditionally, so cross-file references References() may also
// return are filtered out here rather than left to the caller.
func (b *Backend) RenameLocal(ctx context.Context, snap document.Snapshot, line, column int, newName string) ([]document.SourceEdit, string, error) {
	doc, exists := b.Server.Documents().Get(snap.URI)
	if !exists || doc.Program == nil || doc.Program.AST() == nil {
		return nil, "", nil
	}

	sym := analysis.IdentifySymbolAtPosition(doc.Program.AST(), line, column)
	if sym == nil || sym.Name == "" {
		return nil, "", nil
	}
	oldName := sym.Name
	if canRename, _ := canRenameSymbol(oldName); !canRename {
		return nil, "", nil
	}

	refParams := &protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: snap.URI},
			Position:     lineColumnToProtocolPosition(line, column),
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: true},
	}

	locations, err := References(nil, refParams)
	if err != nil {
		return nil, "", err
	}

	edits, convErr := locationsToSourceEdits(snap, locations, newName)
	if convErr != nil {
		return nil, "", convErr
	}
	return edits, "dws:" + oldName, nil
}

// EditsToRename implements langservice.RenamingService: locations are
// occurrences the shared index recorded for oldName against snap.URI,
// possibly in a file that isn't open, so matching is done against the
// identifier spans in snap.Text() directly rather than requiring an AST.
func (b *Backend) EditsToRename(ctx context.Context, snap document.Snapshot, locations []langservice.RenameLocation, oldName, newName string) ([]document.SourceEdit, error) {
	text := snap.Text()
	var edits []document.SourceEdit
	for _, loc := range locations {
		start, end, ok := identifierSpanAt(text, loc.Line, loc.UTF8Column)
		if !ok || text[start:end] != oldName {
			continue
		}
		edits = append(edits, sourceEditForSpan(snap, start, end, newName))
	}
	return edits, nil
}

// EditsToRenameParametersInFunctionBody implements langservice.RenamingService
// (SPEC_FULL.md §4.6 step 8): parses snap independently of any open-document
// cache (loc may reference a file the client never opened), determines the
// enclosing function via analysis.DetermineScope, and renames every local
// reference to the parameter inside that function's body.
func (b *Backend) EditsToRenameParametersInFunctionBody(ctx context.Context, snap document.Snapshot, loc langservice.RenameLocation, newName string) ([]document.SourceEdit, error) {
	program, _, err := analysis.ParseDocument(snap.Text(), snap.URI)
	if err != nil || program == nil || program.AST() == nil {
		return nil, nil
	}
	programAST := program.AST()

	sym := analysis.IdentifySymbolAtPosition(programAST, loc.Line, loc.UTF8Column)
	if sym == nil || sym.Name == "" {
		return nil, nil
	}

	scope := analysis.DetermineScope(programAST, sym.Name, analysis.Position{Line: loc.Line, Column: loc.UTF8Column})
	if scope == nil || scope.Function == nil {
		return nil, nil
	}

	ranges := analysis.FindLocalReferences(programAST, sym.Name, scope.Function)
	var edits []document.SourceEdit
	for _, r := range ranges {
		start, err := snap.LineTable.PositionToUTF8Offset(document.Position{Line: int(r.Start.Line), Character: int(r.Start.Character)})
		if err != nil {
			continue
		}
		end, err := snap.LineTable.PositionToUTF8Offset(document.Position{Line: int(r.End.Line), Character: int(r.End.Character)})
		if err != nil {
			continue
		}
		edits = append(edits, document.SourceEdit{
			Range:       document.OffsetRange{Start: start, End: end},
			Replacement: newName,
		})
	}
	return edits, nil
}

var _ langservice.LanguageService = (*Backend)(nil)
var _ langservice.RenamingService = (*Backend)(nil)
