// Package langservice defines the LanguageService contract every backend
// implements and the connection state machine a backend instance moves
// through (SPEC_FULL.md §4.5). It is grounded on the teacher's
// internal/lsp handler set (text-sync + feature handlers dispatched off a
// single server instance), generalized here into an interface so the
// dispatcher can hold many backend instances instead of one global.
package langservice

import (
	"context"

	"github.com/polylsp/polylsp/internal/document"
)

// State is the connection state of one backend instance.
type State int

const (
	Connected State = iota
	ConnectionInterrupted
	SemanticFunctionalityDisabled
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case ConnectionInterrupted:
		return "connectionInterrupted"
	case SemanticFunctionalityDisabled:
		return "semanticFunctionalityDisabled"
	default:
		return "unknown"
	}
}

// StateChangeHandler is notified whenever a backend instance transitions.
type StateChangeHandler func(from, to State)

// NameKind distinguishes how a translated name should be interpreted; only
// relevant for the Objective-C selector special case name translation calls
// out (SPEC_FULL.md §4.6 step 3).
type NameKind int

const (
	NamePlain NameKind = iota
	NameSelector
)

// LanguageService is the contract a backend implements. Methods a backend
// doesn't support should return corerr.ErrMethodNotImplemented (wrapped)
// rather than panicking; DefaultUnimplemented below supplies that behavior
// for embedding.
type LanguageService interface {
	// Lifecycle
	Initialize(ctx context.Context, workspaceRoot string) error
	Shutdown(ctx context.Context) error
	AddStateChangeHandler(fn StateChangeHandler)
	CurrentState() State

	// Text sync
	OpenDocument(ctx context.Context, snap document.Snapshot) error
	CloseDocument(ctx context.Context, uri document.URI) error
	ReopenDocument(ctx context.Context, snap document.Snapshot) error
	ChangeDocument(ctx context.Context, pre, post document.Snapshot, edits []document.SourceEdit) error

	// Build integration
	DocumentUpdatedBuildSettings(ctx context.Context, uri document.URI) error
	DocumentDependenciesUpdated(ctx context.Context, uris []document.URI) error

	// CanHandle reports whether this instance may be reused to serve an
	// additional workspace.
	CanHandle(workspaceRoot string) bool

	// Name translation, optional (cross-language rename). Backends that
	// don't support it return corerr.ErrMethodNotImplemented.
	TranslateClangToSwift(ctx context.Context, uri document.URI, line, column int, kind NameKind, name string) (string, error)
	TranslateSwiftToClang(ctx context.Context, uri document.URI, name string) (string, error)
}

// RenamingService is the optional rename-specific surface a backend
// implements to participate in local and cross-language rename
// (SPEC_FULL.md §4.6). Backends without rename support simply don't
// implement it; callers type-assert.
type RenamingService interface {
	// RenameLocal performs the local rename seed (step 1): returns edits
	// covering at least the current file, and the USR identifying the
	// renamed symbol if one could be resolved.
	RenameLocal(ctx context.Context, snap document.Snapshot, line, column int, newName string) (edits []document.SourceEdit, usr string, err error)

	// EditsToRename converts a set of known locations (from the index) for
	// oldName into SourceEdits against snap.
	EditsToRename(ctx context.Context, snap document.Snapshot, locations []RenameLocation, oldName, newName string) ([]document.SourceEdit, error)

	// EditsToRenameParametersInFunctionBody additionally renames parameter
	// occurrences inside a function body for a definition location
	// (SPEC_FULL.md §4.6 step 8).
	EditsToRenameParametersInFunctionBody(ctx context.Context, snap document.Snapshot, loc RenameLocation, newName string) ([]document.SourceEdit, error)
}

// RenameLocation mirrors SPEC_FULL.md §3's RenameLocation entity.
type RenameLocation struct {
	Line      int // 1-based
	UTF8Column int // 1-based
	Usage     Usage
}

// Usage classifies a RenameLocation's role.
type Usage int

const (
	UsageUnknown Usage = iota
	UsageDefinition
	UsageReference
	UsageCall
)

// DefaultUnimplemented can be embedded by a backend to satisfy
// LanguageService for methods it doesn't implement. The document and
// translation methods and Initialize return corerr.ErrMethodNotImplemented;
// Shutdown and the build-integration hooks return nil, the state methods
// report Connected and ignore handlers, and CanHandle returns false.
// Backends embed this and override only the methods they support.
type DefaultUnimplemented struct{}
