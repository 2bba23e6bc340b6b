package langservice

import (
	"context"

	"github.com/polylsp/polylsp/internal/corerr"
	"github.com/polylsp/polylsp/internal/document"
)

// The methods below return corerr.ErrMethodNotImplemented, or a harmless
// no-op result for lifecycle, state and build-integration calls, so a backend
// can embed DefaultUnimplemented and override only the methods it actually
// supports (mirrors how the teacher's internal/lsp handlers individually
// stub out unsupported LSP methods rather than requiring every handler to
// exist).

func notImplemented(what string) error {
	return corerr.Wrap(what, corerr.ErrMethodNotImplemented)
}

func (DefaultUnimplemented) Initialize(ctx context.Context, workspaceRoot string) error {
	return notImplemented("initialize")
}

func (DefaultUnimplemented) Shutdown(ctx context.Context) error { return nil }

func (DefaultUnimplemented) AddStateChangeHandler(fn StateChangeHandler) {}

func (DefaultUnimplemented) CurrentState() State { return Connected }

func (DefaultUnimplemented) OpenDocument(ctx context.Context, snap document.Snapshot) error {
	return notImplemented("openDocument")
}

func (DefaultUnimplemented) CloseDocument(ctx context.Context, uri document.URI) error {
	return notImplemented("closeDocument")
}

func (DefaultUnimplemented) ReopenDocument(ctx context.Context, snap document.Snapshot) error {
	return notImplemented("reopenDocument")
}

func (DefaultUnimplemented) ChangeDocument(ctx context.Context, pre, post document.Snapshot, edits []document.SourceEdit) error {
	return notImplemented("changeDocument")
}

func (DefaultUnimplemented) DocumentUpdatedBuildSettings(ctx context.Context, uri document.URI) error {
	return nil
}

func (DefaultUnimplemented) DocumentDependenciesUpdated(ctx context.Context, uris []document.URI) error {
	return nil
}

func (DefaultUnimplemented) CanHandle(workspaceRoot string) bool { return false }

func (DefaultUnimplemented) TranslateClangToSwift(ctx context.Context, uri document.URI, line, column int, kind NameKind, name string) (string, error) {
	return "", notImplemented("translateClangToSwift")
}

func (DefaultUnimplemented) TranslateSwiftToClang(ctx context.Context, uri document.URI, name string) (string, error) {
	return "", notImplemented("translateSwiftToClang")
}
