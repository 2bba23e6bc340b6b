// Package rename implements the cross-language rename engine
// (SPEC_FULL.md §4.6): it forwards a rename to the owning backend for a
// local edit, then walks the workspace index to propagate the rename to
// every other backend that can see the same underlying symbol under a
// possibly different native name.
//
// Grounded on the teacher's internal/lsp/rename.go (Rename ->
// buildWorkspaceEdit -> convertToEdits pipeline), generalized from "one
// backend renaming within its own file set" to "N backends renaming across
// an index-mediated symbol graph."
package rename

import (
	"context"
	"os"
	"sort"

	"github.com/polylsp/polylsp/internal/corerr"
	"github.com/polylsp/polylsp/internal/document"
	"github.com/polylsp/polylsp/internal/index"
	"github.com/polylsp/polylsp/internal/langservice"
)

// CrossLanguageName mirrors SPEC_FULL.md §3.
type CrossLanguageName struct {
	DefinitionLanguage index.Language
	NativeName         string
	OtherLanguageName  *string
}

// BackendLookup resolves the backend serving a given provider language and
// identifies the AST-language backend used for name translation.
type BackendLookup interface {
	ForLanguage(lang index.Language) (langservice.LanguageService, bool)
	ASTLanguage() index.Language
	CFamilyLanguage() index.Language
}

// SnapshotSource supplies the latest snapshot for a URI, falling back to
// on-disk contents when the file isn't open (SPEC_FULL.md §4.6 step 7).
type SnapshotSource interface {
	LatestSnapshot(uri document.URI) (document.Snapshot, error)
}

// Engine runs the cross-language rename algorithm.
type Engine struct {
	Index    index.Index // may be nil: bail-out case per step 2
	Docs     SnapshotSource
	Backends BackendLookup
}

// WorkspaceEdit maps a URI to the sequential SourceEdits to apply there.
type WorkspaceEdit map[document.URI][]document.SourceEdit

// Rename performs steps 1-10 of the algorithm. owner is the backend that
// owns uri; ownerLanguage identifies its provider family.
func (e *Engine) Rename(ctx context.Context, owner langservice.LanguageService, ownerLanguage index.Language, snap document.Snapshot, pos document.Position, oldName, newName string) (WorkspaceEdit, error) {
	renamer, ok := owner.(langservice.RenamingService)
	if !ok {
		return nil, corerr.Wrap("rename", corerr.ErrMethodNotImplemented)
	}

	line, col := snap.LineTable.PositionToLineColumn1Based(pos)

	localEdits, usr, err := renamer.RenameLocal(ctx, snap, line, col, newName)
	if err != nil {
		return nil, err
	}

	result := WorkspaceEdit{}
	if len(localEdits) > 0 {
		result[snap.URI] = append(result[snap.URI], localEdits...)
	}

	// Step 2: bail-outs.
	if usr == "" || e.Index == nil || e.Index.FileDeleted(snap.URI) {
		return filterNoOps(result, e.Docs), nil
	}

	u := index.USR(usr)

	// Step 3: cross-language name resolution for old and new names.
	oldCLN := e.computeCrossLanguageName(ctx, u, oldName)
	newCLN := e.computeCrossLanguageName(ctx, u, newName)

	// Step 4: override closure.
	closure := index.OverrideClosure(e.Index, u)

	// Step 5: occurrence gathering, grouped by URI.
	type grouped struct {
		locations []langservice.RenameLocation
		language  index.Language
	}
	byURI := map[document.URI]*grouped{}

	localEditURIs := map[document.URI]bool{}
	for uri := range result {
		localEditURIs[uri] = true
	}

	for _, member := range closure {
		occs := e.Index.Occurrences(member)
		for _, occ := range occs {
			if occ.Role != index.RoleDeclaration && occ.Role != index.RoleDefinition && occ.Role != index.RoleReference {
				continue
			}
			// Step 6: dedup against local edits for the primary USR only;
			// the AST backend never emits edits for overridden-related USRs
			// so their indexed occurrences are always used, while the
			// C-family backend does emit them, so its indexed occurrences
			// for those USRs are skipped instead.
			if member == u && localEditURIs[occ.URI] {
				continue
			}
			if member != u && occ.Language == e.Backends.CFamilyLanguage() && localEditURIs[occ.URI] {
				continue
			}

			g, ok := byURI[occ.URI]
			if !ok {
				g = &grouped{language: occ.Language}
				byURI[occ.URI] = g
			}
			g.locations = append(g.locations, langservice.RenameLocation{
				Line:       occ.Line,
				UTF8Column: occ.Column,
				Usage:      usageFromOccurrence(occ),
			})
		}
	}

	// Steps 7-8: per-file conversion plus function-body parameter renames.
	uris := make([]document.URI, 0, len(byURI))
	for uri := range byURI {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	for _, uri := range uris {
		g := byURI[uri]
		backend, ok := e.Backends.ForLanguage(g.language)
		if !ok {
			continue
		}
		renamer, ok := backend.(langservice.RenamingService)
		if !ok {
			continue
		}

		fileSnap, err := e.snapshotOrDisk(uri, g.language)
		if err != nil {
			continue
		}

		fileOldName, fileNewName := oldCLN.namedFor(g.language, oldName), newCLN.namedFor(g.language, newName)
		edits, err := renamer.EditsToRename(ctx, fileSnap, g.locations, fileOldName, fileNewName)
		if err != nil {
			continue
		}
		result[uri] = append(result[uri], edits...)

		for _, loc := range g.locations {
			if loc.Usage != langservice.UsageDefinition {
				continue
			}
			paramEdits, err := renamer.EditsToRenameParametersInFunctionBody(ctx, fileSnap, loc, fileNewName)
			if err != nil {
				continue
			}
			result[uri] = append(result[uri], paramEdits...)
		}
	}

	return filterNoOps(result, e.Docs), nil
}

func usageFromOccurrence(occ index.Occurrence) langservice.Usage {
	switch occ.Role {
	case index.RoleDefinition, index.RoleDeclaration:
		return langservice.UsageDefinition
	case index.RoleReference:
		return langservice.UsageReference
	default:
		return langservice.UsageUnknown
	}
}

func (e *Engine) snapshotOrDisk(uri document.URI, lang index.Language) (document.Snapshot, error) {
	if e.Docs != nil {
		if snap, err := e.Docs.LatestSnapshot(uri); err == nil {
			return snap, nil
		}
	}
	text, err := os.ReadFile(uri)
	if err != nil {
		return document.Snapshot{}, err
	}
	return document.Snapshot{
		URI:       uri,
		Language:  string(lang),
		LineTable: document.NewLineTable(string(text)),
	}, nil
}

// filterNoOps drops any edit whose replacement equals the text currently
// spanned by its range in the snapshot (SPEC_FULL.md §4.6 step 9).
func filterNoOps(we WorkspaceEdit, docs SnapshotSource) WorkspaceEdit {
	if docs == nil {
		return we
	}
	for uri, edits := range we {
		snap, err := docs.LatestSnapshot(uri)
		if err != nil {
			continue
		}
		content := snap.Text()
		filtered := edits[:0]
		for _, e := range edits {
			if e.Range.Start >= 0 && e.Range.End <= len(content) && e.Range.Start <= e.Range.End {
				if content[e.Range.Start:e.Range.End] == e.Replacement {
					continue
				}
			}
			filtered = append(filtered, e)
		}
		we[uri] = filtered
	}
	return we
}

// namedFor returns the name a file written in lang should use: the native
// name if lang matches the definition language, the translated
// OtherLanguageName if available, or the native name as a last resort if
// translation wasn't possible (SPEC_FULL.md §4.6 step 3 / error mapping:
// "Translation fails: drop that language side... local edits stand").
func (c CrossLanguageName) namedFor(lang index.Language, fallback string) string {
	if lang == c.DefinitionLanguage {
		return c.NativeName
	}
	if c.OtherLanguageName != nil {
		return *c.OtherLanguageName
	}
	return fallback
}

// computeCrossLanguageName implements SPEC_FULL.md §4.6 step 3: pick a
// definition occurrence of usr deterministically, then translate its native
// name to the other provider family if a cross-language reference exists.
func (e *Engine) computeCrossLanguageName(ctx context.Context, usr index.USR, nativeName string) CrossLanguageName {
	defs := e.Index.Definitions(usr)
	if len(defs) == 0 {
		return CrossLanguageName{NativeName: nativeName}
	}
	def := defs[0]
	cln := CrossLanguageName{DefinitionLanguage: def.Language, NativeName: nativeName}

	astLang := e.Backends.ASTLanguage()
	cFamilyLang := e.Backends.CFamilyLanguage()

	astBackend, hasAST := e.Backends.ForLanguage(astLang)
	if !hasAST {
		return cln
	}

	switch def.Language {
	case cFamilyLang:
		// Look for an AST-language reference to translate from.
		for _, occ := range e.Index.Occurrences(usr) {
			if occ.Language != astLang {
				continue
			}
			translated, err := astBackend.TranslateClangToSwift(ctx, occ.URI, occ.Line, occ.Column, langservice.NamePlain, nativeName)
			if err == nil {
				cln.OtherLanguageName = &translated
			}
			break
		}
	case astLang:
		// Check whether any reference has a C-family provider.
		for _, occ := range e.Index.Occurrences(usr) {
			if occ.Language != cFamilyLang {
				continue
			}
			translated, err := astBackend.TranslateSwiftToClang(ctx, def.URI, nativeName)
			if err == nil {
				cln.OtherLanguageName = &translated
			}
			break
		}
	}
	return cln
}

// PrepareRename resolves the placeholder name the client should show,
// piggybacking on the same definition-language native name resolution
// (SPEC_FULL.md §4.6, "Prepare-rename piggybacks..."). astFunctionSuffix
// strips a trailing "()" for the AST-language function-name convention.
func PrepareRename(definitionLanguage, astLanguage index.Language, nativeName string) string {
	if definitionLanguage == astLanguage {
		if len(nativeName) >= 2 && nativeName[len(nativeName)-2:] == "()" {
			return nativeName[:len(nativeName)-2]
		}
	}
	return nativeName
}
