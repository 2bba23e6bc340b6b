// Package index defines the persistent semantic-index query contract the
// core consumes (occurrences, definitions, override relations) and ships a
// reference in-memory implementation, MemoryIndex, grounded on the
// teacher's workspace-wide symbol table (SPEC_FULL.md §4.6, §3).
package index

// USR ("Unified Symbol Resolution") identifies one underlying declaration
// across however many backends expose a view of it.
type USR string

// Role classifies why an occurrence is recorded against a USR.
type Role int

const (
	RoleDeclaration Role = iota
	RoleDefinition
	RoleReference
)

// Language distinguishes the provider family an occurrence came from; the
// cross-language rename engine only ever deals with two families in this
// module (the AST backend and the C-family backend), but the type is left
// open for more.
type Language string

// Occurrence is one place a USR shows up in the workspace.
type Occurrence struct {
	USR          USR
	URI          string
	Line         int // 1-based
	Column       int // 1-based, UTF-8 byte column
	Role         Role
	Language     Language
	IsDefinition bool
}

// Index is the read-only query surface the rename engine and test index
// consume. Implementations are expected to be safe for concurrent reads;
// mutation happens through backend-specific ingestion, not through this
// interface.
type Index interface {
	// Occurrences returns every recorded occurrence of usr, in any role.
	Occurrences(usr USR) []Occurrence

	// Definitions returns only the declaration/definition occurrences of usr.
	Definitions(usr USR) []Occurrence

	// OverrideRelations returns the USRs that usr directly overrides and the
	// USRs that directly override usr (one hop; callers compute the
	// transitive closure themselves, per SPEC_FULL.md §4.6 step 4).
	OverrideRelations(usr USR) (overrides []USR, overriddenBy []USR)

	// FileDeleted reports whether uri is known to have been removed from the
	// workspace, used for the rename engine's index-driven bail-out.
	FileDeleted(uri string) bool
}
