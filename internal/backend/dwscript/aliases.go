package dwscript

import "github.com/polylsp/polylsp/internal/docmodel"

// These aliases keep the handler files below talking about Document,
// DocumentStore, CompletionCache and SymbolIndex as local types while the
// actual definitions live in internal/docmodel, shared with the analysis
// package to avoid an import cycle (dwscript -> analysis -> docmodel).
type (
	Document              = docmodel.Document
	DocumentStore         = docmodel.DocumentStore
	CompletionCache       = docmodel.CompletionCache
	CachedCompletionItems = docmodel.CachedCompletionItems
	SymbolIndex           = docmodel.SymbolIndex
	SymbolLocation        = docmodel.SymbolLocation
	FileInfo              = docmodel.FileInfo
)

func NewDocumentStore() *DocumentStore { return docmodel.NewDocumentStore() }

func NewCompletionCache() *CompletionCache { return docmodel.NewCompletionCache() }

func NewSymbolIndex() *SymbolIndex { return docmodel.NewSymbolIndex() }
