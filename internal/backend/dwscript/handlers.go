// Package dwscript implements the AST-based LanguageService backend for
// DWScript, wrapping github.com/cwbudde/go-dws behind the LSP request and
// notification handlers:
// - Initialize / Initialized
// - Shutdown / Exit
// - textDocument/didOpen, didClose, didChange
// - textDocument/hover
// - textDocument/definition
// - textDocument/references
// - textDocument/completion
// - textDocument/documentSymbol, workspaceSymbol
// - textDocument/rename, prepareRename
package dwscript
