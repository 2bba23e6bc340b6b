// Package analysis provides DWScript integration for parsing and semantic analysis.
package analysis

// This package will integrate with the go-dws lexer, parser, and semantic analyzer:
// - Parse DWScript code into AST
// - Run semantic analysis
// - Convert errors to LSP diagnostics
