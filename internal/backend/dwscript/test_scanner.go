package dwscript

import (
	"context"
	"os"
	"strings"

	"github.com/cwbudde/go-dws/pkg/ast"
	"github.com/cwbudde/go-dws/pkg/dwscript"

	"github.com/polylsp/polylsp/internal/document"
	"github.com/polylsp/polylsp/internal/testindex"
)

// TestScanner implements testindex.Scanner for DWScript sources: a top-level
// FunctionDecl whose name starts with "Test" is reported as a test item,
// mirroring the AST walk Indexer.extractSymbols already does for workspace
// symbols, but over the one recognized test-naming convention instead of
// every declaration kind.
type TestScanner struct{}

// NewTestScanner creates a TestScanner.
func NewTestScanner() *TestScanner { return &TestScanner{} }

// ScanFile reads and compiles the file at uri and reports every top-level
// "Test"-prefixed function as a TestItem. Parse failures are not an error
// here: a file mid-edit with syntax errors simply contributes no test items
// until it compiles again.
func (s *TestScanner) ScanFile(ctx context.Context, uri document.URI) ([]testindex.TestItem, error) {
	path := uriToPath(uri)
	if path == "" {
		return nil, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}

	engine, err := dwscript.New()
	if err != nil {
		return nil, nil
	}

	program, err := engine.Compile(string(content))
	if err != nil || program == nil || program.AST() == nil {
		return nil, nil
	}

	text := string(content)
	var items []testindex.TestItem
	for _, stmt := range program.AST().Statements {
		fn, ok := stmt.(*ast.FunctionDecl)
		if !ok || fn.Name == nil || !strings.HasPrefix(fn.Name.Value, "Test") {
			continue
		}

		start := fn.Pos()
		end := fn.End()
		items = append(items, testindex.TestItem{
			ID:    fn.Name.Value,
			Label: fn.Name.Value,
			URI:   uri,
			Range: document.OffsetRange{
				Start: lineColToByteOffset(text, start.Line, start.Column),
				End:   lineColToByteOffset(text, end.Line, end.Column),
			},
		})
	}
	return items, nil
}

var _ testindex.Scanner = (*TestScanner)(nil)
