package dwscript

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/polylsp/polylsp/internal/document"
)

// lineColumnToProtocolPosition converts a 1-based (line, utf8Column) pair,
// the coordinate system analysis.IdentifySymbolAtPosition and the rename
// engine's RenameLocation both use, into the 0-based LSP wire position
// References expects. This is the same approximation
// document.ApproximateUTF16AsUTF8 documents: exact only for ASCII text, used
// here because the position is about to be fed straight back into an AST
// lookup that itself works in byte columns, not real UTF-16 units.
func lineColumnToProtocolPosition(line, utf8Column int) protocol.Position {
	pos := document.ApproximateUTF16AsUTF8(line, utf8Column)
	return protocol.Position{Line: uint32(pos.Line), Character: uint32(pos.Character)}
}

// locationsToSourceEdits keeps only the locations within snap.URI and
// converts their LSP ranges into byte-offset SourceEdits against snap.
func locationsToSourceEdits(snap document.Snapshot, locations []protocol.Location, newName string) ([]document.SourceEdit, error) {
	var edits []document.SourceEdit
	for _, loc := range locations {
		if loc.URI != snap.URI {
			continue
		}
		start, err := snap.LineTable.PositionToUTF8Offset(document.Position{
			Line: int(loc.Range.Start.Line), Character: int(loc.Range.Start.Character),
		})
		if err != nil {
			continue
		}
		end, err := snap.LineTable.PositionToUTF8Offset(document.Position{
			Line: int(loc.Range.End.Line), Character: int(loc.Range.End.Character),
		})
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

func sourceEditForSpan(snap document.Snapshot, start, end int, replacement string) document.SourceEdit {
	return document.SourceEdit{Range: document.OffsetRange{Start: start, End: end}, Replacement: replacement}
}

// identifierSpanAt returns the [start,end) byte span of the identifier run
// at a 1-based (line, utf8Column) position within text, for locations
// sourced from the shared index rather than a live AST.
func identifierSpanAt(text string, line, utf8Column int) (start, end int, ok bool) {
	offset := lineColToByteOffset(text, line, utf8Column)
	start = offset
	for start > 0 && isIdentifierByte(text[start-1]) {
		start--
	}
	end = offset
	for end < len(text) && isIdentifierByte(text[end]) {
		end++
	}
	if start == end {
		return 0, 0, false
	}
	return start, end, true
}

func isIdentifierByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// lineColToByteOffset converts a 1-based line and 1-based UTF-8 byte column
// into a byte offset into text.
func lineColToByteOffset(text string, line, col int) int {
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
