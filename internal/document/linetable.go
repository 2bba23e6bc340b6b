// Package document owns every open text document: it is the sole writer of
// document content, the sole producer of immutable snapshots, and the
// translator from LSP's UTF-16 contentChanges into sequential UTF-8 source
// edits (SPEC_FULL.md §4.1).
package document

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// LineTable is a value-typed view over document content that supports
// UTF-8 <-> UTF-16 <-> line:column conversions. Every edit yields either a
// freshly-built LineTable (full-text replacement) or a mutated-in-place one
// under the owning DocumentManager's lock; callers outside that lock only
// ever see LineTables embedded in an immutable Snapshot.
type LineTable struct {
	content string
	// lineStarts[i] is the UTF-8 byte offset of the first byte of line i.
	lineStarts []int
}

// NewLineTable builds a LineTable over the given content.
func NewLineTable(content string) LineTable {
	return LineTable{content: content, lineStarts: computeLineStarts(content)}
}

func computeLineStarts(content string) []int {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Content returns the full document text.
func (lt LineTable) Content() string { return lt.content }

// LineCount returns the number of lines (a document with no trailing newline
// still has at least one line).
func (lt LineTable) LineCount() int { return len(lt.lineStarts) }

func (lt LineTable) lineBounds(line int) (start, end int, ok bool) {
	if line < 0 || line >= len(lt.lineStarts) {
		return 0, 0, false
	}
	start = lt.lineStarts[line]
	if line+1 < len(lt.lineStarts) {
		end = lt.lineStarts[line+1] - 1 // exclude the newline
	} else {
		end = len(lt.content)
	}
	if end < start {
		end = start
	}
	return start, end, true
}

// LineText returns the text of a single line (without its trailing newline).
func (lt LineTable) LineText(line int) (string, bool) {
	start, end, ok := lt.lineBounds(line)
	if !ok {
		return "", false
	}
	return lt.content[start:end], true
}

// Position is a 0-based (line, utf16Character) pair, matching LSP's wire format.
type Position struct {
	Line      int
	Character int // UTF-16 code units
}

// OffsetRange is a pair of UTF-8 byte offsets, start inclusive, end exclusive.
type OffsetRange struct {
	Start, End int
}

// UTF8OffsetToPosition converts a UTF-8 byte offset into an LSP (line, UTF-16
// character) position. Offsets past end-of-file clamp to the last valid
// position; callers are expected to fault-log the clamp (see SPEC_FULL.md §8).
func (lt LineTable) UTF8OffsetToPosition(offset int) (Position, bool) {
	clamped := false
	if offset < 0 {
		offset = 0
		clamped = true
	}
	if offset > len(lt.content) {
		offset = len(lt.content)
		clamped = true
	}

	line := 0
	for i := len(lt.lineStarts) - 1; i >= 0; i-- {
		if lt.lineStarts[i] <= offset {
			line = i
			break
		}
	}

	lineStart, _, _ := lt.lineBounds(line)
	utf16Col := utf8ByteOffsetToUTF16(lt.content[lineStart:], offset-lineStart)

	return Position{Line: line, Character: utf16Col}, !clamped
}

// PositionToUTF8Offset converts an LSP position to a UTF-8 byte offset.
// A character offset past the end of its line clamps to end-of-line.
func (lt LineTable) PositionToUTF8Offset(pos Position) (int, error) {
	lineStart, lineEnd, ok := lt.lineBounds(pos.Line)
	if !ok {
		return 0, fmt.Errorf("line %d out of range (0-%d)", pos.Line, lt.LineCount()-1)
	}
	lineText := lt.content[lineStart:lineEnd]

	byteOff, err := utf16CharOffsetToByteOffset(lineText, pos.Character)
	if err != nil {
		return 0, fmt.Errorf("invalid position %d:%d: %w", pos.Line, pos.Character, err)
	}
	return lineStart + byteOff, nil
}

// PositionToLineColumn1Based converts an LSP (0-based) position into the
// 1-based (line, utf8Column) coordinates used by RenameLocation and the
// index query contract. A position whose line is out of range yields
// (max(0, line+1), 1).
func (lt LineTable) PositionToLineColumn1Based(pos Position) (line, utf8Column int) {
	offset, err := lt.PositionToUTF8Offset(pos)
	if err != nil {
		return max(0, pos.Line+1), 1
	}
	lineStart, _, _ := lt.lineBounds(pos.Line)
	return pos.Line + 1, (offset - lineStart) + 1
}

// ApplyRangeEdit replaces the UTF-8 span covered by [start,end) with
// replacement and returns a new LineTable plus the resulting SourceEdit.
// Positions are LSP positions (UTF-16); the returned edit records the UTF-8
// offsets for reuse by callers needing byte-exact application.
func (lt LineTable) ApplyRangeEdit(start, end Position, replacement string) (LineTable, SourceEdit, error) {
	startOff, err := lt.PositionToUTF8Offset(start)
	if err != nil {
		return lt, SourceEdit{}, err
	}
	endOff, err := lt.PositionToUTF8Offset(end)
	if err != nil {
		return lt, SourceEdit{}, err
	}
	if endOff < startOff {
		startOff, endOff = endOff, startOff
	}

	newContent := lt.content[:startOff] + replacement + lt.content[endOff:]
	edit := SourceEdit{
		Range:       OffsetRange{Start: startOff, End: endOff},
		Replacement: replacement,
	}
	return NewLineTable(newContent), edit, nil
}

// ApplyFullReplace resets the LineTable to newContent, returning a SourceEdit
// spanning the entire prior content (as full-sync contentChanges require).
func (lt LineTable) ApplyFullReplace(newContent string) (LineTable, SourceEdit) {
	edit := SourceEdit{
		Range:       OffsetRange{Start: 0, End: len(lt.content)},
		Replacement: newContent,
	}
	return NewLineTable(newContent), edit
}

// SourceEdit is a single sequential byte-range replacement, in the order the
// originating contentChanges were applied. Later edits in a batch interpret
// offsets against the post-earlier-edit content (SPEC_FULL.md §4.1).
type SourceEdit struct {
	Range       OffsetRange
	Replacement string
}

// utf16CharOffsetToByteOffset converts a UTF-16 character offset (as used by
// LSP) to a UTF-8 byte offset within the given line.
func utf16CharOffsetToByteOffset(line string, utf16Offset int) (int, error) {
	if utf16Offset <= 0 {
		return 0, nil
	}

	units := utf16.Encode([]rune(line))
	if utf16Offset >= len(units) {
		// Allow (and clamp) an offset at or past end of line, e.g. for insertions.
		return len(line), nil
	}

	byteOffset := 0
	utf16Count := 0
	for _, r := range line {
		if utf16Count >= utf16Offset {
			break
		}
		if r <= 0xFFFF {
			utf16Count++
		} else {
			utf16Count += 2
		}
		byteOffset += utf8.RuneLen(r)
	}
	return byteOffset, nil
}

// utf8ByteOffsetToUTF16 converts a UTF-8 byte offset within a line to a
// UTF-16 code unit count.
func utf8ByteOffsetToUTF16(line string, byteOffset int) int {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset > len(line) {
		byteOffset = len(line)
	}

	utf16Offset := 0
	currentByteOffset := 0
	for _, r := range line {
		if currentByteOffset >= byteOffset {
			break
		}
		if r <= 0xFFFF {
			utf16Offset++
		} else {
			utf16Offset += 2
		}
		currentByteOffset += utf8.RuneLen(r)
	}
	return utf16Offset
}

// ApproximateUTF16AsUTF8 reports the position that treats UTF-8 byte offsets
// as if they were UTF-16 code units directly, skipping the line read a
// precise conversion would require. Per SPEC_FULL.md §9 this approximation is
// intentional for jump-to-location results; callers must not "fix" it
// silently and should only use it where an exact LineTable is unavailable
// (e.g. locations reported by the index for files that are not open).
func ApproximateUTF16AsUTF8(line, utf8Column int) Position {
	return Position{Line: max(0, line-1), Character: max(0, utf8Column-1)}
}

