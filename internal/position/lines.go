package position

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero-based line and UTF-16 column.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// OffsetToPosition converts a byte offset into a Position. Offsets are
// clamped to the text.
func (ix *Index) OffsetToPosition(offset int) Position {
	text := ix.snap.Text
	offset = max(0, min(offset, len(text)))
	line := sort.Search(len(ix.lines), func(i int) bool { return ix.lines[i] > offset }) - 1

	col := 0
	for i := ix.lines[line]; i < offset; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if i+size > offset {
			break
		}
		col += utf16Len(r)
		i += size
	}
	return Position{Line: line, Character: col}
}

// PositionToOffset converts a Position into a byte offset. Lines past the
// end map to the end of the text and columns past the end of a line map
// to the line end.
func (ix *Index) PositionToOffset(p Position) int {
	text := ix.snap.Text
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(ix.lines) {
		return len(text)
	}
	end := len(text)
	if p.Line+1 < len(ix.lines) {
		end = ix.lines[p.Line+1] - 1
	}

	i, col := ix.lines[p.Line], 0
	for i < end && col < p.Character {
		r, size := utf8.DecodeRuneInString(text[i:])
		col += utf16Len(r)
		i += size
	}
	return i
}

func utf16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
