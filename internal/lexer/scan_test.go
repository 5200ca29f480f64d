package lexer

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dotrain/internal/ir"
)

func codes(problems []ir.Problem) []ir.ErrorCode {
	out := make([]ir.ErrorCode, len(problems))
	for i, p := range problems {
		out[i] = p.Code
	}
	return out
}

func TestScan_Statements(t *testing.T) {
	body := "@ 0xabc\n#a 1\n\n#b _: add(a 2);\n"

	res := Scan(body, 10)

	assert.Empty(t, res.Problems)
	require.Len(t, res.Statements, 3)

	assert.Equal(t, ImportStatement, res.Statements[0].Kind)
	assert.Equal(t, "@ 0xabc", res.Statements[0].Text)
	assert.Equal(t, ir.Offsets{10, 17}, res.Statements[0].Position)

	assert.Equal(t, BindingStatement, res.Statements[1].Kind)
	assert.Equal(t, "#a 1", res.Statements[1].Text)
	assert.Equal(t, ir.Offsets{18, 22}, res.Statements[1].Position)

	assert.Equal(t, "#b _: add(a 2);", res.Statements[2].Text)
	assert.Equal(t, ir.Offsets{24, 39}, res.Statements[2].Position)
}

func TestScan_Comments(t *testing.T) {
	body := "/* head */\n#a /* inline */ 1\n"

	res := Scan(body, 0)

	assert.Empty(t, res.Problems)
	require.Len(t, res.Comments, 2)
	assert.Equal(t, "/* head */", res.Comments[0].Text)
	assert.Equal(t, ir.Offsets{0, 10}, res.Comments[0].Position)
	assert.Equal(t, ir.Offsets{14, 26}, res.Comments[1].Position)

	require.Len(t, res.Statements, 1)
	assert.Equal(t, "#a              1", res.Statements[0].Text)
	assert.Len(t, res.Clean, len(body))
}

func TestScan_ManyCommentsAllocateLinearly(t *testing.T) {
	const n = 64 << 10
	body := "#a 1 " + strings.Repeat("/**/", n/4)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	res := Scan(body, 0)
	runtime.ReadMemStats(&after)

	assert.Len(t, res.Comments, n/4)
	assert.Empty(t, res.Problems)
	require.Len(t, res.Statements, 1)
	assert.Equal(t, "#a 1", res.Statements[0].Text)

	// Copying the tail of the body once per comment would allocate
	// hundreds of megabytes here.
	allocated := after.TotalAlloc - before.TotalAlloc
	assert.Less(t, allocated, uint64(64*n), "allocated %d bytes for a %d byte body", allocated, len(body))
}

func TestScan_MarkersInsideCommentsIgnored(t *testing.T) {
	res := Scan("#a 1 /* #b @c */", 0)

	require.Len(t, res.Statements, 1)
	assert.Equal(t, "#a 1", res.Statements[0].Text)
}

func TestScan_UnterminatedComment(t *testing.T) {
	res := Scan("#a 1 /* never closed", 0)

	assert.Equal(t, []ir.ErrorCode{ir.UnexpectedEndOfComment}, codes(res.Problems))
	assert.Equal(t, ir.Offsets{5, 20}, res.Problems[0].Position)
	require.Len(t, res.Statements, 1)
	assert.Equal(t, "#a 1", res.Statements[0].Text)
}

func TestScan_CommentInsideImport(t *testing.T) {
	res := Scan("@ /* no */ 0xabc\n", 0)

	assert.Equal(t, []ir.ErrorCode{ir.UnexpectedComment}, codes(res.Problems))
	assert.Equal(t, ir.Offsets{2, 10}, res.Problems[0].Position)
}

func TestScan_CommentAfterImportAllowed(t *testing.T) {
	res := Scan("@ 0xabc /* trailing */\n/* next */\n#a 1", 0)

	assert.Empty(t, res.Problems)
	require.Len(t, res.Statements, 2)
	assert.Equal(t, "@ 0xabc", res.Statements[0].Text)
}

func TestScan_IllegalChar(t *testing.T) {
	body := "#a 1\x01 é"

	res := Scan(body, 3)

	require.Len(t, res.Problems, 2)
	assert.Equal(t, ir.IllegalChar, res.Problems[0].Code)
	assert.Equal(t, ir.Offsets{7, 8}, res.Problems[0].Position)
	assert.Equal(t, ir.IllegalChar, res.Problems[1].Code)
	assert.Equal(t, ir.Offsets{9, 11}, res.Problems[1].Position, "multi-byte rune covers its full width")

	require.Len(t, res.Statements, 1)
	assert.Equal(t, "#a 1", res.Statements[0].Text)
}

func TestScan_TextBeforeFirstStatement(t *testing.T) {
	res := Scan("stray words\n#a 1", 0)

	assert.Equal(t, []ir.ErrorCode{ir.UnexpectedToken, ir.UnexpectedToken}, codes(res.Problems))
	assert.Equal(t, ir.Offsets{0, 5}, res.Problems[0].Position)
	assert.Equal(t, ir.Offsets{6, 11}, res.Problems[1].Position)
	require.Len(t, res.Statements, 1)
}

func TestFields(t *testing.T) {
	got := Fields("@ns.a  0xab 'x y", 4)

	require.Len(t, got, 4)
	assert.Equal(t, Field{Text: "@ns.a", Position: ir.Offsets{4, 9}}, got[0])
	assert.Equal(t, Field{Text: "0xab", Position: ir.Offsets{11, 15}}, got[1])
	assert.Equal(t, Field{Text: "'x", Position: ir.Offsets{16, 18}}, got[2])
	assert.Equal(t, Field{Text: "y", Position: ir.Offsets{19, 20}}, got[3])
}
