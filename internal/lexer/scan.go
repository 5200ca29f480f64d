package lexer

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/roach88/dotrain/internal/ir"
)

// StatementKind distinguishes top-level statements.
type StatementKind int

const (
	ImportStatement StatementKind = iota
	BindingStatement
)

func (k StatementKind) String() string {
	if k == ImportStatement {
		return "import"
	}
	return "binding"
}

var commentEnd = []byte("*/")

// Comment is a /* ... */ comment.
type Comment struct {
	Text     string
	Position ir.Offsets
}

// Statement is a top-level statement. Text is the cleaned statement text,
// starting at its '@' or '#' marker, with trailing whitespace removed.
type Statement struct {
	Kind     StatementKind
	Text     string
	Position ir.Offsets
}

// Result is the output of Scan.
type Result struct {
	// Clean is the scanned text with comments and illegal characters
	// blanked. Clean[i] corresponds to document offset Offset+i.
	Clean      string
	Offset     int
	Comments   []Comment
	Statements []Statement
	Problems   []ir.Problem
}

// Scan splits body, which starts at document offset offset, into comments
// and statements. It never fails: malformed input produces problems.
func Scan(body string, offset int) Result {
	res := Result{Offset: offset}
	clean := []byte(body)

	blankIllegal(body, offset, clean, &res.Problems)

	var (
		stmtStart = -1
		stmtKind  StatementKind
		i         = 0
		// comments seen since the current import statement started
		importComments []ir.Offsets
	)
	closeStatement := func(end int) {
		if stmtStart < 0 {
			return
		}
		text := strings.TrimRight(string(clean[stmtStart:end]), " \t\r\n")
		pos := ir.Offsets{offset + stmtStart, offset + stmtStart + len(text)}
		res.Statements = append(res.Statements, Statement{Kind: stmtKind, Text: text, Position: pos})
		// Comments trailing an import are fine; comments inside one are not.
		for _, c := range importComments {
			if c.Start() < pos.End() {
				res.Problems = append(res.Problems, ir.NewProblem(ir.UnexpectedComment, "unexpected comment", c))
			}
		}
		importComments = importComments[:0]
		stmtStart = -1
	}

	for i < len(clean) {
		if clean[i] == '/' && i+1 < len(clean) && clean[i+1] == '*' {
			end := bytes.Index(clean[i+2:], commentEnd)
			stop := len(clean)
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			pos := ir.Offsets{offset + i, offset + stop}
			res.Comments = append(res.Comments, Comment{Text: body[i:stop], Position: pos})
			if end < 0 {
				res.Problems = append(res.Problems, ir.NewProblem(ir.UnexpectedEndOfComment, "unexpected end of comment", pos))
			}
			if stmtStart >= 0 && stmtKind == ImportStatement {
				importComments = append(importComments, pos)
			}
			for j := i; j < stop; j++ {
				if clean[j] != '\n' {
					clean[j] = ' '
				}
			}
			i = stop
			continue
		}

		switch c := clean[i]; {
		case c == '@' || c == '#':
			closeStatement(i)
			stmtStart = i
			stmtKind = BindingStatement
			if c == '@' {
				stmtKind = ImportStatement
			}
			i++
		case stmtStart < 0 && !isSpace(c):
			j := i
			for j < len(clean) && !isSpace(clean[j]) && clean[j] != '@' && clean[j] != '#' && !startsComment(clean, j) {
				j++
			}
			res.Problems = append(res.Problems, ir.NewProblem(ir.UnexpectedToken, "unexpected token", ir.Offsets{offset + i, offset + j}))
			i = j
		default:
			i++
		}
	}
	closeStatement(len(clean))

	res.Clean = string(clean)
	ir.SortProblems(res.Problems)
	return res
}

// blankIllegal reports and blanks every illegal character: non-printable
// ASCII other than tab, newline and carriage return, and anything outside
// ASCII.
func blankIllegal(body string, offset int, clean []byte, problems *[]ir.Problem) {
	for i := 0; i < len(body); {
		r, size := utf8.DecodeRuneInString(body[i:])
		if isLegal(r) {
			i += size
			continue
		}
		*problems = append(*problems, ir.NewProblem(ir.IllegalChar, "illegal character", ir.Offsets{offset + i, offset + i + size}))
		for j := i; j < i+size; j++ {
			clean[j] = ' '
		}
		i += size
	}
}

func isLegal(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r < 0x7f:
		return true
	default:
		return false
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func startsComment(b []byte, i int) bool {
	return b[i] == '/' && i+1 < len(b) && b[i+1] == '*'
}

// Field is a whitespace-separated run of text.
type Field struct {
	Text     string
	Position ir.Offsets
}

// Fields splits text, which starts at document offset offset, on whitespace.
func Fields(text string, offset int) []Field {
	var out []Field
	for i := 0; i < len(text); {
		if isSpace(text[i]) {
			i++
			continue
		}
		j := i
		for j < len(text) && !isSpace(text[j]) {
			j++
		}
		out = append(out, Field{Text: text[i:j], Position: ir.Offsets{offset + i, offset + j}})
		i = j
	}
	return out
}
