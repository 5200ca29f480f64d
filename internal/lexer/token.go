package lexer

import (
	"fmt"

	"github.com/roach88/dotrain/internal/ir"
)

// TokenKind classifies an expression token.
type TokenKind int

const (
	EOF TokenKind = iota
	Word
	Literal
	LParen
	RParen
	LAngle
	RAngle
	Colon
	Comma
	Semicolon
	Unknown
)

var tokenNames = [...]string{
	EOF:       "end of input",
	Word:      "word",
	Literal:   "literal",
	LParen:    "'('",
	RParen:    "')'",
	LAngle:    "'<'",
	RAngle:    "'>'",
	Colon:     "':'",
	Comma:     "','",
	Semicolon: "';'",
	Unknown:   "unknown",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one expression token.
type Token struct {
	Kind     TokenKind
	Text     string
	Position ir.Offsets
}

var punctuation = map[byte]TokenKind{
	'(': LParen,
	')': RParen,
	'<': LAngle,
	'>': RAngle,
	':': Colon,
	',': Comma,
	';': Semicolon,
}

// ScanExpression tokenizes cleaned binding body text that starts at
// document offset offset. The result always ends with an EOF token.
//
// Words are runs of letters, digits, '_', '-' and '.' that do not start
// with a digit; they cover names, dotted paths and the '_' placeholder.
// Literals start with a digit and run over letters and digits, so
// malformed literals arrive as one token for the parser to reject.
func ScanExpression(text string, offset int) []Token {
	var toks []Token
	emit := func(kind TokenKind, start, end int) {
		toks = append(toks, Token{Kind: kind, Text: text[start:end], Position: ir.Offsets{offset + start, offset + end}})
	}

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case isSpace(c):
			i++
		case punctuation[c] != EOF:
			emit(punctuation[c], i, i+1)
			i++
		case isDigit(c):
			j := i + 1
			for j < len(text) && (isDigit(text[j]) || isLetter(text[j])) {
				j++
			}
			emit(Literal, i, j)
			i = j
		case isWordStart(c):
			j := i + 1
			for j < len(text) && isWordChar(text[j]) {
				j++
			}
			emit(Word, i, j)
			i = j
		default:
			j := i + 1
			for j < len(text) && !isSpace(text[j]) && punctuation[text[j]] == EOF && !isWordStart(text[j]) && !isDigit(text[j]) {
				j++
			}
			emit(Unknown, i, j)
			i = j
		}
	}
	toks = append(toks, Token{Kind: EOF, Position: ir.Offsets{offset + len(text), offset + len(text)}})
	return toks
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }

func isWordStart(c byte) bool {
	return isLetter(c) || c == '_' || c == '.'
}

func isWordChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '-' || c == '.'
}
