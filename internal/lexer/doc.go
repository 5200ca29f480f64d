// Package lexer splits .rain document text into front matter, comments and
// top-level statements, and tokenizes binding bodies.
//
// All offsets are byte offsets into the full document, including the
// front matter, so problems can be reported without translation.
//
// Illegal characters and comments are blanked out in the cleaned text
// (replaced by spaces of the same byte length). Later stages work on the
// cleaned text and never see them, while every offset stays valid against
// the original.
package lexer
