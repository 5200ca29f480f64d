package ir

import (
	"fmt"
	"slices"
)

// ErrorCode identifies a diagnostic. Codes are stable and grouped in bands
// of 0x100 so consumers can match on the category without comparing strings.
type ErrorCode int

// General errors (0x000).
const (
	IllegalChar ErrorCode = iota
	RuntimeError
	CircularDependency
	UnresolvableDependencies
	DeepImport
	DeepNamespace
	CorruptMeta
	ElidedBinding
	SingletonWords
	MultipleWords
	InconsumableMeta
	NamespaceOccupied
	CollidingNamespaceNodes
	EmptyDocument
	InvalidFrontMatter
)

// Reference and resolution errors (0x100).
const (
	UndefinedWord ErrorCode = 0x101 + iota
	UndefinedMeta
	UndefinedIdentifier
	UndefinedNamespaceMember
	UndefinedDeployer
	UndefinedBinding
)

// Invalid construct errors (0x200).
const (
	InvalidWordPattern ErrorCode = 0x201 + iota
	InvalidExpression
	InvalidNamespaceReference
	InvalidEmptyBinding
	InvalidHash
	InvalidImport
	InvalidSelfReference
)

// Unexpected token errors (0x300).
const (
	UnexpectedToken ErrorCode = 0x301 + iota
	UnexpectedClosingParen
	UnexpectedLiteral
	UnexpectedRebinding
	UnexpectedEndOfComment
	UnexpectedComment
)

// Expected token errors (0x400).
const (
	ExpectedOpcode ErrorCode = 0x401 + iota
	ExpectedOpeningParen
	ExpectedClosingParen
	ExpectedClosingAngleBracket
	ExpectedColon
	ExpectedHash
	ExpectedName
	ExpectedRename
	ExpectedElisionOrRebinding
)

// Shape mismatch errors (0x500).
const (
	MismatchRHS ErrorCode = 0x501 + iota
	MismatchLHS
)

// Value range errors (0x600).
const (
	OutOfRangeInputs ErrorCode = 0x601 + iota
	OutOfRangeOperandArgs
	OutOfRangeValue
)

// Duplication errors (0x700).
const (
	DuplicateAlias ErrorCode = 0x701 + iota
	DuplicateIdentifier
	DuplicateImport
)

var codeNames = map[ErrorCode]string{
	IllegalChar:                 "IllegalChar",
	RuntimeError:                "RuntimeError",
	CircularDependency:          "CircularDependency",
	UnresolvableDependencies:    "UnresolvableDependencies",
	DeepImport:                  "DeepImport",
	DeepNamespace:               "DeepNamespace",
	CorruptMeta:                 "CorruptMeta",
	ElidedBinding:               "ElidedBinding",
	SingletonWords:              "SingletonWords",
	MultipleWords:               "MultipleWords",
	InconsumableMeta:            "InconsumableMeta",
	NamespaceOccupied:           "NamespaceOccupied",
	CollidingNamespaceNodes:     "CollidingNamespaceNodes",
	EmptyDocument:               "EmptyDocument",
	InvalidFrontMatter:          "InvalidFrontMatter",
	UndefinedWord:               "UndefinedWord",
	UndefinedMeta:               "UndefinedMeta",
	UndefinedIdentifier:         "UndefinedIdentifier",
	UndefinedNamespaceMember:    "UndefinedNamespaceMember",
	UndefinedDeployer:           "UndefinedDeployer",
	UndefinedBinding:            "UndefinedBinding",
	InvalidWordPattern:          "InvalidWordPattern",
	InvalidExpression:           "InvalidExpression",
	InvalidNamespaceReference:   "InvalidNamespaceReference",
	InvalidEmptyBinding:         "InvalidEmptyBinding",
	InvalidHash:                 "InvalidHash",
	InvalidImport:               "InvalidImport",
	InvalidSelfReference:        "InvalidSelfReference",
	UnexpectedToken:             "UnexpectedToken",
	UnexpectedClosingParen:      "UnexpectedClosingParen",
	UnexpectedLiteral:           "UnexpectedLiteral",
	UnexpectedRebinding:         "UnexpectedRebinding",
	UnexpectedEndOfComment:      "UnexpectedEndOfComment",
	UnexpectedComment:           "UnexpectedComment",
	ExpectedOpcode:              "ExpectedOpcode",
	ExpectedOpeningParen:        "ExpectedOpeningParen",
	ExpectedClosingParen:        "ExpectedClosingParen",
	ExpectedClosingAngleBracket: "ExpectedClosingAngleBracket",
	ExpectedColon:               "ExpectedColon",
	ExpectedHash:                "ExpectedHash",
	ExpectedName:                "ExpectedName",
	ExpectedRename:              "ExpectedRename",
	ExpectedElisionOrRebinding:  "ExpectedElisionOrRebinding",
	MismatchRHS:                 "MismatchRHS",
	MismatchLHS:                 "MismatchLHS",
	OutOfRangeInputs:            "OutOfRangeInputs",
	OutOfRangeOperandArgs:       "OutOfRangeOperandArgs",
	OutOfRangeValue:             "OutOfRangeValue",
	DuplicateAlias:              "DuplicateAlias",
	DuplicateIdentifier:         "DuplicateIdentifier",
	DuplicateImport:             "DuplicateImport",
}

// String returns the stable name of the code.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%#x)", int(c))
}

// ParseErrorCode is the inverse of ErrorCode.String.
func ParseErrorCode(name string) (ErrorCode, bool) {
	for code, n := range codeNames {
		if n == name {
			return code, true
		}
	}
	return 0, false
}

// Category returns the band the code belongs to (0x000, 0x100, ... 0x700).
func (c ErrorCode) Category() ErrorCode {
	return c &^ 0xff
}

// Offsets is a half-open [start, end) byte range into a document.
type Offsets [2]int

// Start returns the first byte offset.
func (o Offsets) Start() int { return o[0] }

// End returns the offset one past the last byte.
func (o Offsets) End() int { return o[1] }

// Len returns the number of bytes covered.
func (o Offsets) Len() int { return o[1] - o[0] }

// Contains reports whether offset lies inside the range. An empty range
// contains its own start so zero-width diagnostics remain addressable.
func (o Offsets) Contains(offset int) bool {
	if o[0] == o[1] {
		return offset == o[0]
	}
	return offset >= o[0] && offset < o[1]
}

// Shift returns the range moved by delta bytes.
func (o Offsets) Shift(delta int) Offsets {
	return Offsets{o[0] + delta, o[1] + delta}
}

// Problem is a positioned diagnostic.
type Problem struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"msg"`
	Position Offsets   `json:"position"`
}

// NewProblem creates a Problem.
func NewProblem(code ErrorCode, msg string, pos Offsets) Problem {
	return Problem{Code: code, Message: msg, Position: pos}
}

// Error implements the error interface so a Problem can travel through
// error-returning call chains and be recovered with errors.As.
func (p *Problem) Error() string {
	return fmt.Sprintf("%s [%d,%d): %s", p.Code, p.Position[0], p.Position[1], p.Message)
}

// SortProblems orders problems by start offset, keeping insertion order for ties.
func SortProblems(problems []Problem) {
	slices.SortStableFunc(problems, func(a, b Problem) int {
		return a.Position[0] - b.Position[0]
	})
}
