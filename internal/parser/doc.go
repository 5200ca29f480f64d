// Package parser classifies and parses binding bodies.
//
// A body is Elided when it starts with '!', Constant when it is a single
// numeric literal, and an Expression otherwise:
//
//	sources := source (';' source)* [';']
//	source  := line (',' line)*
//	line    := lhs ':' rhs
//	lhs     := (name | '_')*
//	rhs     := item*
//	item    := literal | path | path ['<' literal* '>'] '(' item* ')'
//
// Parsing never stops at the first error. Each malformed construct adds a
// positioned problem and the parser resynchronises at the next ',' or ';'.
// Identifiers and words are resolved against a namespace scope while
// parsing; the binding's dependencies are the sorted binding paths it
// references.
package parser
