// Package position answers "what is at this offset" for a parsed document.
//
// An Index is built once per snapshot and flattens every positioned part
// of the document (comments, front matter, imports and their configs,
// binding statements and their expression trees) into ranges. Lookups
// return the smallest range containing the offset. Identifiers carry the
// namespace element they resolve to, so hovering a reference to an
// imported binding reaches the imported record.
//
// Offsets are byte offsets into the document text. Position converts them
// to zero-based lines and UTF-16 columns as editors count them.
package position
