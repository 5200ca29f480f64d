// Package document implements the .rain document lifecycle.
//
// A Document owns a URI, a MetaStore and the most recent parse result, an
// immutable Snapshot. Create and Update parse synchronously against cached
// metadata only; CreateAsync and UpdateAsync may fetch missing imports
// through the store before parsing.
//
// Parsing runs in a fixed order:
//
//  1. front matter split and YAML check (fatal on failure)
//  2. top-level scan into comments, import and binding statements
//  3. import resolution in declaration order, splicing each resolved
//     payload into the namespace
//  4. binding classification, then expression parsing against the final
//     namespace
//  5. dependency cycle detection over the document's own bindings
//
// Snapshots are published through an atomic pointer with compare-and-swap,
// so readers never see a partially built namespace and the update that
// completes last wins. Updates on one document should be serialised by the
// caller; the store may be shared by any number of documents.
package document
