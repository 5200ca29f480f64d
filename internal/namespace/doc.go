// Package namespace implements the tree of names a document resolves
// against: its own bindings plus everything spliced in by imports.
//
// A Namespace is an arena of nodes addressed by NodeID with the root at
// index 0. It is immutable once built and safe to share between readers.
// Changes go through a Builder, which owns a private copy of the arena and
// freezes a new Namespace on Build.
//
// Nodes are branches (named children plus an optional default deployer)
// or elements: a binding, a word or a deployer. Siblings never share a
// name. Every binding records the branch its own references resolve
// against (its scope), so bindings imported from another document keep
// resolving inside the subtree they were mounted at.
package namespace
