// Package metastore provides the in-memory, hash-addressed metadata cache
// shared by every open document.
//
// # Invariants
//
// Content addressing: a payload is only ever stored under the Keccak-256
// hash of its own bytes. UpdateWith verifies this and remote resolution
// discards mismatching payloads, so Get(h) never returns foreign content.
//
// Immutability: entries are never overwritten. Merge is a left-biased
// union, so merging the same store twice is a no-op.
//
// Deduplication: concurrent Update calls for one hash share a single
// remote resolution. Late callers wait on the in-flight result instead
// of querying the sources again.
//
// Documents: the text of every open document is cached as a Dotrain
// payload and the store tracks which URI currently maps to which hash.
// A hash still bound to some URI is never evicted.
//
// The cache lives for the process only; nothing is persisted.
package metastore
