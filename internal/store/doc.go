// Package store provides a SQLite-backed local registry of metadata payloads.
//
// The registry is an upstream source for the in-memory cache: a Store
// implements resolver.Source, so payloads published locally resolve the
// same way as payloads served by a subgraph. The cache itself is never
// written back here.
//
// # Rules
//
//   - Rows are keyed by content hash and never updated; Put is idempotent.
//   - Payloads with a known magic are validated before insert.
//   - List orders by seq (insertion order), then hash COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Schema changes are applied through PRAGMA user_version migrations.
package store
