// Package store provides SQLite-backed storage for compiled rule bases.
//
// Each build session is written once, in one transaction:
//   - Sessions: builder strategy, reactivity policy and versions
//   - Rule patterns: pattern type and binding per compiled rule
//   - Descriptors: canonical JSON, content hash, index key and DSL text of
//     every constraint and binding descriptor
//   - Rule failures: the error of every rule that did not compile
//   - Field ids: the session's (pattern type, field) to id assignment
//
// # Deterministic Query Results
//
// Every read orders by stable keys (session seq, rule name COLLATE BINARY,
// pattern, position), never by insertion order, so reading a session twice
// yields identical results.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Descriptor hashes and index keys are computed by internal/ir using RFC 8785
// canonical JSON and SHA-256 with domain separation.
package store
