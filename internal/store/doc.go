// Package store records generation runs in SQLite.
//
// Each run stores the canonical mapping table of one library and one row per
// emitted identifier:
//   - Runs: library, version, target, fingerprint and the mapping table
//   - Entries: identifier, declaration id, C++ path and entry detail
//
// # Invariants
//
// Runs are idempotent per (library, target, fingerprint): writing the same
// output twice returns the first run.
//
// Ordering uses the seq column (a logical clock), never timestamps. All
// queries order by seq then position so results are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Declaration ids and fingerprints come from internal/ir/hash.go, using
// RFC 8785 canonical JSON and SHA-256 with domain separation.
package store
