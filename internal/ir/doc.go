// Package ir provides the declaration model and projection types for flatbind.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Declarations are read-only once loaded; every stage consumes them by pointer
//   - Every identifier carries an explicit (namespace, version) pair, no global registry
//   - Output order is input order; nothing is re-sorted
//   - Canonical JSON (RFC 8785) is the only serialization used for fingerprints
package ir
