// Package project decides how each C++ type crosses the ABI boundary.
//
// # Policy
//
// Applied in order to every record and enum the model references:
//   - Records whose layout cannot be reproduced (bases, virtual members,
//     non-public fields, fields of opaque type) become opaque handles.
//   - Enums become fixed-width integer wrappers sized to their constants.
//   - Aggregates of scalars, enums, pointers and mirrored records become
//     mirrored structs laid out with natural C rules.
//   - Template instantiations wrap one of the above.
//
// A record may override the policy with repr: opaque, or with repr: bytes to
// mirror a measured size and alignment without exposing fields.
//
// # Memoization
//
// Projections are memoized per run by their C identifier, so two references to
// the same type share one *ir.ProjectedType. Entries are never removed.
package project
