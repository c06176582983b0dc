// Package harness runs conformance scenarios against the generator.
//
// A scenario names a declaration model, runs the full pipeline over it
// (load, validate, emit, record) and checks the output against assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: imath_vec3
//	description: "Vec3<float> is mirrored and its members are bridged"
//	model: ../models/imath.yaml
//	target: lp64
//	assertions:
//	  - type: identifier
//	    identifier: Imath_2_5__Vec3__1float__3_t
//	    kind: type
//	    path: "Imath::Vec3<float>"
//	  - type: layout
//	    identifier: Imath_2_5__Vec3__1float__3_t
//	    projection: mirrored
//	    size: 12
//	    offsets: {x: 0, y: 4, z: 8}
//	  - type: function
//	    identifier: Imath_2_5__Vec3__1float__3__ctor
//	    throws: true
//
// A scenario that expects generation to fail sets `expect: error` and
// asserts on the error codes:
//
//	expect: error
//	assertions:
//	  - type: error
//	    code: E201
//	    contains: packed
//
// # Assertion Types
//
//   - identifier: an entry exists, optionally with kind and C++ path
//   - identifier_order: identifiers appear in this emission order
//   - layout: a type's projection kind, size, alignment and field offsets
//   - enum: constant values and the chosen width
//   - function: throws flag, return type and parameter types
//   - alias: a short name points at an identifier
//   - symbol_count: size of the exported symbol set
//   - error: a generation or validation error with the given code
//   - stored: the identifier can be looked up in the mapping store
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory SQLite store. Output is a
// pure function of the model and options, so golden snapshots compare
// byte for byte.
package harness
