// Package symbol encodes fully-qualified, versioned, possibly-templated C++
// names into flat identifiers legal in a C-linkage symbol table, and decodes
// them back.
//
// Grammar:
//
//	ident    := root ( "__" segment )+ [ "_" N ]        N >= 1, overload disambiguator
//	root     := name "_" MAJOR "_" MINOR
//	segment  := name [ targs ]
//	name     := raw | "4" LEN "_" verbatim
//	targs    := "__1" arg ( "__2" arg )* "__3"
//	arg      := token | "c" DIGITS | "cn" DIGITS | "__5" arg | "__6" arg | root ( "__" segment )*
//
// A raw name never begins or ends with an underscore, never contains "__" and
// never ends in "_<digits>"; anything else is written length-escaped. Builtin
// tokens ("float", "uint", "longlong") contain no underscore, "c"/"cn" mark
// non-negative and negative integral constants, "__5"/"__6" mark pointer and
// pointer-to-const arguments.
//
// Examples:
//
//	Imath_2_5__Vec3__1float__3__dot
//	Imath_2_5__Box__1Imath_2_5__Vec3__1int__3__3__extendBy_1
//	mylib_1_0__someFunction
//
// Type identifiers append "_t" (records) or "_e" (enums).
package symbol
