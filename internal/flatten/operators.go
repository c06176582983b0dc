package flatten

import (
	"fmt"

	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/symbol"
)

type operator struct {
	name     string
	mutating bool // modifies the receiver and returns an alias to it
}

// Keyed by spelling, then by explicit operand count (receiver excluded).
var operators = map[string]map[int]operator{
	"+":   {0: {name: "pos"}, 1: {name: "add"}},
	"-":   {0: {name: "neg"}, 1: {name: "sub"}},
	"*":   {0: {name: "deref"}, 1: {name: "mul"}},
	"&":   {0: {name: "addr"}, 1: {name: "band"}},
	"/":   {1: {name: "div"}},
	"%":   {1: {name: "mod"}},
	"^":   {1: {name: "bxor"}},
	"|":   {1: {name: "bor"}},
	"~":   {0: {name: "bnot"}},
	"!":   {0: {name: "not"}},
	"<":   {1: {name: "lt"}},
	">":   {1: {name: "gt"}},
	"<=":  {1: {name: "le"}},
	">=":  {1: {name: "ge"}},
	"==":  {1: {name: "eq"}},
	"!=":  {1: {name: "ne"}},
	"&&":  {1: {name: "and"}},
	"||":  {1: {name: "or"}},
	"<<":  {1: {name: "shl"}},
	">>":  {1: {name: "shr"}},
	"[]":  {1: {name: "index"}},
	"->":  {0: {name: "arrow"}},
	"=":   {1: {name: "assign", mutating: true}},
	"+=":  {1: {name: "iadd", mutating: true}},
	"-=":  {1: {name: "isub", mutating: true}},
	"*=":  {1: {name: "imul", mutating: true}},
	"/=":  {1: {name: "idiv", mutating: true}},
	"%=":  {1: {name: "imod", mutating: true}},
	"^=":  {1: {name: "ixor", mutating: true}},
	"&=":  {1: {name: "iand", mutating: true}},
	"|=":  {1: {name: "ior", mutating: true}},
	"<<=": {1: {name: "ishl", mutating: true}},
	">>=": {1: {name: "ishr", mutating: true}},
	"++":  {0: {name: "inc", mutating: true}, 1: {name: "postinc"}},
	"--":  {0: {name: "dec", mutating: true}, 1: {name: "postdec"}},
}

// OperatorName returns the flat member name of a C++ operator given its
// spelling and operand count, e.g. "op_iadd" for "+=" with one operand.
// Conversion operators to builtins are named "op_to_<token>".
func OperatorName(spelling string, operands int) (name string, mutating bool, err error) {
	if spelling == "()" {
		return symbol.OperatorPrefix + "call", false, nil
	}
	if byArity, ok := operators[spelling]; ok {
		op, ok := byArity[operands]
		if !ok {
			return "", false, fmt.Errorf("operator%s does not take %d operands", spelling, operands)
		}
		return symbol.OperatorPrefix + op.name, op.mutating, nil
	}
	if token, ok := ir.BuiltinToken(spelling); ok && operands == 0 {
		return symbol.OperatorPrefix + "to_" + token, false, nil
	}
	return "", false, fmt.Errorf("unsupported operator %q", spelling)
}
