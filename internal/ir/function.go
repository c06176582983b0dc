package ir

// FunctionKind identifies the source shape of a flattened callable.
type FunctionKind string

const (
	FuncFree        FunctionKind = "free"
	FuncStatic      FunctionKind = "static"
	FuncMethod      FunctionKind = "method"
	FuncConstructor FunctionKind = "constructor"
	FuncDestructor  FunctionKind = "destructor"
	FuncOperator    FunctionKind = "operator"
)

// ReceiverParam is the name of the explicit receiver parameter.
const ReceiverParam = "this_"

// ReturnParam is the name of the out-parameter carrying a bridged return.
const ReturnParam = "return_"

// PassMode describes how an argument crosses the boundary.
type PassMode string

const (
	PassValue    PassMode = "value"    // scalars, enums
	PassAddress  PassMode = "address"  // records, C++ by-value or by-reference
	PassPointer  PassMode = "pointer"  // C++ pointer, passed through
	PassSlot     PassMode = "slot"     // constructor storage provided by the caller
	PassOutValue PassMode = "out"      // bridged return written through the pointer
)

// BoundParam is one flattened parameter.
type BoundParam struct {
	Name     string         `json:"name"`
	Type     *ProjectedType `json:"-"`
	Mode     PassMode       `json:"mode"`
	Receiver bool           `json:"receiver,omitempty"`
	Source   *TypeRef       `json:"-"` // C++ parameter type, nil for synthesized params
}

// BoundFunction is the flattened projection of a callable. Params[0] is the
// explicit receiver iff the source is an instance member.
type BoundFunction struct {
	Symbol string       `json:"symbol"`
	Kind   FunctionKind `json:"kind"`
	Name   string       `json:"name"` // source name, "op_<name>" for operators
	Source *Decl        `json:"-"`
	Record *Decl        `json:"-"` // enclosing record, nil for free functions

	Params []BoundParam `json:"params"`

	// Return is the nominal return: what the source returns on success.
	// It is nil for void.
	Return *ProjectedType `json:"-"`
	// ReturnRef is the C++ return type, nil for void.
	ReturnRef *TypeRef `json:"-"`

	// Throws marks a bridged function: the C return is a StatusCode and a
	// non-void nominal return is written through the ReturnParam out-parameter.
	Throws bool `json:"throws"`

	// Mutating marks operators that modify the receiver and return an alias to it.
	Mutating bool `json:"mutating,omitempty"`
}

// Receiver returns the explicit receiver parameter, if any.
func (f *BoundFunction) Receiver() (BoundParam, bool) {
	if len(f.Params) > 0 && f.Params[0].Receiver {
		return f.Params[0], true
	}
	return BoundParam{}, false
}

// Inputs returns the parameters that carry source arguments, excluding the
// receiver and the bridged return slot.
func (f *BoundFunction) Inputs() []BoundParam {
	var out []BoundParam
	for _, p := range f.Params {
		if p.Receiver || p.Mode == PassOutValue {
			continue
		}
		out = append(out, p)
	}
	return out
}

// OutParam returns the bridged return slot, if any.
func (f *BoundFunction) OutParam() (BoundParam, bool) {
	if n := len(f.Params); n > 0 && f.Params[n-1].Mode == PassOutValue {
		return f.Params[n-1], true
	}
	return BoundParam{}, false
}
