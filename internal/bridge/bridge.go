// Package bridge implements the exception-bridging convention: every call
// that can throw reports failure through a status code returned alongside,
// never inside, its nominal result.
//
// At generation time Wrap rewrites a flattened function so its C return is the
// status and any nominal return travels through a trailing return_
// out-parameter, and ShimBody produces the C++ try/catch that feeds it. At
// call time Guard, Check and Slot give Go code the same contract.
package bridge

import (
	"github.com/roach88/flatbind/internal/ir"
)

// Contract is rendered at every bridged emission site.
const Contract = "On failure the status is non-zero and return_ is left unspecified; " +
	"reading return_ without checking the status is undefined."

// Addresser projects addresses of projected types.
type Addresser interface {
	Pointer(elem *ir.ProjectedType, isConst bool) *ir.ProjectedType
}

// Wrap returns the bridged form of f when f can throw, and f itself
// otherwise. The nominal return is preserved as the type written through the
// trailing return_ parameter.
func Wrap(f *ir.BoundFunction, a Addresser) *ir.BoundFunction {
	if !f.Throws {
		return f
	}
	if _, ok := f.OutParam(); ok {
		return f
	}

	out := *f
	out.Params = append([]ir.BoundParam(nil), f.Params...)
	if !f.Return.IsVoid() {
		out.Params = append(out.Params, ir.BoundParam{
			Name: ir.ReturnParam,
			Type: a.Pointer(f.Return, false),
			Mode: ir.PassOutValue,
		})
	}
	return &out
}

// CReturn returns the C return spelling of f: the status typedef when
// bridged, the nominal return otherwise.
func CReturn(f *ir.BoundFunction, statusType string) string {
	if f.Throws {
		return statusType
	}
	if f.Return.IsVoid() {
		return "void"
	}
	return f.Return.Ident
}
