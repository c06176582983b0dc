// Package flatten rewrites callables into free functions with an explicit
// receiver, the shape every entry point takes across the boundary.
package flatten

import (
	"fmt"
	"strconv"

	"github.com/roach88/flatbind/internal/bridge"
	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/project"
	"github.com/roach88/flatbind/internal/symbol"
)

// Flat member names of constructors and destructors.
const (
	CtorName = symbol.CtorMember
	DtorName = symbol.DtorMember
)

// Flattener flattens the callables of one run. Overload disambiguators are
// assigned in the order Flatten is called, which must be the model's
// enumeration order.
type Flattener struct {
	proj      *project.Projector
	enc       *symbol.Encoder
	overloads symbol.Overloads
}

// New creates a Flattener projecting through p.
func New(p *project.Projector) *Flattener {
	return &Flattener{proj: p, enc: p.Encoder()}
}

// Flatten projects member of record into a BoundFunction. record is nil for
// free functions.
func (f *Flattener) Flatten(record, member *ir.Decl) (*ir.BoundFunction, error) {
	path := member.Qualified()
	if record != nil {
		path = record.MemberPath(member)
	}

	bf := &ir.BoundFunction{
		Source: member,
		Record: record,
		Throws: member.Throws(),
	}

	var (
		name symbol.Name
		err  error
	)
	switch member.Kind {
	case ir.KindFunction:
		bf.Kind, bf.Name = ir.FuncFree, member.Name
		name, err = f.enc.DeclName(member)
	case ir.KindMethod:
		bf.Kind, bf.Name = ir.FuncMethod, member.Name
		if member.Static {
			bf.Kind = ir.FuncStatic
		}
	case ir.KindConstructor:
		bf.Kind, bf.Name = ir.FuncConstructor, CtorName
	case ir.KindDestructor:
		bf.Kind, bf.Name = ir.FuncDestructor, DtorName
	case ir.KindOperator:
		bf.Kind = ir.FuncOperator
		bf.Name, bf.Mutating, err = OperatorName(member.Operator, len(member.Params))
		if err != nil {
			return nil, ir.NewLayoutError(path, "%v", err)
		}
	default:
		return nil, ir.NewLayoutError(path, "%s is not callable", member.Kind)
	}
	if record == nil && member.Kind != ir.KindFunction {
		return nil, ir.NewLayoutError(path, "%s outside a record", member.Kind)
	}
	switch {
	case record == nil:
	case bf.Kind == ir.FuncMethod || bf.Kind == ir.FuncStatic:
		name, err = f.enc.MemberName(record, bf.Name)
	default:
		name, err = f.enc.SyntheticMemberName(record, bf.Name)
	}
	if err != nil {
		return nil, layoutErr(path, err)
	}
	bf.Symbol = symbol.Encode(f.overloads.Next(name))

	if record != nil && bf.Kind != ir.FuncStatic {
		recv, err := f.receiver(record, member, bf.Kind, path)
		if err != nil {
			return nil, err
		}
		bf.Params = append(bf.Params, recv)
	}

	for i, p := range member.Params {
		bp, err := f.param(p, i, path)
		if err != nil {
			return nil, err
		}
		bf.Params = append(bf.Params, bp)
	}

	if member.Return != nil && !member.Return.IsVoid() && bf.Kind != ir.FuncConstructor && bf.Kind != ir.FuncDestructor {
		ret, err := f.result(*member.Return, path)
		if err != nil {
			return nil, err
		}
		ref := *member.Return
		bf.Return, bf.ReturnRef = ret, &ref
	}

	return bridge.Wrap(bf, f.proj), nil
}

// receiver builds the explicit receiver of an instance member.
func (f *Flattener) receiver(record, member *ir.Decl, kind ir.FunctionKind, path string) (ir.BoundParam, error) {
	rec, err := f.proj.Decl(record)
	if err != nil {
		return ir.BoundParam{}, err
	}
	p := ir.BoundParam{Name: ir.ReceiverParam, Receiver: true, Mode: ir.PassPointer}
	switch kind {
	case ir.FuncConstructor:
		// Mirrored records construct into caller storage of the projected
		// size; opaque records receive a slot for the new handle.
		p.Mode = ir.PassSlot
		p.Type = f.proj.Pointer(rec, false)
		if rec.IsOpaque() {
			p.Type = f.proj.Pointer(p.Type, false)
		}
	default:
		p.Type = f.proj.Pointer(rec, member.Const)
	}
	return p, nil
}

// param projects one source parameter. Records cross by address, scalars
// and enums by value.
func (f *Flattener) param(p ir.Param, i int, path string) (ir.BoundParam, error) {
	name := p.Name
	if name == "" {
		name = "a" + strconv.Itoa(i)
	}
	if name == ir.ReceiverParam || name == ir.ReturnParam {
		return ir.BoundParam{}, ir.NewLayoutError(path, "parameter name %s is reserved", name)
	}
	src := p.Type
	bp := ir.BoundParam{Name: name, Source: &src}

	from := fmt.Sprintf("%s(%s)", path, name)
	switch src.Kind {
	case ir.RefPointer:
		pt, err := f.proj.Ref(src, from)
		if err != nil {
			return bp, err
		}
		bp.Type, bp.Mode = pt, ir.PassPointer
		return bp, nil
	case ir.RefReference:
		pt, err := f.proj.Ref(src, from)
		if err != nil {
			return bp, err
		}
		if pt.Elem != nil && pt.Elem.IsVoid() {
			return bp, ir.NewLayoutError(path, "parameter %s is a reference to void", name)
		}
		bp.Type, bp.Mode = pt, ir.PassAddress
		return bp, nil
	}

	pt, err := f.proj.Ref(src, from)
	if err != nil {
		return bp, err
	}
	switch {
	case pt.IsVoid():
		return bp, ir.NewLayoutError(path, "parameter %s has type void", name)
	case pt.IsRecord():
		bp.Type, bp.Mode = f.proj.Pointer(pt, true), ir.PassAddress
	default:
		bp.Type, bp.Mode = pt, ir.PassValue
	}
	return bp, nil
}

// result projects the nominal return. Opaque records cannot be returned by
// value: the caller has no storage of the right size for them.
func (f *Flattener) result(ref ir.TypeRef, path string) (*ir.ProjectedType, error) {
	pt, err := f.proj.Ref(ref, path)
	if err != nil {
		return nil, err
	}
	if ref.Kind == ir.RefNamed && pt.IsOpaque() {
		return nil, ir.NewLayoutError(path, "returns opaque %s by value", ref.Qualified())
	}
	return pt, nil
}

func layoutErr(path string, err error) error {
	switch err.(type) {
	case *ir.LayoutError, *ir.UnresolvedError:
		return err
	}
	return ir.NewLayoutError(path, "%v", err)
}
