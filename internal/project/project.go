package project

import (
	"errors"

	"go.uber.org/zap"

	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/symbol"
)

// Options configures a Projector.
type Options struct {
	// Target supplies builtin sizes and alignments. Nil means LP64.
	Target *ir.Target
	// AllowSignedEnums projects enums with negative constants as signed
	// integers instead of failing.
	AllowSignedEnums bool
}

// Projector projects declarations and type references of one model. It is
// not safe for concurrent use; create one per run.
type Projector struct {
	enc    *symbol.Encoder
	target *ir.Target
	opts   Options

	memo    map[string]*ir.ProjectedType
	failed  map[string]error               // declarations that cannot be projected, by identifier
	active  map[string]bool                // records being laid out, for containment cycles
	pending map[string][]*ir.ProjectedType // pointers to active records, patched when they finish
	void    *ir.ProjectedType
}

// New creates a Projector resolving references through enc.
func New(enc *symbol.Encoder, opts Options) *Projector {
	target := opts.Target
	if target == nil {
		target = ir.DefaultTarget()
	}
	return &Projector{
		enc:     enc,
		target:  target,
		opts:    opts,
		memo:    make(map[string]*ir.ProjectedType),
		failed:  make(map[string]error),
		active:  make(map[string]bool),
		pending: make(map[string][]*ir.ProjectedType),
		void:    &ir.ProjectedType{Kind: ir.ProjVoid, Ident: "void"},
	}
}

// Target returns the target the projector lays types out for.
func (p *Projector) Target() *ir.Target {
	return p.target
}

// Encoder returns the encoder shared with the projector.
func (p *Projector) Encoder() *symbol.Encoder {
	return p.enc
}

// Projected returns the number of memoized projections.
func (p *Projector) Projected() int {
	return len(p.memo)
}

// Ref projects a type reference appearing in a field, parameter, return or
// template argument position. References project like pointers: both cross
// the boundary as an address. from names the referencing declaration in
// errors.
func (p *Projector) Ref(ref ir.TypeRef, from string) (*ir.ProjectedType, error) {
	switch ref.Kind {
	case ir.RefBuiltin:
		return p.scalar(ref.Builtin, from)
	case ir.RefNamed:
		d, err := p.enc.Resolve(ref, from)
		if err != nil {
			return nil, err
		}
		return p.Decl(d)
	case ir.RefPointer, ir.RefReference:
		if ref.Elem == nil {
			return nil, ir.NewLayoutError(from, "%s without element type", ref.Kind)
		}
		if pt, ok, err := p.forward(*ref.Elem, ref.Const, from); ok || err != nil {
			return pt, err
		}
		elem, err := p.Ref(*ref.Elem, from)
		if err != nil {
			return nil, err
		}
		return p.Pointer(elem, ref.Const), nil
	case ir.RefConstant:
		return nil, ir.NewLayoutError(from, "integral constant %d used as a type", ref.Value)
	default:
		return nil, ir.NewLayoutError(from, "unknown type reference kind %q", ref.Kind)
	}
}

// Pointer returns the projection of an address of elem.
func (p *Projector) Pointer(elem *ir.ProjectedType, isConst bool) *ir.ProjectedType {
	ident := elem.Ident + "*"
	if isConst {
		if elem.Kind == ir.ProjPointer {
			ident = elem.Ident + " const*"
		} else {
			ident = "const " + elem.Ident + "*"
		}
	}
	if cached, ok := p.memo[ident]; ok {
		return cached
	}
	pt := &ir.ProjectedType{
		Kind:  ir.ProjPointer,
		Ident: ident,
		Size:  p.target.PointerSize,
		Align: p.target.PointerAlign,
		Elem:  elem,
		Const: isConst,
	}
	p.memo[ident] = pt
	return pt
}

// forward handles an address of a record that is still being laid out, as
// in a linked-list node pointing at its own type. The pointer's Elem is
// filled in once the record's projection completes.
func (p *Projector) forward(elem ir.TypeRef, isConst bool, from string) (*ir.ProjectedType, bool, error) {
	if elem.Kind != ir.RefNamed {
		return nil, false, nil
	}
	d, err := p.enc.Resolve(elem, from)
	if err != nil {
		return nil, false, err
	}
	name, err := p.enc.DeclName(d)
	if err != nil {
		return nil, false, typed(d.Qualified(), err)
	}
	ident := symbol.TypeIdent(name, d.Kind)
	if !p.active[ident] {
		return nil, false, nil
	}

	pident := ident + "*"
	if isConst {
		pident = "const " + pident
	}
	if cached, ok := p.memo[pident]; ok {
		return cached, true, nil
	}
	pt := &ir.ProjectedType{
		Kind:  ir.ProjPointer,
		Ident: pident,
		Size:  p.target.PointerSize,
		Align: p.target.PointerAlign,
		Const: isConst,
	}
	p.memo[pident] = pt
	p.pending[ident] = append(p.pending[ident], pt)
	return pt, true, nil
}

// Void returns the shared void projection.
func (p *Projector) Void() *ir.ProjectedType {
	return p.void
}

func (p *Projector) scalar(spelling, from string) (*ir.ProjectedType, error) {
	if spelling == "void" {
		return p.void, nil
	}
	b, ok := p.target.Builtin(spelling)
	if !ok {
		return nil, ir.NewLayoutError(from, "unknown builtin type %q", spelling)
	}
	if cached, ok := p.memo[b.CName]; ok {
		return cached, nil
	}
	pt := &ir.ProjectedType{
		Kind:    ir.ProjScalar,
		Ident:   b.CName,
		Size:    b.Size,
		Align:   b.Align,
		Signed:  b.Signed,
		Builtin: &b,
	}
	p.memo[b.CName] = pt
	return pt, nil
}

// Decl projects a record or enum declaration.
func (p *Projector) Decl(d *ir.Decl) (*ir.ProjectedType, error) {
	name, err := p.enc.DeclName(d)
	if err != nil {
		return nil, typed(d.Qualified(), err)
	}
	ident := symbol.TypeIdent(name, d.Kind)
	if cached, ok := p.memo[ident]; ok {
		return cached, nil
	}
	if err, ok := p.failed[ident]; ok {
		return nil, err
	}

	var pt *ir.ProjectedType
	switch {
	case d.Kind == ir.KindEnum:
		pt, err = p.enum(d, ident)
	case d.Kind.IsRecord():
		pt, err = p.templated(d, ident)
	default:
		return nil, ir.NewLayoutError(d.Qualified(), "%s is not a type", d.Kind)
	}
	if err != nil {
		p.failed[ident] = err
		return nil, err
	}

	p.memo[ident] = pt
	for _, ptr := range p.pending[ident] {
		ptr.Elem = pt
	}
	delete(p.pending, ident)
	Logger().Debug("projected type",
		zap.String("decl", d.Qualified()),
		zap.String("ident", ident),
		zap.String("kind", string(pt.Kind)),
		zap.Int("size", pt.Size),
		zap.Int("align", pt.Align))
	return pt, nil
}

func (p *Projector) templated(d *ir.Decl, ident string) (*ir.ProjectedType, error) {
	repr, err := p.record(d, ident)
	if err != nil {
		return nil, err
	}
	if len(d.TemplateArgs) == 0 {
		return repr, nil
	}

	inst := &ir.ProjectedType{
		Kind:  ir.ProjTemplate,
		Ident: ident,
		Decl:  d,
		Size:  repr.Size,
		Align: repr.Align,
		Base:  ir.NamedRef(d.Namespace, d.Name).Qualified(),
		Repr:  repr,
	}
	for _, a := range d.TemplateArgs {
		if a.Kind == ir.RefConstant {
			continue
		}
		arg, err := p.Ref(a, d.Qualified())
		if err != nil {
			return nil, err
		}
		inst.Args = append(inst.Args, arg)
	}
	return inst, nil
}

func (p *Projector) opaque(d *ir.Decl, ident, reason string) *ir.ProjectedType {
	Logger().Debug("opaque record", zap.String("decl", d.Qualified()), zap.String("reason", reason))
	pt := &ir.ProjectedType{Kind: ir.ProjOpaque, Ident: ident, Decl: d}
	if d.ABI != nil {
		pt.Size, pt.Align = d.ABI.Size, d.ABI.Align
	}
	return pt
}

// typed returns err unchanged when it already carries a generation error
// code, and as a LayoutError otherwise.
func typed(decl string, err error) error {
	var (
		layout     *ir.LayoutError
		unresolved *ir.UnresolvedError
	)
	if errors.As(err, &layout) || errors.As(err, &unresolved) {
		return err
	}
	return ir.NewLayoutError(decl, "%v", err)
}
