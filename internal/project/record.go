package project

import (
	"github.com/roach88/flatbind/internal/ir"
)

func alignTo(offset, align int) int {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) / align * align
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// record applies the policy to a class or struct and returns its opaque or
// mirrored projection.
func (p *Projector) record(d *ir.Decl, ident string) (*ir.ProjectedType, error) {
	qname := d.Qualified()
	if p.active[ident] {
		return nil, ir.NewLayoutError(qname, "record contains itself by value")
	}
	p.active[ident] = true
	defer delete(p.active, ident)

	switch d.Repr {
	case ir.ReprOpaque:
		return p.opaque(d, ident, "repr: opaque"), nil
	case ir.ReprBytes:
		return p.bytes(d, ident)
	}

	if reason := unreproducible(d); reason != "" {
		return p.opaque(d, ident, reason), nil
	}
	if d.Packed {
		return nil, ir.NewLayoutError(qname, "packed layout cannot be reproduced")
	}

	fields := make([]ir.ProjectedField, 0, len(d.Fields))
	offset, maxAlign := 0, 1
	for _, f := range d.Fields {
		if f.Type.Kind == ir.RefReference {
			return p.opaque(d, ident, "reference field "+f.Name), nil
		}
		ft, err := p.Ref(f.Type, qname+"::"+f.Name)
		if err != nil {
			return nil, err
		}
		switch {
		case ft.IsVoid():
			return nil, ir.NewLayoutError(qname, "field %s has type void", f.Name)
		case ft.IsOpaque():
			return p.opaque(d, ident, "field "+f.Name+" is opaque"), nil
		}

		offset = alignTo(offset, ft.Align)
		fields = append(fields, ir.ProjectedField{
			Name:   f.Name,
			Type:   ft,
			Offset: offset,
			Size:   ft.Size,
			Align:  ft.Align,
		})
		offset += ft.Size
		maxAlign = max(maxAlign, ft.Align)
	}

	align := maxAlign
	explicit := false
	if d.Align != 0 {
		if !isPow2(d.Align) {
			return nil, ir.NewLayoutError(qname, "alignment %d is not a power of two", d.Align)
		}
		if d.Align < maxAlign {
			return nil, ir.NewLayoutError(qname, "alignment %d is below the natural alignment %d", d.Align, maxAlign)
		}
		explicit = d.Align > maxAlign
		align = d.Align
	}
	size := alignTo(offset, align)

	if d.ABI != nil && (d.ABI.Size != size || d.ABI.Align != align) {
		return nil, ir.NewLayoutError(qname,
			"computed layout size %d align %d disagrees with measured size %d align %d; use repr: bytes to mirror the measured layout",
			size, align, d.ABI.Size, d.ABI.Align)
	}

	return &ir.ProjectedType{
		Kind:          ir.ProjMirrored,
		Ident:         ident,
		Decl:          d,
		Size:          size,
		Align:         align,
		Fields:        fields,
		ExplicitAlign: explicit,
	}, nil
}

// unreproducible returns why a record's layout cannot be mirrored, or "".
func unreproducible(d *ir.Decl) string {
	switch {
	case len(d.Bases) > 0:
		return "has base classes"
	case d.HasVirtual():
		return "has virtual members"
	case len(d.Fields) == 0:
		return "has no data members"
	}
	for _, f := range d.Fields {
		if f.Access != "" && f.Access != ir.AccessPublic {
			return "field " + f.Name + " is " + string(f.Access)
		}
	}
	return ""
}

// bytes mirrors the measured size and alignment without exposing fields.
func (p *Projector) bytes(d *ir.Decl, ident string) (*ir.ProjectedType, error) {
	if d.ABI == nil {
		return nil, ir.NewLayoutError(d.Qualified(), "repr: bytes requires a measured abi size and align")
	}
	if !isPow2(d.ABI.Align) {
		return nil, ir.NewLayoutError(d.Qualified(), "measured alignment %d is not a power of two", d.ABI.Align)
	}
	if d.ABI.Size <= 0 || d.ABI.Size%d.ABI.Align != 0 {
		return nil, ir.NewLayoutError(d.Qualified(), "measured size %d is not a positive multiple of alignment %d", d.ABI.Size, d.ABI.Align)
	}
	return &ir.ProjectedType{
		Kind:  ir.ProjMirrored,
		Ident: ident,
		Decl:  d,
		Size:  d.ABI.Size,
		Align: d.ABI.Align,
		Bytes: true,
	}, nil
}
