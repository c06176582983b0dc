package project

import (
	"fmt"
	"math"

	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/symbol"
)

var enumWidths = []int{8, 16, 32, 64}

// enum projects an enumeration as a fixed-width integer wrapper.
func (p *Projector) enum(d *ir.Decl, ident string) (*ir.ProjectedType, error) {
	qname := d.Qualified()

	byValue := make(map[int64]string, len(d.Constants))
	lo, hi := int64(0), int64(0)
	for _, c := range d.Constants {
		if prev, dup := byValue[c.Value]; dup {
			return nil, ir.NewLayoutError(qname, "constants %s and %s share value %d", prev, c.Name, c.Value)
		}
		byValue[c.Value] = c.Name
		lo, hi = min(lo, c.Value), max(hi, c.Value)
	}

	signed := lo < 0
	if signed && !p.opts.AllowSignedEnums {
		return nil, ir.NewLayoutError(qname, "negative constant %d needs allow_signed_enums", lo)
	}

	width := d.Width
	if width != 0 {
		if !fits(width, signed, lo, hi) {
			return nil, ir.NewLayoutError(qname, "underlying width %d cannot hold constants in [%d, %d]", width, lo, hi)
		}
	} else {
		for _, w := range enumWidths {
			if fits(w, signed, lo, hi) {
				width = w
				break
			}
		}
	}

	b, ok := p.target.Builtin(intSpelling(width, signed))
	if !ok {
		return nil, ir.NewLayoutError(qname, "no %d-bit integer on target %s", width, p.target.Name)
	}

	pt := &ir.ProjectedType{
		Kind:   ir.ProjScalarEnum,
		Ident:  ident,
		Decl:   d,
		Size:   b.Size,
		Align:  b.Align,
		Width:  width,
		Signed: signed,
	}
	for _, c := range d.Constants {
		cname, err := p.enc.MemberName(d, c.Name)
		if err != nil {
			return nil, typed(qname, err)
		}
		pt.Constants = append(pt.Constants, ir.ProjectedConstant{
			Name:  c.Name,
			Ident: symbol.Encode(cname),
			Value: c.Value,
		})
	}
	return pt, nil
}

// fits reports whether every value in [lo, hi] is representable in width bits.
func fits(width int, signed bool, lo, hi int64) bool {
	switch width {
	case 8, 16, 32:
	case 64:
		return signed || lo >= 0
	default:
		return false
	}
	if signed {
		limit := int64(1) << (width - 1)
		return lo >= -limit && hi <= limit-1
	}
	return lo >= 0 && uint64(hi) <= uint64(math.MaxUint64)>>(64-width)
}

func intSpelling(width int, signed bool) string {
	if signed {
		return fmt.Sprintf("int%d_t", width)
	}
	return fmt.Sprintf("uint%d_t", width)
}
