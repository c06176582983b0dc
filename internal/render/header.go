package render

import (
	"fmt"

	"github.com/roach88/flatbind/internal/bridge"
	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/symbol"
)

// Header renders the C header. Record typedefs come first so fields and
// prototypes can name any record, then enums, then mirrored definitions in
// containment order, then prototypes and aliases in emission order.
func Header(out *ir.Output) []byte {
	lib := out.Library
	api := lib.APIPrefix()
	h, _, _ := Names(lib.Name)

	w := &writer{}
	w.line("/* %s */", banner(out, h))
	w.raw("#pragma once")
	w.blank()
	w.raw("#include <stdbool.h>")
	w.raw("#include <stddef.h>")
	w.raw("#include <stdint.h>")
	w.blank()
	w.line("#ifndef %s_API", api)
	w.line("#define %s_API", api)
	w.raw("#endif")
	w.blank()
	w.raw("#ifdef __cplusplus")
	w.line("#define %s_ALIGNAS(n) alignas(n)", api)
	w.line("#define %s_ALIGNOF(t) alignof(t)", api)
	w.line("#define %s_STATIC_ASSERT(c, m) static_assert(c, m)", api)
	w.raw(`extern "C" {`)
	w.raw("#else")
	w.line("#define %s_ALIGNAS(n) _Alignas(n)", api)
	w.line("#define %s_ALIGNOF(t) _Alignof(t)", api)
	w.line("#define %s_STATIC_ASSERT(c, m) _Static_assert(c, m)", api)
	w.raw("#endif")
	w.blank()
	w.line("typedef uint32_t %s;", StatusType(lib))
	w.blank()
	w.raw("/* Message of the last exception intercepted on the calling thread. */")
	w.line("%s_API const char* %s(void);", api, bridge.MessageAccessor(symbol.GlobalRoot(lib)))

	var records, enums []ir.Entry
	for _, e := range out.Entries {
		if e.Kind != ir.EntryType {
			continue
		}
		if e.Type.Kind == ir.ProjScalarEnum {
			enums = append(enums, e)
		} else {
			records = append(records, e)
		}
	}

	if len(records) > 0 {
		w.blank()
		for _, e := range records {
			w.line("typedef struct %s %s;", e.Identifier, e.Identifier)
		}
	}
	for _, e := range enums {
		w.blank()
		enumDecl(w, e)
	}
	for _, e := range records {
		if e.Type.IsOpaque() {
			w.blank()
			opaqueDecl(w, e)
		}
	}
	for _, e := range definitionOrder(out) {
		w.blank()
		mirroredDecl(w, api, e)
	}

	for _, e := range out.Entries {
		if e.Kind != ir.EntryFunction {
			continue
		}
		w.blank()
		prototype(w, lib, e)
	}

	if len(out.Aliases) > 0 {
		w.blank()
		w.raw("/* Aliases */")
		for _, a := range out.Aliases {
			if e, ok := out.Lookup(a.Target); ok && e.Kind == ir.EntryType {
				w.line("typedef %s %s;", a.Target, a.Name)
			} else {
				w.line("#define %s %s", a.Name, a.Target)
			}
		}
	}

	w.blank()
	w.raw("#ifdef __cplusplus")
	w.raw("}")
	w.raw("#endif")
	return w.bytes()
}

func enumDecl(w *writer, e ir.Entry) {
	pt := e.Type
	w.line("/* %s */", e.Path)
	w.line("typedef %s %s;", intType(pt.Width, pt.Signed), pt.Ident)
	for _, c := range pt.Constants {
		w.line("#define %s ((%s)%d)", c.Ident, pt.Ident, c.Value)
	}
}

func intType(width int, signed bool) string {
	if signed {
		return fmt.Sprintf("int%d_t", width)
	}
	return fmt.Sprintf("uint%d_t", width)
}

func opaqueDecl(w *writer, e ir.Entry) {
	pt := e.Type
	w.line("/* %s: opaque, only ever handled by address */", e.Path)
	if pt.Size > 0 {
		w.line("#define %s_SIZE %d", pt.Ident, pt.Size)
		w.line("#define %s_ALIGN %d", pt.Ident, pt.Align)
	}
}

func mirroredDecl(w *writer, api string, e ir.Entry) {
	pt := e.Type
	l := pt.Layout()
	w.line("/* %s */", e.Path)
	w.line("struct %s {", pt.Ident)
	switch {
	case l.Bytes:
		w.line("    %s_ALIGNAS(%d) unsigned char _inner[%d];", api, l.Align, l.Size)
	default:
		for i, f := range l.Fields {
			if i == 0 && l.ExplicitAlign {
				w.line("    %s_ALIGNAS(%d) %s %s;", api, l.Align, f.Type.Ident, f.Name)
				continue
			}
			w.line("    %s %s;", f.Type.Ident, f.Name)
		}
	}
	w.raw("};")
	w.line(`%s_STATIC_ASSERT(sizeof(%s) == %d, "%s: size");`, api, pt.Ident, l.Size, e.Path)
	w.line(`%s_STATIC_ASSERT(%s_ALIGNOF(%s) == %d, "%s: align");`, api, api, pt.Ident, l.Align, e.Path)
	for _, f := range l.Fields {
		w.line(`%s_STATIC_ASSERT(offsetof(%s, %s) == %d, "%s: %s");`, api, pt.Ident, f.Name, f.Offset, e.Path, f.Name)
	}
}

// definitionOrder returns the mirrored type entries ordered so that every
// record is defined after the records it contains by value. Ties keep
// emission order.
func definitionOrder(out *ir.Output) []ir.Entry {
	done := make(map[string]bool)
	var order []ir.Entry
	var visit func(pt *ir.ProjectedType)
	visit = func(pt *ir.ProjectedType) {
		if done[pt.Ident] {
			return
		}
		done[pt.Ident] = true
		for _, f := range pt.Layout().Fields {
			if f.Type.Layout().Kind == ir.ProjMirrored {
				visit(f.Type)
			}
		}
		if e, ok := out.Lookup(pt.Ident); ok {
			order = append(order, *e)
		}
	}
	for _, e := range out.Entries {
		if e.Kind == ir.EntryType && e.Type.Layout().Kind == ir.ProjMirrored {
			visit(e.Type)
		}
	}
	return order
}

func prototype(w *writer, lib ir.Library, e ir.Entry) {
	f := e.Function
	if f.Throws {
		w.line("/* %s", e.Path)
		w.line(" * %s */", bridge.Contract)
	} else {
		w.line("/* %s */", e.Path)
	}
	w.line("%s_API %s %s(%s);", lib.APIPrefix(), bridge.CReturn(f, StatusType(lib)), f.Symbol, params(f))
}
