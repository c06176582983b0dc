package render

import (
	"fmt"
	"strings"

	"github.com/roach88/flatbind/internal/bridge"
	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/symbol"
)

// Shim renders the C++ translation unit implementing every prototype of the
// header. Bridged bodies intercept all exceptions; nothing unwinds out of an
// exported function.
func Shim(out *ir.Output) []byte {
	lib := out.Library
	root := symbol.GlobalRoot(lib)
	exVar := bridge.ExceptionVar(root)
	h, s, _ := Names(lib.Name)

	w := &writer{}
	w.line("// %s", banner(out, s))
	w.line("#include %q", h)
	w.blank()
	w.raw("#include <exception>")
	w.raw("#include <new>")
	w.raw("#include <string>")
	if len(lib.Includes) > 0 {
		w.blank()
		for _, inc := range lib.Includes {
			w.line("#include %s", includeSpelling(inc))
		}
	}
	w.blank()
	w.line("static thread_local std::string %s;", exVar)
	w.blank()
	w.line(`extern "C" const char* %s(void) {`, bridge.MessageAccessor(root))
	w.line("    return %s.c_str();", exVar)
	w.raw("}")

	var checks []string
	for _, e := range out.Entries {
		if e.Kind != ir.EntryType || e.Source == nil {
			continue
		}
		checks = append(checks, layoutChecks(e)...)
	}
	if len(checks) > 0 {
		w.blank()
		for _, c := range checks {
			w.raw(c)
		}
	}

	for _, e := range out.Entries {
		if e.Kind != ir.EntryFunction {
			continue
		}
		w.blank()
		definition(w, lib, exVar, e)
	}
	return w.bytes()
}

func includeSpelling(inc string) string {
	if strings.HasPrefix(inc, "<") || strings.HasPrefix(inc, `"`) {
		return inc
	}
	return "<" + inc + ">"
}

// layoutChecks compares the projected layout with the compiler's view of
// the C++ type.
func layoutChecks(e ir.Entry) []string {
	pt := e.Type
	cpp := e.Source.Qualified()
	switch {
	case pt.Kind == ir.ProjScalarEnum:
		return nil
	case pt.IsOpaque():
		if pt.Size == 0 {
			return nil
		}
		return []string{
			fmt.Sprintf(`static_assert(sizeof(%s) == %s_SIZE, "%s: size");`, cpp, pt.Ident, e.Path),
			fmt.Sprintf(`static_assert(alignof(%s) == %s_ALIGN, "%s: align");`, cpp, pt.Ident, e.Path),
		}
	}
	return []string{
		fmt.Sprintf(`static_assert(sizeof(%s) == sizeof(%s), "%s: size");`, pt.Ident, cpp, e.Path),
		fmt.Sprintf(`static_assert(alignof(%s) == alignof(%s), "%s: align");`, pt.Ident, cpp, e.Path),
	}
}

func definition(w *writer, lib ir.Library, exVar string, e ir.Entry) {
	f := e.Function
	w.line("// %s", e.Path)
	if f.Throws {
		w.line("// %s", bridge.Contract)
	}
	w.line(`extern "C" %s %s(%s) {`, bridge.CReturn(f, StatusType(lib)), f.Symbol, params(f))
	var body []string
	if f.Throws {
		body = bridge.ShimBody(bridgedStatement(f), exVar)
	} else {
		body = directBody(f)
	}
	for _, l := range body {
		w.raw("    " + l)
	}
	w.raw("}")
}

// bridgedStatement returns the single statement that performs a bridged
// call and stores its nominal result through return_.
func bridgedStatement(f *ir.BoundFunction) string {
	switch f.Kind {
	case ir.FuncConstructor:
		recv, _ := f.Receiver()
		cpp := f.Record.Qualified()
		if handle := recv.Type.Elem; handle.Kind == ir.ProjPointer {
			return fmt.Sprintf("*this_ = reinterpret_cast<%s>(new %s(%s));", handle.Ident, cpp, args(f))
		}
		return fmt.Sprintf("new (this_) %s(%s);", cpp, args(f))
	case ir.FuncDestructor:
		recv, _ := f.Receiver()
		if recv.Type.Elem.IsOpaque() {
			return fmt.Sprintf("delete %s;", receiver(f))
		}
		return fmt.Sprintf("%s->~%s();", receiver(f), f.Record.Name)
	}

	call := callExpr(f)
	switch {
	case f.Return.IsVoid():
		return call + ";"
	case f.ReturnRef.Kind == ir.RefNamed && f.Return.IsRecord():
		return fmt.Sprintf("new (%s) %s(%s);", ir.ReturnParam, f.ReturnRef.Qualified(), call)
	}
	return fmt.Sprintf("*%s = %s;", ir.ReturnParam, toC(f, call))
}

// directBody returns the body of a noexcept function.
func directBody(f *ir.BoundFunction) []string {
	call := callExpr(f)
	switch {
	case f.Return.IsVoid():
		return []string{call + ";"}
	case f.ReturnRef.Kind == ir.RefNamed && f.Return.IsRecord():
		return []string{
			fmt.Sprintf("%s result_;", f.Return.Ident),
			fmt.Sprintf("new (&result_) %s(%s);", f.ReturnRef.Qualified(), call),
			"return result_;",
		}
	}
	return []string{fmt.Sprintf("return %s;", toC(f, call))}
}

// callExpr returns the C++ expression invoking the source callable.
func callExpr(f *ir.BoundFunction) string {
	switch f.Kind {
	case ir.FuncFree:
		return fmt.Sprintf("%s(%s)", f.Source.Qualified(), args(f))
	case ir.FuncStatic:
		return fmt.Sprintf("%s(%s)", f.Record.MemberPath(f.Source), args(f))
	}
	member := strings.TrimPrefix(f.Record.MemberPath(f.Source), f.Record.Qualified()+"::")
	return fmt.Sprintf("%s->%s(%s)", receiver(f), member, args(f))
}

func receiver(f *ir.BoundFunction) string {
	ptr := f.Record.Qualified() + "*"
	if f.Source.Const {
		ptr = "const " + ptr
	}
	return fmt.Sprintf("reinterpret_cast<%s>(%s)", ptr, ir.ReceiverParam)
}

// args converts the C arguments of f to the C++ argument list.
func args(f *ir.BoundFunction) string {
	inputs := f.Inputs()
	parts := make([]string, len(inputs))
	for i, p := range inputs {
		parts[i] = toCpp(p)
	}
	return strings.Join(parts, ", ")
}

func toCpp(p ir.BoundParam) string {
	src := p.Source
	switch p.Mode {
	case ir.PassAddress:
		if src.Kind == ir.RefReference {
			return fmt.Sprintf("*reinterpret_cast<%s*>(%s)", strings.TrimSuffix(src.String(), "&"), p.Name)
		}
		return fmt.Sprintf("*reinterpret_cast<const %s*>(%s)", src.Qualified(), p.Name)
	case ir.PassPointer:
		return fmt.Sprintf("reinterpret_cast<%s>(%s)", src.String(), p.Name)
	}
	if p.Type.Kind == ir.ProjScalarEnum {
		return fmt.Sprintf("static_cast<%s>(%s)", src.Qualified(), p.Name)
	}
	return p.Name
}

// toC converts a C++ result expression to the C return type.
func toC(f *ir.BoundFunction, expr string) string {
	switch f.ReturnRef.Kind {
	case ir.RefReference:
		return fmt.Sprintf("reinterpret_cast<%s>(&(%s))", f.Return.Ident, expr)
	case ir.RefPointer:
		return fmt.Sprintf("reinterpret_cast<%s>(%s)", f.Return.Ident, expr)
	}
	if f.Return.Kind == ir.ProjScalarEnum {
		return fmt.Sprintf("static_cast<%s>(%s)", f.Return.Ident, expr)
	}
	return expr
}
