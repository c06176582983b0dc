package symbol

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/flatbind/internal/ir"
)

// Marker codes that follow a "__" separator.
const (
	sep         = "__"
	markOpen    = "__1"
	markNext    = "__2"
	markClose   = "__3"
	markEscape  = '4'
	markPtr     = "__5"
	markConstPt = "__6"
	markGlobal  = "__0"
)

// Member names the encoder makes up. A source name of the same shape is
// always escaped, so made-up and source names never meet.
const (
	CtorMember     = "ctor"
	DtorMember     = "dtor"
	OperatorPrefix = "op_"
)

// Type identifier suffixes.
const (
	RecordSuffix = "_t"
	EnumSuffix   = "_e"
)

var (
	rawName       = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	digitsSuffix  = regexp.MustCompile(`_[0-9]+$`)
	constantToken = regexp.MustCompile(`^cn?[0-9]+$`)
)

// isRaw reports whether name can be written without escaping.
func isRaw(name string) bool {
	return rawName.MatchString(name) &&
		!strings.HasSuffix(name, "_") &&
		!strings.Contains(name, sep) &&
		!digitsSuffix.MatchString(name)
}

// reserved reports whether name has the shape of a made-up member name or
// ends in a type identifier suffix.
func reserved(name string) bool {
	return name == CtorMember || name == DtorMember ||
		strings.HasPrefix(name, OperatorPrefix) ||
		strings.HasSuffix(name, RecordSuffix) ||
		strings.HasSuffix(name, EnumSuffix)
}

// synthetic reports whether name is a valid made-up member name.
func synthetic(name string) bool {
	if strings.HasSuffix(name, RecordSuffix) || strings.HasSuffix(name, EnumSuffix) {
		return false
	}
	return isRaw(name) && reserved(name)
}

func writeName(b *strings.Builder, name string) {
	if isRaw(name) {
		b.WriteString(name)
		return
	}
	writeEscaped(b, name)
}

// Token returns the flat spelling of the segment name, without arguments.
func (s Segment) Token() string {
	var b strings.Builder
	writeSegmentName(&b, s)
	return b.String()
}

func writeSegmentName(b *strings.Builder, s Segment) {
	if s.Synthetic || (isRaw(s.Name) && !reserved(s.Name)) {
		b.WriteString(s.Name)
		return
	}
	writeEscaped(b, s.Name)
}

func writeEscaped(b *strings.Builder, name string) {
	b.WriteByte(markEscape)
	b.WriteString(strconv.Itoa(len(name)))
	b.WriteByte('_')
	b.WriteString(name)
}

// Encode returns the flat identifier for n. Encoding is a pure function of
// its input.
func Encode(n Name) string {
	var b strings.Builder
	writeRoot(&b, n)
	if n.Overload > 0 {
		fmt.Fprintf(&b, "_%d", n.Overload)
	}
	return b.String()
}

// TypeIdent returns the type identifier for a record or enum name.
func TypeIdent(n Name, kind ir.DeclKind) string {
	suffix := RecordSuffix
	if kind == ir.KindEnum {
		suffix = EnumSuffix
	}
	return Encode(n.Base()) + suffix
}

func writeRoot(b *strings.Builder, n Name) {
	writeName(b, n.Root)
	fmt.Fprintf(b, "_%d_%d", n.Version.Major, n.Version.Minor)
	if n.Global {
		b.WriteString(markGlobal)
	}
	for _, s := range n.Scope {
		b.WriteString(sep)
		writeSegmentName(b, s)
		writeArgs(b, s.Args)
	}
}

func writeArgs(b *strings.Builder, args []Arg) {
	if len(args) == 0 {
		return
	}
	b.WriteString(markOpen)
	for i, a := range args {
		if i > 0 {
			b.WriteString(markNext)
		}
		writeArg(b, a)
	}
	b.WriteString(markClose)
}

func writeArg(b *strings.Builder, a Arg) {
	switch a.Kind {
	case ArgBuiltin:
		token, ok := ir.BuiltinToken(a.Builtin)
		if !ok {
			// Encoder.Arg rejects unknown spellings; keep output total.
			token = strings.ReplaceAll(a.Builtin, " ", "")
		}
		b.WriteString(token)
	case ArgConstant:
		if a.Value < 0 {
			b.WriteString("cn")
			b.WriteString(strconv.FormatUint(uint64(-(a.Value+1))+1, 10))
		} else {
			b.WriteByte('c')
			b.WriteString(strconv.FormatInt(a.Value, 10))
		}
	case ArgNamed:
		writeRoot(b, *a.Named)
	case ArgPointer:
		if a.Const {
			b.WriteString(markConstPt)
		} else {
			b.WriteString(markPtr)
		}
		writeArg(b, *a.Elem)
	}
}
