package ir

import "fmt"

// Builtin describes a C++ scalar as it crosses the boundary.
type Builtin struct {
	Spelling string // C++ spelling, e.g. "unsigned int"
	CName    string // C spelling used in rendered headers
	Token    string // underscore-free symbol token, e.g. "uint"
	Size     int
	Align    int
	Integral bool
	Signed   bool
}

// Target describes the builtin scalar layout of a compilation target.
type Target struct {
	Name         string
	PointerSize  int
	PointerAlign int
	builtins     map[string]Builtin
}

// Target names accepted by configuration.
const (
	TargetLP64  = "lp64"  // Linux/macOS 64-bit
	TargetLLP64 = "llp64" // Windows 64-bit
	TargetILP32 = "ilp32" // 32-bit
)

// NewTarget returns the named target.
func NewTarget(name string) (*Target, error) {
	switch name {
	case "", TargetLP64:
		return newTarget(TargetLP64, 8, 8, 8), nil
	case TargetLLP64:
		return newTarget(TargetLLP64, 8, 4, 8), nil
	case TargetILP32:
		return newTarget(TargetILP32, 4, 4, 4), nil
	default:
		return nil, fmt.Errorf("unknown target %q: must be one of %s, %s, %s", name, TargetLP64, TargetLLP64, TargetILP32)
	}
}

// DefaultTarget returns the LP64 target.
func DefaultTarget() *Target {
	t, _ := NewTarget(TargetLP64)
	return t
}

func newTarget(name string, ptr, long, sizeT int) *Target {
	t := &Target{Name: name, PointerSize: ptr, PointerAlign: ptr, builtins: make(map[string]Builtin)}
	add := func(spelling, cname, token string, size int, integral, signed bool) {
		t.builtins[spelling] = Builtin{
			Spelling: spelling, CName: cname, Token: token,
			Size: size, Align: size, Integral: integral, Signed: signed,
		}
	}
	add("void", "void", "void", 0, false, false)
	add("bool", "bool", "bool", 1, true, false)
	add("char", "char", "char", 1, true, true)
	add("signed char", "signed char", "schar", 1, true, true)
	add("unsigned char", "unsigned char", "uchar", 1, true, false)
	add("short", "short", "short", 2, true, true)
	add("unsigned short", "unsigned short", "ushort", 2, true, false)
	add("int", "int", "int", 4, true, true)
	add("unsigned int", "unsigned int", "uint", 4, true, false)
	add("long", "long", "long", long, true, true)
	add("unsigned long", "unsigned long", "ulong", long, true, false)
	add("long long", "long long", "longlong", 8, true, true)
	add("unsigned long long", "unsigned long long", "ulonglong", 8, true, false)
	add("float", "float", "float", 4, false, true)
	add("double", "double", "double", 8, false, true)
	add("size_t", "size_t", "size", sizeT, true, false)
	add("int8_t", "int8_t", "i8", 1, true, true)
	add("uint8_t", "uint8_t", "u8", 1, true, false)
	add("int16_t", "int16_t", "i16", 2, true, true)
	add("uint16_t", "uint16_t", "u16", 2, true, false)
	add("int32_t", "int32_t", "i32", 4, true, true)
	add("uint32_t", "uint32_t", "u32", 4, true, false)
	add("int64_t", "int64_t", "i64", 8, true, true)
	add("uint64_t", "uint64_t", "u64", 8, true, false)
	if name == TargetILP32 {
		// i386 SysV aligns 8-byte scalars to 4 inside structs.
		for _, s := range []string{"long long", "unsigned long long", "double", "int64_t", "uint64_t"} {
			b := t.builtins[s]
			b.Align = 4
			t.builtins[s] = b
		}
	}
	return t
}

// Builtin looks up a scalar by its C++ spelling.
func (t *Target) Builtin(spelling string) (Builtin, bool) {
	b, ok := t.builtins[spelling]
	return b, ok
}

var tokenTarget = DefaultTarget()

// BuiltinToken returns the symbol token of a builtin spelling. Tokens do not
// depend on the target.
func BuiltinToken(spelling string) (string, bool) {
	b, ok := tokenTarget.Builtin(spelling)
	if !ok {
		return "", false
	}
	return b.Token, true
}

// BuiltinFromToken maps a symbol token back to its C++ spelling.
func BuiltinFromToken(token string) (string, bool) {
	for spelling, b := range tokenTarget.builtins {
		if b.Token == token {
			return spelling, true
		}
	}
	return "", false
}
