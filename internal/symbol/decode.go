package symbol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/flatbind/internal/ir"
)

// DecodeError reports an identifier that is not in the encoder's grammar.
type DecodeError struct {
	Identifier string
	Offset     int
	Message    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q at offset %d: %s", e.Identifier, e.Offset, e.Message)
}

// Decode parses a function or enum-constant identifier back into its name.
// Decode(Encode(n)) equals n for every name the encoder accepts.
func Decode(ident string) (Name, error) {
	d := &decoder{s: ident}
	n, err := d.path()
	if err != nil {
		return Name{}, err
	}
	if len(n.Scope) == 0 {
		return Name{}, d.errorf("identifier has no scope below its root")
	}
	if d.pos < len(d.s) {
		if d.s[d.pos] != '_' {
			return Name{}, d.errorf("unexpected %q", d.s[d.pos:])
		}
		d.pos++
		over, err := d.number()
		if err != nil {
			return Name{}, err
		}
		if over == 0 {
			return Name{}, d.errorf("overload suffix must be positive")
		}
		if d.pos < len(d.s) {
			return Name{}, d.errorf("trailing %q", d.s[d.pos:])
		}
		n.Overload = over
	}
	return n, nil
}

// DecodeType parses a type identifier, returning the name and whether it
// names a record or an enum.
func DecodeType(ident string) (Name, ir.DeclKind, error) {
	kind := ir.KindClass
	var body string
	switch {
	case strings.HasSuffix(ident, RecordSuffix):
		body = strings.TrimSuffix(ident, RecordSuffix)
	case strings.HasSuffix(ident, EnumSuffix):
		body = strings.TrimSuffix(ident, EnumSuffix)
		kind = ir.KindEnum
	default:
		return Name{}, "", &DecodeError{Identifier: ident, Offset: len(ident), Message: "missing type suffix"}
	}
	n, err := Decode(body)
	if err != nil {
		return Name{}, "", err
	}
	if n.Overload != 0 {
		return Name{}, "", &DecodeError{Identifier: ident, Offset: len(body), Message: "type identifier carries an overload suffix"}
	}
	return n, kind, nil
}

type decoder struct {
	s   string
	pos int
}

func (d *decoder) errorf(format string, args ...any) error {
	return &DecodeError{Identifier: d.s, Offset: d.pos, Message: fmt.Sprintf(format, args...)}
}

func (d *decoder) hasPrefix(p string) bool {
	return strings.HasPrefix(d.s[d.pos:], p)
}

// segmentAhead reports whether a "__" separator introduces another scope
// segment rather than a marker.
func (d *decoder) segmentAhead() bool {
	if !d.hasPrefix(sep) || d.pos+2 >= len(d.s) {
		return false
	}
	c := d.s[d.pos+2]
	return c == markEscape || isLetter(c)
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// token returns the run of input up to the next separator or the end.
func (d *decoder) token() string {
	rest := d.s[d.pos:]
	if i := strings.Index(rest, sep); i >= 0 {
		return rest[:i]
	}
	return rest
}

// number parses a canonical decimal: no sign, no leading zeros.
func (d *decoder) number() (int, error) {
	start := d.pos
	for d.pos < len(d.s) && isDigit(d.s[d.pos]) {
		d.pos++
	}
	digits := d.s[start:d.pos]
	if digits == "" {
		return 0, d.errorf("expected digits")
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, d.errorf("non-canonical number %q", digits)
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, d.errorf("number %q: %v", digits, err)
	}
	return v, nil
}

// escaped parses "4" LEN "_" verbatim.
func (d *decoder) escaped() (string, error) {
	d.pos++ // marker
	n, err := d.number()
	if err != nil {
		return "", err
	}
	if d.pos >= len(d.s) || d.s[d.pos] != '_' {
		return "", d.errorf("expected '_' after escape length")
	}
	d.pos++
	if n == 0 || d.pos+n > len(d.s) {
		return "", d.errorf("escape length %d out of range", n)
	}
	name := d.s[d.pos : d.pos+n]
	d.pos += n
	return name, nil
}

// root parses name "_" MAJOR "_" MINOR.
func (d *decoder) root() (string, ir.Version, error) {
	if d.pos < len(d.s) && d.s[d.pos] == markEscape {
		name, err := d.escaped()
		if err != nil {
			return "", ir.Version{}, err
		}
		if isRaw(name) {
			return "", ir.Version{}, d.errorf("name %q is escaped but needs no escape", name)
		}
		v, err := d.version()
		return name, v, err
	}

	tok := d.token()
	// Split the trailing "_MAJOR_MINOR" off the raw token.
	minorAt := strings.LastIndexByte(tok, '_')
	if minorAt <= 0 {
		return "", ir.Version{}, d.errorf("root %q has no version", tok)
	}
	majorAt := strings.LastIndexByte(tok[:minorAt], '_')
	if majorAt <= 0 {
		return "", ir.Version{}, d.errorf("root %q has no version", tok)
	}
	name := tok[:majorAt]
	if !isRaw(name) {
		return "", ir.Version{}, d.errorf("root name %q must be escaped", name)
	}
	d.pos += majorAt
	v, err := d.version()
	if err != nil {
		return "", ir.Version{}, err
	}
	return name, v, nil
}

func (d *decoder) version() (ir.Version, error) {
	var v ir.Version
	var err error
	for _, part := range []*int{&v.Major, &v.Minor} {
		if d.pos >= len(d.s) || d.s[d.pos] != '_' {
			return v, d.errorf("expected version")
		}
		d.pos++
		if *part, err = d.number(); err != nil {
			return v, err
		}
	}
	return v, nil
}

// segmentName parses one scope name. At the end of the input a trailing
// "_<digits>" on a raw name is the overload suffix and is left unconsumed.
// A raw name of reserved shape is a made-up member name.
func (d *decoder) segmentName() (Segment, error) {
	if d.pos < len(d.s) && d.s[d.pos] == markEscape {
		name, err := d.escaped()
		if err != nil {
			return Segment{}, err
		}
		if isRaw(name) && !reserved(name) {
			return Segment{}, d.errorf("name %q is escaped but needs no escape", name)
		}
		return Segment{Name: name}, nil
	}
	tok := d.token()
	if d.pos+len(tok) == len(d.s) {
		if loc := digitsSuffix.FindStringIndex(tok); loc != nil {
			tok = tok[:loc[0]]
		}
	}
	if !isRaw(tok) {
		return Segment{}, d.errorf("invalid name %q", tok)
	}
	seg := Segment{Name: tok}
	if reserved(tok) {
		if !synthetic(tok) {
			return Segment{}, d.errorf("name %q must be escaped", tok)
		}
		seg.Synthetic = true
	}
	d.pos += len(tok)
	return seg, nil
}

func (d *decoder) path() (Name, error) {
	root, v, err := d.root()
	if err != nil {
		return Name{}, err
	}
	n := Name{Root: root, Version: v}
	if d.hasPrefix(markGlobal) {
		n.Global = true
		d.pos += len(markGlobal)
	}
	for d.segmentAhead() {
		d.pos += len(sep)
		seg, err := d.segmentName()
		if err != nil {
			return Name{}, err
		}
		if d.hasPrefix(markOpen) {
			if seg.Args, err = d.args(); err != nil {
				return Name{}, err
			}
		}
		n.Scope = append(n.Scope, seg)
	}
	return n, nil
}

func (d *decoder) args() ([]Arg, error) {
	d.pos += len(markOpen)
	var args []Arg
	for {
		a, err := d.arg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		switch {
		case d.hasPrefix(markNext):
			d.pos += len(markNext)
		case d.hasPrefix(markClose):
			d.pos += len(markClose)
			return args, nil
		default:
			return nil, d.errorf("unterminated template argument list")
		}
	}
}

func (d *decoder) arg() (Arg, error) {
	if d.hasPrefix(markPtr) || d.hasPrefix(markConstPt) {
		isConst := d.hasPrefix(markConstPt)
		d.pos += len(markPtr)
		elem, err := d.arg()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Kind: ArgPointer, Elem: &elem, Const: isConst}, nil
	}
	if d.pos >= len(d.s) {
		return Arg{}, d.errorf("expected template argument")
	}
	if d.s[d.pos] != markEscape {
		tok := d.token()
		if constantToken.MatchString(tok) {
			return d.constant(tok)
		}
		if spelling, ok := ir.BuiltinFromToken(tok); ok {
			d.pos += len(tok)
			return Arg{Kind: ArgBuiltin, Builtin: spelling}, nil
		}
	}
	n, err := d.path()
	if err != nil {
		return Arg{}, err
	}
	if len(n.Scope) == 0 {
		return Arg{}, d.errorf("template argument names a bare root")
	}
	return Arg{Kind: ArgNamed, Named: &n}, nil
}

func (d *decoder) constant(tok string) (Arg, error) {
	neg := strings.HasPrefix(tok, "cn")
	digits := strings.TrimPrefix(strings.TrimPrefix(tok, "cn"), "c")
	if len(digits) > 1 && digits[0] == '0' {
		return Arg{}, d.errorf("non-canonical constant %q", tok)
	}
	mag, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return Arg{}, d.errorf("constant %q: %v", tok, err)
	}
	var v int64
	switch {
	case neg && mag == 0:
		return Arg{}, d.errorf("non-canonical constant %q", tok)
	case neg && mag <= 1<<63:
		v = int64(-mag)
	case !neg && mag < 1<<63:
		v = int64(mag)
	default:
		return Arg{}, d.errorf("constant %q out of range", tok)
	}
	d.pos += len(tok)
	return Arg{Kind: ArgConstant, Value: v}, nil
}
