package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// builtinWords are the keywords that combine into multi-word builtin spellings.
var builtinWords = map[string]bool{
	"void": true, "bool": true, "char": true, "short": true, "int": true,
	"long": true, "float": true, "double": true, "signed": true, "unsigned": true,
}

// builtinAliases maps accepted spellings to the canonical builtin spelling.
var builtinAliases = map[string]string{
	"unsigned":               "unsigned int",
	"signed":                 "int",
	"signed int":             "int",
	"short int":              "short",
	"signed short":           "short",
	"unsigned short int":     "unsigned short",
	"long int":               "long",
	"signed long":            "long",
	"unsigned long int":      "unsigned long",
	"long long int":          "long long",
	"signed long long":       "long long",
	"unsigned long long int": "unsigned long long",
}

// ParseTypeRef parses a C++ type spelling such as "const Imath::Vec3<float>&"
// or "unsigned long*". A const before the base type or directly after it
// qualifies the pointee of the first pointer or reference; top-level const on
// a pointer is ignored.
func ParseTypeRef(s string) (TypeRef, error) {
	p := &typeParser{src: s}
	if err := p.tokenize(); err != nil {
		return TypeRef{}, err
	}
	t, err := p.parseType()
	if err != nil {
		return TypeRef{}, err
	}
	if p.pos < len(p.toks) {
		return TypeRef{}, p.errorf("unexpected %q", p.toks[p.pos])
	}
	return t, nil
}

// MustParseTypeRef is like ParseTypeRef but panics on error.
// Use only in tests or for spellings known to be valid.
func MustParseTypeRef(s string) TypeRef {
	t, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return t
}

// UnmarshalYAML accepts either a type spelling or the structured form.
func (t *TypeRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		parsed, err := ParseTypeRef(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*t = parsed
		return nil
	}
	type plain TypeRef
	return value.Decode((*plain)(t))
}

// UnmarshalJSON accepts either a type spelling or the structured form.
func (t *TypeRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTypeRef(s)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}
	type plain TypeRef
	return json.Unmarshal(data, (*plain)(t))
}

type typeParser struct {
	src  string
	toks []string
	pos  int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q: %s", p.src, fmt.Sprintf(format, args...))
}

func (p *typeParser) tokenize() error {
	s := p.src
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == ':':
			if i+1 >= len(s) || s[i+1] != ':' {
				return p.errorf("stray ':' at offset %d", i)
			}
			p.toks = append(p.toks, "::")
			i += 2
		case c == '<' || c == '>' || c == ',' || c == '*' || c == '&':
			p.toks = append(p.toks, string(c))
			i++
		case c == '-' || (c >= '0' && c <= '9'):
			j := i + 1
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			p.toks = append(p.toks, s[i:j])
			i = j
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			j := i + 1
			for j < len(s) && (s[j] == '_' || (s[j] >= 'a' && s[j] <= 'z') || (s[j] >= 'A' && s[j] <= 'Z') || (s[j] >= '0' && s[j] <= '9')) {
				j++
			}
			p.toks = append(p.toks, s[i:j])
			i = j
		default:
			return p.errorf("unexpected character %q at offset %d", c, i)
		}
	}
	if len(p.toks) == 0 {
		return p.errorf("empty")
	}
	return nil
}

func (p *typeParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *typeParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *typeParser) accept(tok string) bool {
	if p.peek() == tok {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) parseType() (TypeRef, error) {
	pending := p.accept("const")

	tok := p.peek()
	if tok == "" {
		return TypeRef{}, p.errorf("missing type")
	}
	var (
		t   TypeRef
		err error
	)
	if c := tok[0]; c == '-' || (c >= '0' && c <= '9') {
		p.pos++
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return TypeRef{}, p.errorf("bad constant %q", tok)
		}
		return ConstantRef(v), nil
	}
	if builtinWords[tok] {
		t, err = p.parseBuiltinWords()
	} else {
		t, err = p.parseNamed()
	}
	if err != nil {
		return TypeRef{}, err
	}
	if p.accept("const") {
		pending = true
	}

	for {
		switch {
		case p.accept("*"):
			t = PointerTo(t, pending)
		case p.accept("&"):
			t = ReferenceTo(t, pending)
		default:
			if pending && !t.IsIndirect() {
				t.Const = true
			}
			return t, nil
		}
		pending = p.accept("const")
	}
}

func (p *typeParser) parseBuiltinWords() (TypeRef, error) {
	var words []string
	for builtinWords[p.peek()] {
		words = append(words, p.next())
	}
	spelling := strings.Join(words, " ")
	if canon, ok := builtinAliases[spelling]; ok {
		spelling = canon
	}
	if _, ok := BuiltinToken(spelling); !ok {
		return TypeRef{}, p.errorf("unknown builtin %q", spelling)
	}
	return BuiltinRef(spelling), nil
}

func (p *typeParser) parseNamed() (TypeRef, error) {
	var parts []string
	p.accept("::")
	for {
		id := p.next()
		if !isIdentToken(id) {
			return TypeRef{}, p.errorf("expected identifier, got %q", id)
		}
		parts = append(parts, id)
		if !p.accept("::") {
			break
		}
	}
	name := parts[len(parts)-1]
	if len(parts) == 1 && p.peek() != "<" {
		if _, ok := BuiltinToken(name); ok {
			return BuiltinRef(name), nil
		}
	}
	if len(parts) == 2 && parts[0] == "std" {
		if _, ok := BuiltinToken(name); ok {
			return BuiltinRef(name), nil
		}
	}

	t := NamedRef(parts[:len(parts)-1], name)
	if len(t.Namespace) == 0 {
		t.Namespace = nil
	}
	if p.accept("<") {
		for {
			arg, err := p.parseType()
			if err != nil {
				return TypeRef{}, err
			}
			t.Args = append(t.Args, arg)
			if p.accept(">") {
				break
			}
			if !p.accept(",") {
				return TypeRef{}, p.errorf("expected ',' or '>' in template arguments")
			}
		}
	}
	return t, nil
}

func isIdentToken(s string) bool {
	if s == "" || s == "const" {
		return false
	}
	c := s[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
