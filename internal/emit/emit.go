// Package emit walks a declaration model and produces one projection per
// declaration, in input order, or nothing at all.
package emit

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/roach88/flatbind/internal/flatten"
	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/project"
	"github.com/roach88/flatbind/internal/symbol"
)

// Options configures a run.
type Options struct {
	Target           *ir.Target
	AllowSignedEnums bool
}

// Error aggregates every generation error of a failed run. errors.As and
// errors.Is see each element.
type Error struct {
	err error
}

func (e *Error) Error() string {
	errs := e.Errors()
	lines := make([]string, 0, len(errs)+1)
	lines = append(lines, fmt.Sprintf("generation failed with %d error(s):", len(errs)))
	for _, err := range errs {
		lines = append(lines, "  "+err.Error())
	}
	return strings.Join(lines, "\n")
}

// Errors returns the collected errors in the order they were found.
func (e *Error) Errors() []error {
	return multierr.Errors(e.err)
}

func (e *Error) Unwrap() []error {
	return e.Errors()
}

type emitter struct {
	model *ir.Model
	proj  *project.Projector
	flat  *flatten.Flattener
	out   *ir.Output
	errs  error

	seen     map[string]string // identifier -> C++ path that claimed it
	aliases  map[string]string // alias -> identifier it names
	reported map[string]bool   // error texts already collected
}

// Emit projects every declaration of m. On any LayoutError, UnresolvedError or
// naming collision it returns an *Error holding all of them and no output.
func Emit(m *ir.Model, opts Options) (*ir.Output, error) {
	enc := symbol.NewEncoder(m)
	proj := project.New(enc, project.Options{Target: opts.Target, AllowSignedEnums: opts.AllowSignedEnums})
	e := &emitter{
		model:    m,
		proj:     proj,
		flat:     flatten.New(proj),
		out:      &ir.Output{Library: m.Library, Target: proj.Target().Name},
		seen:     make(map[string]string),
		aliases:  make(map[string]string),
		reported: make(map[string]bool),
	}

	for i := range m.Decls {
		e.decl(&m.Decls[i])
	}

	if e.errs != nil {
		Logger().Warn("generation failed",
			zap.String("library", m.Library.Name),
			zap.Int("errors", len(multierr.Errors(e.errs))))
		return nil, &Error{err: e.errs}
	}

	Logger().Info("generation complete",
		zap.String("library", m.Library.Name),
		zap.String("target", e.out.Target),
		zap.Int("types", len(e.out.Types())),
		zap.Int("functions", len(e.out.Functions())),
		zap.Int("aliases", len(e.out.Aliases)))
	return e.out, nil
}

// fail collects err once. A declaration that cannot be projected is
// reported at its definition, not again at every reference to it.
func (e *emitter) fail(err error) {
	if e.reported[err.Error()] {
		return
	}
	e.reported[err.Error()] = true
	e.errs = multierr.Append(e.errs, err)
}

func (e *emitter) decl(d *ir.Decl) {
	switch {
	case d.Kind == ir.KindEnum || d.Kind.IsRecord():
		e.typeDecl(d)
	case d.Kind == ir.KindFunction:
		bf, err := e.flat.Flatten(nil, d)
		if err != nil {
			e.fail(err)
			return
		}
		e.function(d, nil, bf, "")
	default:
		e.fail(ir.NewLayoutError(d.Qualified(), "%s declared outside a record", d.Kind))
	}
}

func (e *emitter) typeDecl(d *ir.Decl) {
	pt, err := e.proj.Decl(d)
	if err != nil {
		e.fail(err)
		return
	}
	path := d.Qualified()
	if !e.claim(pt.Ident, path, true) {
		return
	}
	e.out.Add(ir.Entry{Identifier: pt.Ident, Kind: ir.EntryType, Path: path, Type: pt, Source: d})
	Logger().Debug("emitted type", zap.String("ident", pt.Ident), zap.String("kind", string(pt.Kind)))

	aliasBase := ""
	if d.Alias != "" {
		aliasBase = e.aliasRoot(d) + "_" + d.Alias
		suffix := symbol.RecordSuffix
		if d.Kind == ir.KindEnum {
			suffix = symbol.EnumSuffix
		}
		e.alias(aliasBase+suffix, pt.Ident)
	}

	for _, c := range pt.Constants {
		if e.claim(c.Ident, path+"::"+c.Name, false) && aliasBase != "" {
			e.alias(aliasBase+"_"+c.Name, c.Ident)
		}
	}

	for i := range d.Members {
		member := &d.Members[i]
		bf, err := e.flat.Flatten(d, member)
		if err != nil {
			e.fail(err)
			continue
		}
		e.function(member, d, bf, aliasBase)
	}
}

func (e *emitter) function(d, record *ir.Decl, bf *ir.BoundFunction, aliasBase string) {
	path := d.Qualified()
	if record != nil {
		path = record.MemberPath(d)
	}
	if !e.claim(bf.Symbol, path, false) {
		return
	}
	e.out.Add(ir.Entry{Identifier: bf.Symbol, Kind: ir.EntryFunction, Path: path, Function: bf, Source: d})
	Logger().Debug("emitted function", zap.String("symbol", bf.Symbol), zap.Bool("throws", bf.Throws))

	if aliasBase == "" {
		return
	}
	n, err := symbol.Decode(bf.Symbol)
	if err != nil {
		return // reported by claim
	}
	name := aliasBase + "_" + n.Scope[len(n.Scope)-1].Token()
	if n.Overload > 0 {
		name = fmt.Sprintf("%s_%d", name, n.Overload)
	}
	e.alias(name, bf.Symbol)
}

// claim registers an identifier for path, reporting a collision if another
// declaration holds it or the identifier does not decode back to itself.
func (e *emitter) claim(ident, path string, isType bool) bool {
	if prev, ok := e.seen[ident]; ok {
		e.fail(ir.NewNamingCollisionError(ident, prev, path))
		return false
	}
	if target, ok := e.aliases[ident]; ok {
		e.fail(ir.NewNamingCollisionError(ident, target, path))
		return false
	}
	e.seen[ident] = path

	var reencoded string
	if isType {
		n, kind, err := symbol.DecodeType(ident)
		if err == nil {
			reencoded = symbol.TypeIdent(n, kind)
		}
	} else if n, err := symbol.Decode(ident); err == nil {
		reencoded = symbol.Encode(n)
	}
	if reencoded != ident {
		e.fail(ir.NewNamingCollisionError(ident, path, ""))
		return false
	}
	return true
}

func (e *emitter) alias(name, target string) {
	if prev, ok := e.aliases[name]; ok {
		e.fail(ir.NewNamingCollisionError(name, prev, target))
		return
	}
	if holder, ok := e.seen[name]; ok {
		e.fail(ir.NewNamingCollisionError(name, holder, target))
		return
	}
	e.aliases[name] = target
	e.out.Aliases = append(e.out.Aliases, ir.Alias{Name: name, Target: target})
}

func (e *emitter) aliasRoot(d *ir.Decl) string {
	if len(d.Namespace) > 0 {
		return d.Namespace[0]
	}
	return symbol.GlobalRoot(e.model.Library)
}
