package ir

// EntryKind distinguishes type entries from function entries.
type EntryKind string

const (
	EntryType     EntryKind = "type"
	EntryFunction EntryKind = "function"
)

// Entry is one emitted projection, keyed by its identifier.
type Entry struct {
	Identifier string         `json:"identifier"`
	Kind       EntryKind      `json:"kind"`
	Path       string         `json:"path"` // C++ spelling of the source declaration
	Type       *ProjectedType `json:"type,omitempty"`
	Function   *BoundFunction `json:"function,omitempty"`
	Source     *Decl          `json:"-"`
}

// Alias is a short name bound to an emitted identifier.
type Alias struct {
	Name   string `json:"name"`
	Target string `json:"target"`
}

// Output is the complete, consistent result of one generation run.
// Entries are in the input model's enumeration order.
type Output struct {
	Library Library `json:"library"`
	Target  string  `json:"target"`
	Entries []Entry `json:"entries"`
	Aliases []Alias `json:"aliases"`

	index map[string]int
}

// Add appends an entry. Callers guarantee identifiers are unique.
func (o *Output) Add(e Entry) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	o.index[e.Identifier] = len(o.Entries)
	o.Entries = append(o.Entries, e)
}

// Lookup finds the entry for an identifier.
func (o *Output) Lookup(ident string) (*Entry, bool) {
	i, ok := o.index[ident]
	if !ok {
		return nil, false
	}
	return &o.Entries[i], true
}

// Types returns the type entries in order.
func (o *Output) Types() []*ProjectedType {
	var out []*ProjectedType
	for _, e := range o.Entries {
		if e.Kind == EntryType {
			out = append(out, e.Type)
		}
	}
	return out
}

// Functions returns the function entries in order.
func (o *Output) Functions() []*BoundFunction {
	var out []*BoundFunction
	for _, e := range o.Entries {
		if e.Kind == EntryFunction {
			out = append(out, e.Function)
		}
	}
	return out
}

// Symbols returns the exported symbol set in order: the link-time contract.
func (o *Output) Symbols() []string {
	var out []string
	for _, f := range o.Functions() {
		out = append(out, f.Symbol)
	}
	return out
}

// MappingTable builds the identifier-to-declaration table as a canonical
// JSON tree. Entries stay in emission order.
func (o *Output) MappingTable() map[string]any {
	entries := make([]any, 0, len(o.Entries))
	for _, e := range o.Entries {
		m := map[string]any{
			"identifier": e.Identifier,
			"kind":       string(e.Kind),
			"path":       e.Path,
		}
		if e.Source != nil {
			m["decl_kind"] = string(e.Source.Kind)
			m["version"] = e.Source.Version.String()
		}
		switch e.Kind {
		case EntryType:
			m["projection"] = typeTable(e.Type)
		case EntryFunction:
			m["throws"] = e.Function.Throws
			m["function_kind"] = string(e.Function.Kind)
			params := make([]any, 0, len(e.Function.Params))
			for _, p := range e.Function.Params {
				params = append(params, map[string]any{
					"name": p.Name,
					"type": p.Type.Ident,
					"mode": string(p.Mode),
				})
			}
			m["params"] = params
			ret := "void"
			if !e.Function.Return.IsVoid() {
				ret = e.Function.Return.Ident
			}
			m["return"] = ret
		}
		entries = append(entries, m)
	}

	aliases := make([]any, 0, len(o.Aliases))
	for _, a := range o.Aliases {
		aliases = append(aliases, map[string]any{"name": a.Name, "target": a.Target})
	}

	return map[string]any{
		"library":    o.Library.Name,
		"version":    o.Library.Version.String(),
		"target":     o.Target,
		"ir_version": IRVersion,
		"entries":    entries,
		"aliases":    aliases,
		"symbols":    stringList(o.Symbols()),
	}
}

func typeTable(p *ProjectedType) map[string]any {
	m := map[string]any{
		"kind":  string(p.Kind),
		"size":  p.Size,
		"align": p.Align,
	}
	l := p.Layout()
	if p.Kind == ProjTemplate {
		m["base"] = p.Base
		m["repr"] = string(l.Kind)
		args := make([]any, 0, len(p.Args))
		for _, a := range p.Args {
			args = append(args, a.Ident)
		}
		m["args"] = args
	}
	if l.Kind == ProjMirrored {
		m["bytes"] = l.Bytes
		fields := make([]any, 0, len(l.Fields))
		for _, f := range l.Fields {
			fields = append(fields, map[string]any{
				"name":   f.Name,
				"type":   f.Type.Ident,
				"offset": f.Offset,
				"size":   f.Size,
				"align":  f.Align,
			})
		}
		m["fields"] = fields
	}
	if p.Kind == ProjScalarEnum {
		m["width"] = p.Width
		m["signed"] = p.Signed
		consts := make([]any, 0, len(p.Constants))
		for _, c := range p.Constants {
			consts = append(consts, map[string]any{"name": c.Name, "ident": c.Ident, "value": c.Value})
		}
		m["constants"] = consts
	}
	return m
}

func stringList(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}
