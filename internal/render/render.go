// Package render turns a generation run into the files a host build consumes:
// a C header declaring the flat surface, a C++ shim implementing it against
// the library, and the identifier-to-declaration mapping table.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/flatbind/internal/ir"
	"github.com/roach88/flatbind/internal/symbol"
)

// Files holds the rendered artifacts of one library.
type Files struct {
	Library string
	Header  []byte
	Shim    []byte
	Mapping []byte
}

// Render renders all artifacts of out.
func Render(out *ir.Output) (*Files, error) {
	mapping, err := Mapping(out)
	if err != nil {
		return nil, err
	}
	return &Files{
		Library: out.Library.Name,
		Header:  Header(out),
		Shim:    Shim(out),
		Mapping: mapping,
	}, nil
}

// Names returns the file names of a library's artifacts: header, shim and
// mapping table.
func Names(lib string) (header, shim, mapping string) {
	return lib + ".h", lib + ".cpp", lib + "-mapping.json"
}

// Write writes the artifacts into dir and returns the paths written.
func (f *Files) Write(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	h, s, m := Names(f.Library)
	var paths []string
	for _, file := range []struct {
		name string
		data []byte
	}{{h, f.Header}, {s, f.Shim}, {m, f.Mapping}} {
		path := filepath.Join(dir, file.name)
		if err := os.WriteFile(path, file.data, 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", file.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// StatusType returns the C typedef of a library's status code.
func StatusType(lib ir.Library) string {
	return symbol.GlobalRoot(lib) + "_status_t"
}

// Mapping renders the mapping table with its fingerprint as indented
// canonical JSON. Key order is the canonical order.
func Mapping(out *ir.Output) ([]byte, error) {
	fp, err := ir.Fingerprint(out)
	if err != nil {
		return nil, err
	}
	table := out.MappingTable()
	table["fingerprint"] = fp
	canonical, err := ir.MarshalCanonical(table)
	if err != nil {
		return nil, fmt.Errorf("marshal mapping table: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, canonical, "", "  "); err != nil {
		return nil, fmt.Errorf("indent mapping table: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

type writer struct {
	b strings.Builder
}

func (w *writer) line(format string, args ...any) {
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *writer) raw(s string) {
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

func (w *writer) bytes() []byte {
	return []byte(w.b.String())
}

func banner(out *ir.Output, file string) string {
	lib := out.Library
	return fmt.Sprintf("%s: generated by flatbind %s for %s %s (%s). Do not edit.",
		file, ir.GeneratorVersion, lib.Name, lib.Version, out.Target)
}

// params renders a C parameter list.
func params(f *ir.BoundFunction) string {
	if len(f.Params) == 0 {
		return "void"
	}
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.Type.Ident + " " + p.Name
	}
	return strings.Join(parts, ", ")
}
