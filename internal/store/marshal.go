package store

import (
	"fmt"

	"github.com/roach88/flatbind/internal/ir"
)

// mappingRecords returns the canonical mapping table of out and the
// canonical JSON of each entry, aligned with out.Entries.
func mappingRecords(out *ir.Output) (string, []string, error) {
	table := out.MappingTable()
	data, err := ir.MarshalCanonical(table)
	if err != nil {
		return "", nil, fmt.Errorf("marshal mapping: %w", err)
	}

	entries, _ := table["entries"].([]any)
	if len(entries) != len(out.Entries) {
		return "", nil, fmt.Errorf("marshal mapping: %d table entries for %d output entries", len(entries), len(out.Entries))
	}
	details := make([]string, len(entries))
	for i, e := range entries {
		d, err := ir.MarshalCanonical(e)
		if err != nil {
			return "", nil, fmt.Errorf("marshal entry %s: %w", out.Entries[i].Identifier, err)
		}
		details[i] = string(d)
	}
	return string(data), details, nil
}

// entryVersion is the version a mapping row is filed under. Entries without
// a source declaration fall back to the library version.
func entryVersion(out *ir.Output, e ir.Entry) ir.Version {
	if e.Source != nil && !e.Source.Version.IsZero() {
		return e.Source.Version
	}
	return out.Library.Version
}

func entryDeclKind(e ir.Entry) string {
	if e.Source != nil {
		return string(e.Source.Kind)
	}
	return ""
}
