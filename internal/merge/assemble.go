package merge

import (
	"strings"

	"groupmerge/pkg/records"
)

// FormatList serializes an aggregated value list as "[v1,v2,...]", or "[]"
// when the list is empty. Values are joined without escaping: inputs holding
// the separator or brackets do not round-trip (known limitation, preserved
// deliberately).
func FormatList(values []string) string {
	return "[" + strings.Join(values, ",") + "]"
}

// Assemble combines merged scalar fields with the serialized value list into
// one output record. When retention is enabled the source fields are carried
// over with their original, unmerged values from the group's first row;
// otherwise they are omitted entirely.
func Assemble(scalars records.Record, values []string, cfg Config, first records.Record) records.Record {
	out := scalars.Clone()
	if cfg.RetainSourceFields {
		for _, f := range cfg.SourceFields {
			if v, ok := first[f]; ok {
				out[f] = v
			}
		}
	}
	out[cfg.ListField()] = FormatList(values)
	return out
}
