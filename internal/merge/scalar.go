package merge

import (
	"strings"

	"groupmerge/pkg/records"
)

// MergeScalars resolves one value per scalar field for the group using a
// first-non-blank-wins policy.
//
// The field universe is the union of field names across the group's rows
// minus excluded (the aggregation-source fields). Per field: the first row's
// trimmed value wins when non-blank; otherwise the first trimmed-non-blank
// value found scanning later rows in order; otherwise the field stays blank,
// mirroring the first row's representation (nil when absent or nil, empty
// string when present but blank).
func MergeScalars(g Group, excluded map[string]bool) records.Record {
	out := records.Record{}
	if len(g.Rows) == 0 {
		return out
	}
	for _, row := range g.Rows {
		for f := range row {
			if excluded[f] || out.Has(f) {
				continue
			}
			out[f] = resolveField(g.Rows, f)
		}
	}
	return out
}

// resolveField scans rows in order and returns the first trimmed non-blank
// value for field f, or a blank matching the first row's representation.
func resolveField(rows []records.Record, f string) any {
	for _, row := range rows {
		if v := strings.TrimSpace(row.String(f)); v != "" {
			return v
		}
	}
	if v, ok := rows[0][f]; ok && v != nil {
		return ""
	}
	return nil
}
