package merge

import (
	"strings"
)

// Sentinel is the literal value treated as "no data" in source fields. The
// match is exact and case-sensitive; "null" or "Null" pass through as real
// values.
const Sentinel = "NULL"

// CollectValues returns the deduplicated, first-occurrence-ordered list of
// non-blank, non-sentinel values drawn from sourceFields across the group's
// rows.
//
// Rows are scanned in group order and, within a row, sourceFields in their
// configured order; the result reflects encounter order across (row, field)
// pairs, not field order across rows. Fields absent from a row are treated
// as blank. The result may be empty.
func CollectValues(g Group, sourceFields []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, row := range g.Rows {
		for _, f := range sourceFields {
			v := strings.TrimSpace(row.String(f))
			if v == "" || v == Sentinel {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
