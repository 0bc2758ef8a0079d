// Package merge implements the record-grouping and multi-value aggregation
// core. It collapses all rows sharing a group-key value into one output row:
//
//   - values from a configured ordered family of source fields are merged
//     into a single deduplicated, first-occurrence-ordered list;
//   - every other field resolves by first-non-blank-wins across the group's
//     rows in input order;
//   - blank values and the exact literal "NULL" never enter the list.
//
// The package runs in-memory on a single batch (slice) of records. Grouping
// preserves first-encounter order, and rows keep their relative input order
// within a group, so results are deterministic for a given input.
package merge

import "groupmerge/pkg/records"

// Group is an ordered run of input records sharing one group-key value, or
// a singleton when the key field is absent from the input schema.
type Group struct {
	Key  string
	Rows []records.Record
}

// GroupRecords partitions recs by the exact string value of keyField.
//
// Key presence is a one-time schema check against the first record: when the
// field exists, records with the same key value join one group wherever they
// appear in the input, groups ordered by first encounter and rows in input
// order. When the field is absent, every record becomes its own singleton
// group. Any key value, including blank, forms a valid group.
func GroupRecords(recs []records.Record, keyField string) []Group {
	if len(recs) == 0 {
		return nil
	}
	if !recs[0].Has(keyField) {
		// Row-wise mode: no grouping, input order preserved.
		groups := make([]Group, len(recs))
		for i, r := range recs {
			groups[i] = Group{Rows: []records.Record{r}}
		}
		return groups
	}

	index := make(map[string]int, len(recs))
	var groups []Group
	for _, r := range recs {
		key := r.String(keyField)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}
