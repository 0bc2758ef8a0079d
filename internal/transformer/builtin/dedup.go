package builtin

import (
	"fmt"
	"sort"
	"strings"

	"groupmerge/pkg/records"
)

// DeDup drops exact duplicate rows by a configured key before merging. This
// is useful when an export repeats whole rows: collapsing them early keeps
// group sizes honest without touching the merge core's semantics.
//
// Policies:
//
//   - "keep-first" : keep the earliest occurrence in the batch (default)
//   - "keep-last"  : keep the latest occurrence in the batch
//
// A record's key is the concatenation of the configured fields as strings
// (nil -> "\x00"). Records missing a key field are passed through untouched.
type DeDup struct {
	// Keys are the field names that form the identity of a row.
	Keys []string

	// Policy selects the winner among duplicates; default "keep-first".
	Policy string
}

// Apply returns a new slice containing only the winning record for each key,
// in ascending input position of the winner, followed by pass-through
// records that could not be keyed.
func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = "keep-first"
	}

	type slot struct {
		rec   records.Record
		index int
	}
	winners := make(map[string]slot, len(in))

	keyOf := func(r records.Record) (string, bool) {
		var b strings.Builder
		for _, k := range d.Keys {
			v, ok := r[k]
			if !ok {
				return "", false
			}
			if b.Len() > 0 {
				b.WriteByte('\x1f')
			}
			switch t := v.(type) {
			case nil:
				b.WriteByte('\x00')
			case string:
				b.WriteString(t)
			default:
				b.WriteString(fmt.Sprint(t))
			}
		}
		return b.String(), true
	}

	for i, r := range in {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		switch policy {
		case "keep-last":
			winners[key] = slot{rec: r, index: i}
		default: // keep-first
			if _, exists := winners[key]; !exists {
				winners[key] = slot{rec: r, index: i}
			}
		}
	}

	// Winners in ascending index order, then pass-through records in
	// original order.
	indexes := make([]int, 0, len(winners))
	byIndex := make(map[int]records.Record, len(winners))
	for _, s := range winners {
		indexes = append(indexes, s.index)
		byIndex[s.index] = s.rec
	}
	sort.Ints(indexes)

	out := make([]records.Record, 0, len(winners))
	for _, idx := range indexes {
		out = append(out, byIndex[idx])
	}
	for _, r := range in {
		if _, ok := keyOf(r); !ok {
			out = append(out, r)
		}
	}
	return out
}
