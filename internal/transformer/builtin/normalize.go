// Package builtin contains the reusable pre-merge transformers selectable
// from pipeline configuration. They clean or shrink the parsed batch before
// the grouping core runs; none of them alter merge semantics.
package builtin

import (
	"strings"

	"groupmerge/pkg/records"
)

// Normalize trims surrounding whitespace and replaces non-breaking spaces in
// every string value. Values trimmed down to nothing become nil so they read
// as blank downstream.
type Normalize struct{}

func (Normalize) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, r := range in {
		nr := make(records.Record, len(r))
		for k, v := range r {
			if s, ok := v.(string); ok {
				s = strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
				if s == "" {
					nr[k] = nil
					continue
				}
				nr[k] = s
				continue
			}
			nr[k] = v
		}
		out[i] = nr
	}
	return out
}
