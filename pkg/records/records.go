// Package records defines the record model shared by the parser, transform,
// merge, and storage layers.
//
// A Record is a field-name -> value map produced by a parser. Values are
// strings as read from the input; a blank cell is stored as nil so that
// "present but empty" and "absent" behave identically downstream. Records
// are treated as immutable once parsed: transforms and the merge pipeline
// construct new Records rather than mutating ones still referenced by
// input-order bookkeeping.
package records

import "fmt"

// Record is one parsed row. Keys are canonical column names; values are
// strings or nil (blank).
type Record map[string]any

// String returns the value for key rendered as a string. Missing keys and
// nil values render as "".
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether key is present in the record's field set, regardless
// of whether its value is blank.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
