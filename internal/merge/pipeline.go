package merge

import (
	"errors"

	"groupmerge/pkg/records"
)

// ErrEmptyInput is returned by Run when zero input records are supplied.
// The caller must surface it; an empty input never yields an empty output
// silently.
var ErrEmptyInput = errors.New("merge: no input records")

// DefaultListField names the serialized value-list field when the pipeline
// configuration leaves OutputField empty.
const DefaultListField = "values"

// Config carries the merge pipeline settings. One explicit value is passed
// in by the caller; there is no implicit or global configuration.
type Config struct {
	// GroupKey names the field whose value determines which records merge
	// together. It may be absent from the input schema, in which case every
	// record forms its own singleton group.
	GroupKey string

	// SourceFields is the ordered family of repeated-slot fields whose
	// values feed the aggregated list.
	SourceFields []string

	// RetainSourceFields keeps the source fields in the output with their
	// first-row values. Default is to omit them.
	RetainSourceFields bool

	// OutputField names the serialized list field; DefaultListField when
	// empty.
	OutputField string
}

// ListField returns the effective output field name.
func (c Config) ListField() string {
	if c.OutputField == "" {
		return DefaultListField
	}
	return c.OutputField
}

// sourceSet returns SourceFields as a membership set.
func (c Config) sourceSet() map[string]bool {
	set := make(map[string]bool, len(c.SourceFields))
	for _, f := range c.SourceFields {
		set[f] = true
	}
	return set
}

// Run executes grouping, aggregation, scalar merging, and assembly over the
// whole batch and returns one output record per group, preserving group
// first-encounter order. It fails with ErrEmptyInput on zero records; all
// other irregularities (missing fields, all-blank groups) are resolved by
// policy, not by failure.
func Run(recs []records.Record, cfg Config) ([]records.Record, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyInput
	}
	excluded := cfg.sourceSet()
	groups := GroupRecords(recs, cfg.GroupKey)
	out := make([]records.Record, 0, len(groups))
	for _, g := range groups {
		values := CollectValues(g, cfg.SourceFields)
		scalars := MergeScalars(g, excluded)
		out = append(out, Assemble(scalars, values, cfg, g.Rows[0]))
	}
	return out, nil
}

// OutputColumns derives the ordered output schema from the input columns:
// input order with source fields removed (kept in place when retention is
// enabled) and the list field appended last. A pre-existing column matching
// the list field name is dropped so the name appears exactly once.
func OutputColumns(inputCols []string, cfg Config) []string {
	excluded := cfg.sourceSet()
	out := make([]string, 0, len(inputCols)+1)
	for _, c := range inputCols {
		if excluded[c] && !cfg.RetainSourceFields {
			continue
		}
		if c == cfg.ListField() {
			continue
		}
		out = append(out, c)
	}
	return append(out, cfg.ListField())
}
