package parser

import (
	"io"

	"groupmerge/pkg/records"
)

// Result is the outcome of parsing one input: the parsed records, the
// canonical column order discovered once from the input, and the number of
// rows soft-skipped due to parse errors or width mismatches.
type Result struct {
	Columns []string
	Records []records.Record
	Skipped int
}

type Parser interface {
	Parse(r io.Reader) (*Result, error)
}
