// Package csv implements the CSV parser for the merge pipeline. The whole
// input is materialized, decoded through an ordered list of encoding
// strategies, and parsed into records with canonical column names. Malformed
// rows are skipped softly and counted rather than failing the run.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"groupmerge/internal/parser"
	"groupmerge/pkg/records"
)

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// ExpectedFields, when > 0, enforces a fixed field count per record.
	// Rows with a different width are skipped (soft-fail) and counted.
	ExpectedFields int

	// HeaderMap maps source header names to canonical keys (e.g.,
	// localization to snake_case). Only applies when HasHeader is true.
	HeaderMap map[string]string

	// Encodings is the ordered list of decode strategies tried in sequence
	// before parsing (see decodeBytes). Empty means utf-8, windows-1250,
	// latin-1.
	Encodings []string
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// skipLogLimit caps per-row skip logging so a corrupt file cannot flood the
// log.
const skipLogLimit = 400

// Parse consumes the full input, decodes it with the configured encoding
// chain, and returns the parsed records plus the canonical column order.
// Rows that fail to parse or have an unexpected width are skipped and
// counted in Result.Skipped.
func (p *Parser) Parse(r io.Reader) (*parser.Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	decoded, encName, err := decodeBytes(raw, p.opt.Encodings)
	if err != nil {
		return nil, err
	}
	if encName != "utf-8" {
		log.Printf("csv: decoded input as %s", encName)
	}

	cr := csv.NewReader(strings.NewReader(string(decoded)))
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // width is enforced after read

	var headers []string
	res := &parser.Result{}

	if p.opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, fmt.Errorf("read csv header: %w", err)
		}
		headers = normalizeHeaders(h, p.opt)
	} else if p.opt.ExpectedFields > 0 {
		headers = make([]string, p.opt.ExpectedFields)
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
	}

	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if res.Skipped < skipLogLimit {
				log.Printf("csv: skipping row %d: %v", line, err)
			}
			res.Skipped++
			continue
		}

		// First data row of a headerless input fixes the width.
		if headers == nil {
			headers = make([]string, len(row))
			for i := range headers {
				headers[i] = fmt.Sprintf("col_%d", i)
			}
		}
		if len(row) != len(headers) {
			if res.Skipped < skipLogLimit {
				log.Printf("csv: skipping row %d: incorrect number of fields (expected %d, got %d)", line, len(headers), len(row))
			}
			res.Skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = emptyToNil(val)
		}
		res.Records = append(res.Records, rec)
	}

	res.Columns = headers
	return res, nil
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
