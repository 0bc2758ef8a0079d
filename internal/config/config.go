// Package config defines the canonical, JSON-serializable configuration model
// for the groupmerge application. It is intentionally small, explicit, and
// dependency-free so that pipelines can be loaded from disk (or other
// sources) and passed through the program without additional glue code.
//
// Example (trimmed):
//
//	{
//	  "job":      "orders_merge",
//	  "source":   { "kind": "file", "file": { "path": "path/to.csv" } },
//	  "parser":   { "kind": "csv", "options": { "has_header": true } },
//	  "transform":[ { "kind": "normalize" } ],
//	  "merge":    { "group_key": "order_id",
//	                "source_fields": ["item_01","item_02"] },
//	  "sink":     { "kind": "csvfile", "file": { "path": "out.csv" } }
//	}
package config

import "encoding/json"

// Pipeline describes one full merge run in JSON. It is the top-level object
// decoded from a pipeline file.
type Pipeline struct {
	// Job identifies the run; it labels metrics and log lines.
	Job string `json:"job"`

	// Source describes where input data comes from (local file or http).
	Source Source `json:"source"`

	// Parser configures how raw bytes are turned into records.
	Parser Parser `json:"parser"`

	// Transform lists the ordered pre-merge transformations. Each transform
	// has a kind and an options bag interpreted by the implementation.
	Transform []Transform `json:"transform"`

	// Merge configures the grouping/aggregation core.
	Merge Merge `json:"merge"`

	// Sink describes where merged records are written.
	Sink    Sink          `json:"sink"`
	Runtime RuntimeConfig `json:"runtime"`
}

// Merge configures the record-grouping and multi-value aggregation core.
type Merge struct {
	// GroupKey names the field whose value determines which records merge
	// together. A key absent from the input degrades to row-wise mode.
	GroupKey string `json:"group_key"`

	// SourceFields is the ordered family of repeated-slot fields whose
	// values feed the aggregated list.
	SourceFields []string `json:"source_fields"`

	// RetainSourceFields keeps the source fields in the output (first-row
	// values). Default false: they are omitted.
	RetainSourceFields bool `json:"retain_source_fields"`

	// OutputField names the serialized list field; "values" when empty.
	OutputField string `json:"output_field"`
}

// RuntimeConfig controls sink batching and channel buffer sizes.
type RuntimeConfig struct {
	BatchSize     int `json:"batch_size"`
	ChannelBuffer int `json:"channel_buffer"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	// URL is fetched with a plain GET; the full body is the input.
	URL string `json:"url"`
}

// Parser selects how to parse the raw source into logical rows/columns.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include:
	//   has_header (bool), comma (string), trim_space (bool),
	//   expected_fields (int), header_map (object), encodings (array)
	Options Options `json:"options"`
}

// Transform defines a single pre-merge transformation step.
type Transform struct {
	// Kind selects the transform implementation ("normalize", "require",
	// "dedup"). Implementations define their own options.
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the selected transform.
	Options Options `json:"options"`
}

// Sink selects where merged records are written.
type Sink struct {
	// Kind selects the sink implementation: "csvfile", "sqlite", "postgres".
	Kind string `json:"kind"`

	// File carries options for the "csvfile" sink kind.
	File SinkFile `json:"file"`

	// DB carries options for the database sink kinds.
	DB DBConfig `json:"db"`
}

// SinkFile holds configuration for the "csvfile" sink kind.
type SinkFile struct {
	// Path is the output file path; it is created or truncated.
	Path string `json:"path"`

	// Comma is the output field delimiter; "," when empty.
	Comma string `json:"comma"`
}

// DBConfig configures a database sink.
type DBConfig struct {
	// DSN is the connection string (pgxpool URL for postgres, file path or
	// URI for sqlite).
	DSN string `json:"dsn"`

	// Table is the target table name (fully qualified for postgres, e.g.
	// "public.merged").
	Table string `json:"table"`

	// AutoCreateTable creates the table (all-TEXT columns derived from the
	// output schema) before loading when true.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Useful for single-character parser settings such as a
// CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of
// strings (or interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null
// "options" object decodes to a non-nil, empty Options map. This removes the
// need to nil-check Options at call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
