package config

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPipeline_DecodeRoundTrip(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "orders_merge",
	  "source": { "kind": "file", "file": { "path": "testdata/orders.csv" } },
	  "parser": {
	    "kind": "csv",
	    "options": {
	      "has_header": true,
	      "comma": ";",
	      "trim_space": true,
	      "encodings": ["utf-8", "windows-1250"]
	    }
	  },
	  "transform": [
	    { "kind": "normalize", "options": {} },
	    { "kind": "require", "options": { "fields": ["order_id"] } }
	  ],
	  "merge": {
	    "group_key": "order_id",
	    "source_fields": ["item_01", "item_02", "item_03"],
	    "retain_source_fields": true,
	    "output_field": "items"
	  },
	  "sink": { "kind": "csvfile", "file": { "path": "out.csv" } },
	  "runtime": { "batch_size": 500, "channel_buffer": 64 }
	}`

	var p Pipeline
	if err := json.Unmarshal([]byte(js), &p); err != nil {
		t.Fatalf("json.Unmarshal(Pipeline): %v", err)
	}

	if p.Job != "orders_merge" {
		t.Fatalf("job = %q, want orders_merge", p.Job)
	}
	if p.Source.Kind != "file" || p.Source.File.Path != "testdata/orders.csv" {
		t.Fatalf("source decoded = %#v", p.Source)
	}
	if got := p.Parser.Options.Rune("comma", ','); got != ';' {
		t.Fatalf("parser.options.comma = %q, want ';'", got)
	}
	if got := p.Parser.Options.StringSlice("encodings"); !reflect.DeepEqual(got, []string{"utf-8", "windows-1250"}) {
		t.Fatalf("parser.options.encodings = %v", got)
	}
	if p.Merge.GroupKey != "order_id" {
		t.Fatalf("merge.group_key = %q", p.Merge.GroupKey)
	}
	want := []string{"item_01", "item_02", "item_03"}
	if !reflect.DeepEqual(p.Merge.SourceFields, want) {
		t.Fatalf("merge.source_fields = %v, want %v", p.Merge.SourceFields, want)
	}
	if !p.Merge.RetainSourceFields || p.Merge.OutputField != "items" {
		t.Fatalf("merge decoded = %#v", p.Merge)
	}
	if len(p.Transform) != 2 || p.Transform[1].Kind != "require" {
		t.Fatalf("transform decoded = %#v", p.Transform)
	}
	if got := p.Transform[1].Options.StringSlice("fields"); !reflect.DeepEqual(got, []string{"order_id"}) {
		t.Fatalf("require fields = %v", got)
	}
	if p.Sink.Kind != "csvfile" || p.Sink.File.Path != "out.csv" {
		t.Fatalf("sink decoded = %#v", p.Sink)
	}
	if p.Runtime.BatchSize != 500 || p.Runtime.ChannelBuffer != 64 {
		t.Fatalf("runtime decoded = %#v", p.Runtime)
	}
}

// A missing or null options object decodes to a non-nil empty map so call
// sites never nil-check.
func TestOptions_NullDecodesEmpty(t *testing.T) {
	t.Parallel()

	var p Pipeline
	if err := json.Unmarshal([]byte(`{"parser":{"kind":"csv","options":null}}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Parser.Options == nil {
		t.Fatal("options is nil, want empty map")
	}
	if got := p.Parser.Options.Bool("has_header", true); !got {
		t.Fatalf("default lookup on empty options = %v, want true", got)
	}
}

func TestOptions_TypedGetters(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":  "x",
		"b":  true,
		"n":  float64(7),
		"r":  ";",
		"m":  map[string]any{"A": "a", "skip": 1},
		"ss": []any{"p", "q", 3},
	}
	if got := o.String("s", ""); got != "x" {
		t.Fatalf("String = %q", got)
	}
	if got := o.String("missing", "def"); got != "def" {
		t.Fatalf("String default = %q", got)
	}
	if !o.Bool("b", false) {
		t.Fatal("Bool = false, want true")
	}
	if got := o.Int("n", 0); got != 7 {
		t.Fatalf("Int = %d", got)
	}
	if got := o.Rune("r", ','); got != ';' {
		t.Fatalf("Rune = %q", got)
	}
	if got := o.StringMap("m"); !reflect.DeepEqual(got, map[string]string{"A": "a"}) {
		t.Fatalf("StringMap = %v", got)
	}
	if got := o.StringSlice("ss"); !reflect.DeepEqual(got, []string{"p", "q"}) {
		t.Fatalf("StringSlice = %v", got)
	}
}
