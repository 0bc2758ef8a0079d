package merge

import (
	"testing"

	"groupmerge/pkg/records"
)

func TestFormatList(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, "[]"},
		{[]string{"a"}, "[a]"},
		{[]string{"123", "456"}, "[123,456]"},
	}
	for _, tc := range cases {
		if got := FormatList(tc.in); got != tc.want {
			t.Fatalf("FormatList(%v): got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestAssembleOmitsSourceFieldsByDefault(t *testing.T) {
	cfg := Config{SourceFields: []string{"slot_01"}}
	first := rec(map[string]any{"k": "1", "slot_01": "raw"})
	out := Assemble(rec(map[string]any{"k": "1"}), []string{"raw"}, cfg, first)
	if out.Has("slot_01") {
		t.Fatalf("source field retained without retention: %#v", out)
	}
	if out.String("values") != "[raw]" {
		t.Fatalf("values: got %q want [raw]", out.String("values"))
	}
}

func TestAssembleRetainsSourceFields(t *testing.T) {
	cfg := Config{SourceFields: []string{"slot_01"}, RetainSourceFields: true}
	// Retained values come from the first row, unmerged.
	first := rec(map[string]any{"k": "1", "slot_01": "original"})
	out := Assemble(rec(map[string]any{"k": "1"}), []string{"original", "other"}, cfg, first)
	if out.String("slot_01") != "original" {
		t.Fatalf("slot_01: got %q want original", out.String("slot_01"))
	}
	if out.String("values") != "[original,other]" {
		t.Fatalf("values: got %q", out.String("values"))
	}
}

func TestAssembleCustomOutputField(t *testing.T) {
	cfg := Config{OutputField: "merged_items"}
	out := Assemble(records.Record{}, nil, cfg, records.Record{})
	if out.String("merged_items") != "[]" {
		t.Fatalf("merged_items: got %q want []", out.String("merged_items"))
	}
}
