package builtin

import (
	"reflect"
	"testing"

	"groupmerge/pkg/records"
)

func TestRequireFiltersMissing(t *testing.T) {
	in := []records.Record{
		{"id": "1", "name": "A"},
		{"id": "2", "name": nil},
		{"id": "3", "name": ""},
		{"id": "4"},
		{"id": "5", "name": "E"},
	}
	got := Require{Fields: []string{"id", "name"}}.Apply(in)
	want := []records.Record{
		{"id": "1", "name": "A"},
		{"id": "5", "name": "E"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestRequireNoFieldsKeepsAll(t *testing.T) {
	in := []records.Record{{"id": nil}, {}}
	got := Require{}.Apply(in)
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("got %#v want all records kept", got)
	}
}
