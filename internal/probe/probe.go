// Package probe samples the head of a delimited file, detects numbered
// column families (item_01, item_02, ...), and proposes a pipeline config.
// It exists so a new feed can be onboarded without hand-writing the
// source_fields list for wide inputs.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"groupmerge/internal/config"
	"groupmerge/internal/datasource"
	"groupmerge/internal/datasource/file"
	"groupmerge/internal/datasource/httpds"
	"groupmerge/internal/merge"
	"groupmerge/internal/parser"
	csvparser "groupmerge/internal/parser/csv"
)

// Options control sampling and the proposed config.
type Options struct {
	// Path is a local file to sample. Exactly one of Path/URL must be set.
	Path string
	// URL is an HTTP(S) location to sample.
	URL string
	// MaxBytes to read from the start of the input; default 64 KiB.
	MaxBytes int
	// Delimiter; 0 means ','.
	Delimiter rune
	// Job names the proposed pipeline; default derived from the input name.
	Job string
	// SinkKind for the proposed sink section; default "csvfile".
	SinkKind string
}

// SlotFamily is a run of numbered columns sharing a base name, in suffix
// order. Base keeps the header's spelling up to the numeric suffix.
type SlotFamily struct {
	Base   string
	Fields []string
}

// Result carries what the probe observed and proposes.
type Result struct {
	// Columns are the canonicalized header names in input order.
	Columns []string
	// Families are detected numbered column families, largest first.
	Families []SlotFamily
	// GroupKey is the suggested group key column.
	GroupKey string
	// Pipeline is the proposed configuration.
	Pipeline config.Pipeline
}

// suffixed matches a trailing run of digits with an optional separator,
// e.g. "item_01", "phone-2", "tel3".
var suffixed = regexp.MustCompile(`^(.*?)[_-]?([0-9]+)$`)

// Run samples the input, parses its head, and assembles a proposal.
func Run(ctx context.Context, opt Options) (*Result, error) {
	if (opt.Path == "") == (opt.URL == "") {
		return nil, fmt.Errorf("probe: exactly one of path or url must be set")
	}
	maxBytes := opt.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 64 * 1024
	}

	sample, err := sampleBytes(ctx, sourceFor(opt), maxBytes)
	if err != nil {
		return nil, err
	}

	p := csvparser.NewParser(csvparser.Options{
		HasHeader: true,
		Comma:     opt.Delimiter,
		TrimSpace: true,
	})
	parsed, err := p.Parse(bytes.NewReader(sample))
	if err != nil {
		return nil, fmt.Errorf("probe: parse sample: %w", err)
	}
	if len(parsed.Columns) == 0 {
		return nil, fmt.Errorf("probe: no header columns found")
	}

	families := detectFamilies(parsed.Columns)
	groupKey := suggestGroupKey(parsed, families)

	res := &Result{
		Columns:  parsed.Columns,
		Families: families,
		GroupKey: groupKey,
	}
	res.Pipeline = proposePipeline(opt, res)
	return res, nil
}

// RenderJSON returns the proposed pipeline as indented JSON, ready to save
// as a config file.
func (r *Result) RenderJSON() ([]byte, error) {
	out, err := json.MarshalIndent(r.Pipeline, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("probe: render: %w", err)
	}
	return append(out, '\n'), nil
}

func sourceFor(opt Options) datasource.Source {
	if opt.Path != "" {
		return file.NewLocal(opt.Path)
	}
	return httpds.NewRemote(httpds.Config{URL: opt.URL})
}

// sampleBytes reads up to maxBytes and cuts at the last newline so the
// sample never ends mid-record.
func sampleBytes(ctx context.Context, src datasource.Source, maxBytes int) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe: open: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, int64(maxBytes)))
	if err != nil {
		return nil, fmt.Errorf("probe: sample: %w", err)
	}
	if i := bytes.LastIndexByte(data, '\n'); i > 0 {
		data = data[:i+1]
	}
	return data, nil
}

// detectFamilies groups columns whose names end in a numeric suffix by their
// base name. Only bases with at least two members count as a family. Family
// fields keep suffix order; families are returned largest first, ties by
// first appearance in the header.
func detectFamilies(columns []string) []SlotFamily {
	type member struct {
		field string
		n     int
		pos   int
	}
	byBase := make(map[string][]member)
	firstPos := make(map[string]int)

	for pos, col := range columns {
		m := suffixed.FindStringSubmatch(col)
		if m == nil || m[1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		base := m[1]
		if _, seen := firstPos[base]; !seen {
			firstPos[base] = pos
		}
		byBase[base] = append(byBase[base], member{field: col, n: n, pos: pos})
	}

	var out []SlotFamily
	for base, members := range byBase {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			if members[i].n != members[j].n {
				return members[i].n < members[j].n
			}
			return members[i].pos < members[j].pos
		})
		fields := make([]string, len(members))
		for i, m := range members {
			fields[i] = m.field
		}
		out = append(out, SlotFamily{Base: base, Fields: fields})
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Fields) != len(out[j].Fields) {
			return len(out[i].Fields) > len(out[j].Fields)
		}
		return firstPos[out[i].Base] < firstPos[out[j].Base]
	})
	return out
}

// suggestGroupKey picks the first column outside every family whose sampled
// values repeat; repeated keys are what make merging worthwhile. Falls back
// to the first non-family column, then to the first column.
func suggestGroupKey(parsed *parser.Result, families []SlotFamily) string {
	inFamily := make(map[string]bool)
	for _, f := range families {
		for _, field := range f.Fields {
			inFamily[field] = true
		}
	}

	var fallback string
	for _, col := range parsed.Columns {
		if inFamily[col] {
			continue
		}
		if fallback == "" {
			fallback = col
		}
		seen := make(map[string]bool)
		for _, rec := range parsed.Records {
			v := rec.String(col)
			if v == "" {
				continue
			}
			if seen[v] {
				return col
			}
			seen[v] = true
		}
	}
	if fallback != "" {
		return fallback
	}
	return parsed.Columns[0]
}

func proposePipeline(opt Options, res *Result) config.Pipeline {
	job := opt.Job
	if job == "" {
		job = jobName(opt)
	}
	sinkKind := opt.SinkKind
	if sinkKind == "" {
		sinkKind = "csvfile"
	}

	var sources []string
	if len(res.Families) > 0 {
		sources = res.Families[0].Fields
	}

	p := config.Pipeline{
		Job: job,
		Parser: config.Parser{
			Kind: "csv",
			Options: config.Options{
				"has_header": true,
				"trim_space": true,
			},
		},
		Transform: []config.Transform{{Kind: "normalize"}},
		Merge: config.Merge{
			GroupKey:     res.GroupKey,
			SourceFields: sources,
			OutputField:  merge.DefaultListField,
		},
	}
	if opt.Path != "" {
		p.Source = config.Source{Kind: "file", File: config.SourceFile{Path: opt.Path}}
	} else {
		p.Source = config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: opt.URL}}
	}
	p.Sink = config.Sink{Kind: sinkKind}
	switch sinkKind {
	case "csvfile":
		p.Sink.File = config.SinkFile{Path: job + "_merged.csv"}
	case "sqlite":
		p.Sink.DB = config.DBConfig{DSN: job + ".db", Table: job + "_merged", AutoCreateTable: true}
	case "postgres":
		p.Sink.DB = config.DBConfig{Table: "public." + job + "_merged", AutoCreateTable: true}
	}
	return p
}

func jobName(opt Options) string {
	name := opt.Path
	if name == "" {
		name = opt.URL
	}
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "merge"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
