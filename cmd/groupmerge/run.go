package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"groupmerge/internal/config"
	"groupmerge/internal/datasource"
	"groupmerge/internal/datasource/file"
	"groupmerge/internal/datasource/httpds"
	"groupmerge/internal/merge"
	"groupmerge/internal/metrics"
	csvparser "groupmerge/internal/parser/csv"
	"groupmerge/internal/storage"
	"groupmerge/internal/storage/csvfile"
	"groupmerge/internal/storage/postgres"
	"groupmerge/internal/storage/sqlite"
	"groupmerge/internal/transformer"
	"groupmerge/internal/transformer/builtin"
	"groupmerge/pkg/records"
)

const (
	defaultBatchSize     = 1000
	defaultChannelBuffer = 256
)

// run executes one full merge pipeline: open source, parse, transform,
// merge, write. The merged output is fully materialized before the sink
// starts, so sink failures never leave a half-merged result ambiguous.
func run(ctx context.Context, p config.Pipeline, verbose bool) error {
	src, err := openSource(p.Source)
	if err != nil {
		return err
	}

	// Parse.
	parseStart := time.Now()
	rc, err := src.Open(ctx)
	if err != nil {
		metrics.RecordStep(p.Job, "parse", err, time.Since(parseStart))
		return fmt.Errorf("source: %w", err)
	}
	parsed, err := buildParser(p.Parser).Parse(rc)
	rc.Close()
	metrics.RecordStep(p.Job, "parse", err, time.Since(parseStart))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	metrics.RecordRow(p.Job, "parsed", int64(len(parsed.Records)))
	metrics.RecordRow(p.Job, "parse_skipped", int64(parsed.Skipped))
	if verbose {
		log.Printf("parse: records=%d skipped=%d columns=%d",
			len(parsed.Records), parsed.Skipped, len(parsed.Columns))
	}

	// Transform.
	chain, err := buildTransformers(p.Transform)
	if err != nil {
		return err
	}
	transformStart := time.Now()
	recs := chain.Apply(parsed.Records)
	metrics.RecordStep(p.Job, "transform", nil, time.Since(transformStart))
	if verbose && len(recs) != len(parsed.Records) {
		log.Printf("transform: records=%d dropped=%d", len(recs), len(parsed.Records)-len(recs))
	}

	// Merge.
	mergeCfg := merge.Config{
		GroupKey:           p.Merge.GroupKey,
		SourceFields:       p.Merge.SourceFields,
		RetainSourceFields: p.Merge.RetainSourceFields,
		OutputField:        p.Merge.OutputField,
	}
	mergeStart := time.Now()
	merged, err := merge.Run(recs, mergeCfg)
	metrics.RecordStep(p.Job, "merge", err, time.Since(mergeStart))
	if err != nil {
		// ErrEmptyInput and friends already carry the stage prefix.
		return err
	}
	metrics.RecordRow(p.Job, "groups", int64(len(merged)))
	if verbose {
		log.Printf("merge: groups=%d in=%d", len(merged), len(recs))
	}

	columns := merge.OutputColumns(parsed.Columns, mergeCfg)

	// Load.
	loadStart := time.Now()
	written, summary, err := load(ctx, p, columns, merged)
	metrics.RecordStep(p.Job, "load", err, time.Since(loadStart))
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	metrics.RecordRow(p.Job, "written", written)
	batchSize := p.Runtime.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	metrics.RecordBatches(p.Job, (written+int64(batchSize)-1)/int64(batchSize))

	log.Printf("summary: parsed=%d skipped=%d groups=%d written=%d%s",
		len(parsed.Records), parsed.Skipped, len(merged), written, summary)
	return nil
}

// load feeds merged records through the batched loader into the configured
// sink. Producer and loader run as an errgroup so a sink failure cancels the
// producer promptly.
func load(ctx context.Context, p config.Pipeline, columns []string, merged []records.Record) (int64, string, error) {
	copyFn, closeFn, summaryFn, err := openSink(ctx, p.Sink)
	if err != nil {
		return 0, "", err
	}

	batchSize := p.Runtime.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	buffer := p.Runtime.ChannelBuffer
	if buffer <= 0 {
		buffer = defaultChannelBuffer
	}

	rows := make(chan []any, buffer)
	var written int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		for _, rec := range merged {
			row := make([]any, len(columns))
			for i, c := range columns {
				row[i] = rec[c]
			}
			select {
			case rows <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	g.Go(func() error {
		n, err := storage.LoadBatches(gctx, columns, rows, batchSize, copyFn)
		written = n
		return err
	})

	runErr := g.Wait()
	closeErr := closeFn()
	if runErr != nil {
		return written, "", runErr
	}
	if closeErr != nil {
		return written, "", closeErr
	}
	return written, summaryFn(), nil
}

func openSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		return httpds.NewRemote(httpds.Config{URL: s.HTTP.URL}), nil
	default:
		return nil, fmt.Errorf("source: unknown kind %q", s.Kind)
	}
}

func buildParser(p config.Parser) *csvparser.Parser {
	return csvparser.NewParser(csvparser.Options{
		HasHeader:      p.Options.Bool("has_header", true),
		Comma:          p.Options.Rune("comma", ','),
		TrimSpace:      p.Options.Bool("trim_space", false),
		ExpectedFields: p.Options.Int("expected_fields", 0),
		HeaderMap:      p.Options.StringMap("header_map"),
		Encodings:      p.Options.StringSlice("encodings"),
	})
}

func buildTransformers(specs []config.Transform) (transformer.Chain, error) {
	var chain transformer.Chain
	for _, s := range specs {
		switch s.Kind {
		case "normalize":
			chain = append(chain, builtin.Normalize{})
		case "require":
			chain = append(chain, builtin.Require{Fields: s.Options.StringSlice("fields")})
		case "dedup":
			chain = append(chain, builtin.DeDup{
				Keys:   s.Options.StringSlice("keys"),
				Policy: s.Options.String("policy", "keep-first"),
			})
		default:
			return nil, fmt.Errorf("transform: unknown kind %q", s.Kind)
		}
	}
	return chain, nil
}

// openSink maps the sink config onto a CopyFn, a close function, and a
// summary function contributing sink-specific detail to the final log line.
func openSink(ctx context.Context, s config.Sink) (storage.CopyFn, func() error, func() string, error) {
	noSummary := func() string { return "" }
	switch s.Kind {
	case "csvfile":
		comma := ','
		if s.File.Comma != "" {
			comma = []rune(s.File.Comma)[0]
		}
		w, closeFn, err := csvfile.NewWriter(csvfile.Config{Path: s.File.Path, Comma: comma})
		if err != nil {
			return nil, nil, nil, err
		}
		summary := func() string { return fmt.Sprintf(" digest=%016x", w.Digest()) }
		return w.CopyFrom, closeFn, summary, nil

	case "sqlite":
		repo, closeFn, err := sqlite.NewRepository(ctx, sqlite.Config{
			DSN:             s.DB.DSN,
			Table:           s.DB.Table,
			AutoCreateTable: s.DB.AutoCreateTable,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return repo.CopyFrom, func() error { closeFn(); return nil }, noSummary, nil

	case "postgres":
		repo, closeFn, err := postgres.NewRepository(ctx, postgres.Config{
			DSN:             s.DB.DSN,
			Table:           s.DB.Table,
			AutoCreateTable: s.DB.AutoCreateTable,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return repo.CopyFrom, func() error { closeFn(); return nil }, noSummary, nil

	default:
		return nil, nil, nil, fmt.Errorf("sink: unknown kind %q", s.Kind)
	}
}
