// Command mergeprobe samples the head of a delimited file, reports detected
// numbered column families, and prints a proposed pipeline config as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"groupmerge/internal/probe"
)

var (
	flagPath      = flag.String("path", "", "Local file to sample")
	flagURL       = flag.String("url", "", "HTTP(S) URL to sample instead of a local file")
	flagBytes     = flag.Int("bytes", 64*1024, "Number of bytes to sample from the start of the input")
	flagDelimiter = flag.String("delimiter", ",", "Field delimiter (single character)")
	flagJob       = flag.String("job", "", "Job name for the proposed config (default: derived from the input name)")
	flagSink      = flag.String("sink", "csvfile", "Proposed sink kind: csvfile|sqlite|postgres")
	flagFamilies  = flag.Bool("families", false, "Print detected column families to stderr")
)

func main() {
	flag.Parse()

	delim := ','
	if *flagDelimiter != "" {
		if r, _ := utf8.DecodeRuneInString(*flagDelimiter); r != utf8.RuneError {
			delim = r
		}
	}

	res, err := probe.Run(context.Background(), probe.Options{
		Path:      *flagPath,
		URL:       *flagURL,
		MaxBytes:  *flagBytes,
		Delimiter: delim,
		Job:       *flagJob,
		SinkKind:  *flagSink,
	})
	if err != nil {
		log.Fatalf("mergeprobe: %v", err)
	}

	if *flagFamilies {
		for _, f := range res.Families {
			fmt.Fprintf(os.Stderr, "family %s: %s\n", f.Base, strings.Join(f.Fields, ","))
		}
		fmt.Fprintf(os.Stderr, "group key: %s\n", res.GroupKey)
	}

	out, err := res.RenderJSON()
	if err != nil {
		log.Fatalf("mergeprobe: %v", err)
	}
	os.Stdout.Write(out)
}
