// Package datasource defines where pipeline input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes a parser consumes. Implementations are local
// files and HTTP endpoints.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
