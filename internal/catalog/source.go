package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
)

//go:embed data/products.json
var embeddedProducts []byte

// Source loads the raw product list for a catalog.
type Source interface {
	Load(ctx context.Context) ([]Product, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]Product, error)

// Load calls f(ctx).
func (f SourceFunc) Load(ctx context.Context) ([]Product, error) { return f(ctx) }

// EmbeddedSource serves the product list compiled into the binary.
type EmbeddedSource struct{}

// Load decodes the embedded product list.
func (EmbeddedSource) Load(context.Context) ([]Product, error) {
	return DecodeProducts(bytes.NewReader(embeddedProducts))
}

// FileSource reads a JSON product list from disk.
type FileSource struct {
	Path string
}

// Load decodes the file at s.Path.
func (s FileSource) Load(context.Context) ([]Product, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", s.Path, err)
	}
	defer f.Close()
	return DecodeProducts(f)
}
