package gen

import (
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/syssam/remap/compiler/load"
)

// Writer renders entity files in parallel and normalizes them with
// goimports before writing.
type Writer struct {
	cfg *Config
	gen *Generator
}

// NewWriter returns a writer for the given configuration.
func NewWriter(cfg *Config) *Writer {
	return &Writer{cfg: cfg, gen: NewGenerator(cfg)}
}

// WriteAll generates one file per entity under the target directory,
// bounded by the configured worker count.
func (w *Writer) WriteAll(ctx context.Context, entities []*load.Entity) error {
	if err := os.MkdirAll(w.cfg.Target, 0o755); err != nil {
		return err
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.cfg.Workers)
	for _, e := range entities {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.write(e)
			}
		})
	}
	return eg.Wait()
}

func (w *Writer) write(e *load.Entity) error {
	name := w.gen.FileName(e)
	src, err := w.gen.Source(e)
	if err != nil {
		return &GenerationError{Entity: e.Name, File: name, Err: err}
	}
	path := filepath.Join(w.cfg.Target, name)
	formatted, err := imports.Process(path, []byte(src), nil)
	if err != nil {
		return &GenerationError{Entity: e.Name, File: name, Err: err}
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return &GenerationError{Entity: e.Name, File: name, Err: err}
	}
	return nil
}

// Generate is the entry point used by the command line tool: load the
// schema directory (through the snapshot cache when configured) and
// write all generated files.
func Generate(ctx context.Context, cfg *Config) error {
	entities, err := load.CachedLoad(cfg.Schema, cfg.Cache)
	if err != nil {
		return err
	}
	return NewWriter(cfg).WriteAll(ctx, entities)
}
