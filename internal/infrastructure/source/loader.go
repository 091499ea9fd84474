package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const defaultWorkers = 4

// Loader reads the source files of a data directory and pre-validates a sample of each.
// Reading happens before any transaction is opened, so files load in parallel.
type Loader struct {
	catalog    []rawdata.File
	sampleSize int
	workers    int
	logger     *logging.Logger
}

type Option func(*Loader)

func WithCatalog(catalog []rawdata.File) Option {
	return func(l *Loader) { l.catalog = catalog }
}

func WithSampleSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.sampleSize = n
		}
	}
}

func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

func NewLoader(logger *logging.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = logging.Default()
	}
	l := &Loader{
		catalog:    rawdata.Catalog,
		sampleSize: rawdata.DefaultSampleSize,
		workers:    defaultWorkers,
		logger:     logger.Named("source"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the present sources in catalog order. A missing optional file is skipped;
// a missing required file, unparseable JSON or a failed sample check is a SourceValidationError.
func (l *Loader) Load(ctx context.Context, dir string) ([]rawdata.Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, importrun.NewSourceValidationError(dir, "data directory is not readable: %v", err)
	}
	if !info.IsDir() {
		return nil, importrun.NewSourceValidationError(dir, "data directory is not a directory")
	}

	loaded := make([]*rawdata.Source, len(l.catalog))
	failures := make([]error, len(l.catalog))

	p := pool.New().WithMaxGoroutines(l.workers)
	for idx, file := range l.catalog {
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				failures[idx] = err
				return
			}
			loaded[idx], failures[idx] = l.loadFile(ctx, dir, file)
		})
	}
	p.Wait()

	out := make([]rawdata.Source, 0, len(l.catalog))
	for idx := range l.catalog {
		if failures[idx] != nil {
			return nil, failures[idx]
		}
		if loaded[idx] != nil {
			out = append(out, *loaded[idx])
		}
	}
	return out, nil
}

func (l *Loader) loadFile(ctx context.Context, dir string, file rawdata.File) (*rawdata.Source, error) {
	path := filepath.Join(dir, file.Name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !file.Required {
			l.logger.InfoContext(ctx, "optional source missing", "file", file.Name)
			return nil, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, importrun.NewSourceValidationError(file.Name, "required file not found in %s", dir)
		}
		return nil, importrun.NewSourceValidationError(file.Name, "read file: %v", err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		return nil, importrun.NewSourceValidationError(file.Name, "%v", err)
	}
	if err := file.ValidateSample(records, l.sampleSize); err != nil {
		return nil, importrun.NewSourceValidationError(file.Name, "%v", err)
	}

	l.logger.DebugContext(ctx, "source loaded", "file", file.Name, "records", len(records))
	return &rawdata.Source{File: file, Path: path, Records: records}, nil
}

// decodeRecords parses a top-level JSON array of objects.
func decodeRecords(data []byte) ([]rawdata.Record, error) {
	var raw []map[string]any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode JSON array of objects: %w", err)
	}

	records := make([]rawdata.Record, 0, len(raw))
	for idx, obj := range raw {
		if obj == nil {
			return nil, fmt.Errorf("record %d is null", idx)
		}
		records = append(records, rawdata.Record(obj))
	}
	return records, nil
}
