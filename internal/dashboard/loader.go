package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/etl"
	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/processed"
	"github.com/sells-group/covidsync/internal/source"
)

// ErrNotLoaded is returned when no processed file exists and the loader may
// not run the pipeline to create one.
var ErrNotLoaded = errors.New("dashboard: no processed data")

// Pipeline runs the full sync + process pipeline for one variant.
type Pipeline interface {
	RunVariant(ctx context.Context, v *source.Variant, opts etl.RunOpts) (*model.Run, error)
}

// Loader keeps one Dataset per variant in memory. Loads and refreshes are
// serialized.
type Loader struct {
	pipeline    Pipeline
	files       *processed.Store
	autoRefresh bool

	mu       sync.Mutex
	datasets map[string]*Dataset
}

// NewLoader creates a loader reading from files. When autoRefresh is set a
// missing processed file triggers a pipeline run.
func NewLoader(p Pipeline, files *processed.Store, autoRefresh bool) *Loader {
	return &Loader{
		pipeline:    p,
		files:       files,
		autoRefresh: autoRefresh,
		datasets:    make(map[string]*Dataset),
	}
}

// Get returns the dataset for v, reading it from disk on first use.
func (l *Loader) Get(ctx context.Context, v *source.Variant) (*Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ds, ok := l.datasets[v.Name]; ok {
		return ds, nil
	}
	if !l.files.Has(v) {
		if !l.autoRefresh {
			return nil, eris.Wrapf(ErrNotLoaded, "dashboard: %s has not been processed yet", v.Name)
		}
		if err := l.run(ctx, v); err != nil {
			return nil, err
		}
	}
	return l.load(v)
}

// Refresh runs the pipeline for v and reloads its processed files.
func (l *Loader) Refresh(ctx context.Context, v *source.Variant) (*Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.run(ctx, v); err != nil {
		return nil, err
	}
	return l.load(v)
}

func (l *Loader) run(ctx context.Context, v *source.Variant) error {
	if l.pipeline == nil {
		return eris.Wrapf(ErrNotLoaded, "dashboard: no pipeline to refresh %s", v.Name)
	}
	zap.L().Info("running pipeline for dashboard",
		zap.String("component", "dashboard"),
		zap.String("variant", v.Name),
	)
	if _, err := l.pipeline.RunVariant(ctx, v, etl.RunOpts{}); err != nil {
		return eris.Wrapf(err, "dashboard: refresh %s", v.Name)
	}
	return nil
}

// load must be called with l.mu held.
func (l *Loader) load(v *source.Variant) (*Dataset, error) {
	rows, err := l.files.LoadSeries(v)
	if err != nil {
		return nil, eris.Wrapf(err, "dashboard: load %s series", v.Name)
	}
	totals, err := l.files.LoadTotals(v)
	if err != nil && !errors.Is(err, processed.ErrNotFound) {
		return nil, eris.Wrapf(err, "dashboard: load %s totals", v.Name)
	}

	ds := NewDataset(v, rows, totals)
	l.datasets[v.Name] = ds
	zap.L().Info("dataset loaded",
		zap.String("component", "dashboard"),
		zap.String("variant", v.Name),
		zap.Int("entities", len(ds.Entities)),
		zap.Int("dates", len(ds.Dates)),
	)
	return ds, nil
}
