// Package etl runs the daily-report pipeline for one or more variants:
// download, normalize, aggregate, and write processed files.
package etl

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/acquire"
	"github.com/sells-group/covidsync/internal/aggregate"
	"github.com/sells-group/covidsync/internal/fetcher"
	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/normalize"
	"github.com/sells-group/covidsync/internal/processed"
	"github.com/sells-group/covidsync/internal/rawstore"
	"github.com/sells-group/covidsync/internal/source"
	"github.com/sells-group/covidsync/internal/store"
)

// Engine orchestrates pipeline runs. Variants run one after another and
// every stage is sequential.
type Engine struct {
	fetcher    fetcher.Fetcher
	store      store.Store
	reg        *source.Registry
	normalizer *normalize.Normalizer
	dataDir    string
	now        func() time.Time
}

// RunOpts configures which variants to run and over which dates.
type RunOpts struct {
	Variants     []string   // restrict to specific variants; empty = all
	Start        *model.Day // default: the variant's first published date
	End          *model.Day // default: today (UTC)
	SkipDownload bool       // process whatever is already in the raw store
	SkipExisting bool       // only download days missing from the raw store
}

// ProcessResult summarizes one normalize + aggregate pass.
type ProcessResult struct {
	Load       normalize.LoadStats
	SeriesRows int
	TotalsRows int
	Entities   int
}

// NewEngine creates a new pipeline engine.
func NewEngine(f fetcher.Fetcher, st store.Store, reg *source.Registry, dataDir string) *Engine {
	return &Engine{
		fetcher:    f,
		store:      st,
		reg:        reg,
		normalizer: normalize.New(nil),
		dataDir:    dataDir,
		now:        time.Now,
	}
}

// Registry returns the variant registry the engine was built with.
func (e *Engine) Registry() *source.Registry { return e.reg }

// RawStore returns the raw snapshot directory for v.
func (e *Engine) RawStore(v *source.Variant) *rawstore.Store {
	return rawstore.New(filepath.Join(e.dataDir, "raw", v.Name))
}

// Processed returns the processed-output store.
func (e *Engine) Processed() *processed.Store {
	return processed.New(filepath.Join(e.dataDir, "processed"))
}

// Sync downloads every snapshot for v in [start, end].
func (e *Engine) Sync(ctx context.Context, v *source.Variant, opts RunOpts) (*acquire.Result, error) {
	start, end := e.window(v, opts)
	d := acquire.New(e.fetcher)
	d.SkipExisting = opts.SkipExisting
	return d.Run(ctx, v, e.RawStore(v), start, end)
}

// Process normalizes every raw snapshot for v, aggregates it, and writes the
// cleaned, per-entity and totals files. normalize.ErrNoData is returned when
// no snapshot could be read.
func (e *Engine) Process(ctx context.Context, v *source.Variant) (*ProcessResult, error) {
	log := zap.L().With(zap.String("component", "etl"), zap.String("variant", v.Name))

	snaps, err := e.RawStore(v).List()
	if err != nil {
		return nil, err
	}

	reports, stats, err := e.normalizer.LoadSnapshots(ctx, snaps)
	res := &ProcessResult{Load: stats}
	if err != nil {
		return res, eris.Wrapf(err, "etl: load %s", v.Name)
	}

	byEntity := aggregate.ByEntity(reports, v)
	totals := aggregate.Totals(reports, v)
	res.SeriesRows = len(byEntity)
	res.TotalsRows = len(totals)
	res.Entities = len(aggregate.Entities(byEntity))

	out := e.Processed()
	if err := out.SaveCleaned(v, reports); err != nil {
		return res, err
	}
	if err := out.SaveSeries(v, byEntity, totals); err != nil {
		return res, err
	}

	log.Info("processed files written",
		zap.Int("rows", stats.Rows),
		zap.Int("series_rows", res.SeriesRows),
		zap.Int("entities", res.Entities),
		zap.String("path", out.SeriesPath(v)),
	)
	return res, nil
}

// RunVariant runs the full pipeline for one variant and records it in the
// run log.
func (e *Engine) RunVariant(ctx context.Context, v *source.Variant, opts RunOpts) (*model.Run, error) {
	log := zap.L().With(zap.String("component", "etl"), zap.String("variant", v.Name))

	run, err := e.store.StartRun(ctx, v.Name)
	if err != nil {
		return nil, eris.Wrapf(err, "etl: start run for %s", v.Name)
	}

	started := time.Now()
	result, err := e.runVariant(ctx, v, opts)
	elapsed := time.Since(started)

	if err != nil {
		log.Error("run failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		if logErr := e.store.FailRun(context.WithoutCancel(ctx), run.ID, err.Error()); logErr != nil {
			log.Error("failed to record run failure", zap.Error(logErr))
		}
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
		run.Result = result
		return run, err
	}

	if err := e.store.CompleteRun(ctx, run.ID, result); err != nil {
		log.Error("failed to record run completion", zap.Error(err))
	}
	run.Status = model.RunStatusComplete
	run.Result = result

	log.Info("run complete",
		zap.Int("downloaded", result.FilesDownloaded),
		zap.Int("processed", result.FilesProcessed),
		zap.Int("series_rows", result.SeriesRows),
		zap.Duration("elapsed", elapsed),
	)
	return run, nil
}

func (e *Engine) runVariant(ctx context.Context, v *source.Variant, opts RunOpts) (*model.RunResult, error) {
	result := &model.RunResult{}

	if !opts.SkipDownload {
		dl, err := e.Sync(ctx, v, opts)
		if dl != nil {
			result.FilesDownloaded = dl.Downloaded
			result.FilesMissing = dl.Missing + dl.Failed
		}
		if err != nil {
			return result, eris.Wrapf(err, "etl: sync %s", v.Name)
		}
	}

	pr, err := e.Process(ctx, v)
	if pr != nil {
		result.FilesProcessed = pr.Load.Processed
		result.FilesSkipped = pr.Load.Skipped
		result.RowsNormalized = pr.Load.Rows
		result.SeriesRows = pr.SeriesRows
		result.Entities = pr.Entities
	}
	return result, err
}

// Run iterates over the selected variants. A failing variant is recorded and
// the next one still runs; the returned error reports how many failed.
func (e *Engine) Run(ctx context.Context, opts RunOpts) ([]*model.Run, error) {
	log := zap.L().With(zap.String("component", "etl"))

	variants, err := e.reg.Select(opts.Variants)
	if err != nil {
		return nil, err
	}

	var (
		runs   []*model.Run
		failed int
	)
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return runs, err
		}
		run, err := e.RunVariant(ctx, v, opts)
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			if ctx.Err() != nil {
				return runs, ctx.Err()
			}
			failed++
		}
	}

	log.Info("pipeline run complete", zap.Int("variants", len(variants)), zap.Int("failed", failed))
	if failed > 0 {
		return runs, eris.Errorf("etl: %d of %d variant(s) failed", failed, len(variants))
	}
	return runs, nil
}

// window resolves the date range for v, clamping the start to the variant's
// first published date.
func (e *Engine) window(v *source.Variant, opts RunOpts) (model.Day, model.Day) {
	start := v.Start
	if opts.Start != nil && opts.Start.After(start.Time) {
		start = *opts.Start
	}
	end := model.NewDay(e.now().UTC())
	if opts.End != nil {
		end = *opts.End
	}
	return start, end
}
