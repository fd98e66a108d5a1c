// Package acquire downloads daily snapshots into the raw store.
package acquire

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/fetcher"
	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/rawstore"
	"github.com/sells-group/covidsync/internal/source"
)

// Result summarizes one download pass.
type Result struct {
	Requested  int         `json:"requested"`
	Downloaded int         `json:"downloaded"`
	Missing    int         `json:"missing"`
	Failed     int         `json:"failed"`
	Existing   int         `json:"existing"`
	Bytes      int64       `json:"bytes"`
	Absent     []model.Day `json:"-"`
}

// Downloader fetches one snapshot per calendar day, sequentially.
type Downloader struct {
	fetcher fetcher.Fetcher

	// SkipExisting leaves days already in the raw store untouched instead of
	// downloading them again.
	SkipExisting bool
}

// New creates a Downloader.
func New(f fetcher.Fetcher) *Downloader {
	return &Downloader{fetcher: f}
}

// Run downloads every day in [start, end] for variant v into store. A day
// that cannot be fetched is logged and skipped; only context cancellation or
// an unusable raw directory aborts the run.
func (d *Downloader) Run(ctx context.Context, v *source.Variant, store *rawstore.Store, start, end model.Day) (*Result, error) {
	log := zap.L().With(zap.String("component", "acquire"), zap.String("variant", v.Name))

	if err := store.Ensure(); err != nil {
		return nil, err
	}

	res := &Result{}
	for day := start; !day.After(end.Time); day = day.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Requested++

		if d.SkipExisting && store.Has(day) {
			res.Existing++
			continue
		}

		url := v.URL(day)
		n, err := d.fetcher.DownloadToFile(ctx, url, store.Path(day))
		switch {
		case err == nil:
			res.Downloaded++
			res.Bytes += n
			log.Debug("downloaded snapshot", zap.String("date", day.String()), zap.Int64("bytes", n))
		case errors.Is(err, fetcher.ErrNotFound):
			res.Missing++
			res.Absent = append(res.Absent, day)
			log.Info("no snapshot published", zap.String("date", day.String()))
		default:
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			res.Absent = append(res.Absent, day)
			log.Warn("snapshot download failed", zap.String("date", day.String()), zap.String("url", url), zap.Error(err))
		}
	}

	log.Info("download complete",
		zap.Int("requested", res.Requested),
		zap.Int("downloaded", res.Downloaded),
		zap.Int("missing", res.Missing),
		zap.Int("failed", res.Failed),
		zap.Int("existing", res.Existing),
	)
	return res, nil
}
