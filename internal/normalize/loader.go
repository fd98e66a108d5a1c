package normalize

import (
	"context"
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/rawstore"
)

// ErrNoData is returned when not a single snapshot could be processed.
var ErrNoData = errors.New("normalize: no data files processed")

// LoadStats counts what happened to each snapshot during a load.
type LoadStats struct {
	Files     int `json:"files"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Rows      int `json:"rows"`
}

// LoadSnapshots reads, normalizes and concatenates snapshots in order. A file
// that cannot be opened or parsed is logged and skipped. ErrNoData is
// returned when every file was skipped or there were none.
func (n *Normalizer) LoadSnapshots(ctx context.Context, snaps []rawstore.Snapshot) ([]model.Report, LoadStats, error) {
	log := zap.L().With(zap.String("component", "normalize"))

	var (
		stats LoadStats
		out   []model.Report
	)
	for _, s := range snaps {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Files++

		rows, err := n.loadFile(s)
		if err != nil {
			stats.Skipped++
			log.Warn("skipping unreadable snapshot", zap.String("path", s.Path), zap.Error(err))
			continue
		}
		stats.Processed++
		stats.Rows += len(rows)
		out = append(out, rows...)
	}

	if stats.Processed == 0 {
		return nil, stats, ErrNoData
	}
	log.Info("snapshots normalized",
		zap.Int("files", stats.Files),
		zap.Int("skipped", stats.Skipped),
		zap.Int("rows", stats.Rows),
	)
	return out, stats, nil
}

func (n *Normalizer) loadFile(s rawstore.Snapshot) ([]model.Report, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: open %s", s.Path)
	}
	defer f.Close() //nolint:errcheck

	t, err := ReadTable(f)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: parse %s", s.Path)
	}
	return n.Normalize(t, s.Day)
}
