package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/covidsync/internal/model"
)

// Nop is the "none" driver: runs get IDs but nothing is persisted.
type Nop struct{}

func (Nop) StartRun(_ context.Context, variant string) (*model.Run, error) {
	return &model.Run{
		ID:        uuid.New().String(),
		Variant:   variant,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}, nil
}

func (Nop) CompleteRun(context.Context, string, *model.RunResult) error { return nil }
func (Nop) FailRun(context.Context, string, string) error { return nil }

func (Nop) GetRun(context.Context, string) (*model.Run, error) { return nil, ErrRunNotFound }

func (Nop) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (Nop) SaveSeries(context.Context, string, []model.SeriesRow) (int64, error) { return 0, nil }
func (Nop) SaveReports(context.Context, string, []model.Report) (int64, error) { return 0, nil }

func (Nop) Migrate(context.Context) error { return nil }
func (Nop) Close() error { return nil }
