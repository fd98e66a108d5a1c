package etl

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/covidsync/internal/processed"
	"github.com/sells-group/covidsync/internal/source"
)

// ExportXLSX writes v's processed series and totals to a workbook at path.
func (e *Engine) ExportXLSX(v *source.Variant, path string) error {
	out := e.Processed()
	byEntity, err := out.LoadSeries(v)
	if err != nil {
		return err
	}
	totals, err := out.LoadTotals(v)
	if err != nil {
		return err
	}
	if err := processed.WriteXLSX(path, v, byEntity, totals); err != nil {
		return err
	}
	zap.L().Info("xlsx export written",
		zap.String("component", "etl"),
		zap.String("variant", v.Name),
		zap.String("path", path),
		zap.Int("rows", len(byEntity)+len(totals)),
	)
	return nil
}

// ExportDB loads v's processed series and cleaned reports into the store,
// replacing what was there for the variant.
func (e *Engine) ExportDB(ctx context.Context, v *source.Variant) (series, reports int64, err error) {
	out := e.Processed()
	byEntity, err := out.LoadSeries(v)
	if err != nil {
		return 0, 0, err
	}
	totals, err := out.LoadTotals(v)
	if err != nil {
		return 0, 0, err
	}
	cleaned, err := out.LoadCleaned(v)
	if err != nil {
		return 0, 0, err
	}

	series, err = e.store.SaveSeries(ctx, v.Name, append(byEntity, totals...))
	if err != nil {
		return 0, 0, err
	}
	reports, err = e.store.SaveReports(ctx, v.Name, cleaned)
	if err != nil {
		return series, 0, err
	}

	zap.L().Info("database export complete",
		zap.String("component", "etl"),
		zap.String("variant", v.Name),
		zap.Int64("series", series),
		zap.Int64("reports", reports),
	)
	return series, reports, nil
}
