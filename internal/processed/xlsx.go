package processed

import (
	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/source"
)

// SheetTotals is the workbook sheet holding the daily totals.
const SheetTotals = "Totals"

// SeriesSheetName is the per-entity sheet name for v, e.g. "By State".
func SeriesSheetName(v *source.Variant) string {
	if v.Entity == source.EntityState {
		return "By State"
	}
	return "By Country"
}

// WriteXLSX exports the per-entity series and totals of v as a workbook with
// one sheet each. Counts are written as numbers, not text.
func WriteXLSX(path string, v *source.Variant, byEntity, totals []model.SeriesRow) error {
	header, err := csvutil.Header(model.SeriesRow{}, "csv")
	if err != nil {
		return eris.Wrap(err, "xlsx: header")
	}

	f := xlsx.NewFile()
	if err := addSeriesSheet(f, SeriesSheetName(v), header, v.EntityColumn(), byEntity); err != nil {
		return err
	}
	if err := addSeriesSheet(f, SheetTotals, header, entityField, totals); err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addSeriesSheet(f *xlsx.File, name string, header []string, entityCol string, rows []model.SeriesRow) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "xlsx: add sheet %s", name)
	}

	hr := sheet.AddRow()
	for _, h := range header {
		if h == entityField {
			h = entityCol
		}
		hr.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		for _, v := range seriesValues(r) {
			cell := row.AddCell()
			switch x := v.(type) {
			case string:
				cell.SetString(x)
			case int64:
				cell.SetInt64(x)
			case float64:
				cell.SetFloat(x)
			}
		}
	}
	return nil
}

// seriesValues lists r's fields in csv tag order.
func seriesValues(r model.SeriesRow) []any {
	return []any{
		r.Date.String(),
		r.Entity,
		r.Confirmed,
		r.Deaths,
		r.Recovered,
		r.Active,
		r.TotalTestResults,
		r.PeopleHospitalized,
		r.IncidentRate,
		r.TestingRate,
		r.HospitalizationRate,
		r.CaseFatalityRatio,
		r.NewConfirmed,
		r.NewDeaths,
		r.NewRecovered,
		r.NewActive,
		r.NewConfirmedMA7,
		r.NewDeathsMA7,
		r.NewRecoveredMA7,
		r.NewActiveMA7,
	}
}

// XLSXOptions selects what ReadXLSX returns.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	SkipRows   int    // number of header rows to skip
}

// ReadXLSX reads one sheet of a workbook as string rows.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}
