// Package aggregate rolls cleaned reports up to one row per (date, entity)
// and derives daily deltas and their 7-day trailing means.
package aggregate

import (
	"sort"

	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/source"
)

// Window is the trailing moving-average length in rows.
const Window = 7

// KeyFunc returns the entity a report is grouped under. Reports with an
// empty key are dropped.
type KeyFunc func(model.Report) string

type groupKey struct {
	day    model.Day
	entity string
}

type accumulator struct {
	row               model.SeriesRow
	n                 int
	incident, testing float64
	hospitalization   float64
}

// Aggregate groups reports by (Date, key), sums counts, averages rate
// columns, and returns rows sorted by entity then date with NewX and
// NewXMA7 filled in.
func Aggregate(reports []model.Report, key KeyFunc) []model.SeriesRow {
	groups := make(map[groupKey]*accumulator)
	for _, r := range reports {
		entity := key(r)
		if entity == "" {
			continue
		}
		k := groupKey{day: r.Date, entity: entity}
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{row: model.SeriesRow{Date: r.Date, Entity: entity}}
			groups[k] = acc
		}
		acc.add(r)
	}

	rows := make([]model.SeriesRow, 0, len(groups))
	for _, acc := range groups {
		rows = append(rows, acc.finish())
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Entity != rows[j].Entity {
			return rows[i].Entity < rows[j].Entity
		}
		return rows[i].Date.Before(rows[j].Date.Time)
	})

	for start := 0; start < len(rows); {
		end := start + 1
		for end < len(rows) && rows[end].Entity == rows[start].Entity {
			end++
		}
		Derive(rows[start:end])
		start = end
	}
	return rows
}

// ByEntity aggregates reports per country or per state, as the variant says.
func ByEntity(reports []model.Report, v *source.Variant) []model.SeriesRow {
	return Aggregate(reports, v.EntityOf)
}

// Totals aggregates every report of a date into one row labeled with the
// variant's totals label.
func Totals(reports []model.Report, v *source.Variant) []model.SeriesRow {
	label := v.TotalsLabel
	return Aggregate(reports, func(model.Report) string { return label })
}

func (a *accumulator) add(r model.Report) {
	a.n++
	a.row.Confirmed += r.Confirmed
	a.row.Deaths += r.Deaths
	a.row.Recovered += r.Recovered
	a.row.TotalTestResults += r.TotalTestResults
	a.row.PeopleHospitalized += r.PeopleHospitalized
	a.incident += r.IncidentRate
	a.testing += r.TestingRate
	a.hospitalization += r.HospitalizationRate
}

func (a *accumulator) finish() model.SeriesRow {
	row := a.row
	if a.n > 0 {
		row.IncidentRate = a.incident / float64(a.n)
		row.TestingRate = a.testing / float64(a.n)
		row.HospitalizationRate = a.hospitalization / float64(a.n)
	}
	Check(&row)
	if row.Confirmed > 0 {
		row.CaseFatalityRatio = float64(row.Deaths) / float64(row.Confirmed) * 100
	}
	return row
}

// Check re-applies the row invariants after summation.
func Check(row *model.SeriesRow) {
	row.Confirmed = max(row.Confirmed, 0)
	row.Recovered = min(max(row.Recovered, 0), row.Confirmed)
	row.Deaths = min(max(row.Deaths, 0), row.Confirmed)
	row.Active = model.ActiveCases(row.Confirmed, row.Deaths, row.Recovered)
}

// Derive fills NewX and NewXMA7 for one entity's rows, which must already be
// in chronological order. The first row's deltas are 0 and a decrease is
// clipped to 0.
func Derive(rows []model.SeriesRow) {
	for i := range rows {
		r := &rows[i]
		if i == 0 {
			r.NewConfirmed, r.NewDeaths, r.NewRecovered, r.NewActive = 0, 0, 0, 0
		} else {
			p := rows[i-1]
			r.NewConfirmed = delta(r.Confirmed, p.Confirmed)
			r.NewDeaths = delta(r.Deaths, p.Deaths)
			r.NewRecovered = delta(r.Recovered, p.Recovered)
			r.NewActive = delta(r.Active, p.Active)
		}
	}

	var sc, sd, sr, sa int64
	for i := range rows {
		r := &rows[i]
		sc += r.NewConfirmed
		sd += r.NewDeaths
		sr += r.NewRecovered
		sa += r.NewActive
		if i >= Window {
			o := rows[i-Window]
			sc -= o.NewConfirmed
			sd -= o.NewDeaths
			sr -= o.NewRecovered
			sa -= o.NewActive
		}
		n := float64(min(i+1, Window))
		r.NewConfirmedMA7 = float64(sc) / n
		r.NewDeathsMA7 = float64(sd) / n
		r.NewRecoveredMA7 = float64(sr) / n
		r.NewActiveMA7 = float64(sa) / n
	}
}

func delta(cur, prev int64) int64 {
	return max(cur-prev, 0)
}

// Entities returns the distinct entity names in rows, sorted.
func Entities(rows []model.SeriesRow) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Entity]; ok {
			continue
		}
		seen[r.Entity] = struct{}{}
		out = append(out, r.Entity)
	}
	sort.Strings(out)
	return out
}
