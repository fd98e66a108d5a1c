package dashboard

import (
	"sort"
	"time"

	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/source"
)

// Dataset is one variant's processed series held in memory.
type Dataset struct {
	Variant  *source.Variant
	Entities []string // sorted; the totals label is not included
	Dates    []model.Day
	LoadedAt time.Time

	byEntity map[string][]model.SeriesRow
	byDate   map[model.Day][]model.SeriesRow
}

// NewDataset indexes per-entity rows and totals. Each entity's rows are
// kept in chronological order.
func NewDataset(v *source.Variant, rows, totals []model.SeriesRow) *Dataset {
	ds := &Dataset{
		Variant:  v,
		LoadedAt: time.Now().UTC(),
		byEntity: make(map[string][]model.SeriesRow),
		byDate:   make(map[model.Day][]model.SeriesRow),
	}
	for _, r := range rows {
		if _, ok := ds.byEntity[r.Entity]; !ok {
			ds.Entities = append(ds.Entities, r.Entity)
		}
		ds.byEntity[r.Entity] = append(ds.byEntity[r.Entity], r)
		if _, ok := ds.byDate[r.Date]; !ok {
			ds.Dates = append(ds.Dates, r.Date)
		}
		ds.byDate[r.Date] = append(ds.byDate[r.Date], r)
	}
	if len(totals) > 0 {
		ds.byEntity[v.TotalsLabel] = append([]model.SeriesRow(nil), totals...)
	}

	sort.Strings(ds.Entities)
	sort.Slice(ds.Dates, func(i, j int) bool { return ds.Dates[i].Before(ds.Dates[j].Time) })
	for _, s := range ds.byEntity {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date.Time) })
	}
	return ds
}

// Series returns an entity's rows oldest first. The variant's totals label
// selects the all-entity totals.
func (ds *Dataset) Series(entity string) ([]model.SeriesRow, bool) {
	s, ok := ds.byEntity[entity]
	return s, ok
}

// On returns every entity's row for d.
func (ds *Dataset) On(d model.Day) []model.SeriesRow {
	return ds.byDate[d]
}

// DefaultEntity is the variant's preferred entity when present, else the
// first entity.
func (ds *Dataset) DefaultEntity() string {
	if e := ds.Variant.DefaultEntity; e != "" {
		if _, ok := ds.byEntity[e]; ok {
			return e
		}
	}
	if len(ds.Entities) > 0 {
		return ds.Entities[0]
	}
	return ds.Variant.TotalsLabel
}

// LatestDate returns the newest date in the dataset.
func (ds *Dataset) LatestDate() (model.Day, bool) {
	if len(ds.Dates) == 0 {
		return model.Day{}, false
	}
	return ds.Dates[len(ds.Dates)-1], true
}

// ResolveDate returns the newest dataset date on or before d.
func (ds *Dataset) ResolveDate(d model.Day) (model.Day, bool) {
	i := sort.Search(len(ds.Dates), func(i int) bool { return ds.Dates[i].After(d.Time) })
	if i == 0 {
		return model.Day{}, false
	}
	return ds.Dates[i-1], true
}
