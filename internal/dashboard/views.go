package dashboard

import (
	"errors"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/source"
)

// ErrInvalid marks a request naming an unknown entity, metric or date.
var ErrInvalid = errors.New("dashboard: invalid request")

// weekBack is how many rows a card looks back for its weekly change.
const weekBack = 7

// EntitiesView lists the selectors the page offers.
type EntitiesView struct {
	Variant       string   `json:"variant"`
	Title         string   `json:"title"`
	Entities      []string `json:"entities"`
	TotalsLabel   string   `json:"totals_label"`
	DefaultEntity string   `json:"default_entity"`
	Dates         []string `json:"dates"`
	DefaultDate   string   `json:"default_date"`
	MapMetrics    []string `json:"map_metrics"`
}

// MapView is a choropleth trace for one metric on one date.
type MapView struct {
	Date         string    `json:"date"`
	Metric       string    `json:"metric"`
	LocationMode string    `json:"location_mode"`
	Locations    []string  `json:"locations"`
	Values       []float64 `json:"values"`
	Names        []string  `json:"names"`
}

// SeriesView holds the columns plotted in the four time-series panels.
type SeriesView struct {
	Entity              string    `json:"entity"`
	Dates               []string  `json:"dates"`
	Confirmed           []int64   `json:"confirmed"`
	Deaths              []int64   `json:"deaths"`
	NewConfirmed        []int64   `json:"new_confirmed"`
	NewConfirmedMA7     []float64 `json:"new_confirmed_ma7"`
	TotalTestResults    []int64   `json:"total_test_results"`
	TestingRate         []float64 `json:"testing_rate"`
	HospitalizationRate []float64 `json:"hospitalization_rate"`
	CaseFatalityRatio   []float64 `json:"case_fatality_ratio"`
}

// CardView is one summary card.
type CardView struct {
	Label   string          `json:"label"`
	Kind    source.CardKind `json:"kind"`
	Value   float64         `json:"value"`
	Delta   float64         `json:"delta"`
	Display string          `json:"display"`
	Change  string          `json:"change"`
	Inverse bool            `json:"inverse"`
}

// TableRow is one formatted raw-data table row.
type TableRow struct {
	Date         string `json:"date"`
	Confirmed    string `json:"confirmed"`
	Deaths       string `json:"deaths"`
	Recovered    string `json:"recovered"`
	Active       string `json:"active"`
	NewConfirmed string `json:"new_confirmed"`
	NewDeaths    string `json:"new_deaths"`
	Tests        string `json:"tests"`
	CFR          string `json:"cfr"`
}

// Entities builds the selector payload.
func Entities(ds *Dataset) EntitiesView {
	v := EntitiesView{
		Variant:       ds.Variant.Name,
		Title:         ds.Variant.Title,
		Entities:      ds.Entities,
		TotalsLabel:   ds.Variant.TotalsLabel,
		DefaultEntity: ds.DefaultEntity(),
		MapMetrics:    ds.Variant.MapMetrics,
		Dates:         make([]string, len(ds.Dates)),
	}
	for i, d := range ds.Dates {
		v.Dates[i] = d.String()
	}
	if d, ok := ds.LatestDate(); ok {
		v.DefaultDate = d.String()
	}
	if v.Entities == nil {
		v.Entities = []string{}
	}
	return v
}

// Map builds the choropleth payload for metric on date. An empty date means
// the latest date; a date between published days resolves to the one before.
// Entities without a map location are left out.
func Map(ds *Dataset, metric, date string) (MapView, error) {
	if metric == "" {
		metric = model.MetricConfirmed
	}
	if !slices.Contains(ds.Variant.MapMetrics, metric) {
		return MapView{}, eris.Wrapf(ErrInvalid, "dashboard: metric %q is not mapped for %s", metric, ds.Variant.Name)
	}
	d, err := resolveDate(ds, date)
	if err != nil {
		return MapView{}, err
	}

	mv := MapView{
		Date:         d.String(),
		Metric:       metric,
		LocationMode: ds.Variant.MapMode,
		Locations:    []string{},
		Values:       []float64{},
		Names:        []string{},
	}
	for _, r := range ds.On(d) {
		loc, ok := ds.Variant.MapLocation(r.Entity)
		if !ok {
			continue
		}
		val, _ := r.Metric(metric)
		mv.Locations = append(mv.Locations, loc)
		mv.Values = append(mv.Values, val)
		mv.Names = append(mv.Names, r.Entity)
	}
	return mv, nil
}

// Series builds the time-series payload for entity, oldest first.
func Series(ds *Dataset, entity string) (SeriesView, error) {
	entity, rows, err := lookup(ds, entity)
	if err != nil {
		return SeriesView{}, err
	}
	n := len(rows)
	sv := SeriesView{
		Entity:              entity,
		Dates:               make([]string, n),
		Confirmed:           make([]int64, n),
		Deaths:              make([]int64, n),
		NewConfirmed:        make([]int64, n),
		NewConfirmedMA7:     make([]float64, n),
		TotalTestResults:    make([]int64, n),
		TestingRate:         make([]float64, n),
		HospitalizationRate: make([]float64, n),
		CaseFatalityRatio:   make([]float64, n),
	}
	for i, r := range rows {
		sv.Dates[i] = r.Date.String()
		sv.Confirmed[i] = r.Confirmed
		sv.Deaths[i] = r.Deaths
		sv.NewConfirmed[i] = r.NewConfirmed
		sv.NewConfirmedMA7[i] = r.NewConfirmedMA7
		sv.TotalTestResults[i] = r.TotalTestResults
		sv.TestingRate[i] = r.TestingRate
		sv.HospitalizationRate[i] = r.HospitalizationRate
		sv.CaseFatalityRatio[i] = r.CaseFatalityRatio
	}
	return sv, nil
}

// Cards compares each card's latest value with the value seven rows
// earlier, or with the first row when the series is shorter than that.
func Cards(ds *Dataset, entity string) ([]CardView, error) {
	_, rows, err := lookup(ds, entity)
	if err != nil {
		return nil, err
	}
	out := make([]CardView, 0, len(ds.Variant.Cards))
	if len(rows) == 0 {
		return out, nil
	}
	latest := rows[len(rows)-1]
	prior := rows[0]
	if i := len(rows) - 1 - weekBack; i >= 0 {
		prior = rows[i]
	}

	for _, c := range ds.Variant.Cards {
		cur, prev := cardValue(c, latest), cardValue(c, prior)
		cv := CardView{
			Label:   c.Label,
			Kind:    c.Kind,
			Value:   cur,
			Delta:   cur - prev,
			Inverse: c.Inverse,
		}
		if c.Kind == source.CardCount {
			cv.Display = formatNumber(cur)
			cv.Change = formatWeekly(cv.Delta, false)
		} else {
			cv.Display = formatPercent(cur)
			cv.Change = formatWeekly(cv.Delta, true)
		}
		out = append(out, cv)
	}
	return out, nil
}

func cardValue(c source.Card, r model.SeriesRow) float64 {
	if c.Kind == source.CardRatio {
		if r.Confirmed == 0 {
			return 0
		}
		return float64(r.Deaths) / float64(r.Confirmed) * 100
	}
	v, _ := r.Metric(c.Metric)
	return v
}

// Rows returns entity's table rows newest first. limit <= 0 returns all.
func Rows(ds *Dataset, entity string, limit int) ([]TableRow, error) {
	_, rows, err := lookup(ds, entity)
	if err != nil {
		return nil, err
	}
	n := len(rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]TableRow, 0, n)
	for i := len(rows) - 1; i >= 0 && len(out) < n; i-- {
		r := rows[i]
		out = append(out, TableRow{
			Date:         r.Date.String(),
			Confirmed:    formatCount(r.Confirmed),
			Deaths:       formatCount(r.Deaths),
			Recovered:    formatCount(r.Recovered),
			Active:       formatCount(r.Active),
			NewConfirmed: formatCount(r.NewConfirmed),
			NewDeaths:    formatCount(r.NewDeaths),
			Tests:        formatCount(r.TotalTestResults),
			CFR:          formatPercent(r.CaseFatalityRatio),
		})
	}
	return out, nil
}

func lookup(ds *Dataset, entity string) (string, []model.SeriesRow, error) {
	if entity == "" {
		entity = ds.DefaultEntity()
	}
	rows, ok := ds.Series(entity)
	if !ok {
		return entity, nil, eris.Wrapf(ErrInvalid, "dashboard: unknown %s %q", ds.Variant.Entity, entity)
	}
	return entity, rows, nil
}

func resolveDate(ds *Dataset, date string) (model.Day, error) {
	if date == "" {
		d, ok := ds.LatestDate()
		if !ok {
			return model.Day{}, eris.New("dashboard: dataset has no dates")
		}
		return d, nil
	}
	want, err := model.ParseDay(date)
	if err != nil {
		return model.Day{}, eris.Wrapf(ErrInvalid, "dashboard: bad date %q", date)
	}
	d, ok := ds.ResolveDate(want)
	if !ok {
		return model.Day{}, eris.Wrapf(ErrInvalid, "dashboard: no data on or before %s", date)
	}
	return d, nil
}
