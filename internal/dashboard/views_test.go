package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/source"
)

func TestDataset_Index(t *testing.T) {
	ds := usDataset(t, 10)

	assert.Equal(t, []string{"Diamond Princess", "New York", "Ohio"}, ds.Entities)
	assert.Len(t, ds.Dates, 10)
	assert.Equal(t, "New York", ds.DefaultEntity())

	latest, ok := ds.LatestDate()
	require.True(t, ok)
	assert.Equal(t, "2020-04-21", latest.String())

	totals, ok := ds.Series("United States")
	require.True(t, ok)
	require.Len(t, totals, 10)
	assert.Equal(t, int64(1000+95+5), totals[9].Confirmed)
}

func TestDataset_DefaultEntityFallsBack(t *testing.T) {
	v := usVariant(t)
	v.DefaultEntity = "Guam"
	ds := NewDataset(v, []model.SeriesRow{
		{Date: day(t, "2020-04-12"), Entity: "Ohio"},
		{Date: day(t, "2020-04-12"), Entity: "Alaska"},
	}, nil)
	assert.Equal(t, "Alaska", ds.DefaultEntity())
}

func TestDataset_ResolveDate(t *testing.T) {
	ds := usDataset(t, 3)

	d, ok := ds.ResolveDate(day(t, "2020-04-13"))
	require.True(t, ok)
	assert.Equal(t, "2020-04-13", d.String())

	d, ok = ds.ResolveDate(day(t, "2021-01-01"))
	require.True(t, ok)
	assert.Equal(t, "2020-04-14", d.String())

	_, ok = ds.ResolveDate(day(t, "2020-04-11"))
	assert.False(t, ok)
}

func TestCards_WeekOverWeek(t *testing.T) {
	ds := usDataset(t, 10)

	cards, err := Cards(ds, "New York")
	require.NoError(t, err)
	require.Len(t, cards, 4)

	assert.Equal(t, "Total Cases", cards[0].Label)
	assert.Equal(t, float64(1000), cards[0].Value)
	assert.Equal(t, float64(700), cards[0].Delta)
	assert.Equal(t, "1.0K", cards[0].Display)
	assert.Equal(t, "+700 (7d)", cards[0].Change)

	assert.Equal(t, "Deaths", cards[1].Label)
	assert.True(t, cards[1].Inverse)
	assert.Equal(t, "+70 (7d)", cards[1].Change)

	assert.Equal(t, "20.0K", cards[2].Display)
	assert.Equal(t, "+14.0K (7d)", cards[2].Change)

	assert.Equal(t, "5.90%", cards[3].Display)
	assert.Equal(t, "+0.70% (7d)", cards[3].Change)
}

func TestCards_ShortSeriesUsesFirstRow(t *testing.T) {
	ds := usDataset(t, 3)

	cards, err := Cards(ds, "New York")
	require.NoError(t, err)
	assert.Equal(t, float64(200), cards[0].Delta)
}

func TestCards_MortalityRatio(t *testing.T) {
	v := usVariant(t)
	v.Cards = []source.Card{{Label: "Mortality Rate", Kind: source.CardRatio, Inverse: true}}
	ds := NewDataset(v, []model.SeriesRow{
		{Date: day(t, "2020-04-12"), Entity: "Ohio", Confirmed: 200, Deaths: 2},
		{Date: day(t, "2020-04-13"), Entity: "Ohio", Confirmed: 200, Deaths: 4},
	}, nil)

	cards, err := Cards(ds, "Ohio")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "2.00%", cards[0].Display)
	assert.Equal(t, "+1.00% (7d)", cards[0].Change)
}

func TestCards_UnknownEntity(t *testing.T) {
	_, err := Cards(usDataset(t, 3), "Atlantis")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMap_SkipsUnplaceableEntities(t *testing.T) {
	ds := usDataset(t, 10)

	m, err := Map(ds, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2020-04-21", m.Date)
	assert.Equal(t, model.MetricConfirmed, m.Metric)
	assert.Equal(t, "USA-states", m.LocationMode)
	assert.Equal(t, []string{"NY", "OH"}, m.Locations)
	assert.Equal(t, []float64{1000, 95}, m.Values)
	assert.Equal(t, []string{"New York", "Ohio"}, m.Names)
}

func TestMap_Errors(t *testing.T) {
	ds := usDataset(t, 3)

	_, err := Map(ds, model.MetricRecovered, "")
	assert.ErrorIs(t, err, ErrInvalid, "recovered is not a US map metric")

	_, err = Map(ds, "", "2020-01-01")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Map(ds, "", "not-a-date")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSeries_DefaultEntity(t *testing.T) {
	ds := usDataset(t, 10)

	s, err := Series(ds, "")
	require.NoError(t, err)
	assert.Equal(t, "New York", s.Entity)
	require.Len(t, s.Dates, 10)
	assert.Equal(t, "2020-04-12", s.Dates[0])
	assert.Equal(t, int64(0), s.NewConfirmed[0])
	assert.Equal(t, int64(100), s.NewConfirmed[1])
	assert.InDelta(t, 50.0, s.NewConfirmedMA7[1], 1e-9)
}

func TestRows_NewestFirst(t *testing.T) {
	ds := usDataset(t, 15)

	rows, err := Rows(ds, "New York", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2020-04-26", rows[0].Date)
	assert.Equal(t, "1,500", rows[0].Confirmed)
	assert.Equal(t, "2020-04-25", rows[1].Date)

	all, err := Rows(ds, "New York", 0)
	require.NoError(t, err)
	assert.Len(t, all, 15)
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:          "0",
		999:        "999",
		1500:       "1.5K",
		-1500:      "-1.5K",
		1234567:    "1.2M",
		2500000000: "2.5B",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatNumber(in), "formatNumber(%v)", in)
	}
	assert.Equal(t, "1,234,567", formatCount(1234567))
	assert.Equal(t, "0 (7d)", formatWeekly(0, false))
	assert.Equal(t, "-2.0K (7d)", formatWeekly(-2000, false))
}
