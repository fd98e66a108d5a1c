package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/covidsync/internal/config"
	"github.com/sells-group/covidsync/internal/model"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Sources.Global.BaseURL = "https://example.test/daily_reports/"
	cfg.Sources.Global.StartDate = "2020-01-22"
	cfg.Sources.US.BaseURL = "https://example.test/daily_reports_us"
	cfg.Sources.US.StartDate = "2020-04-12"
	return cfg
}

func TestVariant_URL(t *testing.T) {
	reg, err := NewRegistry(testConfig())
	require.NoError(t, err)

	g, err := reg.Get("global")
	require.NoError(t, err)
	d, _ := model.ParseDay("2020-03-22")
	assert.Equal(t, "https://example.test/daily_reports/03-22-2020.csv", g.URL(d))

	us, err := reg.Get("us")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/daily_reports_us/03-22-2020.csv", us.URL(d))
}

func TestVariant_EntityOf(t *testing.T) {
	r := model.Report{ProvinceState: "Ohio", CountryRegion: "United States"}

	g := Global("", model.Day{})
	assert.Equal(t, "United States", g.EntityOf(r))
	assert.Equal(t, "Country", g.EntityColumn())

	us := US("", model.Day{})
	assert.Equal(t, "Ohio", us.EntityOf(r))
	assert.Equal(t, "Province_State", us.EntityColumn())
}

func TestVariant_MapLocation(t *testing.T) {
	us := US("", model.Day{})
	code, ok := us.MapLocation("New York")
	assert.True(t, ok)
	assert.Equal(t, "NY", code)

	_, ok = us.MapLocation("Diamond Princess")
	assert.False(t, ok)

	g := Global("", model.Day{})
	loc, ok := g.MapLocation("China")
	assert.True(t, ok)
	assert.Equal(t, "China", loc)
}

func TestRegistry_Select(t *testing.T) {
	reg, err := NewRegistry(testConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"global", "us"}, reg.Names())

	all, err := reg.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := reg.Select([]string{"us"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "us", one[0].Name)
	assert.Equal(t, "2020-04-12", one[0].Start.String())

	_, err = reg.Select([]string{"eu"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown variant "eu"`)
}

func TestNewRegistry_BadStartDate(t *testing.T) {
	cfg := testConfig()
	cfg.Sources.US.StartDate = "04/12/2020"
	_, err := NewRegistry(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "us start_date")
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := &Registry{}
	r.Register(US("a", model.Day{}))
	r.Register(US("b", model.Day{}))
	assert.Equal(t, []string{"us"}, r.Names())
	v, err := r.Get("us")
	require.NoError(t, err)
	assert.Equal(t, "b", v.BaseURL)
}
