package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/covidsync/internal/model"
)

// SchemaCutoff is the first date published with underscore column names,
// FIPS/Admin2/Active/Combined_Key columns.
var SchemaCutoff = model.Day{Time: mustDay("2020-03-22").Time}

func mustDay(s string) model.Day {
	d, err := model.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Column names of the unified schema.
const (
	ColFIPS                = "FIPS"
	ColAdmin2              = "Admin2"
	ColProvinceState       = "Province_State"
	ColCountryRegion       = "Country_Region"
	ColLastUpdate          = "Last_Update"
	ColLat                 = "Lat"
	ColLong                = "Long_"
	ColConfirmed           = "Confirmed"
	ColDeaths              = "Deaths"
	ColRecovered           = "Recovered"
	ColActive              = "Active"
	ColCombinedKey         = "Combined_Key"
	ColIncidentRate        = "Incident_Rate"
	ColTotalTestResults    = "Total_Test_Results"
	ColPeopleHospitalized  = "People_Hospitalized"
	ColCaseFatalityRatio   = "Case_Fatality_Ratio"
	ColTestingRate         = "Testing_Rate"
	ColHospitalizationRate = "Hospitalization_Rate"
	ColDate                = "Date"
)

// preCutoffRenames maps slash-era headers onto the unified names.
var preCutoffRenames = map[string]string{
	"Province/State": ColProvinceState,
	"Country/Region": ColCountryRegion,
	"Last Update":    ColLastUpdate,
	"Latitude":       ColLat,
	"Longitude":      ColLong,
}

// postCutoffRenames folds later header changes into the unified names.
var postCutoffRenames = map[string]string{
	"Long":                ColLong,
	"Incidence_Rate":      ColIncidentRate,
	"Case-Fatality_Ratio": ColCaseFatalityRatio,
	"Mortality_Rate":      ColCaseFatalityRatio,
	"People_Tested":       ColTotalTestResults,
}

// renamesFor returns the header rename map for files published on d.
func renamesFor(d model.Day) map[string]string {
	if d.Before(SchemaCutoff.Time) {
		return preCutoffRenames
	}
	return postCutoffRenames
}

type kind int

const (
	kindText kind = iota
	kindCount
	kindRate
)

// column is one entry of the unified schema: its name, value kind, default
// raw value when the column is absent, and how it lands in a Report.
type column struct {
	name string
	kind kind
	def  string
	set  func(r *model.Report, raw string)
}

// schema is the fixed superset column set every normalized row carries.
var schema = []column{
	{ColFIPS, kindText, "", func(r *model.Report, s string) { r.FIPS = NormalizeFIPS(s) }},
	{ColAdmin2, kindText, "", func(r *model.Report, s string) { r.Admin2 = s }},
	{ColProvinceState, kindText, "", func(r *model.Report, s string) { r.ProvinceState = s }},
	{ColCountryRegion, kindText, "", func(r *model.Report, s string) { r.CountryRegion = s }},
	{ColLastUpdate, kindText, "", func(r *model.Report, s string) { r.LastUpdate = s }},
	{ColLat, kindRate, "0", func(r *model.Report, s string) { r.Lat = parseRate(s) }},
	{ColLong, kindRate, "0", func(r *model.Report, s string) { r.Long = parseRate(s) }},
	{ColConfirmed, kindCount, "0", func(r *model.Report, s string) { r.Confirmed = parseCount(s) }},
	{ColDeaths, kindCount, "0", func(r *model.Report, s string) { r.Deaths = parseCount(s) }},
	{ColRecovered, kindCount, "0", func(r *model.Report, s string) { r.Recovered = parseCount(s) }},
	{ColActive, kindCount, "0", func(r *model.Report, s string) { r.Active = parseCount(s) }},
	{ColCombinedKey, kindText, "", func(r *model.Report, s string) { r.CombinedKey = s }},
	{ColIncidentRate, kindRate, "0", func(r *model.Report, s string) { r.IncidentRate = parseRate(s) }},
	{ColTotalTestResults, kindCount, "0", func(r *model.Report, s string) { r.TotalTestResults = parseCount(s) }},
	{ColPeopleHospitalized, kindCount, "0", func(r *model.Report, s string) { r.PeopleHospitalized = parseCount(s) }},
	{ColCaseFatalityRatio, kindRate, "0", func(r *model.Report, s string) { r.CaseFatalityRatio = parseRate(s) }},
	{ColTestingRate, kindRate, "0", func(r *model.Report, s string) { r.TestingRate = parseRate(s) }},
	{ColHospitalizationRate, kindRate, "0", func(r *model.Report, s string) { r.HospitalizationRate = parseRate(s) }},
}

// parseCount coerces a count cell. Blank, non-numeric, NaN and negative
// values become 0; float-formatted counts are truncated.
func parseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(v, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int64(f)
}

// parseRate coerces a floating-point cell. Unparsable values become 0.
func parseRate(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
