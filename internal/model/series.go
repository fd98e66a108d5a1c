package model

// SeriesRow is one aggregated (date, entity) observation with daily deltas
// and their trailing 7-day means.
type SeriesRow struct {
	Date                Day     `csv:"Date" json:"date"`
	Entity              string  `csv:"Entity" json:"entity"`
	Confirmed           int64   `csv:"Confirmed" json:"confirmed"`
	Deaths              int64   `csv:"Deaths" json:"deaths"`
	Recovered           int64   `csv:"Recovered" json:"recovered"`
	Active              int64   `csv:"Active" json:"active"`
	TotalTestResults    int64   `csv:"Total_Test_Results" json:"total_test_results"`
	PeopleHospitalized  int64   `csv:"People_Hospitalized" json:"people_hospitalized"`
	IncidentRate        float64 `csv:"Incident_Rate" json:"incident_rate"`
	TestingRate         float64 `csv:"Testing_Rate" json:"testing_rate"`
	HospitalizationRate float64 `csv:"Hospitalization_Rate" json:"hospitalization_rate"`
	CaseFatalityRatio   float64 `csv:"Case_Fatality_Ratio" json:"case_fatality_ratio"`
	NewConfirmed        int64   `csv:"NewConfirmed" json:"new_confirmed"`
	NewDeaths           int64   `csv:"NewDeaths" json:"new_deaths"`
	NewRecovered        int64   `csv:"NewRecovered" json:"new_recovered"`
	NewActive           int64   `csv:"NewActive" json:"new_active"`
	NewConfirmedMA7     float64 `csv:"NewConfirmedMA7" json:"new_confirmed_ma7"`
	NewDeathsMA7        float64 `csv:"NewDeathsMA7" json:"new_deaths_ma7"`
	NewRecoveredMA7     float64 `csv:"NewRecoveredMA7" json:"new_recovered_ma7"`
	NewActiveMA7        float64 `csv:"NewActiveMA7" json:"new_active_ma7"`
}

// Metric names accepted by SeriesRow.Metric. They match the CSV column names.
const (
	MetricConfirmed           = "Confirmed"
	MetricDeaths              = "Deaths"
	MetricRecovered           = "Recovered"
	MetricActive              = "Active"
	MetricTotalTestResults    = "Total_Test_Results"
	MetricPeopleHospitalized  = "People_Hospitalized"
	MetricIncidentRate        = "Incident_Rate"
	MetricTestingRate         = "Testing_Rate"
	MetricHospitalizationRate = "Hospitalization_Rate"
	MetricCaseFatalityRatio   = "Case_Fatality_Ratio"
	MetricNewConfirmed        = "NewConfirmed"
	MetricNewDeaths           = "NewDeaths"
	MetricNewConfirmedMA7     = "NewConfirmedMA7"
	MetricNewDeathsMA7        = "NewDeathsMA7"
)

// Metric returns the named metric as a float64. ok is false for unknown names.
func (r SeriesRow) Metric(name string) (v float64, ok bool) {
	switch name {
	case MetricConfirmed:
		return float64(r.Confirmed), true
	case MetricDeaths:
		return float64(r.Deaths), true
	case MetricRecovered:
		return float64(r.Recovered), true
	case MetricActive:
		return float64(r.Active), true
	case MetricTotalTestResults:
		return float64(r.TotalTestResults), true
	case MetricPeopleHospitalized:
		return float64(r.PeopleHospitalized), true
	case MetricIncidentRate:
		return r.IncidentRate, true
	case MetricTestingRate:
		return r.TestingRate, true
	case MetricHospitalizationRate:
		return r.HospitalizationRate, true
	case MetricCaseFatalityRatio:
		return r.CaseFatalityRatio, true
	case MetricNewConfirmed:
		return float64(r.NewConfirmed), true
	case MetricNewDeaths:
		return float64(r.NewDeaths), true
	case MetricNewConfirmedMA7:
		return r.NewConfirmedMA7, true
	case MetricNewDeathsMA7:
		return r.NewDeathsMA7, true
	}
	return 0, false
}
