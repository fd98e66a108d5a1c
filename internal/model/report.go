package model

// Report is one cleaned observation for one (date, geographic entity) pair.
// Column tags follow the post-2020-03-22 daily report naming.
type Report struct {
	Date                Day     `csv:"Date" json:"date"`
	FIPS                string  `csv:"FIPS" json:"fips,omitempty"`
	Admin2              string  `csv:"Admin2" json:"admin2,omitempty"`
	ProvinceState       string  `csv:"Province_State" json:"province_state"`
	CountryRegion       string  `csv:"Country_Region" json:"country_region"`
	LastUpdate          string  `csv:"Last_Update" json:"last_update"`
	Lat                 float64 `csv:"Lat" json:"lat"`
	Long                float64 `csv:"Long_" json:"long"`
	Confirmed           int64   `csv:"Confirmed" json:"confirmed"`
	Deaths              int64   `csv:"Deaths" json:"deaths"`
	Recovered           int64   `csv:"Recovered" json:"recovered"`
	Active              int64   `csv:"Active" json:"active"`
	CombinedKey         string  `csv:"Combined_Key" json:"combined_key,omitempty"`
	IncidentRate        float64 `csv:"Incident_Rate" json:"incident_rate"`
	TotalTestResults    int64   `csv:"Total_Test_Results" json:"total_test_results"`
	PeopleHospitalized  int64   `csv:"People_Hospitalized" json:"people_hospitalized"`
	CaseFatalityRatio   float64 `csv:"Case_Fatality_Ratio" json:"case_fatality_ratio"`
	TestingRate         float64 `csv:"Testing_Rate" json:"testing_rate"`
	HospitalizationRate float64 `csv:"Hospitalization_Rate" json:"hospitalization_rate"`
}

// Valid reports whether r satisfies the cleaned-row invariants.
func (r Report) Valid() bool {
	return r.Confirmed >= 0 &&
		r.Deaths >= 0 && r.Deaths <= r.Confirmed &&
		r.Recovered >= 0 && r.Recovered <= r.Confirmed &&
		r.Active == ActiveCases(r.Confirmed, r.Deaths, r.Recovered)
}

// ActiveCases returns Confirmed minus Deaths minus Recovered, floored at zero.
func ActiveCases(confirmed, deaths, recovered int64) int64 {
	a := confirmed - deaths - recovered
	if a < 0 {
		return 0
	}
	return a
}
