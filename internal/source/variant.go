// Package source describes the daily-report datasets the pipeline can sync.
// Each Variant is pure configuration: the pipeline code is shared.
package source

import (
	"strings"

	"github.com/sells-group/covidsync/internal/model"
)

// EntityKind is the grouping unit for aggregation.
type EntityKind string

const (
	EntityCountry EntityKind = "country"
	EntityState   EntityKind = "state"
)

// CardKind controls how a dashboard card formats its value.
type CardKind string

const (
	CardCount   CardKind = "count"
	CardPercent CardKind = "percent"
	// CardRatio is derived as Deaths / Confirmed * 100 rather than read from a column.
	CardRatio CardKind = "mortality"
)

// Card describes one dashboard summary card.
type Card struct {
	Label   string   `json:"label"`
	Metric  string   `json:"metric"`
	Kind    CardKind `json:"kind"`
	Inverse bool     `json:"inverse"`
}

// Variant is one remote daily-report dataset and how to aggregate it.
type Variant struct {
	Name          string
	Title         string
	BaseURL       string
	Start         model.Day
	Entity        EntityKind
	TotalsLabel   string
	DefaultEntity string
	MapMode       string
	MapMetrics    []string
	Cards         []Card
}

// URL returns the remote location of the snapshot for d.
func (v *Variant) URL(d model.Day) string {
	return strings.TrimRight(v.BaseURL, "/") + "/" + d.FileName()
}

// EntityColumn is the header used for the entity column in processed files.
func (v *Variant) EntityColumn() string {
	if v.Entity == EntityState {
		return "Province_State"
	}
	return "Country"
}

// EntityOf returns the grouping key of a cleaned report.
func (v *Variant) EntityOf(r model.Report) string {
	if v.Entity == EntityState {
		return r.ProvinceState
	}
	return r.CountryRegion
}

// MapLocation converts an entity name into the identifier the choropleth
// expects. ok is false when the entity cannot be placed on the map.
func (v *Variant) MapLocation(entity string) (string, bool) {
	if v.MapMode == MapModeUSStates {
		code, ok := StateCode(entity)
		return code, ok
	}
	return entity, entity != ""
}

// Choropleth location modes.
const (
	MapModeCountryNames = "country names"
	MapModeUSStates     = "USA-states"
)

// Global returns the worldwide, per-country variant.
func Global(baseURL string, start model.Day) *Variant {
	return &Variant{
		Name:        "global",
		Title:       "COVID-19 Dashboard",
		BaseURL:     baseURL,
		Start:       start,
		Entity:      EntityCountry,
		TotalsLabel: "Global",
		MapMode:     MapModeCountryNames,
		MapMetrics: []string{
			model.MetricConfirmed,
			model.MetricDeaths,
			model.MetricRecovered,
			model.MetricActive,
			model.MetricCaseFatalityRatio,
		},
		Cards: []Card{
			{Label: "Total Cases", Metric: model.MetricConfirmed, Kind: CardCount},
			{Label: "Deaths", Metric: model.MetricDeaths, Kind: CardCount, Inverse: true},
			{Label: "Recovered", Metric: model.MetricRecovered, Kind: CardCount},
			{Label: "Active Cases", Metric: model.MetricActive, Kind: CardCount},
			{Label: "Mortality Rate", Kind: CardRatio, Inverse: true},
		},
	}
}

// US returns the United States, per-state variant.
func US(baseURL string, start model.Day) *Variant {
	return &Variant{
		Name:          "us",
		Title:         "US COVID-19 Dashboard",
		BaseURL:       baseURL,
		Start:         start,
		Entity:        EntityState,
		TotalsLabel:   "United States",
		DefaultEntity: "New York",
		MapMode:       MapModeUSStates,
		MapMetrics: []string{
			model.MetricConfirmed,
			model.MetricDeaths,
			model.MetricIncidentRate,
			model.MetricCaseFatalityRatio,
		},
		Cards: []Card{
			{Label: "Total Cases", Metric: model.MetricConfirmed, Kind: CardCount},
			{Label: "Deaths", Metric: model.MetricDeaths, Kind: CardCount, Inverse: true},
			{Label: "Tests", Metric: model.MetricTotalTestResults, Kind: CardCount},
			{Label: "Hospitalization Rate", Metric: model.MetricHospitalizationRate, Kind: CardPercent},
		},
	}
}
