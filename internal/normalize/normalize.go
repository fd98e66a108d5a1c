// Package normalize maps daily reports from every schema era onto one fixed
// column set, coerces values, canonicalizes entity names, and enforces the
// cleaned-row invariants.
package normalize

import (
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/covidsync/internal/model"
)

// ErrUnrecognized is returned for a table with neither a country nor a
// province/state column, such as an HTML error page saved as CSV.
var ErrUnrecognized = errors.New("normalize: no recognizable columns")

// Normalizer converts parsed tables into cleaned reports.
type Normalizer struct {
	aliases *Aliases
}

// New creates a Normalizer. A nil alias table uses DefaultAliases.
func New(aliases *Aliases) *Normalizer {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Normalizer{aliases: aliases}
}

// Normalize converts a raw snapshot published on day into cleaned reports.
func (n *Normalizer) Normalize(t *Table, day model.Day) ([]model.Report, error) {
	return n.normalize(t, renamesFor(day), func([]string) (model.Day, error) { return day, nil })
}

// NormalizeDated re-normalizes an already unified table whose rows carry
// their own Date column. Normalizing a cleaned dataset again is a no-op.
func (n *Normalizer) NormalizeDated(t *Table) ([]model.Report, error) {
	idx := indexOf(t.Header, ColDate)
	if idx < 0 {
		return nil, eris.New("normalize: table has no Date column")
	}
	return n.normalize(t, postCutoffRenames, func(rec []string) (model.Day, error) {
		if idx >= len(rec) {
			return model.Day{}, eris.New("normalize: row has no Date value")
		}
		return model.ParseDay(rec[idx])
	})
}

func (n *Normalizer) normalize(t *Table, renames map[string]string, dateOf func([]string) (model.Day, error)) ([]model.Report, error) {
	pos := resolveColumns(t.Header, renames)
	_, hasCountry := pos[ColCountryRegion]
	_, hasProvince := pos[ColProvinceState]
	if !hasCountry && !hasProvince {
		return nil, eris.Wrapf(ErrUnrecognized, "header %q", t.Header)
	}
	_, hasActive := pos[ColActive]
	_, hasTestingRate := pos[ColTestingRate]
	_, hasCFR := pos[ColCaseFatalityRatio]

	out := make([]model.Report, 0, len(t.Records))
	for _, rec := range t.Records {
		if blank(rec) {
			continue
		}
		d, err := dateOf(rec)
		if err != nil {
			return nil, err
		}

		r := model.Report{Date: d}
		for _, c := range schema {
			raw := c.def
			if i, ok := pos[c.name]; ok && i < len(rec) {
				raw = rec[i]
			}
			c.set(&r, raw)
		}

		r.CountryRegion = n.aliases.Country(r.CountryRegion)
		r.ProvinceState = n.aliases.Province(r.ProvinceState)

		if !hasActive {
			r.Active = r.Confirmed - r.Deaths - r.Recovered
		}
		Clean(&r)
		if !hasTestingRate && r.Confirmed > 0 {
			r.TestingRate = float64(r.TotalTestResults) / float64(r.Confirmed)
		}
		if !hasCFR && r.Confirmed > 0 {
			r.CaseFatalityRatio = float64(r.Deaths) / float64(r.Confirmed) * 100
		}
		out = append(out, r)
	}
	return out, nil
}

// Clean enforces the row invariants: counts are non-negative, Deaths and
// Recovered do not exceed Confirmed, and Active = max(C-D-R, 0).
func Clean(r *model.Report) {
	r.Confirmed = max(r.Confirmed, 0)
	r.Deaths = min(max(r.Deaths, 0), r.Confirmed)
	r.Recovered = min(max(r.Recovered, 0), r.Confirmed)
	r.TotalTestResults = max(r.TotalTestResults, 0)
	r.PeopleHospitalized = max(r.PeopleHospitalized, 0)
	r.Active = model.ActiveCases(r.Confirmed, r.Deaths, r.Recovered)
}

// resolveColumns maps unified column names to their index in header. The
// first header that resolves to a name wins.
func resolveColumns(header []string, renames map[string]string) map[string]int {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := h
		if to, ok := renames[h]; ok {
			name = to
		}
		if _, seen := pos[name]; !seen {
			pos[name] = i
		}
	}
	return pos
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func blank(rec []string) bool {
	for _, f := range rec {
		if f != "" {
			return false
		}
	}
	return true
}
