package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// DayLayout is the on-disk date format for processed files.
const DayLayout = "2006-01-02"

// FileDayLayout is the date format used in remote and raw snapshot filenames.
const FileDayLayout = "01-02-2006"

// Day is a calendar date with no time-of-day component, encoded as YYYY-MM-DD.
type Day struct {
	time.Time
}

// NewDay truncates t to midnight UTC.
func NewDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return Day{}, eris.Wrapf(err, "model: parse day %q", s)
	}
	return Day{t}, nil
}

// ParseFileDay parses an MM-DD-YYYY string (with or without a .csv suffix stripped).
func ParseFileDay(s string) (Day, error) {
	t, err := time.Parse(FileDayLayout, s)
	if err != nil {
		return Day{}, eris.Wrapf(err, "model: parse file day %q", s)
	}
	return Day{t}, nil
}

// String returns the YYYY-MM-DD form.
func (d Day) String() string { return d.Format(DayLayout) }

// FileName returns the snapshot name for d, e.g. "03-22-2020.csv".
func (d Day) FileName() string { return d.Format(FileDayLayout) + ".csv" }

// AddDays returns d shifted by n calendar days.
func (d Day) AddDays(n int) Day { return Day{d.AddDate(0, 0, n)} }

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	p, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = p
	return nil
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return eris.Wrap(err, "model: unmarshal day")
	}
	return d.UnmarshalText([]byte(s))
}
