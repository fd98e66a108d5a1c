// Package processed reads and writes the pipeline's output files: the
// cleaned unified dataset, the per-entity series and the daily totals.
package processed

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/covidsync/internal/model"
	"github.com/sells-group/covidsync/internal/source"
)

// ErrNotFound is returned when a processed file has not been written yet.
var ErrNotFound = errors.New("processed: file not found")

const entityField = "Entity"

// Store is the processed-output directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// CleanedPath is covid_<variant>_cleaned.csv.
func (s *Store) CleanedPath(v *source.Variant) string {
	return filepath.Join(s.dir, "covid_"+v.Name+"_cleaned.csv")
}

// SeriesPath is covid_<variant>_by_<country|state>.csv.
func (s *Store) SeriesPath(v *source.Variant) string {
	return filepath.Join(s.dir, "covid_"+v.Name+"_by_"+string(v.Entity)+".csv")
}

// TotalsPath is covid_<variant>_totals.csv.
func (s *Store) TotalsPath(v *source.Variant) string {
	return filepath.Join(s.dir, "covid_"+v.Name+"_totals.csv")
}

// Has reports whether the per-entity series for v exists.
func (s *Store) Has(v *source.Variant) bool {
	fi, err := os.Stat(s.SeriesPath(v))
	return err == nil && fi.Mode().IsRegular()
}

// SaveCleaned writes the unified dataset for v.
func (s *Store) SaveCleaned(v *source.Variant, reports []model.Report) error {
	return writeAtomic(s.CleanedPath(v), func(w io.Writer) error {
		return encode(w, reports, nil)
	})
}

// SaveSeries writes the per-entity series and the totals for v.
func (s *Store) SaveSeries(v *source.Variant, byEntity, totals []model.SeriesRow) error {
	rename := map[string]string{entityField: v.EntityColumn()}
	if err := writeAtomic(s.SeriesPath(v), func(w io.Writer) error {
		return encode(w, byEntity, rename)
	}); err != nil {
		return err
	}
	return writeAtomic(s.TotalsPath(v), func(w io.Writer) error {
		return encode(w, totals, nil)
	})
}

// LoadCleaned reads the unified dataset for v.
func (s *Store) LoadCleaned(v *source.Variant) ([]model.Report, error) {
	var out []model.Report
	err := readFile(s.CleanedPath(v), nil, func(d *csvutil.Decoder) error {
		return decodeAll(d, &out)
	})
	return out, err
}

// LoadSeries reads the per-entity series for v.
func (s *Store) LoadSeries(v *source.Variant) ([]model.SeriesRow, error) {
	var out []model.SeriesRow
	rename := map[string]string{v.EntityColumn(): entityField}
	err := readFile(s.SeriesPath(v), rename, func(d *csvutil.Decoder) error {
		return decodeAll(d, &out)
	})
	return out, err
}

// LoadTotals reads the daily totals for v.
func (s *Store) LoadTotals(v *source.Variant) ([]model.SeriesRow, error) {
	var out []model.SeriesRow
	err := readFile(s.TotalsPath(v), nil, func(d *csvutil.Decoder) error {
		return decodeAll(d, &out)
	})
	return out, err
}

// encode writes rows with a header derived from T's csv tags; rename maps
// tag names to the header written to disk.
func encode[T any](w io.Writer, rows []T, rename map[string]string) error {
	var zero T
	header, err := csvutil.Header(zero, "csv")
	if err != nil {
		return eris.Wrap(err, "processed: header")
	}

	cw := csv.NewWriter(w)
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = h
		if to, ok := rename[h]; ok {
			out[i] = to
		}
	}
	if err := cw.Write(out); err != nil {
		return eris.Wrap(err, "processed: write header")
	}

	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "processed: encode row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "processed: flush")
	}
	return nil
}

func decodeAll[T any](d *csvutil.Decoder, out *[]T) error {
	for {
		var row T
		if err := d.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return eris.Wrap(err, "processed: decode row")
		}
		*out = append(*out, row)
	}
}

// readFile opens path, rewrites header names through rename and hands a
// decoder positioned at the first data row to fn.
func readFile(path string, rename map[string]string, fn func(*csvutil.Decoder) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return eris.Wrapf(ErrNotFound, "open %s", path)
		}
		return eris.Wrapf(err, "processed: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	cr := csv.NewReader(bufio.NewReader(f))
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return eris.Errorf("processed: %s is empty", path)
		}
		return eris.Wrapf(err, "processed: read header %s", path)
	}
	for i, h := range header {
		if to, ok := rename[h]; ok {
			header[i] = to
		}
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return eris.Wrapf(err, "processed: decoder %s", path)
	}
	if err := fn(dec); err != nil {
		return eris.Wrapf(err, "processed: read %s", path)
	}
	return nil
}

// writeAtomic writes to a temp file next to path and renames it into place.
func writeAtomic(path string, fn func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "processed: create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrap(err, "processed: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	bw := bufio.NewWriter(tmp)
	if err := fn(bw); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return eris.Wrap(err, "processed: flush")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "processed: close temp file")
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return eris.Wrap(err, "processed: chmod")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "processed: rename to %s", path)
	}
	return nil
}
