// Package rawstore manages the directory of unmodified daily snapshots, one
// <MM-DD-YYYY>.csv file per published date.
package rawstore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/covidsync/internal/model"
)

// Snapshot is one raw daily file on disk.
type Snapshot struct {
	Day  model.Day
	Path string
}

// Store is a directory of raw snapshots.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created lazily by Ensure.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Ensure creates the root directory if needed.
func (s *Store) Ensure() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrapf(err, "rawstore: create %s", s.dir)
	}
	return nil
}

// Path returns the file path for the snapshot of d.
func (s *Store) Path(d model.Day) string {
	return filepath.Join(s.dir, d.FileName())
}

// Has reports whether a snapshot for d exists.
func (s *Store) Has(d model.Day) bool {
	fi, err := os.Stat(s.Path(d))
	return err == nil && fi.Mode().IsRegular()
}

// List returns all snapshots in chronological order. Files whose names are
// not a valid MM-DD-YYYY.csv date are ignored. A missing directory yields an
// empty list.
func (s *Store) List() ([]Snapshot, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "rawstore: read dir %s", s.dir)
	}

	var out []Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		d, err := model.ParseFileDay(strings.TrimSuffix(name, ".csv"))
		if err != nil {
			continue
		}
		out = append(out, Snapshot{Day: d, Path: filepath.Join(s.dir, name)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day.Time) })
	return out, nil
}
