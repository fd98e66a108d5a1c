package normalize

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a parsed CSV: one header row plus data records.
type Table struct {
	Header  []string
	Records [][]string
}

// ReadTable parses a daily report. Rows may be ragged; quoting is lenient.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, eris.New("normalize: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "normalize: read header")
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "normalize: read record")
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}
