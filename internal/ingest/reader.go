package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// TSE CSV dialect, per the LEIAME shipped with every bulletin: semicolon
// separator, Latin-1 encoding, quoted fields.
const separator = ';'

// nullMarkers are the placeholder strings TSE uses for absent values.
var nullMarkers = map[string]bool{
	"#NULO": true,
	"#NE":   true,
}

// Reader iterates the records of a TSE CSV bulletin. It transcodes from
// Latin-1, normalises header names (trim + uppercase) and maps the TSE null
// markers to the empty string.
type Reader struct {
	cr   *csv.Reader
	cols map[string]int
}

// NewReader reads the header line of r and prepares record iteration.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.Comma = separator

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToUpper(strings.TrimSpace(name))] = i
	}

	return &Reader{cr: cr, cols: cols}, nil
}

// Has reports whether the file carries the named column.
func (r *Reader) Has(name string) bool {
	_, ok := r.cols[name]
	return ok
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	fields, err := r.cr.Read()
	if err != nil {
		return Record{}, err
	}
	return Record{fields: fields, cols: r.cols}, nil
}

// Record is one data row of a bulletin, addressed by column name.
type Record struct {
	fields []string
	cols   map[string]int
}

// Get returns the cleaned value of the named column: trimmed, with TSE null
// markers mapped to "". Missing columns also yield "".
func (rec Record) Get(name string) string {
	i, ok := rec.cols[name]
	if !ok || i >= len(rec.fields) {
		return ""
	}
	v := strings.TrimSpace(rec.fields[i])
	if nullMarkers[v] {
		return ""
	}
	return v
}
