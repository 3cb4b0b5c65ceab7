package store

import (
	"fmt"
	"strings"
)

// Filter carries the optional query parameters shared by the aggregate
// queries. Empty fields are not applied. Values are strings throughout —
// TSE publishes every identifying column as text.
type Filter struct {
	Year             string
	UF               string
	Round            string
	MunicipalityCode string
	OfficeCode       string
	Zone             string
	Section          string
	CandidateNumber  string
	Party            string
	PollingPlaceCode string

	// Limit caps the result set. Callers are expected to clamp it to the
	// endpoint's allowed range before querying.
	Limit int
}

// where renders the non-empty filter fields as " AND col = $n" clauses,
// numbering placeholders from 1. The returned args align with the
// placeholders; the LIMIT argument is appended by the caller.
func (f Filter) where() (string, []any) {
	var sb strings.Builder
	var args []any

	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		fmt.Fprintf(&sb, " AND %s = $%d", col, len(args))
	}

	add("year", f.Year)
	add("uf", f.UF)
	add("round", f.Round)
	add("municipality_code", f.MunicipalityCode)
	add("office_code", f.OfficeCode)
	add("zone", f.Zone)
	add("section", f.Section)
	add("votable_number", f.CandidateNumber)
	add("party", f.Party)
	add("polling_place_code", f.PollingPlaceCode)

	return sb.String(), args
}
