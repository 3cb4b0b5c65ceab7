package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// FileType classifies a bulletin by the table it feeds.
type FileType string

const (
	// FileTypeSection — VOTACAO_SECAO_<year>_<uf> files, one row per
	// votable per polling section.
	FileTypeSection FileType = "secao"
	// FileTypeMunzone — DETALHE_VOTACAO_MUNZONA_<year>_<uf> files, turnout
	// and vote-category counters per municipality/zone.
	FileTypeMunzone FileType = "munzona"
	// FileTypeUnknown — anything else; skipped.
	FileTypeUnknown FileType = ""
)

// Classify routes a file by its name, the way TSE names its exports.
func Classify(name string) FileType {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "SECAO"):
		return FileTypeSection
	case strings.Contains(upper, "MUNZONA"):
		return FileTypeMunzone
	default:
		return FileTypeUnknown
	}
}

// voteColumns lists the vote-count column across TSE layout generations, in
// detection priority order.
var voteColumns = []string{
	"QT_VOTOS",
	"QT_VOTOS_VALIDOS",
	"QT_VOTOS_NOMINAIS",
	"QT_VOTOS_NOMINAIS_VALIDOS",
}

// detectVoteColumn returns the first vote-count column the file carries.
func detectVoteColumn(has func(string) bool) (string, bool) {
	for _, c := range voteColumns {
		if has(c) {
			return c, true
		}
	}
	return "", false
}

// addressColumns lists the polling-place address column variants.
var addressColumns = []string{
	"DS_LOCAL_VOTACAO_ENDERECO",
	"DS_ENDERECO_LOCAL_VOTACAO",
}

// detectAddressColumn returns the address column the file carries, if any.
func detectAddressColumn(has func(string) bool) string {
	for _, c := range addressColumns {
		if has(c) {
			return c
		}
	}
	return ""
}

var (
	yearPattern = regexp.MustCompile(`20\d{2}`)
	ufPattern   = regexp.MustCompile(`_(BRASIL|BR|AC|AL|AP|AM|BA|CE|DF|ES|GO|MA|MT|MS|MG|PA|PB|PR|PE|PI|RJ|RN|RS|RO|RR|SC|SP|SE|TO)\.`)
)

// yearUFFromFilename extracts the election year and UF from a file name
// like votacao_secao_2024_SP.csv. Either may be absent.
func yearUFFromFilename(name string) (year, uf string) {
	upper := strings.ToUpper(name)
	if m := yearPattern.FindString(upper); m != "" {
		year = m
	}
	if m := ufPattern.FindStringSubmatch(upper); m != nil {
		uf = m[1]
	}
	return year, uf
}

// parseCount parses a TSE count column leniently: empty or unparseable
// values become 0, and fractional renderings ("12.0") are truncated.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
