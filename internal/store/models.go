package store

import "time"

// SectionVote is one row of the section_votes table: the votes one votable
// (candidate or party list) received in one polling section.
type SectionVote struct {
	Year                string
	Round               string
	UF                  string
	MunicipalityCode    string
	MunicipalityName    string
	Zone                string
	Section             string
	PollingPlaceCode    string
	PollingPlaceName    string
	PollingPlaceAddress string
	OfficeCode          string
	OfficeName          string
	VotableNumber       string
	VotableName         string
	PartyNumber         string
	Party               string
	ResultStatus        string
	Votes               int64
}

// MunzoneSummary is one row of the munzone_summary table: turnout and vote
// category counters for one municipality/zone/office combination.
type MunzoneSummary struct {
	Year                string
	Round               string
	UF                  string
	MunicipalityCode    string
	MunicipalityName    string
	Zone                string
	OfficeCode          string
	OfficeName          string
	EligibleVoters      int64
	TotalSections       int64
	Turnout             int64
	Abstentions         int64
	Votes               int64
	NominalValidVotes   int64
	BlankVotes          int64
	NullVotes           int64
	PartyListTotalVotes int64
	PartyListValidVotes int64
}

// ImportRecord is one row of the import_log table.
type ImportRecord struct {
	ID           int64     `json:"id"`
	FileType     string    `json:"file_type"`
	FileName     string    `json:"file_name"`
	RowsImported int64     `json:"rows_imported"`
	CreatedAt    time.Time `json:"created_at"`
}

// VoteTotal is a municipality-level aggregate per votable. Rows without a
// municipality are state-level contests and render as "Estadual"; rows
// without a candidate name are party-list votes and render as "LEGENDA".
type VoteTotal struct {
	Year             string `json:"year"`
	UF               string `json:"uf"`
	MunicipalityCode string `json:"municipality_code"`
	MunicipalityName string `json:"municipality_name"`
	OfficeCode       string `json:"office_code"`
	OfficeName       string `json:"office_name"`
	CandidateNumber  string `json:"candidate_number"`
	CandidateName    string `json:"candidate_name"`
	Party            string `json:"party"`
	ResultStatus     string `json:"result_status,omitempty"`
	TotalVotes       int64  `json:"total_votes"`
}

// ZoneVotes is a zone/section-level aggregate with polling-place context.
type ZoneVotes struct {
	Year             string `json:"year"`
	UF               string `json:"uf"`
	Round            string `json:"round"`
	MunicipalityCode string `json:"municipality_code"`
	MunicipalityName string `json:"municipality_name"`
	OfficeCode       string `json:"office_code"`
	OfficeName       string `json:"office_name"`
	CandidateNumber  string `json:"candidate_number"`
	CandidateName    string `json:"candidate_name"`
	Party            string `json:"party"`
	Zone             string `json:"zone"`
	Section          string `json:"section"`
	PollingPlaceCode string `json:"polling_place_code"`
	PollingPlaceName string `json:"polling_place_name"`
	Votes            int64  `json:"votes"`
}

// MunicipalityVotes is a per-municipality aggregate per candidate.
type MunicipalityVotes struct {
	Year             string `json:"year"`
	UF               string `json:"uf"`
	MunicipalityCode string `json:"municipality_code"`
	MunicipalityName string `json:"municipality_name"`
	CandidateName    string `json:"candidate_name"`
	Party            string `json:"party"`
	Votes            int64  `json:"votes"`
}

// OfficeVotes is a per-office aggregate per candidate.
type OfficeVotes struct {
	Year          string `json:"year"`
	UF            string `json:"uf"`
	OfficeCode    string `json:"office_code"`
	OfficeName    string `json:"office_name"`
	CandidateName string `json:"candidate_name"`
	Party         string `json:"party"`
	Votes         int64  `json:"votes"`
}

// CandidateSummary lists a candidate with their vote total for a year/UF.
type CandidateSummary struct {
	CandidateName   string `json:"candidate_name"`
	Party           string `json:"party"`
	CandidateNumber string `json:"candidate_number"`
	Year            string `json:"year"`
	UF              string `json:"uf"`
	TotalVotes      int64  `json:"total_votes"`
}

// PartySummary lists a party with its vote total and the years and UFs it
// appears in.
type PartySummary struct {
	Party      string   `json:"party"`
	TotalVotes int64    `json:"total_votes"`
	Years      []string `json:"years"`
	UFs        []string `json:"ufs"`
}

// PartyRank is one row of the party ranking.
type PartyRank struct {
	Party      string `json:"party"`
	TotalVotes int64  `json:"total_votes"`
}

// PollingPlaceVotes aggregates a candidate's votes at one polling place
// (typically a school), with the sections hosted there. Drives map views.
type PollingPlaceVotes struct {
	Year             string   `json:"year"`
	UF               string   `json:"uf"`
	Round            string   `json:"round"`
	MunicipalityCode string   `json:"municipality_code"`
	MunicipalityName string   `json:"municipality_name"`
	Zone             string   `json:"zone"`
	PollingPlaceCode string   `json:"polling_place_code"`
	PollingPlaceName string   `json:"polling_place_name"`
	Address          string   `json:"address"`
	CandidateNumber  string   `json:"candidate_number"`
	CandidateName    string   `json:"candidate_name"`
	Party            string   `json:"party"`
	TotalVotes       int64    `json:"total_votes"`
	Sections         []string `json:"sections"`
}

// Stats summarises the loaded dataset.
type Stats struct {
	TotalRows       int64    `json:"total_rows"`
	TotalVotes      int64    `json:"total_votes"`
	TotalCandidates int64    `json:"total_candidates"`
	TotalParties    int64    `json:"total_parties"`
	Years           []string `json:"years"`
	UFs             []string `json:"ufs"`
}
