package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var sectionVoteColumns = []string{
	"year", "round", "uf",
	"municipality_code", "municipality_name",
	"zone", "section",
	"polling_place_code", "polling_place_name", "polling_place_address",
	"office_code", "office_name",
	"votable_number", "votable_name",
	"party_number", "party",
	"result_status", "votes",
}

var munzoneSummaryColumns = []string{
	"year", "round", "uf",
	"municipality_code", "municipality_name",
	"zone", "office_code", "office_name",
	"eligible_voters", "total_sections", "turnout", "abstentions",
	"votes", "nominal_valid_votes", "blank_votes", "null_votes",
	"party_list_total_votes", "party_list_valid_votes",
}

// InsertSectionVotes bulk-inserts rows with the Postgres COPY protocol.
// Empty strings are stored as NULL so the read queries' COALESCE sentinels
// ("Estadual", "LEGENDA") apply.
func (s *Store) InsertSectionVotes(ctx context.Context, rows []SectionVote) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{
			nullable(r.Year), nullable(r.Round), nullable(r.UF),
			nullable(r.MunicipalityCode), nullable(r.MunicipalityName),
			nullable(r.Zone), nullable(r.Section),
			nullable(r.PollingPlaceCode), nullable(r.PollingPlaceName), nullable(r.PollingPlaceAddress),
			nullable(r.OfficeCode), nullable(r.OfficeName),
			nullable(r.VotableNumber), nullable(r.VotableName),
			nullable(r.PartyNumber), nullable(r.Party),
			nullable(r.ResultStatus), r.Votes,
		}, nil
	})

	n, err := s.db.CopyFrom(ctx, pgx.Identifier{"section_votes"}, sectionVoteColumns, src)
	if err != nil {
		return 0, fmt.Errorf("copying section votes: %w", err)
	}
	return n, nil
}

// InsertMunzoneSummaries bulk-inserts munzone_summary rows.
func (s *Store) InsertMunzoneSummaries(ctx context.Context, rows []MunzoneSummary) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{
			nullable(r.Year), nullable(r.Round), nullable(r.UF),
			nullable(r.MunicipalityCode), nullable(r.MunicipalityName),
			nullable(r.Zone), nullable(r.OfficeCode), nullable(r.OfficeName),
			r.EligibleVoters, r.TotalSections, r.Turnout, r.Abstentions,
			r.Votes, r.NominalValidVotes, r.BlankVotes, r.NullVotes,
			r.PartyListTotalVotes, r.PartyListValidVotes,
		}, nil
	})

	n, err := s.db.CopyFrom(ctx, pgx.Identifier{"munzone_summary"}, munzoneSummaryColumns, src)
	if err != nil {
		return 0, fmt.Errorf("copying munzone summaries: %w", err)
	}
	return n, nil
}

// LogImport records a completed file import.
func (s *Store) LogImport(ctx context.Context, fileType, fileName string, rows int64) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO import_log (file_type, file_name, rows_imported) VALUES ($1, $2, $3)",
		fileType, fileName, rows,
	)
	if err != nil {
		return fmt.Errorf("logging import of %s: %w", fileName, err)
	}
	return nil
}

// TruncateAll empties the vote tables and the import log, keeping the
// schema. Used by reload-with-clear.
func (s *Store) TruncateAll(ctx context.Context) error {
	_, err := s.db.Exec(ctx,
		"TRUNCATE TABLE section_votes, munzone_summary, import_log RESTART IDENTITY",
	)
	if err != nil {
		return fmt.Errorf("truncating vote tables: %w", err)
	}
	return nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
