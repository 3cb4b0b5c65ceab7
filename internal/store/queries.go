package store

import (
	"context"
	"fmt"
	"strings"
)

// The aggregate queries below reproduce the public read surface of the API
// over section_votes. Each builds a shared WHERE block from the Filter and
// appends its own GROUP BY / ORDER BY / LIMIT. "Estadual" marks state-level
// contests with no municipality; "LEGENDA" marks party-list votes with no
// candidate name. Both are TSE reporting conventions.

// VoteTotals returns municipality-level vote totals per votable, most-voted
// first.
func (s *Store) VoteTotals(ctx context.Context, f Filter) ([]VoteTotal, error) {
	where, args := f.where()
	sql := fmt.Sprintf(`
		SELECT
			COALESCE(year, ''),
			COALESCE(uf, ''),
			COALESCE(municipality_code, ''),
			COALESCE(municipality_name, 'Estadual'),
			COALESCE(office_code, ''),
			COALESCE(office_name, ''),
			COALESCE(votable_number, ''),
			COALESCE(votable_name, 'LEGENDA'),
			COALESCE(party, ''),
			COALESCE(result_status, ''),
			SUM(votes) AS total_votes
		FROM section_votes
		WHERE 1=1%s
		GROUP BY 1, 2, 3, 4, 5, 6, 7, 8, 9, 10
		ORDER BY total_votes DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, f.Limit)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vote totals: %w", err)
	}
	defer rows.Close()

	var out []VoteTotal
	for rows.Next() {
		var v VoteTotal
		if err := rows.Scan(
			&v.Year, &v.UF, &v.MunicipalityCode, &v.MunicipalityName,
			&v.OfficeCode, &v.OfficeName, &v.CandidateNumber, &v.CandidateName,
			&v.Party, &v.ResultStatus, &v.TotalVotes,
		); err != nil {
			return nil, fmt.Errorf("scanning vote total: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// VotesByZone returns zone/section-level vote aggregates with full context.
func (s *Store) VotesByZone(ctx context.Context, f Filter) ([]ZoneVotes, error) {
	where, args := f.where()
	sql := fmt.Sprintf(`
		SELECT
			COALESCE(year, ''),
			COALESCE(uf, ''),
			COALESCE(round, ''),
			COALESCE(municipality_code, ''),
			COALESCE(municipality_name, 'Estadual'),
			COALESCE(office_code, ''),
			COALESCE(office_name, ''),
			COALESCE(votable_number, ''),
			COALESCE(votable_name, 'LEGENDA'),
			COALESCE(party, ''),
			COALESCE(zone, ''),
			COALESCE(section, ''),
			COALESCE(polling_place_code, ''),
			COALESCE(polling_place_name, ''),
			SUM(votes) AS votes
		FROM section_votes
		WHERE 1=1%s
		GROUP BY 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14
		ORDER BY votes DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, f.Limit)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying votes by zone: %w", err)
	}
	defer rows.Close()

	var out []ZoneVotes
	for rows.Next() {
		var v ZoneVotes
		if err := rows.Scan(
			&v.Year, &v.UF, &v.Round, &v.MunicipalityCode, &v.MunicipalityName,
			&v.OfficeCode, &v.OfficeName, &v.CandidateNumber, &v.CandidateName,
			&v.Party, &v.Zone, &v.Section, &v.PollingPlaceCode, &v.PollingPlaceName,
			&v.Votes,
		); err != nil {
			return nil, fmt.Errorf("scanning zone votes: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MapLocations aggregates a candidate's votes per polling place, with the
// distinct sections hosted at each.
func (s *Store) MapLocations(ctx context.Context, f Filter) ([]PollingPlaceVotes, error) {
	where, args := f.where()
	sql := fmt.Sprintf(`
		SELECT
			COALESCE(year, ''),
			COALESCE(uf, ''),
			COALESCE(round, ''),
			COALESCE(municipality_code, ''),
			COALESCE(municipality_name, 'Estadual'),
			COALESCE(zone, ''),
			COALESCE(polling_place_code, ''),
			COALESCE(polling_place_name, ''),
			COALESCE(polling_place_address, ''),
			COALESCE(votable_number, ''),
			COALESCE(votable_name, 'LEGENDA'),
			COALESCE(party, ''),
			SUM(votes) AS total_votes,
			STRING_AGG(DISTINCT section, ',') AS sections_csv
		FROM section_votes
		WHERE 1=1%s
		GROUP BY 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12
		ORDER BY total_votes DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, f.Limit)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying map locations: %w", err)
	}
	defer rows.Close()

	var out []PollingPlaceVotes
	for rows.Next() {
		var v PollingPlaceVotes
		var sectionsCSV *string
		if err := rows.Scan(
			&v.Year, &v.UF, &v.Round, &v.MunicipalityCode, &v.MunicipalityName,
			&v.Zone, &v.PollingPlaceCode, &v.PollingPlaceName, &v.Address,
			&v.CandidateNumber, &v.CandidateName, &v.Party,
			&v.TotalVotes, &sectionsCSV,
		); err != nil {
			return nil, fmt.Errorf("scanning polling place votes: %w", err)
		}
		v.Sections = splitList(sectionsCSV)
		out = append(out, v)
	}
	return out, rows.Err()
}

// VotesByMunicipality returns per-municipality vote totals per candidate.
func (s *Store) VotesByMunicipality(ctx context.Context, f Filter) ([]MunicipalityVotes, error) {
	where, args := f.where()
	sql := fmt.Sprintf(`
		SELECT
			COALESCE(year, ''),
			COALESCE(uf, ''),
			COALESCE(municipality_code, ''),
			COALESCE(municipality_name, 'Estadual'),
			COALESCE(votable_name, 'LEGENDA'),
			COALESCE(party, ''),
			SUM(votes) AS votes
		FROM section_votes
		WHERE 1=1%s
		GROUP BY 1, 2, 3, 4, 5, 6
		ORDER BY votes DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, f.Limit)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying votes by municipality: %w", err)
	}
	defer rows.Close()

	var out []MunicipalityVotes
	for rows.Next() {
		var v MunicipalityVotes
		if err := rows.Scan(
			&v.Year, &v.UF, &v.MunicipalityCode, &v.MunicipalityName,
			&v.CandidateName, &v.Party, &v.Votes,
		); err != nil {
			return nil, fmt.Errorf("scanning municipality votes: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// VotesByOffice returns per-office vote totals per candidate.
func (s *Store) VotesByOffice(ctx context.Context, f Filter) ([]OfficeVotes, error) {
	where, args := f.where()
	sql := fmt.Sprintf(`
		SELECT
			COALESCE(year, ''),
			COALESCE(uf, ''),
			COALESCE(office_code, ''),
			COALESCE(office_name, ''),
			COALESCE(votable_name, 'LEGENDA'),
			COALESCE(party, ''),
			SUM(votes) AS votes
		FROM section_votes
		WHERE 1=1%s
		GROUP BY 1, 2, 3, 4, 5, 6
		ORDER BY votes DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, f.Limit)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying votes by office: %w", err)
	}
	defer rows.Close()

	var out []OfficeVotes
	for rows.Next() {
		var v OfficeVotes
		if err := rows.Scan(
			&v.Year, &v.UF, &v.OfficeCode, &v.OfficeName,
			&v.CandidateName, &v.Party, &v.Votes,
		); err != nil {
			return nil, fmt.Errorf("scanning office votes: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Candidates lists candidates with their vote totals, most-voted first.
func (s *Store) Candidates(ctx context.Context, f Filter) ([]CandidateSummary, error) {
	where, args := f.where()
	sql := fmt.Sprintf(`
		SELECT
			COALESCE(votable_name, 'LEGENDA'),
			COALESCE(party, ''),
			COALESCE(votable_number, ''),
			COALESCE(year, ''),
			COALESCE(uf, ''),
			SUM(votes) AS total_votes
		FROM section_votes
		WHERE 1=1%s
		GROUP BY 1, 2, 3, 4, 5
		ORDER BY total_votes DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, f.Limit)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var out []CandidateSummary
	for rows.Next() {
		var v CandidateSummary
		if err := rows.Scan(
			&v.CandidateName, &v.Party, &v.CandidateNumber, &v.Year, &v.UF,
			&v.TotalVotes,
		); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Parties lists parties with their vote totals plus the distinct years and
// UFs each appears in.
func (s *Store) Parties(ctx context.Context, f Filter) ([]PartySummary, error) {
	where, args := f.where()
	sql := fmt.Sprintf(`
		SELECT
			COALESCE(party, ''),
			SUM(votes) AS total_votes,
			STRING_AGG(DISTINCT year, ',') AS years_csv,
			STRING_AGG(DISTINCT uf, ',') AS ufs_csv
		FROM section_votes
		WHERE 1=1%s
		GROUP BY 1
		ORDER BY total_votes DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, f.Limit)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying parties: %w", err)
	}
	defer rows.Close()

	var out []PartySummary
	for rows.Next() {
		var v PartySummary
		var yearsCSV, ufsCSV *string
		if err := rows.Scan(&v.Party, &v.TotalVotes, &yearsCSV, &ufsCSV); err != nil {
			return nil, fmt.Errorf("scanning party: %w", err)
		}
		v.Years = splitList(yearsCSV)
		v.UFs = splitList(ufsCSV)
		out = append(out, v)
	}
	return out, rows.Err()
}

// PartyRanking returns parties ordered by total votes.
func (s *Store) PartyRanking(ctx context.Context, f Filter) ([]PartyRank, error) {
	where, args := f.where()
	sql := fmt.Sprintf(`
		SELECT
			COALESCE(party, ''),
			SUM(votes) AS total_votes
		FROM section_votes
		WHERE 1=1%s
		GROUP BY 1
		ORDER BY total_votes DESC
		LIMIT $%d`, where, len(args)+1)
	args = append(args, f.Limit)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying party ranking: %w", err)
	}
	defer rows.Close()

	var out []PartyRank
	for rows.Next() {
		var v PartyRank
		if err := rows.Scan(&v.Party, &v.TotalVotes); err != nil {
			return nil, fmt.Errorf("scanning party rank: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Stats summarises the loaded dataset: row and vote counts, distinct
// candidates and parties, and the available years and UFs.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	row := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(votes), 0),
			COUNT(DISTINCT votable_name),
			COUNT(DISTINCT party)
		FROM section_votes`)
	if err := row.Scan(&st.TotalRows, &st.TotalVotes, &st.TotalCandidates, &st.TotalParties); err != nil {
		return Stats{}, fmt.Errorf("querying stats: %w", err)
	}

	years, err := s.distinctValues(ctx, "year")
	if err != nil {
		return Stats{}, err
	}
	st.Years = years

	ufs, err := s.distinctValues(ctx, "uf")
	if err != nil {
		return Stats{}, err
	}
	st.UFs = ufs

	return st, nil
}

// CountVotes returns the number of rows in section_votes. Zero on an empty
// table.
func (s *Store) CountVotes(ctx context.Context) (int64, error) {
	var n int64
	row := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM section_votes")
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting votes: %w", err)
	}
	return n, nil
}

// distinctValues returns the sorted distinct non-null values of col.
// col is always one of our own column names, never user input.
func (s *Store) distinctValues(ctx context.Context, col string) ([]string, error) {
	sql := fmt.Sprintf(
		"SELECT DISTINCT %s FROM section_votes WHERE %s IS NOT NULL ORDER BY %s",
		col, col, col,
	)
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("querying distinct %s: %w", col, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning distinct %s: %w", col, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// splitList splits a STRING_AGG csv into its elements. A NULL aggregate
// (no rows) yields an empty slice, not nil, so it marshals as [].
func splitList(csv *string) []string {
	if csv == nil || *csv == "" {
		return []string{}
	}
	parts := strings.Split(*csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
