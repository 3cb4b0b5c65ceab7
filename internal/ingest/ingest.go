package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Mathesquivel/veleitoral-api/internal/store"
)

// voteStore is the subset of *store.Store the ingestor writes through.
// Declaring it as an interface allows test doubles to be injected.
type voteStore interface {
	InsertSectionVotes(ctx context.Context, rows []store.SectionVote) (int64, error)
	InsertMunzoneSummaries(ctx context.Context, rows []store.MunzoneSummary) (int64, error)
	LogImport(ctx context.Context, fileType, fileName string, rows int64) error
}

// Ingestor parses TSE bulletins and writes them to the vote store in
// batches.
type Ingestor struct {
	db        voteStore
	batchSize int
}

// NewIngestor creates an Ingestor writing through db in batches of
// batchSize rows.
func NewIngestor(db voteStore, batchSize int) *Ingestor {
	if batchSize <= 0 {
		batchSize = 5000
	}
	return &Ingestor{db: db, batchSize: batchSize}
}

// IngestFile ingests one bulletin, routed by file name. Unrecognised files
// come back StatusSkipped; parse or insert failures come back StatusError
// with the row count already committed.
func (i *Ingestor) IngestFile(ctx context.Context, path string) FileResult {
	name := filepath.Base(path)

	fileType := Classify(name)
	if fileType == FileTypeUnknown {
		return FileResult{Name: name, Status: StatusSkipped}
	}

	f, err := os.Open(path)
	if err != nil {
		return FileResult{Name: name, Type: string(fileType), Status: StatusError, Error: err.Error()}
	}
	defer f.Close() //nolint:errcheck

	var rows int64
	switch fileType {
	case FileTypeSection:
		rows, err = i.ingestSectionFile(ctx, f, name)
	case FileTypeMunzone:
		rows, err = i.ingestMunzoneFile(ctx, f, name)
	}
	if err != nil {
		return FileResult{Name: name, Type: string(fileType), Status: StatusError, Rows: rows, Error: err.Error()}
	}

	if err := i.db.LogImport(ctx, string(fileType), name, rows); err != nil {
		return FileResult{Name: name, Type: string(fileType), Status: StatusError, Rows: rows, Error: err.Error()}
	}

	return FileResult{Name: name, Type: string(fileType), Status: StatusOK, Rows: rows}
}

// ingestSectionFile loads a VOTACAO_SECAO bulletin into section_votes.
// Rows without a votable number are control lines and are dropped.
func (i *Ingestor) ingestSectionFile(ctx context.Context, f io.Reader, name string) (int64, error) {
	r, err := NewReader(f)
	if err != nil {
		return 0, err
	}

	voteCol, ok := detectVoteColumn(r.Has)
	if !ok {
		return 0, fmt.Errorf("no vote count column in %s", name)
	}
	addrCol := detectAddressColumn(r.Has)
	fileYear, fileUF := yearUFFromFilename(name)

	var total int64
	batch := make([]store.SectionVote, 0, i.batchSize)

	flush := func() error {
		n, err := i.db.InsertSectionVotes(ctx, batch)
		total += n
		batch = batch[:0]
		return err
	}

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("reading %s: %w", name, err)
		}

		if rec.Get("NR_VOTAVEL") == "" {
			continue
		}

		year := rec.Get("ANO_ELEICAO")
		if year == "" {
			year = fileYear
		}
		uf := rec.Get("SG_UF")
		if uf == "" {
			uf = fileUF
		}

		var address string
		if addrCol != "" {
			address = rec.Get(addrCol)
		}

		batch = append(batch, store.SectionVote{
			Year:                year,
			Round:               rec.Get("NR_TURNO"),
			UF:                  uf,
			MunicipalityCode:    rec.Get("CD_MUNICIPIO"),
			MunicipalityName:    rec.Get("NM_MUNICIPIO"),
			Zone:                rec.Get("NR_ZONA"),
			Section:             rec.Get("NR_SECAO"),
			PollingPlaceCode:    rec.Get("NR_LOCAL_VOTACAO"),
			PollingPlaceName:    rec.Get("NM_LOCAL_VOTACAO"),
			PollingPlaceAddress: address,
			OfficeCode:          rec.Get("CD_CARGO"),
			OfficeName:          rec.Get("DS_CARGO"),
			VotableNumber:       rec.Get("NR_VOTAVEL"),
			VotableName:         rec.Get("NM_VOTAVEL"),
			PartyNumber:         rec.Get("NR_PARTIDO"),
			Party:               rec.Get("SG_PARTIDO"),
			ResultStatus:        rec.Get("DS_SIT_TOT_TURNO"),
			Votes:               parseCount(rec.Get(voteCol)),
		})

		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return total, fmt.Errorf("inserting %s: %w", name, err)
			}
		}
	}

	if err := flush(); err != nil {
		return total, fmt.Errorf("inserting %s: %w", name, err)
	}
	return total, nil
}

// ingestMunzoneFile loads a DETALHE_VOTACAO_MUNZONA bulletin into
// munzone_summary.
func (i *Ingestor) ingestMunzoneFile(ctx context.Context, f io.Reader, name string) (int64, error) {
	r, err := NewReader(f)
	if err != nil {
		return 0, err
	}

	fileYear, fileUF := yearUFFromFilename(name)

	var total int64
	batch := make([]store.MunzoneSummary, 0, i.batchSize)

	flush := func() error {
		n, err := i.db.InsertMunzoneSummaries(ctx, batch)
		total += n
		batch = batch[:0]
		return err
	}

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, fmt.Errorf("reading %s: %w", name, err)
		}

		year := rec.Get("ANO_ELEICAO")
		if year == "" {
			year = fileYear
		}
		uf := rec.Get("SG_UF")
		if uf == "" {
			uf = fileUF
		}

		batch = append(batch, store.MunzoneSummary{
			Year:                year,
			Round:               rec.Get("NR_TURNO"),
			UF:                  uf,
			MunicipalityCode:    rec.Get("CD_MUNICIPIO"),
			MunicipalityName:    rec.Get("NM_MUNICIPIO"),
			Zone:                rec.Get("NR_ZONA"),
			OfficeCode:          rec.Get("CD_CARGO"),
			OfficeName:          rec.Get("DS_CARGO"),
			EligibleVoters:      parseCount(rec.Get("QT_APTOS")),
			TotalSections:       parseCount(rec.Get("QT_TOTAL_SECOES")),
			Turnout:             parseCount(rec.Get("QT_COMPARECIMENTO")),
			Abstentions:         parseCount(rec.Get("QT_ABSTENCOES")),
			Votes:               parseCount(rec.Get("QT_VOTOS")),
			NominalValidVotes:   parseCount(rec.Get("QT_VOTOS_NOMINAIS_VALIDOS")),
			BlankVotes:          parseCount(rec.Get("QT_VOTOS_BRANCOS")),
			NullVotes:           parseCount(rec.Get("QT_TOTAL_VOTOS_NULOS")),
			PartyListTotalVotes: parseCount(rec.Get("QT_TOTAL_VOTOS_LEG_VALIDOS")),
			PartyListValidVotes: parseCount(rec.Get("QT_VOTOS_LEG_VALIDOS")),
		})

		if len(batch) >= i.batchSize {
			if err := flush(); err != nil {
				return total, fmt.Errorf("inserting %s: %w", name, err)
			}
		}
	}

	if err := flush(); err != nil {
		return total, fmt.Errorf("inserting %s: %w", name, err)
	}
	return total, nil
}
