package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mathesquivel/veleitoral-api/internal/store"
)

type fakeVoteStore struct {
	sectionRows []store.SectionVote
	munzoneRows []store.MunzoneSummary
	imports     []string
	insertErr   error
	logErr      error
}

func (f *fakeVoteStore) InsertSectionVotes(_ context.Context, rows []store.SectionVote) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.sectionRows = append(f.sectionRows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeVoteStore) InsertMunzoneSummaries(_ context.Context, rows []store.MunzoneSummary) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.munzoneRows = append(f.munzoneRows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeVoteStore) LogImport(_ context.Context, fileType, fileName string, _ int64) error {
	if f.logErr != nil {
		return f.logErr
	}
	f.imports = append(f.imports, fileType+":"+fileName)
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sectionCSV = "ANO_ELEICAO;NR_TURNO;SG_UF;CD_MUNICIPIO;NM_MUNICIPIO;NR_ZONA;NR_SECAO;CD_CARGO;DS_CARGO;NR_VOTAVEL;NM_VOTAVEL;SG_PARTIDO;QT_VOTOS\n" +
	"2024;1;SP;71072;SAO PAULO;1;5;13;Vereador;13000;FULANO;PT;120\n" +
	"2024;1;SP;71072;SAO PAULO;1;5;13;Vereador;#NULO;#NULO;#NULO;3\n" +
	"2024;1;SP;71072;SAO PAULO;1;6;13;Vereador;13000;FULANO;PT;88\n"

const munzoneCSV = "ANO_ELEICAO;NR_TURNO;SG_UF;CD_MUNICIPIO;NM_MUNICIPIO;NR_ZONA;CD_CARGO;DS_CARGO;QT_APTOS;QT_COMPARECIMENTO;QT_ABSTENCOES;QT_VOTOS\n" +
	"2024;1;SP;71072;SAO PAULO;1;13;Vereador;1000;800;200;790\n"

func TestIngestFile_SectionBulletin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "votacao_secao_2024_SP.csv", sectionCSV)
	db := &fakeVoteStore{}

	fr := NewIngestor(db, 100).IngestFile(context.Background(), path)

	assert.Equal(t, StatusOK, fr.Status)
	assert.Equal(t, string(FileTypeSection), fr.Type)
	assert.Equal(t, int64(2), fr.Rows, "the #NULO control row is dropped")
	require.Len(t, db.sectionRows, 2)
	assert.Equal(t, "13000", db.sectionRows[0].VotableNumber)
	assert.Equal(t, int64(120), db.sectionRows[0].Votes)
	assert.Equal(t, []string{"secao:votacao_secao_2024_SP.csv"}, db.imports)
}

func TestIngestFile_MunzoneBulletin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "detalhe_votacao_munzona_2024_SP.csv", munzoneCSV)
	db := &fakeVoteStore{}

	fr := NewIngestor(db, 100).IngestFile(context.Background(), path)

	assert.Equal(t, StatusOK, fr.Status)
	assert.Equal(t, string(FileTypeMunzone), fr.Type)
	require.Len(t, db.munzoneRows, 1)
	row := db.munzoneRows[0]
	assert.Equal(t, int64(1000), row.EligibleVoters)
	assert.Equal(t, int64(800), row.Turnout)
	assert.Equal(t, int64(200), row.Abstentions)
}

func TestIngestFile_YearAndUFFallBackToFilename(t *testing.T) {
	t.Parallel()

	csv := "NR_TURNO;NR_ZONA;NR_SECAO;NR_VOTAVEL;QT_VOTOS\n1;1;5;95;10\n"
	dir := t.TempDir()
	path := writeFile(t, dir, "votacao_secao_2022_MG.csv", csv)
	db := &fakeVoteStore{}

	fr := NewIngestor(db, 100).IngestFile(context.Background(), path)

	require.Equal(t, StatusOK, fr.Status)
	require.Len(t, db.sectionRows, 1)
	assert.Equal(t, "2022", db.sectionRows[0].Year)
	assert.Equal(t, "MG", db.sectionRows[0].UF)
}

func TestIngestFile_BatchesAreFlushed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "votacao_secao_2024_SP.csv", sectionCSV)
	db := &fakeVoteStore{}

	fr := NewIngestor(db, 1).IngestFile(context.Background(), path)

	assert.Equal(t, StatusOK, fr.Status)
	assert.Equal(t, int64(2), fr.Rows)
	assert.Len(t, db.sectionRows, 2)
}

func TestIngestFile_UnknownFileSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "candidatos_2024.csv", "A;B\n1;2\n")
	db := &fakeVoteStore{}

	fr := NewIngestor(db, 100).IngestFile(context.Background(), path)

	assert.Equal(t, StatusSkipped, fr.Status)
	assert.Empty(t, db.imports)
}

func TestIngestFile_MissingFile(t *testing.T) {
	t.Parallel()

	db := &fakeVoteStore{}
	fr := NewIngestor(db, 100).IngestFile(context.Background(), filepath.Join(t.TempDir(), "votacao_secao_2024_SP.csv"))

	assert.Equal(t, StatusError, fr.Status)
	assert.NotEmpty(t, fr.Error)
}

func TestIngestFile_NoVoteColumn(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "votacao_secao_2024_SP.csv", "NR_VOTAVEL;NM_VOTAVEL\n13;FULANO\n")
	db := &fakeVoteStore{}

	fr := NewIngestor(db, 100).IngestFile(context.Background(), path)

	assert.Equal(t, StatusError, fr.Status)
	assert.Contains(t, fr.Error, "no vote count column")
}

func TestIngestFile_InsertFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "votacao_secao_2024_SP.csv", sectionCSV)
	db := &fakeVoteStore{insertErr: errors.New("connection reset")}

	fr := NewIngestor(db, 100).IngestFile(context.Background(), path)

	assert.Equal(t, StatusError, fr.Status)
	assert.Contains(t, fr.Error, "connection reset")
	assert.Empty(t, db.imports, "failed files must not be logged as imported")
}

func TestIngestFile_LogImportFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "votacao_secao_2024_SP.csv", sectionCSV)
	db := &fakeVoteStore{logErr: errors.New("log table missing")}

	fr := NewIngestor(db, 100).IngestFile(context.Background(), path)

	assert.Equal(t, StatusError, fr.Status)
	assert.Equal(t, int64(2), fr.Rows, "rows already committed are reported")
}
