package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want FileType
	}{
		{"votacao_secao_2024_SP.csv", FileTypeSection},
		{"VOTACAO_SECAO_2022_BR.CSV", FileTypeSection},
		{"detalhe_votacao_munzona_2024_SP.csv", FileTypeMunzone},
		{"votacao_candidato_munzona_2024_SP.csv", FileTypeMunzone},
		{"leiame.pdf", FileTypeUnknown},
		{"candidatos_2024.csv", FileTypeUnknown},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Classify(tc.name), "file %s", tc.name)
	}
}

func TestDetectVoteColumn_PriorityOrder(t *testing.T) {
	t.Parallel()

	has := func(cols ...string) func(string) bool {
		set := map[string]bool{}
		for _, c := range cols {
			set[c] = true
		}
		return func(c string) bool { return set[c] }
	}

	col, ok := detectVoteColumn(has("QT_VOTOS_NOMINAIS", "QT_VOTOS"))
	assert.True(t, ok)
	assert.Equal(t, "QT_VOTOS", col, "QT_VOTOS takes priority when both exist")

	col, ok = detectVoteColumn(has("QT_VOTOS_NOMINAIS_VALIDOS"))
	assert.True(t, ok)
	assert.Equal(t, "QT_VOTOS_NOMINAIS_VALIDOS", col)

	_, ok = detectVoteColumn(has("NM_CANDIDATO"))
	assert.False(t, ok)
}

func TestDetectAddressColumn_Variants(t *testing.T) {
	t.Parallel()

	has := func(name string) func(string) bool {
		return func(c string) bool { return c == name }
	}

	assert.Equal(t, "DS_LOCAL_VOTACAO_ENDERECO",
		detectAddressColumn(has("DS_LOCAL_VOTACAO_ENDERECO")))
	assert.Equal(t, "DS_ENDERECO_LOCAL_VOTACAO",
		detectAddressColumn(has("DS_ENDERECO_LOCAL_VOTACAO")))
	assert.Empty(t, detectAddressColumn(has("NM_MUNICIPIO")))
}

func TestYearUFFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		wantYear string
		wantUF   string
	}{
		{"votacao_secao_2024_SP.csv", "2024", "SP"},
		{"votacao_candidato_munzona_2022_BR.csv", "2022", "BR"},
		{"detalhe_votacao_munzona_2020_TO.csv", "2020", "TO"},
		{"dados.csv", "", ""},
		{"votacao_2024.csv", "2024", ""},
	}

	for _, tc := range tests {
		year, uf := yearUFFromFilename(tc.name)
		assert.Equal(t, tc.wantYear, year, "year of %s", tc.name)
		assert.Equal(t, tc.wantUF, uf, "uf of %s", tc.name)
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(42), parseCount("42"))
	assert.Equal(t, int64(12), parseCount("12.0"))
	assert.Zero(t, parseCount(""))
	assert.Zero(t, parseCount("abc"))
	assert.Equal(t, int64(-1), parseCount("-1"))
}
