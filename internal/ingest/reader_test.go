package ingest

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_NormalisesHeader(t *testing.T) {
	t.Parallel()

	r, err := NewReader(strings.NewReader(" nm_votavel ;SG_PARTIDO\nFULANO;PT\n"))
	require.NoError(t, err)

	assert.True(t, r.Has("NM_VOTAVEL"))
	assert.True(t, r.Has("SG_PARTIDO"))
	assert.False(t, r.Has("NR_ZONA"))
}

func TestReader_DecodesLatin1(t *testing.T) {
	t.Parallel()

	// "SÃO PAULO" in Latin-1: Ã is byte 0xC3.
	raw := []byte("NM_MUNICIPIO;QT_VOTOS\nS\xc3O PAULO;10\n")
	r, err := NewReader(bytes.NewReader(raw))
	require.NoError(t, err)

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "SÃO PAULO", rec.Get("NM_MUNICIPIO"))
	assert.Equal(t, "10", rec.Get("QT_VOTOS"))
}

func TestRecord_Get_CleansNullMarkers(t *testing.T) {
	t.Parallel()

	r, err := NewReader(strings.NewReader("A;B;C\n#NULO;#NE; ok \n"))
	require.NoError(t, err)

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Empty(t, rec.Get("A"))
	assert.Empty(t, rec.Get("B"))
	assert.Equal(t, "ok", rec.Get("C"))
	assert.Empty(t, rec.Get("MISSING"))
}

func TestReader_EOFAfterLastRecord(t *testing.T) {
	t.Parallel()

	r, err := NewReader(strings.NewReader("A\n1\n2\n"))
	require.NoError(t, err)

	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewReader_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := NewReader(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReader_QuotedFields(t *testing.T) {
	t.Parallel()

	r, err := NewReader(strings.NewReader("\"NM_VOTAVEL\";\"QT_VOTOS\"\n\"JOAO; O BRAVO\";\"7\"\n"))
	require.NoError(t, err)

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "JOAO; O BRAVO", rec.Get("NM_VOTAVEL"))
	assert.Equal(t, "7", rec.Get("QT_VOTOS"))
}
