package api

import (
	"archive/zip"
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		w, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postMultipart(engine *gin.Engine, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	engine.ServeHTTP(w, req)
	return w
}

func TestUpload_SavesCSVs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	handler := NewHandler(&fakeQueries{}, &fakeIngest{}, dir)
	engine := newTestEngine(http.MethodPost, "/uploads", handler.Upload)

	body, ct := multipartBody(t, "files", map[string][]byte{
		"votacao_secao_2024_SP.csv": []byte("A;B\n1;2\n"),
		"votacao_secao_2024_AC.csv": []byte("A;B\n3;4\n"),
	})
	w := postMultipart(engine, "/uploads", body, ct)

	assert.Equal(t, http.StatusOK, w.Code)

	data, err := os.ReadFile(filepath.Join(dir, "votacao_secao_2024_SP.csv"))
	require.NoError(t, err)
	assert.Equal(t, "A;B\n1;2\n", string(data))
}

func TestUpload_RejectsNonCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	handler := NewHandler(&fakeQueries{}, &fakeIngest{}, dir)
	engine := newTestEngine(http.MethodPost, "/uploads", handler.Upload)

	body, ct := multipartBody(t, "files", map[string][]byte{
		"votacao_secao_2024_SP.csv": []byte("A;B\n"),
		"notes.txt":                 []byte("nope"),
	})
	w := postMultipart(engine, "/uploads", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "a rejected batch must not leave files behind")
}

func TestUpload_NoFiles(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeQueries{}, &fakeIngest{}, t.TempDir())
	engine := newTestEngine(http.MethodPost, "/uploads", handler.Upload)

	body, ct := multipartBody(t, "files", nil)
	w := postMultipart(engine, "/uploads", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadArchive_ExtractsCSVs(t *testing.T) {
	t.Parallel()

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	f, err := zw.Create("nested/votacao_secao_2024_SP.csv")
	require.NoError(t, err)
	_, err = f.Write([]byte("A;B\n1;2\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	dir := t.TempDir()
	handler := NewHandler(&fakeQueries{}, &fakeIngest{}, dir)
	engine := newTestEngine(http.MethodPost, "/uploads/archive", handler.UploadArchive)

	body, ct := multipartBody(t, "file", map[string][]byte{"bulletins.zip": zipBuf.Bytes()})
	w := postMultipart(engine, "/uploads/archive", body, ct)

	assert.Equal(t, http.StatusOK, w.Code)

	data, err := os.ReadFile(filepath.Join(dir, "votacao_secao_2024_SP.csv"))
	require.NoError(t, err)
	assert.Equal(t, "A;B\n1;2\n", string(data))

	_, err = os.Stat(filepath.Join(dir, "bulletins.zip"))
	assert.True(t, os.IsNotExist(err), "the archive itself is discarded after extraction")
}

func TestUploadArchive_RejectsNonZip(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeQueries{}, &fakeIngest{}, t.TempDir())
	engine := newTestEngine(http.MethodPost, "/uploads/archive", handler.UploadArchive)

	body, ct := multipartBody(t, "file", map[string][]byte{"data.csv": []byte("A;B\n")})
	w := postMultipart(engine, "/uploads/archive", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadArchive_CorruptZip(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeQueries{}, &fakeIngest{}, t.TempDir())
	engine := newTestEngine(http.MethodPost, "/uploads/archive", handler.UploadArchive)

	body, ct := multipartBody(t, "file", map[string][]byte{"broken.zip": []byte("this is not a zip")})
	w := postMultipart(engine, "/uploads/archive", body, ct)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearUploads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "votacao_secao_2024_SP.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644))

	handler := NewHandler(&fakeQueries{}, &fakeIngest{}, dir)
	engine := newTestEngine(http.MethodDelete, "/uploads", handler.ClearUploads)

	w := serve(engine, http.MethodDelete, "/uploads")

	assert.Equal(t, http.StatusOK, w.Code)

	_, err := os.Stat(filepath.Join(dir, "votacao_secao_2024_SP.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "keep.txt"))
	assert.NoError(t, err, "non-CSV files are left alone")
}

func TestClearUploads_MissingDir(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeQueries{}, &fakeIngest{}, filepath.Join(t.TempDir(), "absent"))
	engine := newTestEngine(http.MethodDelete, "/uploads", handler.ClearUploads)

	w := serve(engine, http.MethodDelete, "/uploads")

	assert.Equal(t, http.StatusOK, w.Code)
}
