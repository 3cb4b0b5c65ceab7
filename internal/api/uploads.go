package api

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Mathesquivel/veleitoral-api/internal/ingest"
)

// copyChunkSize keeps the per-request memory bounded while streaming TSE
// bulletins, which run to hundreds of megabytes.
const copyChunkSize = 1 << 20

// Upload handles POST /uploads. Accepts one or more CSV files as multipart
// form fields named "files" and streams them into the data directory. The
// files are not ingested; POST /ingest picks them up.
func (h *Handler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid multipart form"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "no files provided"})
		return
	}

	for _, fh := range files {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
			c.JSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  fmt.Sprintf("%s: only .csv files are accepted", fh.Filename),
			})
			return
		}
	}

	if err := os.MkdirAll(h.dataDir, 0o755); err != nil {
		c.Error(err) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "upload failed"})
		return
	}

	var saved []string
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		if err := saveUpload(fh, filepath.Join(h.dataDir, name)); err != nil {
			c.Error(err) //nolint:errcheck
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "upload failed"})
			return
		}
		saved = append(saved, name)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "saved": saved})
}

// UploadArchive handles POST /uploads/archive. Accepts one zip as the
// multipart field "file", extracts its CSV members into the data directory
// and discards the archive.
func (h *Handler) UploadArchive(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "no file provided"})
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".zip") {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "only .zip archives are accepted"})
		return
	}

	if err := os.MkdirAll(h.dataDir, 0o755); err != nil {
		c.Error(err) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "upload failed"})
		return
	}

	archive := filepath.Join(h.dataDir, filepath.Base(fh.Filename))
	if err := saveUpload(fh, archive); err != nil {
		c.Error(err) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "upload failed"})
		return
	}
	defer os.Remove(archive) //nolint:errcheck

	extracted, err := ingest.ExtractCSVs(archive, h.dataDir)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "corrupt zip archive"})
			return
		}
		c.Error(err) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "extraction failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "extracted": extracted})
}

// ClearUploads handles DELETE /uploads. Removes every CSV from the data
// directory; the loaded tables are untouched.
func (h *Handler) ClearUploads(c *gin.Context) {
	entries, err := os.ReadDir(h.dataDir)
	if errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "removed": 0})
		return
	}
	if err != nil {
		c.Error(err) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "clearing uploads failed"})
		return
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		if err := os.Remove(filepath.Join(h.dataDir, e.Name())); err != nil {
			c.Error(err) //nolint:errcheck
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "clearing uploads failed"})
			return
		}
		removed++
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "removed": removed})
}

// saveUpload streams one multipart file to dst in bounded chunks, removing
// the partial file on failure.
func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer src.Close() //nolint:errcheck

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	buf := make([]byte, copyChunkSize)
	if _, err := io.CopyBuffer(f, src, buf); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(dst) //nolint:errcheck
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return f.Close()
}
