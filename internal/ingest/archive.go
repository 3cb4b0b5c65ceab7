package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractCSVs extracts every .csv member of the zip archive at src into
// dir, flattening member paths so nested CSVs land directly in the data
// directory. Non-CSV members are ignored. Returns the extracted file
// names. A corrupt archive surfaces zip.ErrFormat.
func ExtractCSVs(src, dir string) ([]string, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", filepath.Base(src), err)
	}
	defer zr.Close() //nolint:errcheck

	var extracted []string
	for _, member := range zr.File {
		if !strings.EqualFold(filepath.Ext(member.Name), ".csv") {
			continue
		}

		dst := filepath.Join(dir, filepath.Base(member.Name))
		if err := extractMember(member, dst); err != nil {
			return extracted, err
		}
		extracted = append(extracted, filepath.Base(member.Name))
	}

	return extracted, nil
}

func extractMember(member *zip.File, dst string) error {
	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("opening archive member %s: %w", member.Name, err)
	}
	defer src.Close() //nolint:errcheck

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(dst) //nolint:errcheck
		return fmt.Errorf("extracting %s: %w", member.Name, err)
	}
	return f.Close()
}
