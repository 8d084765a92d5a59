package importer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extraction guards. Portal archives are small; anything past these
// limits is a malformed or hostile file.
const (
	maxFileSize  = 512 * 1024 * 1024
	maxTotalSize = 2 * 1024 * 1024 * 1024
	maxFiles     = 64
)

// extractArchive extracts the root-level CSVs of a chain archive into
// destDir and returns the path of each extracted file keyed by name.
func extractArchive(zipPath, destDir string) (map[string]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	if len(zr.File) > maxFiles {
		return nil, fmt.Errorf("archive %s has too many entries (%d)", zipPath, len(zr.File))
	}

	files := make(map[string]string)
	var total int64

	for _, f := range zr.File {
		name := filepath.Base(f.Name)
		if f.FileInfo().IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(name), ".csv") {
			continue
		}
		if int64(f.UncompressedSize64) > maxFileSize {
			return nil, fmt.Errorf("entry %s exceeds size limit", f.Name)
		}

		dest := filepath.Join(destDir, name)
		if err := extractEntry(f, dest, &total); err != nil {
			return nil, err
		}
		files[name] = dest
	}
	return files, nil
}

func extractEntry(f *zip.File, dest string, total *int64) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	// LimitReader guards against decompression bombs lying about their
	// uncompressed size.
	n, err := io.Copy(out, io.LimitReader(rc, maxFileSize+1))
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	if n > maxFileSize {
		return fmt.Errorf("entry %s exceeds size limit", f.Name)
	}
	*total += n
	if *total > maxTotalSize {
		return fmt.Errorf("archive exceeds total size limit")
	}
	return nil
}
