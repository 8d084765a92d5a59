package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LocalArchiveStore keeps archives under root as
// <root>/<YYYY-MM-DD>/<chain>.zip with a JSON metadata sidecar.
type LocalArchiveStore struct {
	root string
}

// NewLocalArchiveStore creates the store, creating root if needed.
func NewLocalArchiveStore(root string) (*LocalArchiveStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive root %s: %w", root, err)
	}
	return &LocalArchiveStore{root: root}, nil
}

// Path returns the location an archive would have.
func (s *LocalArchiveStore) Path(date time.Time, chain string) string {
	return filepath.Join(s.root, date.Format("2006-01-02"), chain+".zip")
}

func (s *LocalArchiveStore) metaPath(date time.Time, chain string) string {
	return s.Path(date, chain) + ".meta"
}

// Put moves a staged archive into place and writes its metadata. The
// destination directory is created on demand; a partially written file
// never lands at the final path because the content arrives via rename.
func (s *LocalArchiveStore) Put(ctx context.Context, date time.Time, chain, srcPath string) (string, error) {
	dst := s.Path(date, chain)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	checksum, size, err := fileChecksum(srcPath)
	if err != nil {
		return "", err
	}

	if err := os.Rename(srcPath, dst); err != nil {
		// Rename fails across filesystems; fall back to copy.
		if err := copyFile(srcPath, dst); err != nil {
			return "", fmt.Errorf("failed to store archive: %w", err)
		}
	}

	info := ArchiveInfo{
		Chain:      chain,
		Date:       date.Format("2006-01-02"),
		Path:       dst,
		Size:       size,
		Checksum:   checksum,
		ArchivedAt: time.Now().UTC(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to marshal archive metadata: %w", err)
	}
	if err := os.WriteFile(s.metaPath(date, chain), meta, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive metadata: %w", err)
	}
	return dst, nil
}

// Exists reports whether an archive is present.
func (s *LocalArchiveStore) Exists(ctx context.Context, date time.Time, chain string) (bool, error) {
	_, err := os.Stat(s.Path(date, chain))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat archive: %w", err)
	}
	return true, nil
}

// List returns the archive paths stored for a date, sorted by chain.
func (s *LocalArchiveStore) List(ctx context.Context, date time.Time) ([]string, error) {
	dir := filepath.Join(s.root, date.Format("2006-01-02"))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Info returns metadata for one stored archive, recomputing it when the
// sidecar is missing.
func (s *LocalArchiveStore) Info(ctx context.Context, date time.Time, chain string) (*ArchiveInfo, error) {
	path := s.Path(date, chain)
	if meta, err := os.ReadFile(s.metaPath(date, chain)); err == nil {
		var info ArchiveInfo
		if err := json.Unmarshal(meta, &info); err == nil {
			return &info, nil
		}
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("archive not found: %w", err)
	}
	checksum, _, err := fileChecksum(path)
	if err != nil {
		return nil, err
	}
	return &ArchiveInfo{
		Chain:      chain,
		Date:       date.Format("2006-01-02"),
		Path:       path,
		Size:       stat.Size(),
		Checksum:   checksum,
		ArchivedAt: stat.ModTime().UTC(),
	}, nil
}

func fileChecksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("failed to checksum %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
