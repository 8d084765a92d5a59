// Package storage persists crawl archives. The local filesystem backend
// is the default; the interface leaves room for an object-store backend.
package storage

import (
	"context"
	"time"
)

// ArchiveInfo describes one stored archive.
type ArchiveInfo struct {
	Chain      string    `json:"chain"`
	Date       string    `json:"date"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Checksum   string    `json:"checksum"`
	ArchivedAt time.Time `json:"archivedAt"`
}

// ArchiveStore stores one ZIP bundle per chain per date.
type ArchiveStore interface {
	// Put moves a staged archive into the store and returns its final path.
	Put(ctx context.Context, date time.Time, chain, srcPath string) (string, error)

	// Path returns the location an archive would have, whether or not it
	// exists.
	Path(date time.Time, chain string) string

	// Exists reports whether an archive is present.
	Exists(ctx context.Context, date time.Time, chain string) (bool, error)

	// List returns the archive paths stored for a date.
	List(ctx context.Context, date time.Time) ([]string, error)

	// Info returns metadata for one stored archive.
	Info(ctx context.Context, date time.Time, chain string) (*ArchiveInfo, error)
}
