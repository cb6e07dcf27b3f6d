package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotFound signals that no stored file exists at the given path.
	ErrNotFound = errors.New("file not found")
	// ErrForbiddenPath signals a path that escapes the uploads root.
	ErrForbiddenPath = errors.New("path outside uploads root")
)

// FileInfo describes a stored file for retrieval.
type FileInfo struct {
	SizeBytes   int64
	ContentType string
	ModifiedAt  time.Time
}

// Store abstracts blob persistence. Local-disk and MinIO implementations share
// the key layout <ownerID>/<generatedName>.
type Store interface {
	// Save persists the reader's content at relPath and returns bytes written.
	// size is a hint (-1 when unknown).
	Save(ctx context.Context, relPath string, r io.Reader, size int64, contentType string) (int64, error)
	// Open returns a reader and metadata for the stored file.
	Open(ctx context.Context, relPath string) (io.ReadCloser, FileInfo, error)
	// Delete removes the stored file.
	Delete(ctx context.Context, relPath string) error
	// Probe checks that the backend is usable.
	Probe(ctx context.Context) error
}

// CleanRelPath canonicalizes a storage-relative path and rejects anything that
// would resolve outside the uploads root.
func CleanRelPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if strings.ContainsRune(p, '\\') || strings.ContainsRune(p, 0) {
		return "", ErrForbiddenPath
	}
	if path.IsAbs(p) {
		return "", ErrForbiddenPath
	}
	p = path.Clean(p)
	if p == "." || p == "" {
		return "", ErrForbiddenPath
	}
	if !filepath.IsLocal(p) {
		return "", ErrForbiddenPath
	}
	return p, nil
}
