package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// DiskStore keeps uploads on the local filesystem in per-owner directories
// under a single root.
type DiskStore struct {
	root string
}

// NewDiskStore ensures the uploads root exists and returns a store rooted there.
func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads root: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

// Root returns the absolute uploads root directory.
func (d *DiskStore) Root() string {
	return d.root
}

func (d *DiskStore) resolve(relPath string) (string, error) {
	rel, err := CleanRelPath(relPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(rel)), nil
}

// Save streams the reader to disk, lazily creating the owner directory.
func (d *DiskStore) Save(ctx context.Context, relPath string, r io.Reader, size int64, contentType string) (int64, error) {
	full, err := d.resolve(relPath)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("create owner directory: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return 0, fmt.Errorf("write file: %w", err)
	}
	return written, nil
}

// Open returns the stored file's content and metadata.
func (d *DiskStore) Open(ctx context.Context, relPath string) (io.ReadCloser, FileInfo, error) {
	full, err := d.resolve(relPath)
	if err != nil {
		return nil, FileInfo{}, err
	}

	stat, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, FileInfo{}, ErrNotFound
		}
		return nil, FileInfo{}, fmt.Errorf("stat file: %w", err)
	}
	if stat.IsDir() {
		return nil, FileInfo{}, ErrNotFound
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, FileInfo{}, fmt.Errorf("open file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(full))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return f, FileInfo{
		SizeBytes:   stat.Size(),
		ContentType: contentType,
		ModifiedAt:  stat.ModTime(),
	}, nil
}

// Delete removes the stored file.
func (d *DiskStore) Delete(ctx context.Context, relPath string) error {
	full, err := d.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Probe verifies the uploads root is writable.
func (d *DiskStore) Probe(ctx context.Context) error {
	f, err := os.CreateTemp(d.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("uploads root not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
