package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/visaport/docserve/internal/storage"
)

const (
	defaultMaxUploadBytes = 50 << 20 // 50 MiB

	// LetterPrefix names application-letter uploads.
	LetterPrefix = "application-letter"
	// DefaultPrefix names uploads without a caller-supplied file type.
	DefaultPrefix = "document"
)

var allowedContentTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/jpg":          {},
	"image/png":          {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// blobStore is the slice of the storage layer the service needs.
type blobStore interface {
	Save(ctx context.Context, relPath string, r io.Reader, size int64, contentType string) (int64, error)
	Open(ctx context.Context, relPath string) (io.ReadCloser, storage.FileInfo, error)
	Delete(ctx context.Context, relPath string) error
}

// Service manages document lifecycle operations.
type Service struct {
	store          blobStore
	baseURL        string
	maxUploadBytes int64
}

// NewService constructs a document service.
func NewService(store blobStore, baseURL string, maxUploadBytes int64) *Service {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Service{
		store:          store,
		baseURL:        strings.TrimRight(baseURL, "/"),
		maxUploadBytes: maxUploadBytes,
	}
}

// NormalizePrefix maps a caller-supplied file type to a safe name prefix.
func NormalizePrefix(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !prefixPattern.MatchString(raw) {
		return DefaultPrefix
	}
	return raw
}

// Upload validates the file, stores it under the owner's directory and
// returns the unified result. Validation happens before any bytes are
// written, so a disallowed type or oversize file never touches storage.
func (s *Service) Upload(ctx context.Context, ownerID, prefix string, fileHeader *multipart.FileHeader) (StoredFile, error) {
	if fileHeader == nil {
		return StoredFile{}, ErrNoFile
	}

	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return StoredFile{}, ErrMissingOwner
	}
	if strings.ContainsAny(ownerID, "/\\") || !filepath.IsLocal(ownerID) {
		return StoredFile{}, ErrInvalidOwner
	}

	if fileHeader.Size > s.maxUploadBytes {
		return StoredFile{}, ErrFileTooLarge
	}

	contentType := detectContentType(fileHeader)
	if _, ok := allowedContentTypes[contentType]; !ok {
		return StoredFile{}, ErrUnsupportedType
	}

	name := generateName(prefix, fileHeader.Filename)
	relPath := path.Join(ownerID, name)

	src, err := fileHeader.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("open upload file: %w", err)
	}
	defer src.Close()

	written, err := s.store.Save(ctx, relPath, src, fileHeader.Size, contentType)
	if err != nil {
		return StoredFile{}, translateStorageError(err)
	}
	if written > s.maxUploadBytes {
		_ = s.store.Delete(ctx, relPath)
		return StoredFile{}, ErrFileTooLarge
	}

	return StoredFile{
		URL:          s.baseURL + "/uploads/" + relPath,
		OriginalName: sanitizeFilename(fileHeader.Filename),
		ContentType:  contentType,
		SizeBytes:    written,
		StoragePath:  relPath,
		UploadedAt:   time.Now().UTC(),
	}, nil
}

// Open retrieves a stored file's content and metadata for serving.
func (s *Service) Open(ctx context.Context, relPath string) (io.ReadCloser, storage.FileInfo, error) {
	rc, info, err := s.store.Open(ctx, normalizeRelPath(relPath))
	if err != nil {
		return nil, storage.FileInfo{}, translateStorageError(err)
	}
	return rc, info, nil
}

// Delete removes a stored file addressed by its storage-relative path.
func (s *Service) Delete(ctx context.Context, relPath string) error {
	if err := s.store.Delete(ctx, normalizeRelPath(relPath)); err != nil {
		return translateStorageError(err)
	}
	return nil
}

// normalizeRelPath accepts both the storage-relative path returned by uploads
// and the older "uploads/<owner>/<name>" form portal clients still send.
func normalizeRelPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "uploads/")
	return p
}

// generateName builds a collision-resistant file name. Uniqueness is
// probabilistic, not checked.
func generateName(prefix, originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%s-%d-%d%s", prefix, time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		return "application/octet-stream"
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "upload"
	}
	return name
}

func translateStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrForbiddenPath):
		return ErrForbiddenPath
	default:
		return err
	}
}
