package document

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	"github.com/visaport/docserve/internal/storage"
)

func TestUploadStoresFileAndReportsSize(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, "http://localhost:8080", 0)

	content := []byte("hello world")
	fileHeader := buildFileHeader(t, "file", "letter.pdf", "application/pdf", content)

	stored, err := service.Upload(context.Background(), "u1", LetterPrefix, fileHeader)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if stored.SizeBytes != int64(len(content)) {
		t.Fatalf("expected size %d, got %d", len(content), stored.SizeBytes)
	}
	if stored.OriginalName != "letter.pdf" {
		t.Fatalf("unexpected original name: %s", stored.OriginalName)
	}
	if stored.ContentType != "application/pdf" {
		t.Fatalf("unexpected content type: %s", stored.ContentType)
	}
	if !strings.HasPrefix(stored.StoragePath, "u1/application-letter-") {
		t.Fatalf("unexpected storage path: %s", stored.StoragePath)
	}
	if !strings.HasSuffix(stored.StoragePath, ".pdf") {
		t.Fatalf("expected .pdf suffix, got %s", stored.StoragePath)
	}
	if stored.URL != "http://localhost:8080/uploads/"+stored.StoragePath {
		t.Fatalf("unexpected URL: %s", stored.URL)
	}
	if stored.UploadedAt.IsZero() {
		t.Fatalf("expected upload timestamp to be set")
	}

	if got := store.objects[stored.StoragePath]; !bytes.Equal(got, content) {
		t.Fatalf("stored bytes differ from input")
	}
}

func TestUploadRejectsMissingFile(t *testing.T) {
	service := NewService(newFakeStore(), "http://localhost:8080", 0)

	if _, err := service.Upload(context.Background(), "u1", DefaultPrefix, nil); err != ErrNoFile {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
}

func TestUploadRejectsMissingOwner(t *testing.T) {
	service := NewService(newFakeStore(), "http://localhost:8080", 0)
	fileHeader := buildFileHeader(t, "file", "a.png", "image/png", []byte("png"))

	if _, err := service.Upload(context.Background(), "  ", DefaultPrefix, fileHeader); err != ErrMissingOwner {
		t.Fatalf("expected ErrMissingOwner, got %v", err)
	}
}

func TestUploadRejectsTraversalOwner(t *testing.T) {
	service := NewService(newFakeStore(), "http://localhost:8080", 0)
	fileHeader := buildFileHeader(t, "file", "a.png", "image/png", []byte("png"))

	for _, owner := range []string{"..", "a/b", `a\b`} {
		if _, err := service.Upload(context.Background(), owner, DefaultPrefix, fileHeader); err != ErrInvalidOwner {
			t.Fatalf("owner %q: expected ErrInvalidOwner, got %v", owner, err)
		}
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, "http://localhost:8080", 0)
	fileHeader := buildFileHeader(t, "file", "notes.txt", "text/plain", []byte("plain text"))

	if _, err := service.Upload(context.Background(), "u1", DefaultPrefix, fileHeader); err != ErrUnsupportedType {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatalf("expected no Save call for rejected type, got %d", store.saveCalls)
	}
}

func TestUploadRejectsOversizeFile(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, "http://localhost:8080", 16)
	fileHeader := buildFileHeader(t, "file", "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 64))

	if _, err := service.Upload(context.Background(), "u1", DefaultPrefix, fileHeader); err != ErrFileTooLarge {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatalf("expected no Save call for oversize file, got %d", store.saveCalls)
	}
}

func TestConcurrentUploadsProduceDistinctNames(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, "http://localhost:8080", 0)

	const workers = 8
	paths := make([]string, workers)

	headers := make([]*multipart.FileHeader, workers)
	for i := range headers {
		headers[i] = buildFileHeader(t, "file", "scan.jpg", "image/jpeg", []byte("jpeg bytes"))
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stored, err := service.Upload(context.Background(), "u1", DefaultPrefix, headers[i])
			if err != nil {
				t.Errorf("Upload returned error: %v", err)
				return
			}
			paths[i] = stored.StoragePath
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, workers)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if seen[p] {
			t.Fatalf("duplicate storage path generated: %s", p)
		}
		seen[p] = true
	}
	if len(seen) != workers {
		t.Fatalf("expected %d distinct files, got %d", workers, len(seen))
	}
}

func TestDeleteTranslatesStorageErrors(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, "http://localhost:8080", 0)

	if err := service.Delete(context.Background(), "u1/missing.pdf"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := service.Delete(context.Background(), "../etc/passwd"); err != ErrForbiddenPath {
		t.Fatalf("expected ErrForbiddenPath, got %v", err)
	}
}

func TestDeleteAcceptsUploadsPrefixedPath(t *testing.T) {
	store := newFakeStore()
	service := NewService(store, "http://localhost:8080", 0)

	fileHeader := buildFileHeader(t, "file", "scan.jpg", "image/jpeg", []byte("jpeg bytes"))
	stored, err := service.Upload(context.Background(), "u1", DefaultPrefix, fileHeader)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if err := service.Delete(context.Background(), "uploads/"+stored.StoragePath); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := store.objects[stored.StoragePath]; ok {
		t.Fatalf("expected file to be removed")
	}
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{
		"":               DefaultPrefix,
		"passport":       "passport",
		"biometric-scan": "biometric-scan",
		"../evil":        DefaultPrefix,
		"a b":            DefaultPrefix,
	}
	for raw, want := range cases {
		if got := NormalizePrefix(raw); got != want {
			t.Fatalf("NormalizePrefix(%q) = %q, want %q", raw, got, want)
		}
	}
}

// --- helpers & fakes ---

func buildFileHeader(t *testing.T, fieldName, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(int64(len(content)) + 1024); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	return req.MultipartForm.File[fieldName][0]
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	saveCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Save(ctx context.Context, relPath string, r io.Reader, size int64, contentType string) (int64, error) {
	rel, err := storage.CleanRelPath(relPath)
	if err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	f.objects[rel] = data
	return int64(len(data)), nil
}

func (f *fakeStore) Open(ctx context.Context, relPath string) (io.ReadCloser, storage.FileInfo, error) {
	rel, err := storage.CleanRelPath(relPath)
	if err != nil {
		return nil, storage.FileInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[rel]
	if !ok {
		return nil, storage.FileInfo{}, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), storage.FileInfo{SizeBytes: int64(len(data))}, nil
}

func (f *fakeStore) Delete(ctx context.Context, relPath string) error {
	rel, err := storage.CleanRelPath(relPath)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[rel]; !ok {
		return storage.ErrNotFound
	}
	delete(f.objects, rel)
	return nil
}
