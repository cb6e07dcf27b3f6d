package document

import "time"

// StoredFile is the unified result of a successful upload. Both upload
// variants return exactly this shape; the endpoint only decides the name
// prefix and owner.
type StoredFile struct {
	URL          string    `json:"url"`
	OriginalName string    `json:"originalName"`
	ContentType  string    `json:"mimeType"`
	SizeBytes    int64     `json:"size"`
	StoragePath  string    `json:"storagePath"`
	UploadedAt   time.Time `json:"uploadedAt"`
}
