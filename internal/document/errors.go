package document

import "errors"

var (
	// ErrNoFile signals a multipart request without a file part.
	ErrNoFile = errors.New("no file uploaded")
	// ErrMissingOwner signals a request without an owner identifier.
	ErrMissingOwner = errors.New("missing owner id")
	// ErrInvalidOwner signals an owner identifier unusable as a directory name.
	ErrInvalidOwner = errors.New("invalid owner id")
	// ErrUnsupportedType signals a MIME type outside the allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrFileTooLarge signals that the upload exceeds the configured ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNotFound signals that the file could not be located.
	ErrNotFound = errors.New("file not found")
	// ErrForbiddenPath signals a path that escapes the uploads root.
	ErrForbiddenPath = errors.New("file path outside uploads root")
)
