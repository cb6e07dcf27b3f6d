package document

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/visaport/docserve/internal/logger"
	"github.com/visaport/docserve/internal/metrics"
)

// RegisterRoutes mounts the document endpoints on the router. The paths match
// the portal's existing upload API.
func RegisterRoutes(router *gin.Engine, service *Service, logg *zap.Logger) {
	handler := &httpHandler{service: service, logg: logg}
	router.POST("/upload-application-letter", handler.uploadApplicationLetter)
	router.POST("/upload-manual", handler.uploadManual)
	router.POST("/test-upload", handler.testUpload)
	router.POST("/delete-file", handler.deleteFile)
	router.GET("/uploads/*filePath", handler.serveFile)
}

type httpHandler struct {
	service *Service
	logg    *zap.Logger
}

type fileInfoPayload struct {
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	StoragePath  string `json:"storagePath"`
	UploadedAt   string `json:"uploadedAt"`
}

type uploadResponse struct {
	Success  bool            `json:"success"`
	URL      string          `json:"url"`
	FileInfo fileInfoPayload `json:"fileInfo"`
}

func newUploadResponse(stored StoredFile) uploadResponse {
	return uploadResponse{
		Success: true,
		URL:     stored.URL,
		FileInfo: fileInfoPayload{
			OriginalName: stored.OriginalName,
			MimeType:     stored.ContentType,
			Size:         stored.SizeBytes,
			StoragePath:  stored.StoragePath,
			UploadedAt:   stored.UploadedAt.Format(time.RFC3339),
		},
	}
}

func (h *httpHandler) uploadApplicationLetter(c *gin.Context) {
	userID := strings.TrimSpace(c.PostForm("userId"))
	if userID == "" {
		respondError(c, http.StatusBadRequest, "userId is required")
		return
	}
	if strings.TrimSpace(c.PostForm("applicationId")) == "" {
		respondError(c, http.StatusBadRequest, "applicationId is required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file uploaded. Please attach a file.")
		return
	}

	stored, err := h.service.Upload(c.Request.Context(), userID, LetterPrefix, fileHeader)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}

	metrics.ObserveUpload(stored.SizeBytes, true)
	c.JSON(http.StatusOK, newUploadResponse(stored))
}

func (h *httpHandler) uploadManual(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		respondError(c, http.StatusBadRequest, "userId is required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file uploaded. Please attach a file.")
		return
	}

	prefix := NormalizePrefix(c.Query("fileType"))
	stored, err := h.service.Upload(c.Request.Context(), userID, prefix, fileHeader)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}

	metrics.ObserveUpload(stored.SizeBytes, true)
	c.JSON(http.StatusOK, newUploadResponse(stored))
}

func (h *httpHandler) testUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file uploaded. Please attach a file.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "file received",
		"fileInfo": gin.H{
			"originalName": sanitizeFilename(fileHeader.Filename),
			"mimeType":     detectContentType(fileHeader),
			"size":         fileHeader.Size,
		},
	})
}

type deleteRequest struct {
	FilePath string `json:"filePath"`
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.FilePath) == "" {
		respondError(c, http.StatusBadRequest, "filePath is required")
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.FilePath); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respondError(c, http.StatusNotFound, "file not found")
		case errors.Is(err, ErrForbiddenPath):
			respondError(c, http.StatusForbidden, "file path outside uploads root")
		default:
			h.logg.Error("delete file",
				zap.String("correlation_id", logger.CorrelationID(c)),
				zap.Error(err))
			respondError(c, http.StatusInternalServerError, "file deletion failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "file deleted"})
}

func (h *httpHandler) serveFile(c *gin.Context) {
	relPath := strings.TrimPrefix(c.Param("filePath"), "/")

	rc, info, err := h.service.Open(c.Request.Context(), relPath)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbiddenPath):
			respondError(c, http.StatusNotFound, "file not found")
		default:
			h.logg.Error("serve file",
				zap.String("correlation_id", logger.CorrelationID(c)),
				zap.Error(err))
			respondError(c, http.StatusInternalServerError, "file retrieval failed")
		}
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, info.SizeBytes, info.ContentType, rc, nil)
}

// respondUploadError maps service errors to the portal's error contract. Raw
// error text never reaches the client; it goes to the log instead.
func (h *httpHandler) respondUploadError(c *gin.Context, err error) {
	metrics.ObserveUpload(0, false)

	switch {
	case errors.Is(err, ErrNoFile):
		respondError(c, http.StatusBadRequest, "No file uploaded. Please attach a file.")
	case errors.Is(err, ErrMissingOwner):
		respondError(c, http.StatusBadRequest, "userId is required")
	case errors.Is(err, ErrInvalidOwner):
		respondError(c, http.StatusBadRequest, "userId is not a valid owner identifier")
	case errors.Is(err, ErrUnsupportedType):
		respondError(c, http.StatusBadRequest, "unsupported file type: allowed types are JPEG, PNG, PDF and Word documents")
	case errors.Is(err, ErrFileTooLarge):
		respondError(c, http.StatusBadRequest, "file exceeds the 50 MiB upload limit")
	case errors.Is(err, ErrForbiddenPath):
		respondError(c, http.StatusForbidden, "file path outside uploads root")
	default:
		h.logg.Error("upload file",
			zap.String("correlation_id", logger.CorrelationID(c)),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, "file upload failed")
	}
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
