package controller

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
	"github.com/ikkim/bizdirectory-backend/internal/storage"
)

const sniffLen = 512

// Presigner issues direct-to-bucket upload URLs.
type Presigner interface {
	PresignUpload(ctx context.Context, filename, contentType, folder string) (*storage.PresignedURLResponse, error)
}

type UploadController struct {
	store     storage.FileStore
	presigner Presigner
	maxBytes  int64
}

// NewUploadController wires the upload endpoints. presigner may be nil
// when uploads go to local disk.
func NewUploadController(store storage.FileStore, presigner Presigner, maxBytes int64) *UploadController {
	return &UploadController{
		store:     store,
		presigner: presigner,
		maxBytes:  maxBytes,
	}
}

type GeneratePresignedURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Folder      string `json:"folder"`
}

// Upload stores one media file from the "file" form field and reports its
// URL and sniffed media kind.
// POST /api/v1/uploads
func (ctrl *UploadController) Upload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	// Allow some room for the multipart envelope
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ctrl.maxBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.RespondWithError(c, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, "file exceeds the maximum upload size")
			return
		}
		log.Warn("Missing upload file", map[string]interface{}{"error": err.Error()})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "file is required")
		return
	}

	if header.Size > ctrl.maxBytes {
		log.Warn("Upload too large", map[string]interface{}{
			"filename": header.Filename,
			"size":     header.Size,
		})
		apperrors.RespondWithError(c, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, "file exceeds the maximum upload size")
		return
	}
	if !storage.AllowedExtension(header.Filename) {
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "allowed types are png, jpg, jpeg, gif, mp4, mov, avi, wmv")
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error("Failed to open upload", err, nil)
		apperrors.InternalError(c, "")
		return
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		log.Error("Failed to read upload", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	kind, contentType, err := storage.DetectMedia(header.Filename, head[:n])
	if err != nil {
		log.Warn("Rejected upload content", map[string]interface{}{
			"filename":     header.Filename,
			"content_type": contentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "file content is not a supported image or video")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		log.Error("Failed to rewind upload", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	url, err := ctrl.store.Store(c.Request.Context(), file, header.Filename, contentType)
	if err != nil {
		log.Error("Failed to store upload", err, map[string]interface{}{
			"filename": header.Filename,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.UploadFailed, "upload failed, please retry")
		return
	}

	log.Info("Upload stored", map[string]interface{}{
		"url":        url,
		"media_kind": kind,
		"size":       header.Size,
	})
	c.JSON(http.StatusCreated, gin.H{
		"url":        url,
		"media_kind": kind,
	})
}

// GeneratePresignedURL generates a presigned URL for uploading files to S3
// POST /api/v1/uploads/presigned-url
func (ctrl *UploadController) GeneratePresignedURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.presigner == nil {
		apperrors.NotFound(c, apperrors.ResourceNotFound, "direct uploads are not configured")
		return
	}

	var req GeneratePresignedURLRequest
	if !bindJSON(c, &req) {
		return
	}
	if !storage.AllowedExtension(req.Filename) {
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "allowed types are png, jpg, jpeg, gif, mp4, mov, avi, wmv")
		return
	}

	response, err := ctrl.presigner.PresignUpload(c.Request.Context(), req.Filename, req.ContentType, req.Folder)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"filename":     req.Filename,
			"content_type": req.ContentType,
		})
		apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.UploadFailed, "failed to generate presigned URL")
		return
	}

	log.Info("Presigned URL generated successfully", map[string]interface{}{
		"filename": req.Filename,
		"key":      response.Key,
	})
	c.JSON(http.StatusOK, response)
}
