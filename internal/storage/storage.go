package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
)

var (
	ErrUnsupportedFileType = errors.New("file type is not allowed")
	ErrFileTooLarge        = errors.New("file exceeds the maximum upload size")
)

// FileStore persists uploaded media and returns its public URL.
type FileStore interface {
	Store(ctx context.Context, r io.Reader, filename, contentType string) (string, error)
}

var allowedExtensions = map[string]model.MediaKind{
	".png":  model.MediaImage,
	".jpg":  model.MediaImage,
	".jpeg": model.MediaImage,
	".gif":  model.MediaImage,
	".mp4":  model.MediaVideo,
	".mov":  model.MediaVideo,
	".avi":  model.MediaVideo,
	".wmv":  model.MediaVideo,
}

// AllowedExtension reports whether filename has an accepted media extension.
func AllowedExtension(filename string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// DetectMedia sniffs the leading bytes of an upload. The sniffed MIME type
// decides the media kind; the extension is the fallback when sniffing only
// yields application/octet-stream (mov and wmv containers).
func DetectMedia(filename string, head []byte) (model.MediaKind, string, error) {
	extKind, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return "", "", ErrUnsupportedFileType
	}

	contentType := http.DetectContentType(head)
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return model.MediaImage, contentType, nil
	case strings.HasPrefix(contentType, "video/"):
		return model.MediaVideo, contentType, nil
	case contentType == "application/octet-stream":
		return extKind, contentType, nil
	}
	return "", contentType, fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
}

// objectKey builds a collision-free key under folder, keeping the extension.
func objectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)
}
