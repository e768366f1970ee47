package preview

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/h2non/bimg"

	"clouddrive/internal/domain"
	"clouddrive/internal/service/s3"
)

const (
	maxPreviewSize = 512          // longest edge of a generated preview, px
	jpegQuality    = 85
	previewPrefix  = "previews/"  // key prefix for cached previews
	previewType    = "image/jpeg" // previews are always re-encoded as JPEG
)

// Service renders and caches image previews. Previews live in the same
// bucket as the originals under their own key prefix; a missing cache entry
// is regenerated on demand.
type Service struct {
	storage s3.Storage
	log     *slog.Logger
}

func NewService(storage s3.Storage, log *slog.Logger) *Service {
	return &Service{storage: storage, log: log}
}

// Supported reports whether previews can be generated for a content type.
// SVG is excluded: bimg rasterization of SVG depends on optional libvips
// loaders.
func Supported(contentType string) bool {
	if contentType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(contentType, "image/")
}

// Get returns the preview bytes for a file, generating and caching them on
// first access.
func (s *Service) Get(ctx context.Context, file *domain.File) ([]byte, error) {
	if !Supported(file.ContentType) {
		return nil, domain.ValidationError("previews are not available for %s files", file.ContentType)
	}

	key := previewKey(file.ObjectKey)
	if cached, err := s.storage.Get(ctx, key); err == nil {
		defer cached.Close()
		data, err := io.ReadAll(cached)
		if err == nil {
			return data, nil
		}
		s.log.Warn("failed to read cached preview, regenerating", "key", key, "error", err)
	}

	object, err := s.storage.Get(ctx, file.ObjectKey)
	if err != nil {
		return nil, domain.InternalError("failed to open file content", err)
	}
	defer object.Close()

	original, err := io.ReadAll(object)
	if err != nil {
		return nil, domain.InternalError("failed to read file content", err)
	}

	preview, err := bimg.NewImage(original).Process(bimg.Options{
		Width:   maxPreviewSize,
		Height:  maxPreviewSize,
		Crop:    false,
		Enlarge: false,
		Quality: jpegQuality,
		Type:    bimg.JPEG,
	})
	if err != nil {
		return nil, domain.InternalError("failed to render preview", err)
	}

	// Cache misses are tolerable; the next request just regenerates.
	if err := s.storage.Put(ctx, key, bytes.NewReader(preview), int64(len(preview)), previewType); err != nil {
		s.log.Warn("failed to cache preview", "key", key, "error", err)
	}

	return preview, nil
}

func previewKey(objectKey string) string {
	return previewPrefix + objectKey + ".jpg"
}
