package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/ahmetcoskunkizilkaya/flancer-api/internal/dto"
	"github.com/google/uuid"
)

var (
	ErrUploadsDisabled   = errors.New("image uploads are not configured")
	ErrUnsupportedUpload = errors.New("only png, jpeg, gif and webp images are accepted")
)

const MaxUploadSize = 4 << 20

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore is where uploaded images end up.
type ObjectStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
	KeyFromURL(url string) (string, bool)
}

type UploadService struct {
	objects ObjectStore
}

// NewUploadService accepts a nil store, in which case every upload fails
// with ErrUploadsDisabled.
func NewUploadService(objects ObjectStore) *UploadService {
	return &UploadService{objects: objects}
}

// UploadImage stores an avatar or project image under images/<owner>/.
func (s *UploadService) UploadImage(ctx context.Context, ownerID, contentType string, size int64, body io.Reader) (*dto.UploadResponse, error) {
	if s.objects == nil {
		return nil, ErrUploadsDisabled
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := imageExtensions[mediaType]
	if !ok {
		return nil, ErrUnsupportedUpload
	}
	if size <= 0 || size > MaxUploadSize {
		return nil, fmt.Errorf("%w: image must be between 1 byte and %d bytes", ErrValidation, MaxUploadSize)
	}

	key := path.Join("images", ownerID, uuid.NewString()+ext)
	if err := s.objects.Upload(ctx, key, body, size, mediaType); err != nil {
		return nil, err
	}
	slog.Info("image uploaded", "user_id", ownerID, "key", key, "size", size)

	return &dto.UploadResponse{Key: key, URL: s.objects.URL(key)}, nil
}

// DiscardImage deletes an image previously uploaded by owner. URLs that point
// elsewhere, or into another owner's prefix, are left alone.
func (s *UploadService) DiscardImage(ctx context.Context, ownerID, url string) error {
	if s == nil || s.objects == nil {
		return nil
	}
	key, ok := s.objects.KeyFromURL(url)
	if !ok || !strings.HasPrefix(key, path.Join("images", ownerID)+"/") {
		return nil
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		return err
	}
	slog.Info("image removed", "user_id", ownerID, "key", key)
	return nil
}
