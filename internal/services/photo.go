package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/storage"
	"github.com/toteco/apiserver/internal/validation"
)

// MaxPhotoSize is the largest accepted upload, in bytes.
const MaxPhotoSize = 10 << 20

const photoPrefix = "photos/"

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PhotoService stores the pictures referenced by users and publications.
type PhotoService struct {
	storage *storage.Storage
	logger  logrus.FieldLogger
}

// NewPhotoService returns a service over s. A nil s disables uploads.
func NewPhotoService(s *storage.Storage, logger logrus.FieldLogger) *PhotoService {
	return &PhotoService{storage: s, logger: logger}
}

// Upload stores a photo and returns the key to reference it by.
func (s *PhotoService) Upload(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := photoExtensions[contentType]
	if !ok {
		return "", &validation.Error{
			Message: fmt.Sprintf("unsupported photo type %q", contentType),
			Fields:  validation.Violations{"photo": validation.ReasonType},
		}
	}
	if size <= 0 || size > MaxPhotoSize {
		return "", &validation.Error{
			Message: fmt.Sprintf("photo must be between 1 and %d bytes", MaxPhotoSize),
			Fields:  validation.Violations{"photo": validation.ReasonType},
		}
	}

	key := photoPrefix + uuid.NewString() + ext
	if err := s.storage.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"key": key, "size": size}).Info("photo stored")
	return key, nil
}

// Open returns a stored photo. Callers must close it.
func (s *PhotoService) Open(ctx context.Context, key string) (storage.Object, error) {
	if s.storage == nil {
		return storage.Object{}, ErrStorageDisabled
	}
	if !isPhotoKey(key) {
		return storage.Object{}, ErrNotFound
	}
	obj, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return storage.Object{}, ErrNotFound
		}
		return storage.Object{}, err
	}
	return obj, nil
}

// Delete removes a stored photo. Records still referencing the key keep it.
func (s *PhotoService) Delete(ctx context.Context, key string) error {
	if s.storage == nil {
		return ErrStorageDisabled
	}
	if !isPhotoKey(key) {
		return ErrNotFound
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete photo: %w", err)
	}
	s.logger.WithField("key", key).Info("photo deleted")
	return nil
}

func isPhotoKey(key string) bool {
	return strings.HasPrefix(key, photoPrefix) && !strings.Contains(key, "..")
}
