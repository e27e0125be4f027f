package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var ErrValidation = errors.New("validation error")

const signedURLTTL = 5 * time.Minute

// photoURLScheme marks stable photo references stored on reports; view
// URLs are presigned on the way out.
const photoURLScheme = "s3://"

type ObjectStorage interface {
	Bucket() string
	EnsureBucket(ctx context.Context) error
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	storage   ObjectStorage
	uploadTTL time.Duration
	now       func() time.Time
}

// Upload carries a presigned PUT URL for the client plus the stable photo
// URL to attach to a report once the upload completes.
type Upload struct {
	UploadURL string
	PhotoURL  string
	ExpiresAt time.Time
}

func NewService(storage ObjectStorage, uploadTTL time.Duration) *Service {
	if uploadTTL <= 0 {
		uploadTTL = 15 * time.Minute
	}

	return &Service{
		storage:   storage,
		uploadTTL: uploadTTL,
		now:       time.Now,
	}
}

func (s *Service) PreparePhotoUpload(ctx context.Context, actorID, fileName string) (Upload, error) {
	if strings.TrimSpace(actorID) == "" {
		return Upload{}, ErrValidation
	}
	if s.storage == nil {
		return Upload{}, fmt.Errorf("object storage is not configured")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Upload{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey, err := buildPhotoObjectKey(actorID, fileName, s.now())
	if err != nil {
		return Upload{}, fmt.Errorf("build object key: %w", err)
	}

	uploadURL, err := s.storage.PresignPut(ctx, objectKey, s.uploadTTL)
	if err != nil {
		return Upload{}, fmt.Errorf("presign upload: %w", err)
	}

	return Upload{
		UploadURL: uploadURL,
		PhotoURL:  photoURLScheme + s.storage.Bucket() + "/" + objectKey,
		ExpiresAt: s.now().Add(s.uploadTTL),
	}, nil
}

// ResolveViewURL turns a stable photo URL into a short-lived presigned GET
// URL. URLs outside the object-storage scheme pass through unchanged.
func (s *Service) ResolveViewURL(ctx context.Context, photoURL string) (string, error) {
	if !strings.HasPrefix(photoURL, photoURLScheme) {
		return photoURL, nil
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	rest := strings.TrimPrefix(photoURL, photoURLScheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", fmt.Errorf("malformed photo url %q: %w", photoURL, ErrValidation)
	}

	signed, err := s.storage.PresignGet(ctx, key, signedURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign photo url: %w", err)
	}

	return signed, nil
}

func buildPhotoObjectKey(actorID, fileName string, now time.Time) (string, error) {
	rnd := make([]byte, 8)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".jpg"
	}

	stamp := now.UTC().Format("20060102T150405")
	return fmt.Sprintf("reports/photos/%s/%s_%s%s", actorID, stamp, hex.EncodeToString(rnd), ext), nil
}
