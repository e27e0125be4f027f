package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPreparePhotoUploadReturnsStableURL(t *testing.T) {
	storage := &fakeStorage{bucket: "photos"}
	svc := NewService(storage, 15*time.Minute)
	svc.now = func() time.Time {
		return time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	}

	upload, err := svc.PreparePhotoUpload(context.Background(), "device-1", "ramp.JPG")
	if err != nil {
		t.Fatalf("prepare upload: %v", err)
	}

	if !strings.HasPrefix(upload.PhotoURL, "s3://photos/reports/photos/device-1/") {
		t.Fatalf("unexpected photo url: %s", upload.PhotoURL)
	}
	if !strings.HasSuffix(upload.PhotoURL, ".jpg") {
		t.Fatalf("extension must be normalized: %s", upload.PhotoURL)
	}
	if !strings.HasPrefix(upload.UploadURL, "https://s3.test/put/") {
		t.Fatalf("unexpected upload url: %s", upload.UploadURL)
	}
	if !storage.ensured {
		t.Fatalf("bucket must be ensured before presigning")
	}
}

func TestPreparePhotoUploadRequiresActor(t *testing.T) {
	svc := NewService(&fakeStorage{bucket: "photos"}, 0)

	if _, err := svc.PreparePhotoUpload(context.Background(), " ", "a.jpg"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveViewURL(t *testing.T) {
	storage := &fakeStorage{bucket: "photos"}
	svc := NewService(storage, 0)
	ctx := context.Background()

	signed, err := svc.ResolveViewURL(ctx, "s3://photos/reports/photos/device-1/x.jpg")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !strings.HasPrefix(signed, "https://s3.test/get/") {
		t.Fatalf("unexpected signed url: %s", signed)
	}

	passthrough, err := svc.ResolveViewURL(ctx, "https://example.com/a.jpg")
	if err != nil {
		t.Fatalf("resolve passthrough: %v", err)
	}
	if passthrough != "https://example.com/a.jpg" {
		t.Fatalf("external urls must pass through, got %s", passthrough)
	}

	if _, err := svc.ResolveViewURL(ctx, "s3://broken"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for malformed url, got %v", err)
	}
}

type fakeStorage struct {
	bucket  string
	ensured bool
}

func (f *fakeStorage) Bucket() string { return f.bucket }

func (f *fakeStorage) EnsureBucket(context.Context) error {
	f.ensured = true
	return nil
}

func (f *fakeStorage) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/put/" + key, nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/get/" + key, nil
}

func (f *fakeStorage) Delete(context.Context, string) error { return nil }
