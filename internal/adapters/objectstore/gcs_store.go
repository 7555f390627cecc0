package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SscSPs/fx_rates_pipeline/internal/apperrors"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
	"github.com/SscSPs/fx_rates_pipeline/internal/core/ports/repositories"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// GCSObjectStore stores objects in a Cloud Storage bucket.
type GCSObjectStore struct {
	svc    *storage.Service
	bucket string
}

var _ repositories.ObjectStore = (*GCSObjectStore)(nil)

// NewGCSObjectStore creates a store for bucket. opts typically carries the
// credentials resolved at startup.
func NewGCSObjectStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSObjectStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs bucket cannot be empty")
	}
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCSObjectStore{svc: svc, bucket: bucket}, nil
}

func (s *GCSObjectStore) Put(ctx context.Context, objectPath string, data []byte, contentType string) error {
	obj := &storage.Object{Name: objectPath, ContentType: contentType}
	_, err := s.svc.Objects.Insert(s.bucket, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return apperrors.NewStorageError("upload gs://"+s.bucket+"/"+objectPath, err)
	}
	return nil
}

func (s *GCSObjectStore) Get(ctx context.Context, objectPath string) ([]byte, error) {
	resp, err := s.svc.Objects.Get(s.bucket, objectPath).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: gs://%s/%s", apperrors.ErrMissingFile, s.bucket, objectPath)
		}
		return nil, apperrors.NewStorageError("download gs://"+s.bucket+"/"+objectPath, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewStorageError("read gs://"+s.bucket+"/"+objectPath, err)
	}
	return data, nil
}

func (s *GCSObjectStore) List(ctx context.Context, prefix string) ([]domain.ObjectInfo, error) {
	objects := make([]domain.ObjectInfo, 0)
	err := s.svc.Objects.List(s.bucket).Prefix(prefix).Pages(ctx, func(page *storage.Objects) error {
		for _, item := range page.Items {
			updated, err := time.Parse(time.RFC3339, item.Updated)
			if err != nil {
				updated = time.Time{}
			}
			objects = append(objects, domain.ObjectInfo{
				Path:    item.Name,
				Size:    int64(item.Size),
				Updated: updated,
			})
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewStorageError("list gs://"+s.bucket+"/"+prefix, err)
	}
	sortNewestFirst(objects)
	return objects, nil
}

func (s *GCSObjectStore) Delete(ctx context.Context, objectPath string) error {
	err := s.svc.Objects.Delete(s.bucket, objectPath).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return apperrors.NewStorageError("delete gs://"+s.bucket+"/"+objectPath, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
