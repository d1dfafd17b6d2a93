// Package gcs stores document content in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var tracer = otel.Tracer("gcs")

var _ port.BlobStore = (*Store)(nil)

// Store is a BlobStore over one bucket.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	logger *zap.Logger
}

// New opens a client. An empty credentialsFile falls back to application
// default credentials.
func New(ctx context.Context, bucket, credentialsFile string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}
	return &Store{client: client, bucket: client.Bucket(bucket), logger: logger}, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	ctx, span := tracer.Start(ctx, "GCS.Put")
	defer span.End()
	span.SetAttributes(attribute.String("blob.key", key), attribute.Int64("blob.size", size))

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return &domain.ErrExternalService{Service: "gcs", Err: err}
	}
	if err := w.Close(); err != nil {
		s.logger.Error("gcs: upload failed", zap.String("key", key), zap.Error(err))
		return &domain.ErrExternalService{Service: "gcs", Err: err}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "GCS.Get")
	defer span.End()
	span.SetAttributes(attribute.String("blob.key", key))

	rc, err := s.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, &domain.ErrNotFound{Resource: "blob", ID: key}
	}
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gcs", Err: err}
	}
	return rc, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "GCS.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("blob.key", key))

	err := s.bucket.Object(key).Delete(ctx)
	if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return &domain.ErrExternalService{Service: "gcs", Err: err}
}
