package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/resilience"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var documentTracer = otel.Tracer("service/document")

// DocumentService stores uploaded files: metadata in the store, content in
// the blob store.
type DocumentService struct {
	store    port.DocumentStore
	blobs    port.BlobStore
	bulkhead *resilience.Bulkhead
	maxSize  int64
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewDocumentService creates a document service. bulkhead bounds concurrent
// blob transfers.
func NewDocumentService(store port.DocumentStore, blobs port.BlobStore, bulkhead *resilience.Bulkhead, maxSize int64, metrics *observability.Metrics, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		store:    store,
		blobs:    blobs,
		bulkhead: bulkhead,
		maxSize:  maxSize,
		metrics:  metrics,
		logger:   logger,
	}
}

// MaxSize is the largest accepted upload in bytes.
func (s *DocumentService) MaxSize() int64 {
	return s.maxSize
}

func blobKey(ownerID int64, fileName string) string {
	name := strings.ReplaceAll(filepath.Base(fileName), " ", "_")
	return fmt.Sprintf("documents/%d/%s-%s", ownerID, uuid.NewString(), name)
}

// Upload validates d, writes content to the blob store and records the
// metadata. d.Size must be the content length.
func (s *DocumentService) Upload(ctx context.Context, d *domain.Document, content io.Reader) (*domain.Document, error) {
	ctx, span := documentTracer.Start(ctx, "DocumentService.Upload")
	defer span.End()

	if err := d.Validate(s.maxSize); err != nil {
		return nil, err
	}
	d.ID = 0
	d.BlobKey = blobKey(d.OwnerID, d.FileName)
	span.SetAttributes(attribute.String("blob.key", d.BlobKey))

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	err := s.blobs.Put(ctx, d.BlobKey, content, d.Size, d.ContentType)
	s.bulkhead.Release()
	if err != nil {
		s.metrics.IncrBlobError("put")
		return nil, fmt.Errorf("store document content: %w", err)
	}

	if err := s.store.CreateDocument(ctx, d); err != nil {
		s.removeBlob(ctx, d.BlobKey)
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.logger.Info("document uploaded",
		zap.Int64("owner_id", d.OwnerID),
		zap.Int64("document_id", d.ID),
		zap.String("file_type", d.FileType),
		zap.Int64("size", d.Size),
	)
	return d, nil
}

func (s *DocumentService) Get(ctx context.Context, ownerID, documentID int64) (*domain.Document, error) {
	ctx, span := documentTracer.Start(ctx, "DocumentService.Get")
	defer span.End()

	return s.store.GetDocument(ctx, ownerID, documentID)
}

func (s *DocumentService) List(ctx context.Context, ownerID int64) ([]domain.Document, error) {
	ctx, span := documentTracer.Start(ctx, "DocumentService.List")
	defer span.End()

	return s.store.ListDocuments(ctx, ownerID)
}

// Open returns the document and a reader over its content. The caller
// closes the reader.
func (s *DocumentService) Open(ctx context.Context, ownerID, documentID int64) (*domain.Document, io.ReadCloser, error) {
	ctx, span := documentTracer.Start(ctx, "DocumentService.Open")
	defer span.End()

	d, err := s.store.GetDocument(ctx, ownerID, documentID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Get(ctx, d.BlobKey)
	if err != nil {
		s.metrics.IncrBlobError("get")
		return nil, nil, fmt.Errorf("read document content: %w", err)
	}
	return d, rc, nil
}

// Delete removes the record and then its content. A failed content delete
// is logged; the record is already gone.
func (s *DocumentService) Delete(ctx context.Context, ownerID, documentID int64) error {
	ctx, span := documentTracer.Start(ctx, "DocumentService.Delete")
	defer span.End()

	d, err := s.store.GetDocument(ctx, ownerID, documentID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, ownerID, documentID); err != nil {
		return err
	}
	s.removeBlob(ctx, d.BlobKey)
	return nil
}

func (s *DocumentService) removeBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.metrics.IncrBlobError("delete")
		s.logger.Warn("blob delete failed", zap.String("key", key), zap.Error(err))
	}
}
