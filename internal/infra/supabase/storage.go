// Package supabase provides a BlobStore backed by the Supabase Storage API.
package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/resilience"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

var _ port.BlobStore = (*Storage)(nil)

// Storage wraps HTTP calls to one Supabase Storage bucket.
type Storage struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	bucket     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewStorage creates a Supabase Storage client for bucket.
func NewStorage(httpClient *http.Client, baseURL, serviceKey, bucket string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Storage {
	return &Storage{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *Storage) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, url.PathEscape(s.bucket), strings.Join(segments, "/"))
}

// do executes an authenticated request. Client errors other than 404 are
// marked permanent so they are not retried.
func (s *Storage) do(ctx context.Context, method, key string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.objectURL(key), body)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.logger.Debug("supabase: request OK",
			zap.String("method", method),
			zap.String("key", key),
			zap.Int("status", resp.StatusCode),
		)
		return resp, nil
	}

	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	// Storage answers a missing object with 404, or 400 carrying a
	// not_found payload.
	if resp.StatusCode == http.StatusNotFound || strings.Contains(string(msg), "not_found") {
		return nil, resilience.Permanent(&domain.ErrNotFound{Resource: "blob", ID: key})
	}
	s.logger.Warn("supabase: non-2xx response",
		zap.String("method", method),
		zap.String("key", key),
		zap.Int("status", resp.StatusCode),
		zap.String("body", string(msg)),
	)
	err = fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(msg))
	if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return nil, resilience.Permanent(err)
	}
	return nil, err
}

// Put uploads the object, overwriting any existing one. The content is
// buffered so retries can resend it.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	ctx, span := tracer.Start(ctx, "Supabase.Put")
	defer span.End()
	span.SetAttributes(attribute.String("blob.key", key), attribute.Int64("blob.size", size))

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := http.Header{
		"Content-Type": []string{contentType},
		"X-Upsert":     []string{"true"},
	}

	return resilience.Call(ctx, s.cb, s.cfg, "supabase/storage", func() error {
		resp, err := s.do(ctx, http.MethodPost, key, bytes.NewReader(data), header)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	})
}

// Get streams the object. The caller closes the reader.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Get")
	defer span.End()
	span.SetAttributes(attribute.String("blob.key", key))

	var body io.ReadCloser
	err := resilience.Call(ctx, s.cb, s.cfg, "supabase/storage", func() error {
		resp, err := s.do(ctx, http.MethodGet, key, nil, nil)
		if err != nil {
			return err
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Delete removes the object. A missing object is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "Supabase.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("blob.key", key))

	err := resilience.Call(ctx, s.cb, s.cfg, "supabase/storage", func() error {
		resp, err := s.do(ctx, http.MethodDelete, key, nil, nil)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	})
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return nil
	}
	return err
}
