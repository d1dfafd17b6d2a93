package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Documents: /v1/documents
// ============================================================

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 64 << 10

func listDocumentsHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/documents")
		defer span.End()

		docs, err := svc.List(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Document]{Data: docs, Total: len(docs)})
	}
}

// uploadDocumentHandler accepts multipart/form-data with title, file_type
// and file.
func uploadDocumentHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/documents")
		defer span.End()

		maxSize := svc.MaxSize()
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
		if err := r.ParseMultipartForm(maxSize + multipartOverhead); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusBadRequest, "file size cannot exceed "+strconv.FormatInt(maxSize, 10)+" bytes")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:  "file is required",
				Fields: map[string]string{"file": "required"},
			})
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
				contentType = byExt
			}
		}
		span.SetAttributes(attribute.String("document.file_name", header.Filename), attribute.Int64("document.size", header.Size))

		doc, err := svc.Upload(ctx, &domain.Document{
			OwnerID:     OwnerIDFromContext(ctx),
			Title:       r.FormValue("title"),
			FileType:    r.FormValue("file_type"),
			FileName:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
		}, file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, doc)
	}
}

func getDocumentHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/documents/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		doc, err := svc.Get(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, doc)
	}
}

func downloadDocumentHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/documents/{id}/download")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		doc, content, err := svc.Open(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer content.Close()

		contentType := doc.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
		if doc.Size > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
		}
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, content); err != nil {
			logger.Warn("document download interrupted", zap.Int64("document_id", id), zap.Error(err))
		}
	}
}

func deleteDocumentHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/documents/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.Delete(ctx, OwnerIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
