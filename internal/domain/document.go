package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Document file types.
const (
	FileTypePDF  = "pdf"
	FileTypeDOCX = "docx"
	FileTypeXLSX = "xlsx"
)

var documentExtensions = map[string][]string{
	FileTypePDF:  {".pdf"},
	FileTypeDOCX: {".docx", ".doc"},
	FileTypeXLSX: {".xlsx", ".xls"},
}

// Document is an uploaded company file. BlobKey locates the content in the
// blob store.
type Document struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"-"`
	Title       string    `json:"title"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	BlobKey     string    `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Validate checks the title, the file type, and that the file name's
// extension matches the declared type.
func (d *Document) Validate(maxSize int64) error {
	if strings.TrimSpace(d.Title) == "" {
		return &ErrValidation{Field: "title", Message: "title is required"}
	}
	allowed, ok := documentExtensions[d.FileType]
	if !ok {
		return &ErrValidation{Field: "file_type", Message: "must be one of pdf, docx, xlsx"}
	}
	if d.Size > maxSize {
		return &ErrValidation{Field: "file", Message: fmt.Sprintf("file size cannot exceed %d bytes", maxSize)}
	}

	ext := strings.ToLower(filepath.Ext(d.FileName))
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}
	return &ErrValidation{
		Field:   "file",
		Message: fmt.Sprintf("file extension %s does not match selected file type %s", ext, d.FileType),
	}
}
