package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxFileSize is 5MB in bytes
const DefaultMaxFileSize = 5 * 1024 * 1024

// allowedTypes maps accepted extensions to the content type the file body must sniff as
var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// UploadedFile describes a prescription upload that passed validation
type UploadedFile struct {
	Ext         string // lowercase, without the dot
	ContentType string
	Size        int64
}

// ValidatePrescriptionFile checks size, extension and sniffed content type.
// The size check runs first and needs no I/O.
func ValidatePrescriptionFile(fileHeader *multipart.FileHeader, maxSize int64) (*UploadedFile, error) {
	if fileHeader == nil {
		return nil, &FileUploadError{Code: "MISSING_FILE", Message: "A prescription file is required"}
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	if fileHeader.Size > maxSize {
		return nil, &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", maxSize/(1024*1024)),
		}
	}
	if fileHeader.Size == 0 {
		return nil, &FileUploadError{Code: "EMPTY_FILE", Message: "Uploaded file is empty"}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	expected, ok := allowedTypes[ext]
	if !ok {
		return nil, &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only JPEG, PNG and PDF files are allowed",
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect uploaded file: %w", err)
	}
	if !detected.Is(expected) {
		return nil, &FileUploadError{
			Code:    "CONTENT_TYPE_MISMATCH",
			Message: fmt.Sprintf("File content does not match the %s extension", ext),
		}
	}

	return &UploadedFile{
		Ext:         strings.TrimPrefix(ext, "."),
		ContentType: expected,
		Size:        fileHeader.Size,
	}, nil
}
