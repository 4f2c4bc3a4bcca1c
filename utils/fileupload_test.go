package utils

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pdfContent  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")
	pngContent  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	jpegContent = append([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"), make([]byte, 32)...)
)

// createTestFileHeader creates a multipart.FileHeader for testing
func createTestFileHeader(filename string, size int64, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, _ := writer.CreatePart(h)
	part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content)) + 1024)

	if len(form.File["file"]) > 0 {
		fileHeader := form.File["file"][0]
		// Override size for testing purposes
		fileHeader.Size = size
		return fileHeader
	}

	return nil
}

func TestValidatePrescriptionFile_AcceptedTypes(t *testing.T) {
	tests := []struct {
		filename    string
		content     []byte
		ext         string
		contentType string
	}{
		{"rx.pdf", pdfContent, "pdf", "application/pdf"},
		{"rx.PNG", pngContent, "png", "image/png"},
		{"rx.jpg", jpegContent, "jpg", "image/jpeg"},
		{"rx.jpeg", jpegContent, "jpeg", "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			fh := createTestFileHeader(tt.filename, int64(len(tt.content)), tt.content)
			require.NotNil(t, fh)

			info, err := ValidatePrescriptionFile(fh, DefaultMaxFileSize)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, info.Ext)
			assert.Equal(t, tt.contentType, info.ContentType)
		})
	}
}

func TestValidatePrescriptionFile_FileTooLarge(t *testing.T) {
	fh := createTestFileHeader("large.pdf", 10*1024*1024, pdfContent)
	require.NotNil(t, fh)

	_, err := ValidatePrescriptionFile(fh, 5*1024*1024)
	require.Error(t, err)

	fileErr, ok := err.(*FileUploadError)
	require.True(t, ok, "Error should be of type FileUploadError")
	assert.Equal(t, "FILE_TOO_LARGE", fileErr.Code)
	assert.Contains(t, fileErr.Message, "5 MB")
}

func TestValidatePrescriptionFile_InvalidExtension(t *testing.T) {
	for _, name := range []string{"rx.gif", "rx.docx", "rx", "rx.pdf.exe"} {
		t.Run(name, func(t *testing.T) {
			fh := createTestFileHeader(name, int64(len(pdfContent)), pdfContent)
			_, err := ValidatePrescriptionFile(fh, DefaultMaxFileSize)

			fileErr, ok := err.(*FileUploadError)
			require.True(t, ok, "Error should be of type FileUploadError")
			assert.Equal(t, "INVALID_FILE_FORMAT", fileErr.Code)
		})
	}
}

func TestValidatePrescriptionFile_ContentMismatch(t *testing.T) {
	fh := createTestFileHeader("rx.pdf", int64(len(pngContent)), pngContent)
	_, err := ValidatePrescriptionFile(fh, DefaultMaxFileSize)

	fileErr, ok := err.(*FileUploadError)
	require.True(t, ok)
	assert.Equal(t, "CONTENT_TYPE_MISMATCH", fileErr.Code)
}

func TestValidatePrescriptionFile_EmptyAndMissing(t *testing.T) {
	_, err := ValidatePrescriptionFile(nil, DefaultMaxFileSize)
	assert.Equal(t, "MISSING_FILE", err.(*FileUploadError).Code)

	fh := createTestFileHeader("rx.pdf", 0, pdfContent)
	_, err = ValidatePrescriptionFile(fh, DefaultMaxFileSize)
	assert.Equal(t, "EMPTY_FILE", err.(*FileUploadError).Code)
}

func TestFileUploadError_Error(t *testing.T) {
	err := &FileUploadError{Code: "TEST_ERROR", Message: "Test error message"}
	assert.Equal(t, "Test error message", err.Error())
}
