package validation

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"slices"
)

// AttachmentConstraints defines validation rules for feedback attachments
type AttachmentConstraints struct {
	MaxSize          int64
	AllowedMimeTypes []string // empty = any type
}

// ValidateAttachment checks size and type of an uploaded file and returns the
// MIME type to store. The declared Content-Type wins; without one the type is
// sniffed from the first 512 bytes.
func ValidateAttachment(header *multipart.FileHeader, constraints AttachmentConstraints) (string, error) {
	// Check file size first (before reading content)
	if constraints.MaxSize > 0 && header.Size > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return "", fmt.Errorf("arquivo %q excede %d MB", header.Filename, maxMB)
	}

	mimeType, err := attachmentMimeType(header)
	if err != nil {
		return "", err
	}

	if len(constraints.AllowedMimeTypes) > 0 && !slices.Contains(constraints.AllowedMimeTypes, mimeType) {
		shown := mimeType
		if shown == "" {
			shown = "desconhecido"
		}
		return "", fmt.Errorf("tipo de arquivo não permitido: %s", shown)
	}

	return mimeType, nil
}

func attachmentMimeType(header *multipart.FileHeader) (string, error) {
	if declared := header.Header.Get("Content-Type"); declared != "" {
		mediaType, _, err := mime.ParseMediaType(declared)
		if err == nil {
			return mediaType, nil
		}
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads max 512 bytes to determine MIME type
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(buffer[:n]))
	if err != nil {
		return "", nil
	}
	return mediaType, nil
}
