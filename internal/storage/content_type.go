package storage

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectContentType picks a MIME type: the provided type, then the key's
// extension, then content sniffing, then application/octet-stream.
func DetectContentType(provided, key string, head []byte) string {
	if provided != "" {
		return provided
	}
	ext := strings.ToLower(filepath.Ext(key))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	if len(head) > 0 {
		return http.DetectContentType(head)
	}
	return "application/octet-stream"
}

// uploadTypes lists the image formats accepted as evidence uploads.
var uploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

// IsAllowedImageType reports whether contentType is an accepted upload format.
func IsAllowedImageType(contentType string) bool {
	return uploadTypes[baseType(contentType)]
}

// IsPDF returns true if the content type is a PDF document.
func IsPDF(contentType string) bool {
	return baseType(contentType) == "application/pdf"
}

func baseType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(strings.ToLower(base))
}
