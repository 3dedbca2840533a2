package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Key prefixes. Every key handed out by this package starts with one of them.
const (
	PrefixPhotos     = "photos/"
	PrefixSignatures = "signatures/"
	PrefixDocuments  = "documents/"
)

// PhotoKey returns a fresh key for an item photo of the given equipment.
// Format: photos/{equipment}/{uuid}.jpg
func PhotoKey(equipmentCode string) string {
	return fmt.Sprintf("%s%s/%s.jpg", PrefixPhotos, segment(equipmentCode), uuid.New())
}

// SignatureKey returns a fresh key for a signature image.
// Format: signatures/{role}/{uuid}.png
func SignatureKey(role string) string {
	return fmt.Sprintf("%s%s/%s.png", PrefixSignatures, segment(role), uuid.New())
}

// ChecklistKey returns the key of an approved report's checklist document.
func ChecklistKey(reportID int64, name string) string {
	return fmt.Sprintf("%schecklists/%d/%s", PrefixDocuments, reportID, segment(name))
}

// SummaryKey returns the key of a stored management report.
func SummaryKey(name string) string {
	return fmt.Sprintf("%ssummaries/%s", PrefixDocuments, segment(name))
}

// ValidateKey rejects empty keys, absolute keys and path traversal.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	if path.Clean(key) != key {
		return ErrInvalidKey
	}
	return nil
}

// IsEvidenceKey reports whether key names an uploaded photo or signature.
func IsEvidenceKey(key string) bool {
	return strings.HasPrefix(key, PrefixPhotos) || strings.HasPrefix(key, PrefixSignatures)
}

// segment makes s safe to use as one key segment.
func segment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "_", "\\", "_", " ", "_", "..", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}
