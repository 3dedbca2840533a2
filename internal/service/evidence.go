// Package service contains the business logic layer.
//
// This file implements evidence intake: item photos and signatures are
// normalized and kept in blob storage, and their storage key becomes the
// reference recorded on the report.
package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"

	"github.com/disintegration/imaging"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/metrics"
	"github.com/DukeRupert/equipcheck/internal/storage"
)

const (
	// MaxUploadBytes caps a single evidence upload.
	MaxUploadBytes = 10 << 20

	// PhotoMaxDimension bounds the longer side of a stored photo.
	PhotoMaxDimension = 1600

	// PhotoJPEGQuality is the re-encoding quality of stored photos.
	PhotoJPEGQuality = 85
)

// =============================================================================
// Interface Definition
// =============================================================================

// EvidenceService stores evidence images and hands back their references.
type EvidenceService interface {
	// StorePhoto stores an item photo taken on the given equipment.
	// Returns EINVALID for unreadable or unsupported images and ETOOLARGE
	// above MaxUploadBytes.
	StorePhoto(ctx context.Context, equipmentCode string, r io.Reader) (string, error)

	// StoreSignature stores a signature drawn by an operator or supervisor.
	StoreSignature(ctx context.Context, role domain.Role, r io.Reader) (string, error)

	// Open streams a stored evidence object. The caller must close it.
	Open(ctx context.Context, ref string) (io.ReadCloser, storage.ObjectInfo, error)
}

// =============================================================================
// Implementation
// =============================================================================

type evidenceService struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewEvidenceService creates a new EvidenceService.
func NewEvidenceService(store storage.Storage, logger *slog.Logger) EvidenceService {
	return &evidenceService{storage: store, logger: logger}
}

func (s *evidenceService) StorePhoto(ctx context.Context, equipmentCode string, r io.Reader) (string, error) {
	const op = "EvidenceService.StorePhoto"

	img, err := decodeUpload(r, op)
	if err != nil {
		return "", err
	}
	img = imaging.Fit(img, PhotoMaxDimension, PhotoMaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(PhotoJPEGQuality)); err != nil {
		return "", domain.Internal(err, op, "failed to encode photo")
	}

	key := storage.PhotoKey(equipmentCode)
	if err := s.put(ctx, key, "image/jpeg", &buf, op); err != nil {
		return "", err
	}
	metrics.Stored("photo")
	s.logger.Info("photo stored", "ref", key, "equipment", equipmentCode, "size", buf.Len())
	return key, nil
}

func (s *evidenceService) StoreSignature(ctx context.Context, role domain.Role, r io.Reader) (string, error) {
	const op = "EvidenceService.StoreSignature"

	if !role.IsValid() {
		return "", domain.Invalid(op, "Unknown signature role.")
	}
	img, err := decodeUpload(r, op)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", domain.Internal(err, op, "failed to encode signature")
	}

	key := storage.SignatureKey(string(role))
	if err := s.put(ctx, key, "image/png", &buf, op); err != nil {
		return "", err
	}
	metrics.Stored("signature")
	s.logger.Info("signature stored", "ref", key, "role", role)
	return key, nil
}

func (s *evidenceService) Open(ctx context.Context, ref string) (io.ReadCloser, storage.ObjectInfo, error) {
	const op = "EvidenceService.Open"

	if !storage.IsEvidenceKey(ref) {
		return nil, storage.ObjectInfo{}, domain.NotFound(op, "evidence", ref)
	}
	rc, info, err := s.storage.Get(ctx, ref)
	if err != nil {
		return nil, storage.ObjectInfo{}, storage.ToDomain(err, op)
	}
	return rc, info, nil
}

func (s *evidenceService) put(ctx context.Context, key, contentType string, data io.Reader, op string) error {
	err := s.storage.Put(ctx, key, data, storage.PutOptions{ContentType: contentType})
	if err != nil {
		s.logger.Error("evidence storage failed", "ref", key, "error", err)
		return storage.ToDomain(err, op)
	}
	return nil
}

// decodeUpload reads at most MaxUploadBytes and decodes a supported image.
func decodeUpload(r io.Reader, op string) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read upload")
	}
	if len(data) == 0 {
		return nil, domain.Invalid(op, "The uploaded file is empty.")
	}
	if len(data) > MaxUploadBytes {
		return nil, domain.Errorf(domain.ETOOLARGE, op, "The file exceeds the %d MB limit.", MaxUploadBytes>>20)
	}

	contentType := http.DetectContentType(data)
	if !storage.IsAllowedImageType(contentType) {
		return nil, domain.Invalid(op, fmt.Sprintf("Unsupported image type: %s.", contentType))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "The image could not be read.")
	}
	return img, nil
}
