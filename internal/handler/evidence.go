package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/equipcheck/internal/auth"
	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/service"
)

// maxMultipartMemory is the in-memory part of multipart parsing; the rest
// spills to temporary files.
const maxMultipartMemory = 8 << 20

// EvidenceHandler accepts photo and signature uploads and streams them back.
type EvidenceHandler struct {
	evidence service.EvidenceService
	logger   *slog.Logger
}

// NewEvidenceHandler creates a new EvidenceHandler.
func NewEvidenceHandler(evidence service.EvidenceService, logger *slog.Logger) *EvidenceHandler {
	return &EvidenceHandler{evidence: evidence, logger: logger}
}

// RegisterRoutes registers the evidence routes. limit is applied to uploads.
//
// Routes:
// - POST /api/evidence/photos      -> UploadPhoto
// - POST /api/evidence/signatures  -> UploadSignature
// - GET  /api/evidence/{key...}    -> Serve
func (h *EvidenceHandler) RegisterRoutes(mux *http.ServeMux, requireUser, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /api/evidence/photos", requireUser(limit(http.HandlerFunc(h.UploadPhoto))))
	mux.Handle("POST /api/evidence/signatures", requireUser(limit(http.HandlerFunc(h.UploadSignature))))
	mux.Handle("GET /api/evidence/{key...}", requireUser(http.HandlerFunc(h.Serve)))
}

// UploadPhoto stores an item photo.
// Multipart fields: equipment (code), file.
func (h *EvidenceHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	const op = "EvidenceHandler.UploadPhoto"

	file, err := h.formFile(w, r, op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	defer file.Close()

	code := r.FormValue("equipment")
	if code == "" {
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "equipment", "Equipment code is required"))
		return
	}

	ref, err := h.evidence.StorePhoto(r.Context(), code, file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"ref": ref})
}

// UploadSignature stores the caller's signature under their role.
// Multipart field: file.
func (h *EvidenceHandler) UploadSignature(w http.ResponseWriter, r *http.Request) {
	const op = "EvidenceHandler.UploadSignature"

	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	file, err := h.formFile(w, r, op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	defer file.Close()

	ref, err := h.evidence.StoreSignature(r.Context(), user.Role, file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"ref": ref})
}

// Serve streams a stored photo or signature.
func (h *EvidenceHandler) Serve(w http.ResponseWriter, r *http.Request) {
	rc, info, err := h.evidence.Open(r.Context(), r.PathValue("key"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=86400, immutable")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("evidence stream interrupted", "ref", info.Key, "error", err)
	}
}

// formFile parses the multipart body and opens the "file" part.
func (h *EvidenceHandler) formFile(w http.ResponseWriter, r *http.Request, op string) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.Errorf(domain.ETOOLARGE, op, "The file exceeds the %d MB limit.", service.MaxUploadBytes>>20)
		}
		return nil, domain.NewValidationError(op, "file", "Expected a multipart/form-data upload")
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, domain.NewValidationError(op, "file", "File is required")
	}
	return file, nil
}
