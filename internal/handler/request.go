package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return domain.Errorf(domain.ETOOLARGE, op, "Request body exceeds %d bytes", maxJSONBody)
		case errors.Is(err, io.EOF):
			return domain.NewValidationError(op, "body", "Request body is required")
		default:
			return domain.NewValidationError(op, "body", "Request body is not valid JSON: "+err.Error())
		}
	}
	if dec.More() {
		return domain.NewValidationError(op, "body", "Request body must contain a single JSON object")
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request, op string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(op, "id", "Report id must be a positive integer")
	}
	return id, nil
}

// writeDocument streams a rendered document as an attachment.
func writeDocument(w http.ResponseWriter, doc *domain.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}
