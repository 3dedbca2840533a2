package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingSignature is returned when an operator or supervisor signature
// reference is empty.
var ErrMissingSignature = errors.New("signature is required")

// MissingEvidence names one item that needs a photo and has none.
type MissingEvidence struct {
	Index   int
	Section string
	Item    string
	Status  ItemStatus
}

func (m MissingEvidence) String() string {
	return fmt.Sprintf("%s / %s", m.Section, m.Item)
}

// SubmissionError lists every reason a checklist cannot become PENDING.
type SubmissionError struct {
	MissingSignature bool
	MissingEvidence  []MissingEvidence
	NoItems          bool
	InvalidStatus    []int
}

func (e *SubmissionError) Error() string {
	var parts []string
	if e.NoItems {
		parts = append(parts, "checklist has no items")
	}
	if e.MissingSignature {
		parts = append(parts, "operator signature is required")
	}
	for _, idx := range e.InvalidStatus {
		parts = append(parts, fmt.Sprintf("item %d has no valid status", idx+1))
	}
	for _, m := range e.MissingEvidence {
		parts = append(parts, "photo required for "+m.String())
	}
	return "submission rejected: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrMissingSignature) match a submission that was
// rejected for its signature.
func (e *SubmissionError) Is(target error) bool {
	return target == ErrMissingSignature && e.MissingSignature
}

// Fields flattens the error for field-level API responses.
func (e *SubmissionError) Fields() map[string]string {
	fields := make(map[string]string)
	if e.NoItems {
		fields["items"] = "At least one checklist item is required"
	}
	if e.MissingSignature {
		fields["operator_signature"] = "Operator signature is required"
	}
	for _, idx := range e.InvalidStatus {
		fields[fmt.Sprintf("items[%d].status", idx)] = "Status must be OPERATIONAL, OPERATIONAL_WITH_FAULT or INOPERATIVE"
	}
	for _, m := range e.MissingEvidence {
		fields[fmt.Sprintf("items[%d].photo_ref", m.Index)] = "Photo required for " + m.Item
	}
	return fields
}

// ValidateSubmission checks a checklist before it is stored: a non-empty
// operator signature and a photo on every item whose status is not
// OPERATIONAL. All offending items are reported. It has no side effects.
func ValidateSubmission(items []InspectionItem, operatorSignature string) error {
	var e SubmissionError

	if len(items) == 0 {
		e.NoItems = true
	}
	if strings.TrimSpace(operatorSignature) == "" {
		e.MissingSignature = true
	}
	for i, item := range items {
		if !item.Status.IsValid() {
			e.InvalidStatus = append(e.InvalidStatus, i)
			continue
		}
		if item.Status.RequiresEvidence() && strings.TrimSpace(item.PhotoRef) == "" {
			e.MissingEvidence = append(e.MissingEvidence, MissingEvidence{
				Index:   i,
				Section: item.Section,
				Item:    item.Item,
				Status:  item.Status,
			})
		}
	}

	if e.NoItems || e.MissingSignature || len(e.InvalidStatus) > 0 || len(e.MissingEvidence) > 0 {
		return &e
	}
	return nil
}
