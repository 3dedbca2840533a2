// Package domain contains core business types and interfaces.
//
// This file defines the inspection report, its items, the derived verdicts
// and the two-state approval lifecycle.
package domain

import (
	"time"
)

// =============================================================================
// Item Status
// =============================================================================

// ItemStatus is the state an operator records for one checklist line.
type ItemStatus string

const (
	ItemStatusOperational          ItemStatus = "OPERATIONAL"
	ItemStatusOperationalWithFault ItemStatus = "OPERATIONAL_WITH_FAULT"
	ItemStatusInoperative          ItemStatus = "INOPERATIVE"
)

// String returns the string representation of the status.
func (s ItemStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusOperational, ItemStatusOperationalWithFault, ItemStatusInoperative:
		return true
	}
	return false
}

// RequiresEvidence returns true when an item in this status must carry a photo.
func (s ItemStatus) RequiresEvidence() bool {
	return s != ItemStatusOperational
}

// Label returns the label printed on checklists.
func (s ItemStatus) Label() string {
	switch s {
	case ItemStatusOperational:
		return "OPERATIVO"
	case ItemStatusOperationalWithFault:
		return "OPERATIVO CON FALLA"
	case ItemStatusInoperative:
		return "INOPERATIVO"
	}
	return string(s)
}

// =============================================================================
// Derived Verdicts
// =============================================================================

// Condition is the overall equipment health derived from item statuses.
type Condition string

const (
	ConditionOperational Condition = "OPERATIONAL"
	ConditionFault       Condition = "FAULT"
	ConditionInoperative Condition = "INOPERATIVE"
)

// IsValid returns true if the condition is a recognized value.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionOperational, ConditionFault, ConditionInoperative:
		return true
	}
	return false
}

// IsFault returns true for FAULT and INOPERATIVE.
func (c Condition) IsFault() bool {
	return c == ConditionFault || c == ConditionInoperative
}

// Label returns the label printed on documents.
func (c Condition) Label() string {
	switch c {
	case ConditionOperational:
		return "OPERATIVO"
	case ConditionFault:
		return "FALLA"
	case ConditionInoperative:
		return "INOPERATIVO"
	}
	return string(c)
}

// Disposition is the approval-relevant verdict derived from item statuses.
type Disposition string

const (
	DispositionFit        Disposition = "FIT"
	DispositionRestricted Disposition = "RESTRICTED"
	DispositionUnfit      Disposition = "UNFIT"
)

// Dispositions lists every disposition in display order.
var Dispositions = []Disposition{DispositionFit, DispositionRestricted, DispositionUnfit}

// IsValid returns true if the disposition is a recognized value.
func (d Disposition) IsValid() bool {
	switch d {
	case DispositionFit, DispositionRestricted, DispositionUnfit:
		return true
	}
	return false
}

// Label returns the label printed on documents.
func (d Disposition) Label() string {
	switch d {
	case DispositionFit:
		return "APTO"
	case DispositionRestricted:
		return "RESTRICCIONES"
	case DispositionUnfit:
		return "NO APTO"
	}
	return string(d)
}

// ComputeResult derives the overall condition and disposition of a report
// from its item statuses. The first matching rule wins:
//
//  1. any INOPERATIVE            -> (INOPERATIVE, UNFIT)
//  2. any OPERATIONAL_WITH_FAULT -> (FAULT, RESTRICTED)
//  3. otherwise                  -> (OPERATIONAL, FIT)
//
// The result depends only on the multiset of statuses.
func ComputeResult(statuses []ItemStatus) (Condition, Disposition) {
	var fault bool
	for _, s := range statuses {
		switch s {
		case ItemStatusInoperative:
			return ConditionInoperative, DispositionUnfit
		case ItemStatusOperationalWithFault:
			fault = true
		}
	}
	if fault {
		return ConditionFault, DispositionRestricted
	}
	return ConditionOperational, DispositionFit
}

// =============================================================================
// Approval State
// =============================================================================

// ApprovalState represents the lifecycle state of a report.
type ApprovalState string

const (
	// ApprovalStatePending is assigned atomically when a report is created.
	ApprovalStatePending ApprovalState = "PENDING"

	// ApprovalStateApproved is terminal.
	ApprovalStateApproved ApprovalState = "APPROVED"
)

// IsValid returns true if the state is a recognized value.
func (s ApprovalState) IsValid() bool {
	return s == ApprovalStatePending || s == ApprovalStateApproved
}

// CanTransitionTo checks if a report can move to the target state.
// The only transition is PENDING -> APPROVED.
func (s ApprovalState) CanTransitionTo(target ApprovalState) bool {
	return s == ApprovalStatePending && target == ApprovalStateApproved
}

// Label returns the label printed on documents.
func (s ApprovalState) Label() string {
	switch s {
	case ApprovalStatePending:
		return "PENDIENTE"
	case ApprovalStateApproved:
		return "APROBADO"
	}
	return string(s)
}

// =============================================================================
// Report and Items
// =============================================================================

// InspectionItem is one submitted checklist line. It is created with its
// report and never changes afterwards.
type InspectionItem struct {
	Section     string
	Item        string
	Status      ItemStatus
	Observation string
	PhotoRef    string
}

// Report is one full equipment inspection submission.
//
// Condition and Disposition are always ComputeResult over the item statuses.
// Supervisor fields and ApprovedAt are set only by an approval.
type Report struct {
	ID                     int64
	Equipment              EquipmentDescriptor
	MeterReading           int64
	OperatorUser           string
	OperatorName           string
	CreatedAt              time.Time
	CreatedDate            time.Time
	Condition              Condition
	Disposition            Disposition
	GeneralObservation     string
	OperatorSignatureRef   string
	State                  ApprovalState
	SupervisorUser         string
	SupervisorName         string
	SupervisorSignatureRef string
	ApprovedAt             *time.Time
	DocumentRef            string
	Items                  []InspectionItem
}

// IsPending returns true if the report awaits a supervisor countersignature.
func (r *Report) IsPending() bool {
	return r.State == ApprovalStatePending
}

// Statuses returns the item statuses in submission order.
func (r *Report) Statuses() []ItemStatus {
	statuses := make([]ItemStatus, len(r.Items))
	for i, item := range r.Items {
		statuses[i] = item.Status
	}
	return statuses
}

// EvidenceItems returns the items that carry a photo.
func (r *Report) EvidenceItems() []InspectionItem {
	var out []InspectionItem
	for _, item := range r.Items {
		if item.PhotoRef != "" {
			out = append(out, item)
		}
	}
	return out
}

// Summary returns the row shown in the pending queue.
func (r *Report) Summary() ReportSummary {
	return ReportSummary{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		EquipmentCode: r.Equipment.Code,
		EquipmentName: r.Equipment.Name,
		OperatorName:  r.OperatorName,
		Disposition:   r.Disposition,
		Condition:     r.Condition,
	}
}

// ReportSummary is a compact view of a report for queue listings.
type ReportSummary struct {
	ID            int64
	CreatedAt     time.Time
	EquipmentCode string
	EquipmentName string
	OperatorName  string
	Disposition   Disposition
	Condition     Condition
}

// Approval carries the fields stamped on a report when it is approved.
type Approval struct {
	SupervisorUser         string
	SupervisorName         string
	SupervisorSignatureRef string
	ApprovedAt             time.Time
}

// Document is a rendered file ready to be streamed or stored.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// DateOf returns the calendar day of t in loc, as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the ISO-8601 calendar date layout used on every boundary.
const DateLayout = "2006-01-02"
