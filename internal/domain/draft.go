package domain

import "strings"

// DraftEntry is one editable checklist line before submission.
type DraftEntry struct {
	Section     string
	Item        string
	Status      ItemStatus
	Observation string
	PhotoRef    string
}

// ChecklistDraft is the per-session checklist an operator fills out for one
// selected unit. Selecting a different unit produces a new draft; nothing of
// the previous one carries over.
type ChecklistDraft struct {
	Equipment          EquipmentDescriptor
	MeterReading       int64
	GeneralObservation string
	Entries            []DraftEntry
}

// NewChecklistDraft builds a draft with every template item set to
// OPERATIONAL.
func NewChecklistDraft(equipment EquipmentDescriptor, template ChecklistTemplate) *ChecklistDraft {
	d := &ChecklistDraft{
		Equipment: equipment,
		Entries:   make([]DraftEntry, 0, template.ItemCount()),
	}
	for _, section := range template.Sections {
		for _, item := range section.Items {
			d.Entries = append(d.Entries, DraftEntry{
				Section: section.Name,
				Item:    item,
				Status:  ItemStatusOperational,
			})
		}
	}
	return d
}

// DraftFor resolves a unit in the catalog and builds a fresh draft for it.
func DraftFor(catalog *Catalog, code string) (*ChecklistDraft, error) {
	const op = "draft.new"

	equipment, ok := catalog.Lookup(code)
	if !ok {
		return nil, NotFound(op, "equipment", code)
	}
	template, ok := catalog.Template(equipment.Category)
	if !ok {
		return nil, Errorf(EINTERNAL, op, "no template for category %q", equipment.Category)
	}
	return NewChecklistDraft(equipment, template), nil
}

// Reselect switches the draft to another unit. The returned draft is rebuilt
// from the new unit's template; the receiver is left untouched.
func (d *ChecklistDraft) Reselect(catalog *Catalog, code string) (*ChecklistDraft, error) {
	if d != nil && d.Equipment.Code == code {
		return d, nil
	}
	return DraftFor(catalog, code)
}

func (d *ChecklistDraft) entry(section, item string) (*DraftEntry, error) {
	for i := range d.Entries {
		if d.Entries[i].Section == section && d.Entries[i].Item == item {
			return &d.Entries[i], nil
		}
	}
	return nil, Errorf(EINVALID, "draft.entry", "%q is not part of the %s checklist", item, d.Equipment.Code)
}

// SetStatus records the status of one line. Moving back to OPERATIONAL
// drops any attached photo.
func (d *ChecklistDraft) SetStatus(section, item string, status ItemStatus) error {
	if !status.IsValid() {
		return Errorf(EINVALID, "draft.status", "unknown status %q", status)
	}
	e, err := d.entry(section, item)
	if err != nil {
		return err
	}
	e.Status = status
	if !status.RequiresEvidence() {
		e.PhotoRef = ""
	}
	return nil
}

// SetObservation records the free-text note of one line.
func (d *ChecklistDraft) SetObservation(section, item, observation string) error {
	e, err := d.entry(section, item)
	if err != nil {
		return err
	}
	e.Observation = strings.TrimSpace(observation)
	return nil
}

// AttachPhoto records the evidence reference of one line.
func (d *ChecklistDraft) AttachPhoto(section, item, ref string) error {
	e, err := d.entry(section, item)
	if err != nil {
		return err
	}
	e.PhotoRef = ref
	return nil
}

// Items converts the draft into submittable inspection items.
func (d *ChecklistDraft) Items() []InspectionItem {
	items := make([]InspectionItem, len(d.Entries))
	for i, e := range d.Entries {
		items[i] = InspectionItem{
			Section:     e.Section,
			Item:        e.Item,
			Status:      e.Status,
			Observation: e.Observation,
			PhotoRef:    e.PhotoRef,
		}
	}
	return items
}

// Preview returns the verdict the draft would get if submitted now.
func (d *ChecklistDraft) Preview() (Condition, Disposition) {
	statuses := make([]ItemStatus, len(d.Entries))
	for i, e := range d.Entries {
		statuses[i] = e.Status
	}
	return ComputeResult(statuses)
}

// PendingEvidence lists the lines that still need a photo.
func (d *ChecklistDraft) PendingEvidence() []DraftEntry {
	var out []DraftEntry
	for _, e := range d.Entries {
		if e.Status.RequiresEvidence() && e.PhotoRef == "" {
			out = append(out, e)
		}
	}
	return out
}

// Validate runs the submission checks against the draft.
func (d *ChecklistDraft) Validate(operatorSignature string) error {
	return ValidateSubmission(d.Items(), operatorSignature)
}
