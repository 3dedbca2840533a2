package handler

import (
	"time"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/service"
)

// =============================================================================
// Response Types
// =============================================================================

type equipmentJSON struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

func toEquipmentJSON(e domain.EquipmentDescriptor) equipmentJSON {
	return equipmentJSON{Category: string(e.Category), Code: e.Code, Name: e.Name}
}

type itemJSON struct {
	Section     string `json:"section"`
	Item        string `json:"item"`
	Status      string `json:"status"`
	Observation string `json:"observation,omitempty"`
	PhotoRef    string `json:"photo_ref,omitempty"`
}

type draftJSON struct {
	Equipment   equipmentJSON `json:"equipment"`
	Items       []itemJSON    `json:"items"`
	Condition   string        `json:"condition"`
	Disposition string        `json:"disposition"`
}

func toDraftJSON(d *domain.ChecklistDraft) draftJSON {
	condition, disposition := d.Preview()
	out := draftJSON{
		Equipment:   toEquipmentJSON(d.Equipment),
		Items:       make([]itemJSON, 0, len(d.Entries)),
		Condition:   string(condition),
		Disposition: string(disposition),
	}
	for _, item := range d.Items() {
		out.Items = append(out.Items, toItemJSON(item))
	}
	return out
}

func toItemJSON(i domain.InspectionItem) itemJSON {
	return itemJSON{
		Section:     i.Section,
		Item:        i.Item,
		Status:      string(i.Status),
		Observation: i.Observation,
		PhotoRef:    i.PhotoRef,
	}
}

type reportJSON struct {
	ID                     int64         `json:"id"`
	Equipment              equipmentJSON `json:"equipment"`
	MeterReading           int64         `json:"meter_reading"`
	OperatorUser           string        `json:"operator_user"`
	OperatorName           string        `json:"operator_name"`
	CreatedAt              time.Time     `json:"created_at"`
	CreatedDate            string        `json:"created_date"`
	Condition              string        `json:"condition"`
	Disposition            string        `json:"disposition"`
	GeneralObservation     string        `json:"general_observation,omitempty"`
	OperatorSignatureRef   string        `json:"operator_signature_ref"`
	State                  string        `json:"approval_state"`
	SupervisorUser         string        `json:"supervisor_user,omitempty"`
	SupervisorName         string        `json:"supervisor_name,omitempty"`
	SupervisorSignatureRef string        `json:"supervisor_signature_ref,omitempty"`
	ApprovedAt             *time.Time    `json:"approved_at,omitempty"`
	DocumentRef            string        `json:"document_ref,omitempty"`
	Items                  []itemJSON    `json:"items,omitempty"`
}

func toReportJSON(r *domain.Report) reportJSON {
	out := reportJSON{
		ID:                     r.ID,
		Equipment:              toEquipmentJSON(r.Equipment),
		MeterReading:           r.MeterReading,
		OperatorUser:           r.OperatorUser,
		OperatorName:           r.OperatorName,
		CreatedAt:              r.CreatedAt,
		CreatedDate:            r.CreatedDate.Format(domain.DateLayout),
		Condition:              string(r.Condition),
		Disposition:            string(r.Disposition),
		GeneralObservation:     r.GeneralObservation,
		OperatorSignatureRef:   r.OperatorSignatureRef,
		State:                  string(r.State),
		SupervisorUser:         r.SupervisorUser,
		SupervisorName:         r.SupervisorName,
		SupervisorSignatureRef: r.SupervisorSignatureRef,
		ApprovedAt:             r.ApprovedAt,
		DocumentRef:            r.DocumentRef,
	}
	for _, item := range r.Items {
		out.Items = append(out.Items, toItemJSON(item))
	}
	return out
}

// approvalJSON acknowledges an approval whose report could not be read back.
type approvalJSON struct {
	ID             int64     `json:"id"`
	State          string    `json:"approval_state"`
	SupervisorUser string    `json:"supervisor_user"`
	SupervisorName string    `json:"supervisor_name"`
	ApprovedAt     time.Time `json:"approved_at"`
}

func toApprovalJSON(res *service.ApproveResult) approvalJSON {
	return approvalJSON{
		ID:             res.ReportID,
		State:          string(domain.ApprovalStateApproved),
		SupervisorUser: res.Approval.SupervisorUser,
		SupervisorName: res.Approval.SupervisorName,
		ApprovedAt:     res.Approval.ApprovedAt,
	}
}

type pendingJSON struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	EquipmentCode string    `json:"equipment_code"`
	EquipmentName string    `json:"equipment_name"`
	OperatorName  string    `json:"operator_name"`
	Condition     string    `json:"condition"`
	Disposition   string    `json:"disposition"`
}

func toPendingJSON(s domain.ReportSummary) pendingJSON {
	return pendingJSON{
		ID:            s.ID,
		CreatedAt:     s.CreatedAt,
		EquipmentCode: s.EquipmentCode,
		EquipmentName: s.EquipmentName,
		OperatorName:  s.OperatorName,
		Condition:     string(s.Condition),
		Disposition:   string(s.Disposition),
	}
}

type rankJSON struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type dayJSON struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type summaryJSON struct {
	Start                      string          `json:"start,omitempty"`
	End                        string          `json:"end,omitempty"`
	Total                      int             `json:"total"`
	DistinctOperators          int             `json:"distinct_operators"`
	CatalogSize                int             `json:"catalog_size"`
	EquipmentWithSubmission    int             `json:"equipment_with_submission"`
	EquipmentWithoutSubmission int             `json:"equipment_without_submission"`
	FaultCount                 int             `json:"fault_count"`
	Dispositions               map[string]int  `json:"dispositions"`
	TopEquipment               []rankJSON      `json:"top_equipment"`
	TopOperators               []rankJSON      `json:"top_operators"`
	FaultsByEquipment          []rankJSON      `json:"faults_by_equipment"`
	Trend                      []dayJSON       `json:"trend"`
	IdleEquipment              []equipmentJSON `json:"idle_equipment"`
}

func toSummaryJSON(r domain.DateRange, s *domain.Summary) summaryJSON {
	out := summaryJSON{
		Total:                      s.Total,
		DistinctOperators:          s.DistinctOperators,
		CatalogSize:                s.CatalogSize,
		EquipmentWithSubmission:    s.EquipmentWithSubmission,
		EquipmentWithoutSubmission: s.EquipmentWithoutSubmission,
		FaultCount:                 s.FaultCount,
		Dispositions:               make(map[string]int, len(domain.Dispositions)),
		TopEquipment:               toRankJSON(domain.Top(s.TopEquipment, 10)),
		TopOperators:               toRankJSON(domain.Top(s.TopOperators, 10)),
		FaultsByEquipment:          toRankJSON(s.FaultsByEquipment),
		Trend:                      []dayJSON{},
		IdleEquipment:              make([]equipmentJSON, 0, len(s.Idle)),
	}
	if !r.Start.IsZero() {
		out.Start = r.Start.Format(domain.DateLayout)
	}
	if !r.End.IsZero() {
		out.End = r.End.Format(domain.DateLayout)
	}
	for _, d := range domain.Dispositions {
		out.Dispositions[string(d)] = s.Dispositions[d]
	}
	for _, e := range s.Idle {
		out.IdleEquipment = append(out.IdleEquipment, toEquipmentJSON(e))
	}
	for _, dc := range s.Trend() {
		out.Trend = append(out.Trend, dayJSON{Date: dc.Date.Format(domain.DateLayout), Count: dc.Count})
	}
	return out
}

func toRankJSON(entries []domain.RankEntry) []rankJSON {
	out := make([]rankJSON, len(entries))
	for i, e := range entries {
		out[i] = rankJSON{Key: e.Key, Label: e.Label, Count: e.Count}
	}
	return out
}

type userJSON struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserJSON(u *domain.User) userJSON {
	return userJSON{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// =============================================================================
// Request Types
// =============================================================================

type submitRequest struct {
	EquipmentCode        string     `json:"equipment_code"`
	MeterReading         int64      `json:"meter_reading"`
	Items                []itemJSON `json:"items"`
	GeneralObservation   string     `json:"general_observation"`
	OperatorSignatureRef string     `json:"operator_signature_ref"`
}

func (req submitRequest) items() []domain.InspectionItem {
	out := make([]domain.InspectionItem, len(req.Items))
	for i, item := range req.Items {
		out[i] = domain.InspectionItem{
			Section:     item.Section,
			Item:        item.Item,
			Status:      domain.ItemStatus(item.Status),
			Observation: item.Observation,
			PhotoRef:    item.PhotoRef,
		}
	}
	return out
}

type approveRequest struct {
	SupervisorName         string `json:"supervisor_name"`
	SupervisorSignatureRef string `json:"supervisor_signature_ref"`
}

type createUserRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
}
