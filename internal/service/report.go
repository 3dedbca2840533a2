// Package service contains the business logic layer.
//
// This file implements the report lifecycle: submission, the pending queue,
// supervisor approval, checklist documents and management summaries.
package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/metrics"
	"github.com/DukeRupert/equipcheck/internal/report"
	"github.com/DukeRupert/equipcheck/internal/storage"
	"github.com/DukeRupert/equipcheck/internal/store"
)

// ContentTypePDF is the content type of every rendered document.
const ContentTypePDF = "application/pdf"

// DefaultSupervisorName is printed when an approval carries no name.
const DefaultSupervisorName = "Miguel Alarcón"

// =============================================================================
// Interface Definition
// =============================================================================

// ReportService drives a report from submission to approval.
type ReportService interface {
	// Submit validates a checklist and stores it as PENDING.
	// Returns domain.EINVALID for unknown equipment, negative meter readings
	// and *domain.SubmissionError for missing signature or evidence.
	Submit(ctx context.Context, params SubmitParams) (int64, error)

	// ListPending returns the approval queue, newest first.
	// An unreachable store yields an empty queue.
	ListPending(ctx context.Context) ([]domain.ReportSummary, error)

	// GetDetail returns a report with its items in submission order.
	// Returns domain.ENOTFOUND when the report does not exist.
	GetDetail(ctx context.Context, id int64) (*domain.Report, error)

	// Approve countersigns a pending report and stores its checklist.
	// Returns domain.ENOTFOUND for unknown reports and domain.ECONFLICT
	// when the report was already approved.
	Approve(ctx context.Context, params ApproveParams) (*ApproveResult, error)

	// RenderDocument renders the checklist document of a report.
	RenderDocument(ctx context.Context, id int64) (*domain.Document, error)

	// Summarize aggregates the reports created in the range.
	// An unreachable store yields an empty summary.
	Summarize(ctx context.Context, r domain.DateRange) (*domain.Summary, error)

	// RenderSummaryDocument renders and stores the management report.
	RenderSummaryDocument(ctx context.Context, r domain.DateRange, supervisorName string) (*domain.Document, error)
}

// SubmitParams is a completed checklist as sent by an operator.
type SubmitParams struct {
	EquipmentCode        string
	MeterReading         int64
	OperatorUser         string
	OperatorName         string
	Items                []domain.InspectionItem
	GeneralObservation   string
	OperatorSignatureRef string
}

// ApproveParams carries the supervisor countersignature.
type ApproveParams struct {
	ReportID               int64
	SupervisorUser         string
	SupervisorName         string
	SupervisorSignatureRef string
}

// ApproveResult acknowledges a recorded approval. Report is nil when the
// approval was stored but the report could not be read back.
type ApproveResult struct {
	ReportID int64
	Approval domain.Approval
	Report   *domain.Report
}

// ReportConfig holds the lifecycle settings taken from configuration.
type ReportConfig struct {
	// Location decides the calendar day a report belongs to.
	Location *time.Location

	// DefaultSupervisor replaces a blank supervisor name.
	DefaultSupervisor string
}

// =============================================================================
// Implementation
// =============================================================================

type reportService struct {
	reports store.ReportStore
	catalog *domain.Catalog
	blobs   storage.Storage
	docs    *report.Generator
	cfg     ReportConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(
	reports store.ReportStore,
	catalog *domain.Catalog,
	blobs storage.Storage,
	docs *report.Generator,
	cfg ReportConfig,
	logger *slog.Logger,
) ReportService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultSupervisor == "" {
		cfg.DefaultSupervisor = DefaultSupervisorName
	}
	return &reportService{
		reports: reports,
		catalog: catalog,
		blobs:   blobs,
		docs:    docs,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// =============================================================================
// Submit
// =============================================================================

func (s *reportService) Submit(ctx context.Context, params SubmitParams) (int64, error) {
	const op = "ReportService.Submit"

	equipment, ok := s.catalog.Lookup(strings.TrimSpace(params.EquipmentCode))
	if !ok {
		return 0, domain.Invalid(op, "Unknown equipment code: "+params.EquipmentCode)
	}
	if params.MeterReading < 0 {
		return 0, domain.Invalid(op, "Meter reading must be zero or greater")
	}
	if strings.TrimSpace(params.OperatorUser) == "" {
		return 0, domain.Invalid(op, "Operator is required")
	}

	items := make([]domain.InspectionItem, len(params.Items))
	for i, item := range params.Items {
		item.Observation = strings.TrimSpace(item.Observation)
		item.PhotoRef = strings.TrimSpace(item.PhotoRef)
		items[i] = item
	}
	if err := domain.ValidateSubmission(items, params.OperatorSignatureRef); err != nil {
		return 0, err
	}

	r := &domain.Report{
		Equipment:            equipment,
		MeterReading:         params.MeterReading,
		OperatorUser:         params.OperatorUser,
		OperatorName:         params.OperatorName,
		GeneralObservation:   strings.TrimSpace(params.GeneralObservation),
		OperatorSignatureRef: strings.TrimSpace(params.OperatorSignatureRef),
		State:                domain.ApprovalStatePending,
		Items:                items,
	}
	if r.OperatorName == "" {
		r.OperatorName = r.OperatorUser
	}
	r.Condition, r.Disposition = domain.ComputeResult(r.Statuses())

	now := s.now()
	r.CreatedAt = store.Truncate(now)
	r.CreatedDate = domain.DateOf(now, s.cfg.Location)

	id, err := s.reports.CreateReport(ctx, r)
	if err != nil {
		s.unavailable(err, op)
		return 0, err
	}

	metrics.ReportSubmitted(string(r.Disposition))
	s.logger.Info("report submitted",
		"report_id", id,
		"equipment", equipment.Code,
		"operator", r.OperatorUser,
		"disposition", r.Disposition,
		"items", len(items),
	)
	return id, nil
}

// =============================================================================
// Queue and Detail
// =============================================================================

func (s *reportService) ListPending(ctx context.Context) ([]domain.ReportSummary, error) {
	const op = "ReportService.ListPending"

	reports, err := s.reports.ListReports(ctx, store.Pending())
	if err != nil {
		if domain.IsUnavailable(err) {
			s.unavailable(err, op)
			return []domain.ReportSummary{}, nil
		}
		return nil, err
	}

	out := make([]domain.ReportSummary, len(reports))
	for i := range reports {
		out[i] = reports[i].Summary()
	}
	return out, nil
}

func (s *reportService) GetDetail(ctx context.Context, id int64) (*domain.Report, error) {
	r, err := s.reports.GetReport(ctx, id)
	if err != nil {
		s.unavailable(err, "ReportService.GetDetail")
		return nil, err
	}
	return r, nil
}

// =============================================================================
// Approve
// =============================================================================

func (s *reportService) Approve(ctx context.Context, params ApproveParams) (*ApproveResult, error) {
	const op = "ReportService.Approve"

	ref := strings.TrimSpace(params.SupervisorSignatureRef)
	if ref == "" {
		return nil, domain.Wrap(domain.ErrMissingSignature, domain.EINVALID, op, "Supervisor signature is required")
	}

	name := strings.TrimSpace(params.SupervisorName)
	if name == "" {
		name = s.cfg.DefaultSupervisor
	}

	approval := domain.Approval{
		SupervisorUser:         params.SupervisorUser,
		SupervisorName:         name,
		SupervisorSignatureRef: ref,
		ApprovedAt:             store.Truncate(s.now()),
	}
	err := s.reports.ApproveReport(ctx, params.ReportID, approval)
	if err != nil {
		s.unavailable(err, op)
		return nil, err
	}

	metrics.ReportApproved()
	s.logger.Info("report approved", "report_id", params.ReportID, "supervisor", params.SupervisorUser)

	result := &ApproveResult{ReportID: params.ReportID, Approval: approval}

	r, err := s.reports.GetReport(ctx, params.ReportID)
	if err != nil {
		// The approval stands; the document is rebuilt on demand.
		s.logger.Error("failed to reload approved report", "report_id", params.ReportID, "error", err)
		return result, nil
	}

	if _, err := s.storeChecklist(ctx, r); err != nil {
		s.logger.Error("failed to store checklist document", "report_id", r.ID, "error", err)
	}
	result.Report = r
	return result, nil
}

// =============================================================================
// Documents
// =============================================================================

func (s *reportService) RenderDocument(ctx context.Context, id int64) (*domain.Document, error) {
	const op = "ReportService.RenderDocument"

	r, err := s.reports.GetReport(ctx, id)
	if err != nil {
		s.unavailable(err, op)
		return nil, err
	}

	if r.State == domain.ApprovalStateApproved && r.DocumentRef == "" {
		doc, err := s.storeChecklist(ctx, r)
		if err == nil {
			return doc, nil
		}
		s.logger.Warn("failed to store checklist document", "report_id", id, "error", err)
	}

	data, err := s.docs.Checklist(ctx, r, s.cfg.DefaultSupervisor)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to render checklist")
	}
	metrics.DocumentRendered(metrics.KindChecklist)
	return &domain.Document{Name: report.ChecklistName(r), ContentType: ContentTypePDF, Data: data}, nil
}

// storeChecklist renders the checklist, stores it and records its key.
func (s *reportService) storeChecklist(ctx context.Context, r *domain.Report) (*domain.Document, error) {
	const op = "ReportService.storeChecklist"

	data, err := s.docs.Checklist(ctx, r, s.cfg.DefaultSupervisor)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to render checklist")
	}
	metrics.DocumentRendered(metrics.KindChecklist)

	doc := &domain.Document{Name: report.ChecklistName(r), ContentType: ContentTypePDF, Data: data}
	key := storage.ChecklistKey(r.ID, doc.Name)

	err = s.blobs.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{ContentType: ContentTypePDF, Overwrite: true})
	if err != nil {
		return nil, storage.ToDomain(err, op)
	}
	metrics.Stored(metrics.KindChecklist)

	if err := s.reports.SetDocumentRef(ctx, r.ID, key); err != nil {
		return nil, err
	}
	r.DocumentRef = key

	s.logger.Info("checklist document stored", "report_id", r.ID, "ref", key, "size", len(data))
	return doc, nil
}

// =============================================================================
// Summaries
// =============================================================================

func (s *reportService) Summarize(ctx context.Context, r domain.DateRange) (*domain.Summary, error) {
	reports, err := s.inRange(ctx, r, "ReportService.Summarize")
	if err != nil {
		return nil, err
	}
	return domain.Summarize(reports, s.catalog), nil
}

func (s *reportService) RenderSummaryDocument(ctx context.Context, r domain.DateRange, supervisorName string) (*domain.Document, error) {
	const op = "ReportService.RenderSummaryDocument"

	reports, err := s.inRange(ctx, r, op)
	if err != nil {
		return nil, err
	}

	start, end := s.bounds(r, reports)
	name := strings.TrimSpace(supervisorName)
	if name == "" {
		name = s.cfg.DefaultSupervisor
	}

	data, err := s.docs.Management(ctx, report.SummaryInput{
		Start:          start,
		End:            end,
		SupervisorName: name,
		Summary:        domain.Summarize(reports, s.catalog),
		Reports:        reports,
		Photos:         s.faultPhotos(ctx, reports),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to render management report")
	}
	metrics.DocumentRendered(metrics.KindSummary)

	doc := &domain.Document{Name: report.SummaryName(start, end), ContentType: ContentTypePDF, Data: data}

	key := storage.SummaryKey(doc.Name)
	err = s.blobs.Put(ctx, key, bytes.NewReader(data), storage.PutOptions{ContentType: ContentTypePDF, Overwrite: true})
	if err != nil {
		s.logger.Warn("failed to store management report", "ref", key, "error", err)
	} else {
		metrics.Stored(metrics.KindSummary)
	}

	s.logger.Info("management report rendered", "start", start.Format(domain.DateLayout),
		"end", end.Format(domain.DateLayout), "reports", len(reports))
	return doc, nil
}

// inRange loads the reports of a range. Store outages degrade to no reports.
func (s *reportService) inRange(ctx context.Context, r domain.DateRange, op string) ([]domain.Report, error) {
	reports, err := s.reports.ListReports(ctx, store.InRange(r))
	if err != nil {
		if domain.IsUnavailable(err) {
			s.unavailable(err, op)
			return nil, nil
		}
		return nil, err
	}
	return reports, nil
}

// bounds resolves an all-time range to the first submission day through today.
func (s *reportService) bounds(r domain.DateRange, reports []domain.Report) (time.Time, time.Time) {
	today := domain.DateOf(s.now(), s.cfg.Location)
	start, end := r.Start, r.End
	if start.IsZero() {
		start = today
		for _, rep := range reports {
			if rep.CreatedDate.Before(start) {
				start = rep.CreatedDate
			}
		}
	}
	if end.IsZero() {
		end = today
	}
	return start, end
}

// faultPhotos collects the evidence of every faulty report in the range.
// Reports that cannot be loaded are skipped.
func (s *reportService) faultPhotos(ctx context.Context, reports []domain.Report) []report.FaultPhoto {
	var photos []report.FaultPhoto
	for _, rep := range reports {
		if !rep.Condition.IsFault() {
			continue
		}
		full, err := s.reports.GetReport(ctx, rep.ID)
		if err != nil {
			s.logger.Warn("skipping fault photos", "report_id", rep.ID, "error", err)
			continue
		}
		for _, item := range full.EvidenceItems() {
			photos = append(photos, report.FaultPhoto{
				Date:          full.CreatedDate,
				EquipmentCode: full.Equipment.Code,
				EquipmentName: full.Equipment.Name,
				Section:       item.Section,
				Item:          item.Item,
				Ref:           item.PhotoRef,
			})
		}
	}
	return photos
}

// unavailable logs and counts store outages.
func (s *reportService) unavailable(err error, op string) {
	if !domain.IsUnavailable(err) {
		return
	}
	metrics.Unavailable(op)
	s.logger.Warn("record store unavailable", "op", op, "error", err)
}
