package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DukeRupert/equipcheck/internal/auth"
	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/service"
)

// ReportHandler handles the report lifecycle endpoints.
type ReportHandler struct {
	reports service.ReportService
	loc     *time.Location
	now     func() time.Time
	logger  *slog.Logger
}

// NewReportHandler creates a new ReportHandler. loc decides "today" for
// range presets.
func NewReportHandler(reports service.ReportService, loc *time.Location, logger *slog.Logger) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{
		reports: reports,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// RegisterRoutes registers the report routes.
//
// Routes:
// - POST /api/reports                -> Submit          (any user)
// - GET  /api/reports/pending        -> ListPending     (supervisor)
// - GET  /api/reports/{id}           -> Get             (any user)
// - POST /api/reports/{id}/approve   -> Approve         (supervisor)
// - GET  /api/reports/{id}/document  -> Document        (any user)
// - GET  /api/summary                -> Summary         (any user)
// - GET  /api/summary/document       -> SummaryDocument (supervisor)
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux, requireUser, requireSupervisor func(http.Handler) http.Handler) {
	mux.Handle("POST /api/reports", requireUser(http.HandlerFunc(h.Submit)))
	mux.Handle("GET /api/reports/pending", requireSupervisor(http.HandlerFunc(h.ListPending)))
	mux.Handle("GET /api/reports/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("POST /api/reports/{id}/approve", requireSupervisor(http.HandlerFunc(h.Approve)))
	mux.Handle("GET /api/reports/{id}/document", requireUser(http.HandlerFunc(h.Document)))
	mux.Handle("GET /api/summary", requireUser(http.HandlerFunc(h.Summary)))
	mux.Handle("GET /api/summary/document", requireSupervisor(http.HandlerFunc(h.SummaryDocument)))
}

// =============================================================================
// POST /api/reports - Submit
// =============================================================================

// Submit stores a completed checklist signed by the caller.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "ReportHandler.Submit"

	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req submitRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	id, err := h.reports.Submit(r.Context(), service.SubmitParams{
		EquipmentCode:        req.EquipmentCode,
		MeterReading:         req.MeterReading,
		OperatorUser:         user.Username,
		OperatorName:         user.DisplayName(),
		Items:                req.items(),
		GeneralObservation:   req.GeneralObservation,
		OperatorSignatureRef: req.OperatorSignatureRef,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	report, err := h.reports.GetDetail(r.Context(), id)
	if err != nil {
		// Stored; the detail can be fetched later.
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
		return
	}
	writeJSON(w, http.StatusCreated, toReportJSON(report))
}

// =============================================================================
// Queue and Detail
// =============================================================================

// ListPending returns the approval queue, newest first.
func (h *ReportHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.reports.ListPending(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]pendingJSON, len(pending))
	for i, p := range pending {
		out[i] = toPendingJSON(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

// Get returns a report with its items.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "ReportHandler.Get")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	report, err := h.reports.GetDetail(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportJSON(report))
}

// =============================================================================
// POST /api/reports/{id}/approve - Approve
// =============================================================================

// Approve countersigns a pending report as the calling supervisor.
func (h *ReportHandler) Approve(w http.ResponseWriter, r *http.Request) {
	const op = "ReportHandler.Approve"

	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathID(r, op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req approveRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	name := req.SupervisorName
	if strings.TrimSpace(name) == "" && user.FullName != "" {
		name = user.FullName
	}

	result, err := h.reports.Approve(r.Context(), service.ApproveParams{
		ReportID:               id,
		SupervisorUser:         user.Username,
		SupervisorName:         name,
		SupervisorSignatureRef: req.SupervisorSignatureRef,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if result.Report == nil {
		writeJSON(w, http.StatusOK, toApprovalJSON(result))
		return
	}
	writeJSON(w, http.StatusOK, toReportJSON(result.Report))
}

// =============================================================================
// Documents
// =============================================================================

// Document streams the checklist PDF of a report.
func (h *ReportHandler) Document(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "ReportHandler.Document")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	doc, err := h.reports.RenderDocument(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeDocument(w, doc)
}

// Summary returns the aggregate view of a date range.
//
// Query: range=daily|weekly|monthly|all (default daily), or start and end
// as YYYY-MM-DD.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r.URL.Query(), h.today())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	summary, err := h.reports.Summarize(r.Context(), rng)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(rng, summary))
}

// SummaryDocument streams the management report PDF.
// Accepts the Summary query plus supervisor=<name>.
func (h *ReportHandler) SummaryDocument(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := parseRange(q, h.today())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	supervisor := q.Get("supervisor")
	if supervisor == "" {
		if user := auth.GetUserFromRequest(r); user != nil {
			supervisor = user.FullName
		}
	}

	doc, err := h.reports.RenderSummaryDocument(r.Context(), rng, supervisor)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeDocument(w, doc)
}

func (h *ReportHandler) today() time.Time {
	return domain.DateOf(h.now(), h.loc)
}

// parseRange reads ?range=, ?start= and ?end=.
func parseRange(q url.Values, today time.Time) (domain.DateRange, error) {
	return domain.ParseRange(q.Get("range"), q.Get("start"), q.Get("end"), today)
}
