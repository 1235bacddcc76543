package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/hrflow/hrflow-backend/pkg/httputil"
	"github.com/hrflow/hrflow-backend/pkg/logger"
)

// Reconciler is the part of the reconciliation service the HTTP layer drives.
type Reconciler interface {
	ReconcileRange(ctx context.Context, req service.RangeRequest) (*service.RunSummary, error)
	ReconcileDate(ctx context.Context, date time.Time) (*service.RunSummary, error)
	PermissionLedger(ctx context.Context, employeeID, month string) (*service.LedgerStatement, error)
}

// AttendanceHandler handles attendance reconciliation endpoints
type AttendanceHandler struct {
	service Reconciler
	logger  *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc Reconciler, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: svc,
		logger:  log,
	}
}

// ReconcileRequest is the body of a backfill request.
type ReconcileRequest struct {
	CompanyID string `json:"company_id" validate:"required,uuid"`
	DateFrom  string `json:"date_from" validate:"required,date"`
	DateTo    string `json:"date_to" validate:"required,date"`
	StaffID   string `json:"staff_id,omitempty" validate:"omitempty,uuid"`
	// IncludeAbsent defaults to true.
	IncludeAbsent *bool `json:"include_absent,omitempty"`
}

// DailyRequest is the body of a manual daily run.
type DailyRequest struct {
	Date string `json:"date" validate:"required,date"`
}

// Routes mounts the attendance endpoints. limit wraps the endpoints that start runs.
func (h *AttendanceHandler) Routes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/reconcile", h.Reconcile)
		r.Post("/reconcile/daily", h.ReconcileDaily)
	})
	r.Get("/permission-ledger/{employeeId}", h.PermissionLedger)
}

// ============================================================================
// RECONCILIATION
// ============================================================================

// Reconcile runs a backfill over a date range and returns the run summary.
// Day failures are reported in the summary, not as an error status.
func (h *AttendanceHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	summary, err := h.service.ReconcileRange(r.Context(), service.RangeRequest{
		CompanyID:  req.CompanyID,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		EmployeeID: req.StaffID,
		SkipAbsent: req.IncludeAbsent != nil && !*req.IncludeAbsent,
		Trigger:    service.TriggerBackfill,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	h.logger.Info().
		Str("request_id", httputil.GetRequestID(r.Context())).
		Str("run_id", summary.RunID).
		Int("processed", summary.Processed).
		Int("failed", len(summary.Failures)).
		Msg("backfill finished")

	httputil.JSON(w, http.StatusOK, summary)
}

// ReconcileDaily runs the scheduled reconciliation for one date on demand.
// It answers 409 when another run is in progress.
func (h *AttendanceHandler) ReconcileDaily(w http.ResponseWriter, r *http.Request) {
	var req DailyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		httputil.Error(w, errors.InvalidInput(err.Error()))
		return
	}

	summary, err := h.service.ReconcileDate(r.Context(), date)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// ============================================================================
// PERMISSION LEDGER
// ============================================================================

// PermissionLedger returns an employee's quota statement for ?month=YYYY-MM, defaulting
// to the current month.
func (h *AttendanceHandler) PermissionLedger(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")
	month := r.URL.Query().Get("month")

	statement, err := h.service.PermissionLedger(r.Context(), employeeID, month)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, statement)
}
