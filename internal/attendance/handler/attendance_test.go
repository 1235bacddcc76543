package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/hrflow/hrflow-backend/pkg/actor"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/hrflow/hrflow-backend/pkg/httputil"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/hrflow/hrflow-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	companyID  = "11111111-1111-1111-1111-111111111111"
	employeeID = "22222222-2222-2222-2222-222222222222"
	userID     = "33333333-3333-3333-3333-333333333333"
)

type fakeReconciler struct {
	rangeReq   service.RangeRequest
	rangeActor string
	date       time.Time
	employeeID string
	month      string
	err        error
}

func (f *fakeReconciler) ReconcileRange(ctx context.Context, req service.RangeRequest) (*service.RunSummary, error) {
	f.rangeReq = req
	f.rangeActor = actor.IDFromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &service.RunSummary{
		RunID:                   "run-1",
		Trigger:                 req.Trigger,
		CompanyID:               req.CompanyID,
		DateFrom:                req.DateFrom,
		DateTo:                  req.DateTo,
		Processed:               3,
		Created:                 3,
		PermissionConsumedHours: decimal.NewFromInt(2),
		Failures:                []service.DayFailure{},
	}, nil
}

func (f *fakeReconciler) ReconcileDate(_ context.Context, date time.Time) (*service.RunSummary, error) {
	f.date = date
	if f.err != nil {
		return nil, f.err
	}
	return &service.RunSummary{RunID: "run-2", Trigger: service.TriggerScheduled, Failures: []service.DayFailure{}}, nil
}

func (f *fakeReconciler) PermissionLedger(_ context.Context, employeeID, month string) (*service.LedgerStatement, error) {
	f.employeeID, f.month = employeeID, month
	if f.err != nil {
		return nil, f.err
	}
	return &service.LedgerStatement{EmployeeID: employeeID, Month: "2024-03", Balance: decimal.NewFromInt(1)}, nil
}

func newRouter(svc Reconciler) http.Handler {
	h := NewAttendanceHandler(svc, logger.Nop())
	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(httputil.ActorFromHeaders)
	r.Route("/api/v1/attendance", func(r chi.Router) {
		h.Routes(r, nil)
	})
	return r
}

func TestReconcile_MapsRequest(t *testing.T) {
	svc := &fakeReconciler{}
	router := newRouter(svc)

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/attendance/reconcile", map[string]any{
		"company_id":     companyID,
		"date_from":      "2024-03-01",
		"date_to":        "2024-03-03",
		"staff_id":       employeeID,
		"include_absent": false,
	})
	testutil.WithUserHeaders(req, userID, "hr@example.com")
	rr := testutil.ExecuteRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, service.RangeRequest{
		CompanyID:  companyID,
		DateFrom:   "2024-03-01",
		DateTo:     "2024-03-03",
		EmployeeID: employeeID,
		SkipAbsent: true,
		Trigger:    service.TriggerBackfill,
	}, svc.rangeReq)
	assert.Equal(t, userID, svc.rangeActor)

	var body struct {
		Success bool               `json:"success"`
		Data    service.RunSummary `json:"data"`
	}
	testutil.ParseJSONBody(t, rr, &body)
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Data.Processed)
	assert.True(t, decimal.NewFromInt(2).Equal(body.Data.PermissionConsumedHours))
}

func TestReconcile_IncludeAbsentDefaultsToTrue(t *testing.T) {
	svc := &fakeReconciler{}
	rr := testutil.ExecuteRequest(newRouter(svc), testutil.NewHTTPRequest(http.MethodPost, "/api/v1/attendance/reconcile", map[string]any{
		"company_id": companyID,
		"date_from":  "2024-03-01",
		"date_to":    "2024-03-01",
	}))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.False(t, svc.rangeReq.SkipAbsent)
	assert.Equal(t, actor.SystemID, svc.rangeActor)
}

func TestReconcile_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		field   string
		message string
	}{
		{"missing company", map[string]any{"date_from": "2024-03-01", "date_to": "2024-03-02"}, "company_id", "this field is required"},
		{"company not a uuid", map[string]any{"company_id": "acme", "date_from": "2024-03-01", "date_to": "2024-03-02"}, "company_id", "must be a valid UUID"},
		{"bad date", map[string]any{"company_id": companyID, "date_from": "01/03/2024", "date_to": "2024-03-02"}, "date_from", "must be a date in YYYY-MM-DD format"},
		{"staff not a uuid", map[string]any{"company_id": companyID, "date_from": "2024-03-01", "date_to": "2024-03-02", "staff_id": "7"}, "staff_id", "must be a valid UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeReconciler{}
			rr := testutil.ExecuteRequest(newRouter(svc), testutil.NewHTTPRequest(http.MethodPost, "/api/v1/attendance/reconcile", tt.body))

			testutil.AssertStatus(t, rr, http.StatusBadRequest)
			var body httputil.Response
			testutil.ParseJSONBody(t, rr, &body)
			require.NotNil(t, body.Error)
			assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Details[tt.field])
			assert.Empty(t, svc.rangeReq.CompanyID, "service must not be called")
		})
	}
}

func TestReconcile_RejectsUnknownFields(t *testing.T) {
	rr := testutil.ExecuteRequest(newRouter(&fakeReconciler{}), testutil.NewHTTPRequest(http.MethodPost, "/api/v1/attendance/reconcile", map[string]any{
		"company_id": companyID,
		"date_from":  "2024-03-01",
		"date_to":    "2024-03-01",
		"tenant":     "x",
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "invalid JSON body")
}

func TestReconcile_RejectsNonUUIDActor(t *testing.T) {
	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/attendance/reconcile", map[string]any{
		"company_id": companyID, "date_from": "2024-03-01", "date_to": "2024-03-01",
	})
	testutil.WithUserHeaders(req, "admin", "")
	rr := testutil.ExecuteRequest(newRouter(&fakeReconciler{}), req)
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertBodyContains(t, rr, "X-User-ID must be a UUID")
}

func TestReconcile_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown company", errors.NotFound("company"), http.StatusNotFound},
		{"range too long", errors.InvalidInput("date range exceeds 366 days"), http.StatusBadRequest},
		{"unexpected", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.ExecuteRequest(newRouter(&fakeReconciler{err: tt.err}), testutil.NewHTTPRequest(http.MethodPost, "/api/v1/attendance/reconcile", map[string]any{
				"company_id": companyID, "date_from": "2024-03-01", "date_to": "2024-03-01",
			}))
			testutil.AssertStatus(t, rr, tt.status)
		})
	}
}

func TestReconcileDaily(t *testing.T) {
	svc := &fakeReconciler{}
	rr := testutil.ExecuteRequest(newRouter(svc), testutil.NewHTTPRequest(http.MethodPost, "/api/v1/attendance/reconcile/daily", map[string]any{
		"date": "2024-03-19",
	}))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC), svc.date)
	testutil.AssertBodyContains(t, rr, `"trigger":"scheduled"`)
}

func TestReconcileDaily_ConflictWhenRunning(t *testing.T) {
	rr := testutil.ExecuteRequest(newRouter(&fakeReconciler{err: service.ErrRunInProgress}), testutil.NewHTTPRequest(http.MethodPost, "/api/v1/attendance/reconcile/daily", map[string]any{
		"date": "2024-03-19",
	}))

	testutil.AssertStatus(t, rr, http.StatusConflict)
	testutil.AssertBodyContains(t, rr, "already in progress")
}

func TestReconcileDaily_RequiresDate(t *testing.T) {
	svc := &fakeReconciler{}
	rr := testutil.ExecuteRequest(newRouter(svc), testutil.NewHTTPRequest(http.MethodPost, "/api/v1/attendance/reconcile/daily", map[string]any{}))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.True(t, svc.date.IsZero())
}

func TestPermissionLedger(t *testing.T) {
	svc := &fakeReconciler{}
	rr := testutil.ExecuteRequest(newRouter(svc), testutil.NewHTTPRequest(http.MethodGet, "/api/v1/attendance/permission-ledger/"+employeeID+"?month=2024-03", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, employeeID, svc.employeeID)
	assert.Equal(t, "2024-03", svc.month)
	testutil.AssertBodyContains(t, rr, `"balance":"1"`)
}

func TestPermissionLedger_NotFound(t *testing.T) {
	rr := testutil.ExecuteRequest(newRouter(&fakeReconciler{err: errors.NotFound("employee")}), testutil.NewHTTPRequest(http.MethodGet, "/api/v1/attendance/permission-ledger/"+employeeID, nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestRoutes_AppliesLimiterToRuns(t *testing.T) {
	limited := 0
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limited++
			next.ServeHTTP(w, r)
		})
	}

	h := NewAttendanceHandler(&fakeReconciler{}, logger.Nop())
	r := chi.NewRouter()
	h.Routes(r, limit)

	testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/reconcile/daily", map[string]any{"date": "2024-03-19"}))
	testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet, "/permission-ledger/"+employeeID, nil))

	assert.Equal(t, 1, limited)
}
