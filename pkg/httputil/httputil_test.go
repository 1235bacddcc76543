package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hrflow/hrflow-backend/pkg/actor"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestError_AppError(t *testing.T) {
	rr := httptest.NewRecorder()
	Error(rr, errors.NotFound("company"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decode(t, rr)
	assert.False(t, resp.Success)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "company not found", resp.Error.Message)
}

func TestError_HidesUnexpectedErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	Error(rr, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), assert.AnError.Error())
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	type body struct {
		CompanyID string `json:"company_id" validate:"required,uuid"`
		Date      string `json:"date" validate:"required,date"`
		Month     string `json:"month,omitempty" validate:"omitempty,month"`
	}

	err := Validate(body{CompanyID: "x", Date: "2024-02-30", Month: "2024-13"})
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, map[string]string{
		"company_id": "must be a valid UUID",
		"date":       "must be a date in YYYY-MM-DD format",
		"month":      "must be a month in YYYY-MM format",
	}, appErr.Details)

	assert.NoError(t, Validate(body{CompanyID: "11111111-1111-1111-1111-111111111111", Date: "2024-02-29"}))
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var v struct {
		Date string `json:"date"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"date":"2024-03-01","extra":1}`))
	assert.Error(t, DecodeJSON(req, &v))
}

func TestActorFromHeaders(t *testing.T) {
	var got *actor.Actor
	h := ActorFromHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = actor.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "33333333-3333-3333-3333-333333333333")
	req.Header.Set("X-User-Email", "hr@example.com")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, actor.Actor{ID: "33333333-3333-3333-3333-333333333333", Email: "hr@example.com"}, *got)
	assert.Equal(t, "hr@example.com", got.String())

	got = nil
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Nil(t, got)
	assert.True(t, got.IsSystem())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "root")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "req-1", got)
	assert.Equal(t, "req-1", rr.Header().Get("X-Request-ID"))
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil shift")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, rr).Error.Code)
}
