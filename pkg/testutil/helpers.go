package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewHTTPRequest builds a handler request. A non-nil body is sent as JSON.
func NewHTTPRequest(method, path string, body interface{}) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		panic("testutil: unencodable request body: " + err.Error())
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUserHeaders sets the identity headers the gateway forwards. Empty values are left out.
func WithUserHeaders(req *http.Request, userID, email string) *http.Request {
	for header, value := range map[string]string{
		"X-User-ID":    userID,
		"X-User-Email": email,
	} {
		if value != "" {
			req.Header.Set(header, value)
		}
	}
	return req
}

// ExecuteRequest serves req and returns the recorded response.
func ExecuteRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// AssertStatus checks the status code and prints the body on mismatch.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "body: %s", rr.Body.String())
}

// AssertBodyContains checks for a substring of the raw body.
func AssertBodyContains(t *testing.T, rr *httptest.ResponseRecorder, expected string) {
	t.Helper()
	if !strings.Contains(rr.Body.String(), expected) {
		t.Errorf("response body %q does not contain %q", rr.Body.String(), expected)
	}
}

// ParseJSONBody decodes the response body into target.
func ParseJSONBody(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), target), "body: %s", rr.Body.String())
}

// DefaultTestContext is cancelled after 30 seconds or when the test ends.
func DefaultTestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
