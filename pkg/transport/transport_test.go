package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cuemby/burrow/pkg/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHTTPRequesterRequest tests URL joining, auth headers and body encoding.
func TestHTTPRequesterRequest(t *testing.T) {
	var gotPath, gotToken, gotContentType string
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Auth-Token")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer ts.Close()

	rq := NewHTTPRequester(map[steps.ServiceType]string{
		steps.ServiceCompute: ts.URL + "/v2/123456/",
	}, "secret-token")

	status, body, err := rq.Request(context.Background(), steps.ServiceCompute,
		"POST", "servers", map[string]string{"name": "web"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)
	assert.JSONEq(t, `{"ok": true}`, string(body))
	assert.Equal(t, "/v2/123456/servers", gotPath)
	assert.Equal(t, "secret-token", gotToken)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"name": "web"}`, string(gotBody))
}

// TestHTTPRequesterUnknownService tests the missing-endpoint error.
func TestHTTPRequesterUnknownService(t *testing.T) {
	rq := NewHTTPRequester(map[steps.ServiceType]string{}, "")

	_, _, err := rq.Request(context.Background(), steps.ServiceRCv3, "GET", "x", nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no endpoint configured")
}

// TestIsTransient tests the retry classification of failures.
func TestIsTransient(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"network error", errors.New("connection refused"), true},
		{"server error", &StatusError{Status: 503}, true},
		{"rate limited", &StatusError{Status: 429}, true},
		{"not found", &StatusError{Status: 404}, false},
		{"bad request", &StatusError{Status: 400}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

// TestGetJSONRetriesTransientFailures tests that a 503 is retried and the
// eventual 200 decoded.
func TestGetJSONRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"count": 3})
	}))
	defer ts.Close()

	rq := NewHTTPRequester(map[steps.ServiceType]string{steps.ServiceCompute: ts.URL}, "")

	var out struct {
		Count int `json:"count"`
	}
	err := GetJSON(context.Background(), rq, steps.ServiceCompute, "servers", &out)

	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
	assert.Equal(t, int32(2), calls.Load())
}

// TestGetJSONDoesNotRetryNotFound tests that a 404 fails immediately.
func TestGetJSONDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	rq := NewHTTPRequester(map[steps.ServiceType]string{steps.ServiceCompute: ts.URL}, "")

	err := GetJSON(context.Background(), rq, steps.ServiceCompute, "servers/gone", nil)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, int32(1), calls.Load())
}
