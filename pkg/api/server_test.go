package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/burrow/pkg/controller"
	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/policy"
	"github.com/cuemby/burrow/pkg/steps"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	states []types.DesiredGroupState
}

func (s *staticSource) DesiredStates() []types.DesiredGroupState { return s.states }

func (s *staticSource) GroupPolicies(groupID string) ([]policy.Policy, policy.Limits, bool) {
	for _, d := range s.states {
		if d.GroupID == groupID {
			return []policy.Policy{{ID: "scale-up", Type: policy.TypeChange, Change: 1}},
				policy.Limits{MaxEntities: 10}, true
		}
	}
	return nil, policy.Limits{}, false
}

type stubRequester struct{}

func (stubRequester) Request(_ context.Context, _ steps.ServiceType, method, path string, _ any) (int, []byte, error) {
	switch {
	case method == "GET" && path == "servers/detail?limit=100":
		return 200, []byte(`{"servers": []}`), nil
	case method == "GET" && path == "loadbalancers":
		return 200, []byte(`{"loadBalancers": []}`), nil
	}
	return 200, nil, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *events.Broker) {
	t.Helper()

	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)

	ctrl := controller.NewController(controller.Options{
		Source: &staticSource{states: []types.DesiredGroupState{{
			GroupID:      "grp-1",
			LaunchConfig: types.LaunchConfig{Server: map[string]any{"flavorRef": "2"}},
			Desired:      1,
		}}},
		Requester: stubRequester{},
		Broker:    broker,
		Interval:  time.Hour,
	})
	ctrl.Start()
	t.Cleanup(ctrl.Stop)

	// The first cycle runs on Start; wait for its result to land.
	require.Eventually(t, func() bool {
		_, ok := ctrl.LastResult("grp-1")
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	s := NewServer(":0", ctrl, broker, "test")
	return httptest.NewServer(s.httpServer.Handler), broker
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// TestHealthEndpoint tests /healthz.
func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	var health healthResponse
	status := getJSON(t, ts.URL+"/healthz", &health)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
}

// TestGroupEndpoints tests the last-cycle views.
func TestGroupEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	var results []controller.CycleResult
	status := getJSON(t, ts.URL+"/v1/groups", &results)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, results, 1)
	assert.Equal(t, "grp-1", results[0].GroupID)
	assert.Equal(t, 1, results[0].StepsPlanned)

	var result controller.CycleResult
	status = getJSON(t, ts.URL+"/v1/groups/grp-1", &result)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "grp-1", result.GroupID)

	status = getJSON(t, ts.URL+"/v1/groups/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// TestEventsEndpoint tests the recent-events view and limit validation.
func TestEventsEndpoint(t *testing.T) {
	ts, broker := newTestServer(t)
	defer ts.Close()

	// The startup cycle has already published events.
	require.Eventually(t, func() bool {
		return len(broker.Recent(0)) > 0
	}, 5*time.Second, 10*time.Millisecond)

	var evs []eventResponse
	status := getJSON(t, ts.URL+"/v1/events", &evs)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, evs)

	status = getJSON(t, ts.URL+"/v1/events?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

// TestExecutePolicyEndpoint tests the policy webhook.
func TestExecutePolicyEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/groups/grp-1/policies/scale-up/execute", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out struct {
		GroupID string `json:"group_id"`
		Desired int    `json:"desired"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "grp-1", out.GroupID)
	assert.Equal(t, 2, out.Desired)

	resp, err = http.Post(ts.URL+"/v1/groups/nope/policies/scale-up/execute", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/v1/groups/grp-1/policies/nope/execute", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestMetricsEndpoint tests that Prometheus metrics are exposed.
func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
