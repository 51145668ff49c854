package controller

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/policy"
	"github.com/cuemby/burrow/pkg/steps"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
}

// staticSource serves a fixed set of desired states.
type staticSource struct {
	states []types.DesiredGroupState
}

func (s *staticSource) DesiredStates() []types.DesiredGroupState {
	return s.states
}

// fakeRequester serves canned GET responses and records every mutating call.
type fakeRequester struct {
	mu        sync.Mutex
	responses map[string]string
	mutations []string
}

func (f *fakeRequester) Request(_ context.Context, _ steps.ServiceType, method, path string, _ any) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if method != "GET" {
		f.mutations = append(f.mutations, method+" "+path)
		return 200, nil, nil
	}
	if body, ok := f.responses[path]; ok {
		return 200, []byte(body), nil
	}
	return 404, []byte(`{"message": "not found"}`), nil
}

func (f *fakeRequester) mutated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.mutations...)
}

func group(desired int) types.DesiredGroupState {
	return types.DesiredGroupState{
		GroupID:      "grp-1",
		LaunchConfig: types.LaunchConfig{Server: map[string]any{"flavorRef": "2"}},
		Desired:      desired,
	}
}

const emptyCloud = `{"loadBalancers": []}`

// TestCycleCreatesMissingServers tests a full cycle against an empty group:
// the shortfall is created and the result recorded.
func TestCycleCreatesMissingServers(t *testing.T) {
	rq := &fakeRequester{responses: map[string]string{
		"servers/detail?limit=100": `{"servers": []}`,
		"loadbalancers":            emptyCloud,
	}}
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	c := NewController(Options{
		Source:    &staticSource{states: []types.DesiredGroupState{group(2)}},
		Requester: rq,
		Broker:    broker,
	})

	c.cycle()

	assert.Equal(t, []string{"POST servers", "POST servers"}, rq.mutated())

	result, ok := c.LastResult("grp-1")
	require.True(t, ok)
	assert.Equal(t, 2, result.StepsPlanned)
	assert.Equal(t, 2, result.StepsByKind[steps.KindCreateServer])
	assert.Empty(t, result.Error)

	require.Eventually(t, func() bool {
		for _, e := range broker.Recent(0) {
			if e.Type == events.EventGroupDiverged {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

// TestCycleConvergedGroupMutatesNothing tests that a group at capacity
// performs only the gather reads.
func TestCycleConvergedGroupMutatesNothing(t *testing.T) {
	rq := &fakeRequester{responses: map[string]string{
		"servers/detail?limit=100": `{"servers": [{
			"id": "srv-1",
			"status": "ACTIVE",
			"created": "2024-01-01T00:00:00Z",
			"addresses": {"private": [{"version": 4, "addr": "10.0.0.1"}]},
			"metadata": {"rax:auto_scaling_group_id": "grp-1"}
		}]}`,
		"loadbalancers": emptyCloud,
	}}

	c := NewController(Options{
		Source:    &staticSource{states: []types.DesiredGroupState{group(1)}},
		Requester: rq,
	})

	c.cycle()

	assert.Empty(t, rq.mutated())
	result, ok := c.LastResult("grp-1")
	require.True(t, ok)
	assert.Zero(t, result.StepsPlanned)
	assert.Equal(t, 1, result.ObservedServers)
}

// TestCycleGatherFailureAbandonsCycle tests that a failed gather plans and
// executes nothing.
func TestCycleGatherFailureAbandonsCycle(t *testing.T) {
	// No canned responses: the server listing 404s.
	rq := &fakeRequester{}

	c := NewController(Options{
		Source:    &staticSource{states: []types.DesiredGroupState{group(3)}},
		Requester: rq,
	})

	c.cycle()

	assert.Empty(t, rq.mutated())
	_, ok := c.LastResult("grp-1")
	assert.False(t, ok)
}

// TestPlanGroupDoesNotExecute tests the dry-run path.
func TestPlanGroupDoesNotExecute(t *testing.T) {
	rq := &fakeRequester{responses: map[string]string{
		"servers/detail?limit=100": `{"servers": []}`,
		"loadbalancers":            emptyCloud,
	}}

	c := NewController(Options{
		Source:    &staticSource{states: []types.DesiredGroupState{group(2)}},
		Requester: rq,
	})

	conv, err := c.PlanGroup(context.Background(), group(2))
	require.NoError(t, err)

	assert.Len(t, conv, 2)
	assert.Empty(t, rq.mutated())
}

// policySource serves desired states plus scaling policies.
type policySource struct {
	staticSource
	policies []policy.Policy
	limits   policy.Limits
}

func (s *policySource) GroupPolicies(groupID string) ([]policy.Policy, policy.Limits, bool) {
	for _, d := range s.states {
		if d.GroupID == groupID {
			return s.policies, s.limits, true
		}
	}
	return nil, policy.Limits{}, false
}

// TestExecutePolicy tests that a fired policy overrides the configured
// desired capacity on the next cycle.
func TestExecutePolicy(t *testing.T) {
	rq := &fakeRequester{responses: map[string]string{
		"servers/detail?limit=100": `{"servers": []}`,
		"loadbalancers":            emptyCloud,
	}}

	c := NewController(Options{
		Source: &policySource{
			staticSource: staticSource{states: []types.DesiredGroupState{group(1)}},
			policies:     []policy.Policy{{ID: "scale-up", Type: policy.TypeChange, Change: 2}},
			limits:       policy.Limits{MaxEntities: 5},
		},
		Requester: rq,
	})

	desired, err := c.ExecutePolicy("grp-1", "scale-up")
	require.NoError(t, err)
	assert.Equal(t, 3, desired)

	c.cycle()

	assert.Equal(t, []string{"POST servers", "POST servers", "POST servers"}, rq.mutated())
}

// TestExecutePolicyCompounds tests that repeated executions build on the
// overridden capacity and clamp at the group limit.
func TestExecutePolicyCompounds(t *testing.T) {
	c := NewController(Options{
		Source: &policySource{
			staticSource: staticSource{states: []types.DesiredGroupState{group(1)}},
			policies:     []policy.Policy{{ID: "scale-up", Type: policy.TypeChange, Change: 3}},
			limits:       policy.Limits{MaxEntities: 5},
		},
		Requester: &fakeRequester{},
	})

	desired, err := c.ExecutePolicy("grp-1", "scale-up")
	require.NoError(t, err)
	assert.Equal(t, 4, desired)

	desired, err = c.ExecutePolicy("grp-1", "scale-up")
	require.NoError(t, err)
	assert.Equal(t, 5, desired)
}

// TestExecutePolicyCooldown tests that a second firing inside the cooldown
// window is rejected.
func TestExecutePolicyCooldown(t *testing.T) {
	c := NewController(Options{
		Source: &policySource{
			staticSource: staticSource{states: []types.DesiredGroupState{group(1)}},
			policies:     []policy.Policy{{ID: "scale-up", Type: policy.TypeChange, Change: 1, Cooldown: time.Hour}},
		},
		Requester: &fakeRequester{},
	})

	_, err := c.ExecutePolicy("grp-1", "scale-up")
	require.NoError(t, err)

	_, err = c.ExecutePolicy("grp-1", "scale-up")
	assert.ErrorIs(t, err, policy.ErrCooldown)
}

// TestExecutePolicyErrors tests the unknown-group, unknown-policy and
// policy-less-source cases.
func TestExecutePolicyErrors(t *testing.T) {
	src := &policySource{
		staticSource: staticSource{states: []types.DesiredGroupState{group(1)}},
		policies:     []policy.Policy{{ID: "scale-up", Type: policy.TypeChange, Change: 1}},
	}
	c := NewController(Options{Source: src, Requester: &fakeRequester{}})

	_, err := c.ExecutePolicy("nope", "scale-up")
	assert.ErrorIs(t, err, ErrUnknownGroup)

	_, err = c.ExecutePolicy("grp-1", "nope")
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	plain := NewController(Options{Source: &staticSource{}, Requester: &fakeRequester{}})
	_, err = plain.ExecutePolicy("grp-1", "scale-up")
	assert.ErrorIs(t, err, ErrNoPolicies)
}

// TestStartStop tests loop lifecycle shutdown.
func TestStartStop(t *testing.T) {
	rq := &fakeRequester{responses: map[string]string{
		"servers/detail?limit=100": `{"servers": []}`,
		"loadbalancers":            emptyCloud,
	}}

	c := NewController(Options{
		Source:    &staticSource{},
		Requester: rq,
		Interval:  time.Hour,
	})

	c.Start()

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not stop")
	}
}
