package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/executor"
	"github.com/cuemby/burrow/pkg/gather"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/plan"
	"github.com/cuemby/burrow/pkg/policy"
	"github.com/cuemby/burrow/pkg/steps"
	"github.com/cuemby/burrow/pkg/transport"
	"github.com/cuemby/burrow/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// GroupSource supplies the desired state of every group under management.
// It is consulted once per cycle.
type GroupSource interface {
	DesiredStates() []types.DesiredGroupState
}

// PolicySource is implemented by sources whose groups carry scaling
// policies. Sources without it simply cannot execute policies.
type PolicySource interface {
	GroupPolicies(groupID string) ([]policy.Policy, policy.Limits, bool)
}

// Options configures a Controller.
type Options struct {
	Source        GroupSource
	Requester     transport.Requester
	Broker        *events.Broker
	Interval      time.Duration
	CycleTimeout  time.Duration
	BuildTimeout  time.Duration
	MaxConcurrent int
}

// CycleResult summarizes the last convergence attempt for one group.
type CycleResult struct {
	CycleID         string                 `json:"cycle_id"`
	GroupID         string                 `json:"group_id"`
	StartedAt       time.Time              `json:"started_at"`
	FinishedAt      time.Time              `json:"finished_at"`
	ObservedServers int                    `json:"observed_servers"`
	StepsPlanned    int                    `json:"steps_planned"`
	StepsByKind     map[steps.StepKind]int `json:"steps_by_kind,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// Controller runs the reconciliation loop: every interval it gathers the
// observed cloud state once, then converges each configured group against
// it, executing the planned steps.
type Controller struct {
	opts      Options
	mu        sync.RWMutex
	last      map[string]CycleResult
	overrides map[string]int       // group id -> desired set by policy execution
	lastExec  map[string]time.Time // group id + "/" + policy id -> last execution
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewController creates a new controller
func NewController(opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = 5 * time.Minute
	}
	if opts.BuildTimeout <= 0 {
		opts.BuildTimeout = plan.DefaultBuildTimeout
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 10
	}
	return &Controller{
		opts:      opts,
		last:      make(map[string]CycleResult),
		overrides: make(map[string]int),
		lastExec:  make(map[string]time.Time),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the reconciliation loop
func (c *Controller) Start() {
	go c.run()
}

// Stop stops the controller and waits for the loop to exit
func (c *Controller) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

func (c *Controller) run() {
	defer close(c.doneCh)

	logger := log.WithComponent("controller")

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	// Converge immediately on start, then on every tick.
	c.cycle()

	for {
		select {
		case <-ticker.C:
			c.cycle()
		case <-c.stopCh:
			logger.Info().Msg("controller stopped")
			return
		}
	}
}

// cycle performs one full reconciliation pass over all groups.
func (c *Controller) cycle() {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.CycleTimeout)
	defer cancel()

	cycleID := uuid.New().String()
	logger := log.WithCycleID(cycleID)

	desired := c.opts.Source.DesiredStates()
	c.applyOverrides(desired)
	metrics.GroupsConfigured.Set(float64(len(desired)))
	if len(desired) == 0 {
		return
	}

	c.publish(&events.Event{Type: events.EventCycleStarted, Message: fmt.Sprintf("converging %d groups", len(desired))})

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ConvergenceDuration)

	// One shared gather per cycle: the server listing covers every group,
	// and load-balancer contents are tenant-wide anyway.
	grouped, lbNodes, err := c.observe(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("gather failed, cycle abandoned")
		metrics.ConvergenceCyclesTotal.WithLabelValues("error").Inc()
		c.publish(&events.Event{Type: events.EventCycleFailed, Message: err.Error()})
		return
	}

	// Converge groups independently, bounded so a wide config does not
	// stampede the cloud APIs.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.MaxConcurrent)
	for _, d := range desired {
		d := d
		g.Go(func() error {
			c.convergeGroup(gctx, cycleID, d, grouped[d.GroupID], lbNodes)
			return nil
		})
	}
	_ = g.Wait()

	metrics.ConvergenceCyclesTotal.WithLabelValues("success").Inc()
	c.publish(&events.Event{Type: events.EventCycleConverged})
}

// observe gathers the observed state shared by every group this cycle.
func (c *Controller) observe(ctx context.Context) (map[string][]types.NovaServer, []types.LBNode, error) {
	grouped, err := gather.ScalingGroupServers(ctx, c.opts.Requester, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to gather servers: %w", err)
	}
	lbNodes, err := gather.LoadBalancerContents(ctx, c.opts.Requester)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to gather load balancers: %w", err)
	}
	return grouped, lbNodes, nil
}

// convergeGroup plans and executes the steps for one group.
func (c *Controller) convergeGroup(ctx context.Context, cycleID string, desired types.DesiredGroupState, servers []types.NovaServer, lbNodes []types.LBNode) {
	logger := log.WithGroupID(desired.GroupID)
	result := CycleResult{
		CycleID:         cycleID,
		GroupID:         desired.GroupID,
		StartedAt:       time.Now(),
		ObservedServers: len(servers),
	}

	observed := make(map[types.ServerState]int)
	for _, s := range servers {
		observed[s.State]++
	}
	for state, n := range observed {
		metrics.ServersObserved.WithLabelValues(desired.GroupID, string(state)).Set(float64(n))
	}

	conv := steps.Optimize(plan.Converge(desired, servers, lbNodes, time.Now(), c.opts.BuildTimeout))

	result.StepsPlanned = len(conv)
	if len(conv) > 0 {
		result.StepsByKind = make(map[steps.StepKind]int)
		for _, s := range conv {
			result.StepsByKind[s.Kind()]++
			metrics.StepsPlannedTotal.WithLabelValues(string(s.Kind())).Inc()
		}
	}

	if len(conv) == 0 {
		logger.Debug().Msg("group already converged")
		c.publish(&events.Event{Type: events.EventGroupConverged, GroupID: desired.GroupID})
		c.record(result)
		return
	}

	logger.Info().Int("steps", len(conv)).Msg("group diverged, executing plan")
	c.publish(&events.Event{
		Type:    events.EventGroupDiverged,
		GroupID: desired.GroupID,
		Message: fmt.Sprintf("%d steps planned", len(conv)),
	})

	if err := executor.Execute(ctx, c.opts.Requester, conv); err != nil {
		logger.Error().Err(err).Msg("failed to execute plan")
		result.Error = err.Error()
		c.record(result)
		return
	}

	c.publish(&events.Event{
		Type:    events.EventStepsExecuted,
		GroupID: desired.GroupID,
		Message: fmt.Sprintf("%d steps executed", len(conv)),
	})
	c.record(result)
}

// PlanGroup gathers current state and returns the optimized step bag for
// one group without executing anything. Used by the CLI's dry-run command.
func (c *Controller) PlanGroup(ctx context.Context, desired types.DesiredGroupState) (steps.Convergence, error) {
	grouped, lbNodes, err := c.observe(ctx)
	if err != nil {
		return nil, err
	}
	return steps.Optimize(plan.Converge(desired, grouped[desired.GroupID], lbNodes, time.Now(), c.opts.BuildTimeout)), nil
}

// ErrUnknownGroup is returned when a group id has no configuration.
var ErrUnknownGroup = errors.New("unknown group")

// ErrUnknownPolicy is returned when a group has no policy with the given id.
var ErrUnknownPolicy = errors.New("unknown policy")

// ErrNoPolicies is returned when the configured source carries no policies.
var ErrNoPolicies = errors.New("source does not define policies")

// ExecutePolicy fires one scaling policy: the group's desired capacity is
// adjusted within its limits, and the new value takes effect from the next
// cycle. Cooldowns are enforced per policy.
func (c *Controller) ExecutePolicy(groupID, policyID string) (int, error) {
	ps, ok := c.opts.Source.(PolicySource)
	if !ok {
		return 0, ErrNoPolicies
	}
	policies, limits, ok := ps.GroupPolicies(groupID)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownGroup, groupID)
	}

	var pol policy.Policy
	found := false
	for _, p := range policies {
		if p.ID == policyID {
			pol, found = p, true
			break
		}
	}
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPolicy, policyID)
	}

	now := time.Now()
	key := groupID + "/" + policyID

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := policy.CheckCooldown(pol, c.lastExec[key], now); err != nil {
		return 0, err
	}

	current, ok := c.overrides[groupID]
	if !ok {
		current = c.configuredDesired(groupID)
	}
	next, err := policy.Apply(pol, current, limits)
	if err != nil {
		return 0, err
	}

	c.overrides[groupID] = next
	c.lastExec[key] = now

	logger := log.WithGroupID(groupID)
	logger.Info().
		Str("policy_id", policyID).
		Int("desired", next).
		Msg("scaling policy executed")
	c.publish(&events.Event{
		Type:    events.EventPolicyExecuted,
		GroupID: groupID,
		Message: fmt.Sprintf("policy %s set desired capacity to %d", policyID, next),
	})
	return next, nil
}

// configuredDesired returns the source's desired capacity for one group.
// Callers hold c.mu.
func (c *Controller) configuredDesired(groupID string) int {
	for _, d := range c.opts.Source.DesiredStates() {
		if d.GroupID == groupID {
			return d.Desired
		}
	}
	return 0
}

// applyOverrides replaces configured desired capacities with values set by
// policy executions.
func (c *Controller) applyOverrides(desired []types.DesiredGroupState) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range desired {
		if n, ok := c.overrides[desired[i].GroupID]; ok {
			desired[i].Desired = n
		}
	}
}

func (c *Controller) record(result CycleResult) {
	result.FinishedAt = time.Now()
	c.mu.Lock()
	c.last[result.GroupID] = result
	c.mu.Unlock()
}

func (c *Controller) publish(event *events.Event) {
	if c.opts.Broker != nil {
		c.opts.Broker.Publish(event)
	}
}

// LastResults returns the most recent cycle result per group.
func (c *Controller) LastResults() []CycleResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]CycleResult, 0, len(c.last))
	for _, r := range c.last {
		out = append(out, r)
	}
	return out
}

// LastResult returns the most recent cycle result for one group.
func (c *Controller) LastResult(groupID string) (CycleResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.last[groupID]
	return r, ok
}
