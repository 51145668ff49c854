package executor

import (
	"context"
	"fmt"

	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/retry"
	"github.com/cuemby/burrow/pkg/steps"
	"github.com/cuemby/burrow/pkg/transport"
	"golang.org/x/sync/errgroup"
)

// clbNode is the wire shape of one node in the batch add body.
type clbNode struct {
	Address   string `json:"address"`
	Port      int    `json:"port"`
	Weight    int    `json:"weight"`
	Condition string `json:"condition"`
	Type      string `json:"type"`
}

// addNodesRequest builds the batch request for AddNodesToLoadBalancer,
// which has no direct mapping in the translation table: all address
// configs go to the load balancer's nodes endpoint in one body.
func addNodesRequest(st steps.AddNodesToLoadBalancer) steps.Request {
	nodes := make([]clbNode, 0, len(st.AddressConfigs))
	for _, ac := range st.AddressConfigs {
		nodes = append(nodes, clbNode{
			Address:   ac.Address,
			Port:      ac.Config.Port,
			Weight:    ac.Config.Weight,
			Condition: string(ac.Config.Condition),
			Type:      string(ac.Config.Type),
		})
	}
	return steps.Request{
		Service:      steps.ServiceLoadBalancers,
		Method:       "POST",
		Path:         fmt.Sprintf("loadbalancers/%s/nodes", st.LBID),
		Body:         map[string][]clbNode{"nodes": nodes},
		SuccessCodes: []int{200, 202},
	}
}

// toRequest resolves any step to its request, including the batch add.
func toRequest(s steps.Step) (steps.Request, error) {
	if add, ok := s.(steps.AddNodesToLoadBalancer); ok {
		return addNodesRequest(add), nil
	}
	return steps.ToRequest(s)
}

// Execute performs every step of an optimized convergence in parallel.
// Each request carries its own retry budget; sibling failures do not cancel
// in-flight requests, but any failed step fails the cycle, which is retried
// wholesale on the next schedule.
func Execute(ctx context.Context, rq transport.Requester, conv steps.Convergence) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range conv {
		s := s
		g.Go(func() error {
			err := perform(gctx, rq, s)
			result := "success"
			if err != nil {
				result = "error"
			}
			metrics.StepsExecutedTotal.WithLabelValues(string(s.Kind()), result).Inc()
			if err != nil {
				return fmt.Errorf("step %s failed: %w", s.Kind(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

func perform(ctx context.Context, rq transport.Requester, s steps.Step) error {
	req, err := toRequest(s)
	if err != nil {
		return err
	}

	success := req.SuccessCodes
	if len(success) == 0 {
		success = []int{200}
	}

	_, err = retry.Do(ctx, transport.CloudPolicy(), func(ctx context.Context) (struct{}, error) {
		status, body, err := rq.Request(ctx, req.Service, req.Method, req.Path, req.Body)
		if err != nil {
			return struct{}{}, err
		}
		for _, code := range success {
			if status == code {
				return struct{}{}, nil
			}
		}
		return struct{}{}, &transport.StatusError{Status: status, Body: string(body)}
	})
	return err
}
