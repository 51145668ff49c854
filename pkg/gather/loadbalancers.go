package gather

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cuemby/burrow/pkg/steps"
	"github.com/cuemby/burrow/pkg/transport"
	"github.com/cuemby/burrow/pkg/types"
	"golang.org/x/sync/errgroup"
)

type loadBalancerList struct {
	LoadBalancers []struct {
		ID int `json:"id"`
	} `json:"loadBalancers"`
}

type nodeList struct {
	Nodes []clbNodeJSON `json:"nodes"`
}

type clbNodeJSON struct {
	ID          int    `json:"id"`
	Address     string `json:"address"`
	Port        int    `json:"port"`
	Weight      int    `json:"weight"`
	Condition   string `json:"condition"`
	Type        string `json:"type"`
	Connections *int   `json:"connections,omitempty"`
}

func (n clbNodeJSON) toLBNode(lbID string) types.LBNode {
	weight := n.Weight
	if weight == 0 {
		weight = 1
	}
	return types.LBNode{
		LBID:        lbID,
		NodeID:      strconv.Itoa(n.ID),
		Address:     n.Address,
		Connections: n.Connections,
		Config: types.LBConfig{
			Port:      n.Port,
			Weight:    weight,
			Condition: types.NodeCondition(n.Condition),
			Type:      types.NodeType(n.Type),
		},
	}
}

// LoadBalancerContents fetches the full node membership of every load
// balancer. It lists the load balancers, fetches each one's nodes in
// parallel, then fetches the activity feed of every DRAINING node in
// parallel to recover the time draining began. Each fan-out level joins
// completely before the next starts, and every call carries its own retry
// budget; one exhausted call fails the whole gather.
func LoadBalancerContents(ctx context.Context, rq transport.Requester) ([]types.LBNode, error) {
	var lbs loadBalancerList
	if err := transport.GetJSON(ctx, rq, steps.ServiceLoadBalancers, "loadbalancers", &lbs); err != nil {
		return nil, fmt.Errorf("failed to list load balancers: %w", err)
	}

	// Fan out one node fetch per load balancer.
	perLB := make([][]types.LBNode, len(lbs.LoadBalancers))
	g, gctx := errgroup.WithContext(ctx)
	for i, lb := range lbs.LoadBalancers {
		i := i
		lbID := strconv.Itoa(lb.ID)
		g.Go(func() error {
			var nodes nodeList
			path := fmt.Sprintf("loadbalancers/%s/nodes", lbID)
			if err := transport.GetJSON(gctx, rq, steps.ServiceLoadBalancers, path, &nodes); err != nil {
				return fmt.Errorf("failed to list nodes for load balancer %s: %w", lbID, err)
			}
			built := make([]types.LBNode, 0, len(nodes.Nodes))
			for _, n := range nodes.Nodes {
				built = append(built, n.toLBNode(lbID))
			}
			perLB[i] = built
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []types.LBNode
	for _, nodes := range perLB {
		all = append(all, nodes...)
	}

	// Fan out one feed fetch per draining node. Non-draining nodes never
	// incur the feed call.
	g, gctx = errgroup.WithContext(ctx)
	for i := range all {
		if all[i].Config.Condition != types.ConditionDraining {
			continue
		}
		node := &all[i]
		g.Go(func() error {
			path := fmt.Sprintf("loadbalancers/%s/nodes/%s.atom", node.LBID, node.NodeID)
			feed, err := transport.GetRaw(gctx, rq, steps.ServiceLoadBalancers, path)
			if err != nil {
				return fmt.Errorf("failed to fetch feed for node %s on load balancer %s: %w", node.NodeID, node.LBID, err)
			}
			drainedAt, err := ExtractDrainedAt(feed)
			if err != nil {
				return fmt.Errorf("node %s on load balancer %s: %w", node.NodeID, node.LBID, err)
			}
			node.DrainedAt = drainedAt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return all, nil
}
