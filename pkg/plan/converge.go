package plan

import (
	"sort"
	"time"

	"github.com/cuemby/burrow/pkg/steps"
	"github.com/cuemby/burrow/pkg/types"
)

// DefaultBuildTimeout is how long a server may sit in BUILD before it is
// considered stuck and deleted.
const DefaultBuildTimeout = time.Hour

// Converge computes the steps that bring the observed state of one scaling
// group to its desired state. It is a pure function of its arguments: the
// same inputs always produce the same step bag, with no hidden state and no
// I/O, so unrelated groups can be converged concurrently without locking.
//
// The returned bag is complete or not at all; Converge never emits a
// partial plan.
func Converge(desired types.DesiredGroupState, servers []types.NovaServer, lbNodes []types.LBNode, now time.Time, buildTimeout time.Duration) steps.Convergence {
	lbsByAddress := make(map[string][]types.LBNode)
	for _, n := range lbNodes {
		lbsByAddress[n.Address] = append(lbsByAddress[n.Address], n)
	}

	// Newest first; ties keep enumeration order.
	sorted := append([]types.NovaServer(nil), servers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Created.After(sorted[j].Created)
	})

	var active, building, errored, draining []types.NovaServer
	for _, s := range sorted {
		switch s.State {
		case types.ServerStateActive:
			active = append(active, s)
		case types.ServerStateBuild:
			building = append(building, s)
		case types.ServerStateError:
			errored = append(errored, s)
		case types.ServerStateDraining:
			draining = append(draining, s)
		}
	}

	var buildingTooLong, waitingForBuild []types.NovaServer
	for _, s := range building {
		if now.Sub(s.Created) >= buildTimeout {
			buildingTooLong = append(buildingTooLong, s)
		} else {
			waitingForBuild = append(waitingForBuild, s)
		}
	}

	var out steps.Convergence

	// Create servers to cover the capacity shortfall. Servers still within
	// their build window count toward capacity; stuck builds do not.
	for i := 0; i < desired.Desired-(len(active)+len(waitingForBuild)); i++ {
		out = append(out, steps.CreateServer{ServerConfig: desired.LaunchConfig})
	}

	// Stuck builds are deleted unconditionally, independent of the capacity
	// math above.
	for _, s := range buildingTooLong {
		out = append(out, steps.DeleteServer{ServerID: s.ID})
	}

	// Scale-down selection: of the servers counting toward capacity, keep
	// the newest `desired` and retire the oldest excess. Servers already
	// mid-drain continue toward removal regardless of the capacity math.
	candidates := make([]types.NovaServer, 0, len(active)+len(waitingForBuild))
	candidates = append(candidates, active...)
	candidates = append(candidates, waitingForBuild...)

	var toDelete []types.NovaServer
	if len(candidates) > desired.Desired {
		toDelete = candidates[desired.Desired:]
	}

	deleting := make(map[string]bool, len(toDelete))
	for _, s := range toDelete {
		deleting[s.ID] = true
	}

	for _, s := range append(append([]types.NovaServer(nil), toDelete...), draining...) {
		out = append(out, drainAndDelete(s, desired.DrainingTimeout, lbsByAddress[s.ServiceNetAddress], now)...)
	}

	// Error servers are assumed not to be serving traffic: delete them and
	// pull their nodes without a graceful drain.
	for _, s := range errored {
		out = append(out, steps.DeleteServer{ServerID: s.ID})
		for _, n := range lbsByAddress[s.ServiceNetAddress] {
			out = append(out, steps.RemoveFromLoadBalancer{LBID: n.LBID, NodeID: n.NodeID})
		}
	}

	// Surviving active servers get their load-balancer attachments
	// reconciled against the desired set. Servers without a private address
	// are skipped; they cannot be registered anywhere yet.
	for _, s := range active {
		if deleting[s.ID] || s.ServiceNetAddress == "" {
			continue
		}
		out = append(out, convergeLBState(desired.DesiredLBs, lbsByAddress[s.ServiceNetAddress], s.ServiceNetAddress)...)
	}

	return out
}

// removeFromLBWithDraining plans the removal of a retiring server's nodes,
// draining gracefully where the group allows it.
//
// With no draining timeout every node is removed immediately. Otherwise an
// ENABLED node is flipped to DRAINING, and a node already DRAINING is left
// alone while it is inside the drain window and still reports live (or
// unknown) connections; once the window elapses or connections hit zero it
// is removed. Nodes in any other condition are removed immediately.
func removeFromLBWithDraining(timeout time.Duration, nodes []types.LBNode, now time.Time) []steps.Step {
	var out []steps.Step
	for _, n := range nodes {
		if timeout > 0 {
			switch n.Config.Condition {
			case types.ConditionEnabled:
				out = append(out, steps.ChangeLoadBalancerNode{
					LBID:      n.LBID,
					NodeID:    n.NodeID,
					Condition: types.ConditionDraining,
					Weight:    n.Config.Weight,
					Type:      n.Config.Type,
				})
				continue
			case types.ConditionDraining:
				inWindow := now.Sub(n.DrainedAt) < timeout
				hasConnections := n.Connections == nil || *n.Connections > 0
				if inWindow && hasConnections {
					// Mid-drain: no step, re-evaluated next cycle.
					continue
				}
			}
		}
		out = append(out, steps.RemoveFromLoadBalancer{LBID: n.LBID, NodeID: n.NodeID})
	}
	return out
}

// drainAndDelete plans the retirement of one server. The server itself is
// deleted only once every one of its nodes is being removed this cycle; if
// any node is left mid-drain the server stays up, tagged as draining so the
// next cycle picks it back up.
func drainAndDelete(server types.NovaServer, timeout time.Duration, nodes []types.LBNode, now time.Time) []steps.Step {
	lbSteps := removeFromLBWithDraining(timeout, nodes, now)

	removals := 0
	for _, s := range lbSteps {
		if _, ok := s.(steps.RemoveFromLoadBalancer); ok {
			removals++
		}
	}

	if removals == len(lbSteps) && len(lbSteps) == len(nodes) {
		return append(lbSteps, steps.DeleteServer{ServerID: server.ID})
	}
	if server.State != types.ServerStateDraining {
		return append(lbSteps, steps.SetMetadataItemOnServer{
			ServerID: server.ID,
			Key:      types.MetadataDraining,
			Value:    types.MetadataDrainingValue,
		})
	}
	return lbSteps
}

// lbKey identifies one desired or actual port-mapping: at most one config
// may exist per (load balancer, port) for a given address.
type lbKey struct {
	lbID string
	port int
}

// convergeLBState reconciles one server's actual load-balancer memberships
// against the group's desired attachments: missing mappings are added,
// unwanted ones removed, and mappings whose config differs are changed in
// place.
func convergeLBState(desiredLBs map[string][]types.LBConfig, current []types.LBNode, address string) []steps.Step {
	desired := make(map[lbKey]types.LBConfig)
	for lbID, configs := range desiredLBs {
		for _, c := range configs {
			desired[lbKey{lbID, c.Port}] = c
		}
	}

	actual := make(map[lbKey]types.LBNode, len(current))
	for _, n := range current {
		actual[lbKey{n.LBID, n.Config.Port}] = n
	}

	var out []steps.Step
	for _, k := range sortedKeys(desired) {
		cfg := desired[k]
		node, exists := actual[k]
		if !exists {
			out = append(out, steps.AddNodesToLoadBalancer{
				LBID:           k.lbID,
				AddressConfigs: []steps.AddressConfig{{Address: address, Config: cfg}},
			})
			continue
		}
		if node.Config != cfg {
			out = append(out, steps.ChangeLoadBalancerNode{
				LBID:      k.lbID,
				NodeID:    node.NodeID,
				Condition: cfg.Condition,
				Weight:    cfg.Weight,
				Type:      cfg.Type,
			})
		}
	}
	for _, k := range sortedKeys(actual) {
		if _, wanted := desired[k]; !wanted {
			out = append(out, steps.RemoveFromLoadBalancer{LBID: k.lbID, NodeID: actual[k].NodeID})
		}
	}
	return out
}

func sortedKeys[V any](m map[lbKey]V) []lbKey {
	keys := make([]lbKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lbID != keys[j].lbID {
			return keys[i].lbID < keys[j].lbID
		}
		return keys[i].port < keys[j].port
	})
	return keys
}
