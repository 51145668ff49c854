package steps

import (
	"sort"
)

// merger collapses all steps of one kind into a smaller equivalent set.
// Every merger must be idempotent: merging its own output changes nothing.
type merger func([]Step) []Step

// mergers is the static strategy table for the optimizer. The step set is
// closed, so there is no runtime registration; kinds without an entry pass
// through Optimize untouched.
var mergers = map[StepKind]merger{
	KindAddNodesToLoadBalancer: mergeLoadBalancerAdds,
}

// Optimize merges same-kind steps that target the same resource, reducing
// the number of calls the executor has to make. Steps whose kind has no
// merger are returned unchanged, in their original order; merged steps are
// appended after them in a deterministic order.
func Optimize(c Convergence) Convergence {
	out := make(Convergence, 0, len(c))
	buckets := make(map[StepKind][]Step)
	var kindOrder []StepKind

	for _, s := range c {
		kind := s.Kind()
		if _, ok := mergers[kind]; !ok {
			out = append(out, s)
			continue
		}
		if _, seen := buckets[kind]; !seen {
			kindOrder = append(kindOrder, kind)
		}
		buckets[kind] = append(buckets[kind], s)
	}

	for _, kind := range kindOrder {
		out = append(out, mergers[kind](buckets[kind])...)
	}
	return out
}

// mergeLoadBalancerAdds collapses all AddNodesToLoadBalancer steps for one
// load balancer into a single step whose address configs are the union of
// the inputs.
func mergeLoadBalancerAdds(in []Step) []Step {
	byLB := make(map[string]map[AddressConfig]struct{})
	var lbOrder []string

	for _, s := range in {
		add := s.(AddNodesToLoadBalancer)
		set, ok := byLB[add.LBID]
		if !ok {
			set = make(map[AddressConfig]struct{})
			byLB[add.LBID] = set
			lbOrder = append(lbOrder, add.LBID)
		}
		for _, ac := range add.AddressConfigs {
			set[ac] = struct{}{}
		}
	}
	sort.Strings(lbOrder)

	out := make([]Step, 0, len(byLB))
	for _, lbID := range lbOrder {
		configs := make([]AddressConfig, 0, len(byLB[lbID]))
		for ac := range byLB[lbID] {
			configs = append(configs, ac)
		}
		sort.Slice(configs, func(i, j int) bool {
			if configs[i].Address != configs[j].Address {
				return configs[i].Address < configs[j].Address
			}
			return configs[i].Config.Port < configs[j].Config.Port
		})
		out = append(out, AddNodesToLoadBalancer{LBID: lbID, AddressConfigs: configs})
	}
	return out
}
