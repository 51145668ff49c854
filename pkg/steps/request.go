package steps

import (
	"errors"
	"fmt"
)

// ServiceType identifies which cloud service a Request targets.
type ServiceType string

const (
	ServiceCompute       ServiceType = "compute"
	ServiceLoadBalancers ServiceType = "cloudLoadBalancers"
	ServiceRCv3          ServiceType = "rackconnect"
)

// Request describes one concrete HTTP call to a cloud service. It carries no
// behavior; the executor performs it and checks the status against
// SuccessCodes.
type Request struct {
	Service      ServiceType
	Method       string
	Path         string
	Headers      map[string]string
	Body         any
	SuccessCodes []int
}

// ErrNoDirectRequest is returned by ToRequest for step kinds that have no
// one-to-one request mapping. AddNodesToLoadBalancer is resolved by the
// executor, which builds a batch body against the load balancer's nodes
// endpoint.
var ErrNoDirectRequest = errors.New("step has no direct request mapping")

// rcv3Pair is the wire shape of one pool membership in the RCv3 bulk API.
type rcv3Pair struct {
	CloudServer      rcv3Ref `json:"cloud_server"`
	LoadBalancerPool rcv3Ref `json:"load_balancer_pool"`
}

type rcv3Ref struct {
	ID string `json:"id"`
}

func rcv3Body(pairs []LBNodePair) []rcv3Pair {
	body := make([]rcv3Pair, 0, len(pairs))
	for _, p := range pairs {
		body = append(body, rcv3Pair{
			CloudServer:      rcv3Ref{ID: p.CloudServer},
			LoadBalancerPool: rcv3Ref{ID: p.LoadBalancerPool},
		})
	}
	return body
}

// ToRequest translates a step into the concrete request that performs it.
// The type switch is exhaustive over the closed step set; adding a variant
// without extending it is caught by the default branch.
func ToRequest(s Step) (Request, error) {
	switch st := s.(type) {
	case CreateServer:
		return Request{
			Service:      ServiceCompute,
			Method:       "POST",
			Path:         "servers",
			Body:         map[string]any{"server": st.ServerConfig.Server},
			SuccessCodes: []int{200},
		}, nil

	case DeleteServer:
		return Request{
			Service:      ServiceCompute,
			Method:       "DELETE",
			Path:         fmt.Sprintf("servers/%s", st.ServerID),
			SuccessCodes: []int{200},
		}, nil

	case SetMetadataItemOnServer:
		return Request{
			Service:      ServiceCompute,
			Method:       "PUT",
			Path:         fmt.Sprintf("servers/%s/metadata/%s", st.ServerID, st.Key),
			Body:         map[string]map[string]string{"meta": {st.Key: st.Value}},
			SuccessCodes: []int{200},
		}, nil

	case RemoveFromLoadBalancer:
		return Request{
			Service:      ServiceLoadBalancers,
			Method:       "DELETE",
			Path:         fmt.Sprintf("loadbalancers/%s/%s", st.LBID, st.NodeID),
			SuccessCodes: []int{200},
		}, nil

	case ChangeLoadBalancerNode:
		return Request{
			Service: ServiceLoadBalancers,
			Method:  "PUT",
			Path:    fmt.Sprintf("loadbalancers/%s/nodes/%s", st.LBID, st.NodeID),
			Body: map[string]any{
				"condition": st.Condition,
				"weight":    st.Weight,
			},
			SuccessCodes: []int{200},
		}, nil

	case BulkAddToRCv3:
		return Request{
			Service:      ServiceRCv3,
			Method:       "POST",
			Path:         "load_balancer_pools/nodes",
			Body:         rcv3Body(st.Pairs),
			SuccessCodes: []int{201},
		}, nil

	case BulkRemoveFromRCv3:
		return Request{
			Service:      ServiceRCv3,
			Method:       "DELETE",
			Path:         "load_balancer_pools/nodes",
			Body:         rcv3Body(st.Pairs),
			SuccessCodes: []int{204},
		}, nil

	case AddNodesToLoadBalancer:
		return Request{}, fmt.Errorf("%s: %w", st.Kind(), ErrNoDirectRequest)

	default:
		return Request{}, fmt.Errorf("unknown step kind %q", s.Kind())
	}
}
