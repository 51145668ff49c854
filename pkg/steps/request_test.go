package steps

import (
	"testing"

	"github.com/cuemby/burrow/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestToRequest tests the step-to-request translation table.
func TestToRequest(t *testing.T) {
	tests := []struct {
		name     string
		step     Step
		expected Request
	}{
		{
			name: "create server",
			step: CreateServer{ServerConfig: types.LaunchConfig{Server: map[string]any{"flavorRef": "2"}}},
			expected: Request{
				Service:      ServiceCompute,
				Method:       "POST",
				Path:         "servers",
				Body:         map[string]any{"server": map[string]any{"flavorRef": "2"}},
				SuccessCodes: []int{200},
			},
		},
		{
			name: "delete server",
			step: DeleteServer{ServerID: "srv-1"},
			expected: Request{
				Service:      ServiceCompute,
				Method:       "DELETE",
				Path:         "servers/srv-1",
				SuccessCodes: []int{200},
			},
		},
		{
			name: "set metadata item",
			step: SetMetadataItemOnServer{ServerID: "srv-1", Key: types.MetadataDraining, Value: types.MetadataDrainingValue},
			expected: Request{
				Service:      ServiceCompute,
				Method:       "PUT",
				Path:         "servers/srv-1/metadata/rax:auto_scaling_draining",
				Body:         map[string]map[string]string{"meta": {"rax:auto_scaling_draining": "draining"}},
				SuccessCodes: []int{200},
			},
		},
		{
			name: "remove from load balancer",
			step: RemoveFromLoadBalancer{LBID: "lb-1", NodeID: "node-2"},
			expected: Request{
				Service:      ServiceLoadBalancers,
				Method:       "DELETE",
				Path:         "loadbalancers/lb-1/node-2",
				SuccessCodes: []int{200},
			},
		},
		{
			name: "change load balancer node",
			step: ChangeLoadBalancerNode{LBID: "lb-1", NodeID: "node-2", Condition: types.ConditionDraining, Weight: 1, Type: types.NodeTypePrimary},
			expected: Request{
				Service:      ServiceLoadBalancers,
				Method:       "PUT",
				Path:         "loadbalancers/lb-1/nodes/node-2",
				Body:         map[string]any{"condition": types.ConditionDraining, "weight": 1},
				SuccessCodes: []int{200},
			},
		},
		{
			name: "bulk add to rcv3",
			step: BulkAddToRCv3{Pairs: []LBNodePair{{LoadBalancerPool: "pool-1", CloudServer: "srv-1"}}},
			expected: Request{
				Service:      ServiceRCv3,
				Method:       "POST",
				Path:         "load_balancer_pools/nodes",
				Body:         []rcv3Pair{{CloudServer: rcv3Ref{ID: "srv-1"}, LoadBalancerPool: rcv3Ref{ID: "pool-1"}}},
				SuccessCodes: []int{201},
			},
		},
		{
			name: "bulk remove from rcv3",
			step: BulkRemoveFromRCv3{Pairs: []LBNodePair{{LoadBalancerPool: "pool-1", CloudServer: "srv-1"}}},
			expected: Request{
				Service:      ServiceRCv3,
				Method:       "DELETE",
				Path:         "load_balancer_pools/nodes",
				Body:         []rcv3Pair{{CloudServer: rcv3Ref{ID: "srv-1"}, LoadBalancerPool: rcv3Ref{ID: "pool-1"}}},
				SuccessCodes: []int{204},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ToRequest(tt.step)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req)
		})
	}
}

// TestToRequestAddNodesHasNoDirectMapping tests that the batch add step is
// left to the executor.
func TestToRequestAddNodesHasNoDirectMapping(t *testing.T) {
	_, err := ToRequest(AddNodesToLoadBalancer{LBID: "lb-1"})
	assert.ErrorIs(t, err, ErrNoDirectRequest)
}
