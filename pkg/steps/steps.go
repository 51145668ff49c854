package steps

import (
	"github.com/cuemby/burrow/pkg/types"
)

// StepKind identifies one of the closed set of step variants.
type StepKind string

const (
	KindCreateServer            StepKind = "create_server"
	KindDeleteServer            StepKind = "delete_server"
	KindSetMetadataItemOnServer StepKind = "set_metadata_item_on_server"
	KindAddNodesToLoadBalancer  StepKind = "add_nodes_to_load_balancer"
	KindRemoveFromLoadBalancer  StepKind = "remove_from_load_balancer"
	KindChangeLoadBalancerNode  StepKind = "change_load_balancer_node"
	KindBulkAddToRCv3           StepKind = "bulk_add_to_rcv3"
	KindBulkRemoveFromRCv3      StepKind = "bulk_remove_from_rcv3"
)

// Step is one atomic infrastructure mutation. The set of variants is closed;
// every variant is a pure value object with structural equality.
type Step interface {
	Kind() StepKind
}

// Convergence is the bag of steps produced for one reconciliation cycle.
// It is unordered: steps within one cycle may be executed in parallel.
type Convergence []Step

// CreateServer creates one server from the group's launch template.
type CreateServer struct {
	ServerConfig types.LaunchConfig
}

func (CreateServer) Kind() StepKind { return KindCreateServer }

// DeleteServer deletes one server.
type DeleteServer struct {
	ServerID string
}

func (DeleteServer) Kind() StepKind { return KindDeleteServer }

// SetMetadataItemOnServer sets a single metadata item on a server.
type SetMetadataItemOnServer struct {
	ServerID string
	Key      string
	Value    string
}

func (SetMetadataItemOnServer) Kind() StepKind { return KindSetMetadataItemOnServer }

// AddressConfig is one (address, attachment config) pair to register on a
// load balancer.
type AddressConfig struct {
	Address string
	Config  types.LBConfig
}

// AddNodesToLoadBalancer registers one or more addresses on a load balancer.
// Multiple single-address steps against the same load balancer are merged by
// the optimizer into one multi-node step.
type AddNodesToLoadBalancer struct {
	LBID           string
	AddressConfigs []AddressConfig
}

func (AddNodesToLoadBalancer) Kind() StepKind { return KindAddNodesToLoadBalancer }

// RemoveFromLoadBalancer removes one node from a load balancer.
type RemoveFromLoadBalancer struct {
	LBID   string
	NodeID string
}

func (RemoveFromLoadBalancer) Kind() StepKind { return KindRemoveFromLoadBalancer }

// ChangeLoadBalancerNode updates the condition, weight, or type of an
// existing load-balancer node.
type ChangeLoadBalancerNode struct {
	LBID      string
	NodeID    string
	Condition types.NodeCondition
	Weight    int
	Type      types.NodeType
}

func (ChangeLoadBalancerNode) Kind() StepKind { return KindChangeLoadBalancerNode }

// LBNodePair identifies one (RackConnect v3 pool, cloud server) membership.
type LBNodePair struct {
	LoadBalancerPool string
	CloudServer      string
}

// BulkAddToRCv3 attaches servers to RackConnect v3 load-balancer pools.
type BulkAddToRCv3 struct {
	Pairs []LBNodePair
}

func (BulkAddToRCv3) Kind() StepKind { return KindBulkAddToRCv3 }

// BulkRemoveFromRCv3 detaches servers from RackConnect v3 load-balancer pools.
type BulkRemoveFromRCv3 struct {
	Pairs []LBNodePair
}

func (BulkRemoveFromRCv3) Kind() StepKind { return KindBulkRemoveFromRCv3 }
