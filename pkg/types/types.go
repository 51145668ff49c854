package types

import (
	"time"
)

// MetadataGroupID is the server metadata key that ties a Nova server to
// its scaling group.
const MetadataGroupID = "rax:auto_scaling_group_id"

// MetadataDraining is the server metadata key set on a server that is
// being drained out of its load balancers before deletion.
const MetadataDraining = "rax:auto_scaling_draining"

// MetadataDrainingValue is the value stored under MetadataDraining.
const MetadataDrainingValue = "draining"

// ServerState represents the lifecycle state of a compute server.
type ServerState string

const (
	ServerStateActive ServerState = "ACTIVE"
	ServerStateError  ServerState = "ERROR"
	ServerStateBuild  ServerState = "BUILD"

	// ServerStateDraining is not a Nova state. It is applied locally to a
	// server that carries the MetadataDraining tag, marking it as mid-drain
	// from its load balancers.
	ServerStateDraining ServerState = "DRAINING"
)

// NodeCondition represents the traffic condition of a load-balancer node.
type NodeCondition string

const (
	ConditionEnabled  NodeCondition = "ENABLED"
	ConditionDraining NodeCondition = "DRAINING"
	ConditionDisabled NodeCondition = "DISABLED"
)

// NodeType distinguishes primary nodes from secondary (failover) nodes.
type NodeType string

const (
	NodeTypePrimary   NodeType = "PRIMARY"
	NodeTypeSecondary NodeType = "SECONDARY"
)

// LaunchConfig is the immutable template used to create new servers in a
// scaling group. The Server payload is passed through to the compute API
// verbatim; this core never inspects it.
type LaunchConfig struct {
	Server map[string]any `yaml:"server" json:"server"`
}

// LBConfig describes how a server should be attached to one load balancer:
// the port to register, the node weight, and the desired condition/type.
type LBConfig struct {
	Port      int           `yaml:"port" json:"port"`
	Weight    int           `yaml:"weight" json:"weight"`
	Condition NodeCondition `yaml:"condition" json:"condition"`
	Type      NodeType      `yaml:"type" json:"type"`
}

// NormalizeLBConfig fills in the defaults for an LBConfig parsed from user
// configuration: weight 1, condition ENABLED, type PRIMARY.
func NormalizeLBConfig(c LBConfig) LBConfig {
	if c.Weight == 0 {
		c.Weight = 1
	}
	if c.Condition == "" {
		c.Condition = ConditionEnabled
	}
	if c.Type == "" {
		c.Type = NodeTypePrimary
	}
	return c
}

// DesiredGroupState is the desired state of one scaling group for the
// duration of a single reconciliation cycle. It is supplied by the
// group-configuration collaborator and never mutated by this core.
type DesiredGroupState struct {
	GroupID         string
	LaunchConfig    LaunchConfig
	Desired         int
	DesiredLBs      map[string][]LBConfig
	DrainingTimeout time.Duration
}

// NovaServer is the observed state of one compute server, reconstructed
// fresh each cycle from a live API query.
type NovaServer struct {
	ID      string
	State   ServerState
	Created time.Time

	// ServiceNetAddress is the server's private (service net) IPv4 address,
	// empty when the server has not been assigned one yet.
	ServiceNetAddress string

	Metadata map[string]string
}

// LBNode is an actual, existing port-mapping on a load balancer.
// (LBID, NodeID) is unique, and (LBID, Port) is unique per address.
type LBNode struct {
	LBID    string
	NodeID  string
	Address string

	// DrainedAt is the time the node entered the DRAINING condition,
	// recovered from the load balancer's activity feed. Zero when the node
	// is not draining.
	DrainedAt time.Time

	// Connections is the number of live connections reported for the node,
	// or nil when the load balancer does not report one.
	Connections *int

	Config LBConfig
}
