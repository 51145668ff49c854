/*
Package types defines the core data structures used throughout Burrow.

This package contains the fundamental types of Burrow's domain model: the
desired state of a scaling group, the observed state of compute servers and
load-balancer nodes, and the enumerations for server lifecycle states and
load-balancer node conditions.

# Desired vs. observed state

Burrow is a convergence engine: every reconciliation cycle it compares what a
tenant asked for against what actually exists in the cloud.

Desired state:
  - DesiredGroupState: target capacity, launch template, load-balancer
    attachments, and drain timeout for one scaling group
  - LaunchConfig: the opaque server-creation template
  - LBConfig: how a server should be registered on one load balancer

Observed state:
  - NovaServer: one compute server as reported by the compute API
  - LBNode: one existing (address, port) registration on a load balancer

Observed state is ephemeral: it is rebuilt from live API queries on every
cycle and never persisted by this core.

All types are plain value objects with structural equality. DesiredGroupState
is immutable for the duration of a cycle; the planner never mutates its
inputs.

# See Also

  - pkg/gather - Builds observed state from the cloud APIs
  - pkg/plan - Computes the steps that converge observed onto desired
*/
package types
