/*
Package steps defines the closed set of infrastructure mutations Burrow can
plan, the optimizer that merges them, and their translation into concrete
HTTP requests.

# Steps

A Step is one atomic corrective action: create or delete a server, tag a
server's metadata, or add, remove, or change a load-balancer node. Steps are
pure value objects produced by the planner (pkg/plan); a Convergence is the
unordered bag of steps for one reconciliation cycle. The bag is unordered
because steps within a cycle are independent and may be executed in parallel.

The step set is closed. ToRequest is an exhaustive type switch over it, so a
new variant that is not given a request mapping fails loudly rather than
silently translating to nothing.

# Optimization

Optimize merges same-kind steps that target the same resource through a
static strategy table keyed by step kind. The one built-in merger collapses
all AddNodesToLoadBalancer steps per load balancer into a single multi-node
step, turning N add calls against one load balancer into one. Optimization
is idempotent: re-optimizing an optimized bag yields the same bag.

# Requests

A Request describes one HTTP call (service, method, path, body, expected
status codes) and carries no behavior. AddNodesToLoadBalancer has no direct
mapping here: the executor builds its batch body against the load balancer's
nodes endpoint from the step's address configs.

# See Also

  - pkg/plan - Produces the step bag
  - pkg/executor - Performs the translated requests
*/
package steps
