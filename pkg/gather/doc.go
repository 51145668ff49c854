/*
Package gather builds the observed infrastructure state that the planner
converges against.

Two gatherers run per reconciliation cycle, both behind the injectable
transport.Requester so tests can substitute a fake:

Server state: AllServerDetails pages through the compute API's server
listing (marker pagination, batches of 100), and ScalingGroupServers groups
the tagged servers by scaling group. A server carrying the local draining
metadata tag is reported in the DRAINING state.

Load-balancer state: LoadBalancerContents runs a fan-out pipeline:

	list load balancers
	   │
	   ├── fetch nodes (lb 1) ──┐
	   ├── fetch nodes (lb 2) ──┤  parallel, join all
	   └── fetch nodes (lb N) ──┘
	   │
	   ├── fetch feed (draining node a) ──┐
	   └── fetch feed (draining node b) ──┘  parallel, join all

Only nodes already in the DRAINING condition incur the activity-feed fetch,
which recovers the time draining began. Each level joins completely before
the next starts; there is no partial-results short-circuiting.

Every outbound call is independently retried (5 attempts, 2s exponential
backoff). A call that exhausts its retries fails the gather for the whole
cycle, which is retried wholesale on the next scheduled cycle rather than
resumed mid-way. A malformed activity feed is a hard failure and is not
retried.
*/
package gather
