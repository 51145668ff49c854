/*
Package api provides Burrow's admin HTTP server.

The server is deliberately small: Burrow's desired state lives in its
configuration file, not behind a CRUD surface. The endpoints exist for
operators, monitoring, and policy webhooks:

	GET  /healthz            - liveness and version
	GET  /metrics            - Prometheus metrics
	GET  /v1/groups          - last convergence result per group
	GET  /v1/groups/{id}     - last convergence result for one group
	GET  /v1/events?limit=N  - recent convergence events, newest first
	POST /v1/groups/{id}/policies/{policy_id}/execute
	                         - fire a scaling policy

Policy execution is the one write: it adjusts the group's desired
capacity within its limits, effective from the next cycle.

Every route is instrumented with request count and duration metrics.
*/
package api
