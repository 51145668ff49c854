/*
Package metrics provides Prometheus metrics for Burrow.

All metrics are registered with the default registry at init time and served
by the admin API's /metrics endpoint via Handler().

# Metric families

Convergence:

	burrow_convergence_cycles_total{result}   - Cycles completed, by success/error
	burrow_convergence_duration_seconds       - Time per convergence cycle
	burrow_steps_planned_total{kind}          - Steps the planner emitted
	burrow_steps_executed_total{kind,result}  - Steps the executor performed

Observed state:

	burrow_groups_configured                  - Scaling groups under management
	burrow_servers_observed{group,state}      - Servers seen in the last cycle

Cloud API:

	burrow_cloud_api_requests_total{service,method,status}

Admin API:

	burrow_api_requests_total{path,status}
	burrow_api_request_duration_seconds{path}

# Timing helper

Timer measures operation durations for histogram observation:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ConvergenceDuration)
*/
package metrics
