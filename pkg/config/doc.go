/*
Package config loads and validates Burrow's YAML service configuration.

The config file carries the service knobs (listen address, cycle interval,
concurrency bound, cycle and build timeouts), the cloud endpoints and
credentials, and the scaling-group definitions that act as the desired
state for the convergence engine:

	interval: 30s
	cloud:
	  compute_endpoint: https://dfw.servers.api.rackspacecloud.com/v2/123456
	  load_balancer_endpoint: https://dfw.loadbalancers.api.rackspacecloud.com/v1.0/123456
	groups:
	  - id: web
	    desired: 3
	    max_entities: 10
	    draining_timeout: 30s
	    launch_config:
	      server:
	        flavorRef: performance1-1
	        imageRef: ubuntu-22.04
	    load_balancers:
	      "5":
	        - port: 80

The auth token may be supplied via the BURROW_AUTH_TOKEN environment
variable instead of the file. GroupConfig.DesiredState produces the
normalized, limit-clamped desired state handed to the planner each cycle.
*/
package config
