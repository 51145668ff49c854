/*
Package controller runs Burrow's reconciliation loop.

The controller is level-triggered and stateless between cycles: every
interval it rebuilds the observed cloud state from scratch, plans the
corrective steps for each configured scaling group, and executes them. No
memory of previous cycles is needed for correctness; a missed or failed
cycle is simply retried wholesale on the next tick against freshly
observed state.

# One cycle

	┌──────────────────────────────────────────────┐
	│            Reconciliation cycle              │
	│            (every interval)                  │
	└──────────────────┬───────────────────────────┘
	                   │
	        gather servers + LB contents
	        (one shared observation)
	                   │
	   ┌───────────────┼───────────────┐
	   ▼               ▼               ▼
	group A         group B         group C      (bounded concurrency)
	converge        converge        converge
	optimize        optimize        optimize
	execute         execute         execute

Gathering happens once per cycle and is shared by every group: the server
listing already covers the whole tenant, grouped by scaling-group tag. Each
group is then converged independently inside an errgroup with a
concurrency limit, so one wide configuration cannot stampede the cloud
APIs. A gather failure abandons the entire cycle; per-group execution
failures are recorded per group and do not disturb the others.

The last CycleResult per group is retained in memory for the admin API.

Scaling policies fired through ExecutePolicy override a group's configured
desired capacity, within its limits, from the next cycle onward. Overrides
live in memory only; a restart falls back to the configured capacity.
*/
package controller
