/*
Package executor performs the steps planned for one convergence cycle.

Every step translates to one HTTP request (pkg/steps' table, plus the batch
node-add body built here) and all requests for a cycle are issued in
parallel: the step bag is unordered by construction, so there is nothing to
sequence. Each request has its own bounded retry budget for transient
failures; a step that still fails afterwards fails the cycle, and the next
scheduled cycle re-plans from freshly observed state rather than resuming.
*/
package executor
