/*
Package plan computes the steps that converge a scaling group's observed
state onto its desired state.

Converge is the heart of Burrow. It is deliberately a pure, synchronous
function: desired state, observed servers, observed load-balancer nodes,
and the current time go in; an unordered bag of corrective steps comes out.
No I/O, no shared mutable state, no clock reads. That keeps every policy
decision unit-testable with plain values and lets unrelated groups converge
in parallel without locking.

# The algorithm

Per cycle, servers are sorted newest-first and partitioned by state, and
then:

 1. Capacity: if ACTIVE plus in-window BUILD servers fall short of the
    desired count, CreateServer steps cover the difference.
 2. Stuck builds: servers in BUILD longer than the build timeout are
    deleted unconditionally.
 3. Scale-down: when over capacity, the newest `desired` servers are kept
    and the oldest excess retired. Retirement respects the group's
    draining timeout: nodes are flipped to DRAINING, watched across
    cycles, and removed once drained or timed out; the server is deleted
    only when none of its nodes remain mid-drain, and is otherwise tagged
    so the next cycle resumes the drain.
 4. Errors: ERROR servers are deleted and their nodes removed immediately,
    with no drain.
 5. Steady state: every surviving ACTIVE server has its load-balancer
    memberships diffed against the group's desired attachments, producing
    add/remove/change steps per (load balancer, port).

Scale-down deletes the oldest servers and keeps the newest. That is the
intended policy, not an accident.
*/
package plan
