/*
Package retry provides a generic bounded-retry wrapper for fallible
operations.

A Policy bounds the operation: number of attempts, an interval function
computing the sleep before each retry, and an optional predicate deciding
whether an error is transient. Do runs the operation under the policy, and
is context-aware: cancellation during a backoff sleep aborts immediately.

The default policy matches what Burrow uses for every outbound cloud API
call: 5 attempts, exponential backoff starting at 2 seconds and doubling.

	servers, err := retry.Do(ctx, retry.DefaultPolicy(), fetchPage)
*/
package retry
