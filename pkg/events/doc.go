/*
Package events provides an in-process pub/sub broker for convergence
events.

The controller publishes an event per noteworthy transition: a cycle
starting, a group converging cleanly or diverging (steps were needed), and
cycle failures. Subscribers receive events on buffered channels; a slow
subscriber is skipped rather than blocking the broker. The broker also
keeps a bounded in-memory history, which backs the admin API's /v1/events
endpoint.
*/
package events
