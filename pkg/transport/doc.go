// Package transport performs the HTTP calls behind every gather and step.
//
// The Requester interface is the single seam between Burrow and the cloud
// APIs: gatherers and the executor speak service/method/path, and the
// production HTTPRequester resolves those against the configured per-service
// endpoints with token authentication. Tests substitute an in-memory
// Requester and never open a socket.
//
// Retry lives here too: CloudPolicy wraps each individual call with bounded
// exponential backoff, retrying transport failures, 5xx and 429 responses.
// A 404 is a fact about the cloud, not a fault, and is never retried.
package transport
