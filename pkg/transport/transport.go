package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/retry"
	"github.com/cuemby/burrow/pkg/steps"
)

// Requester performs one HTTP call against a cloud service. It returns the
// response status and body; err is non-nil only for transport-level failures
// (the call never reached the service or the response could not be read).
// Implementations must be safe for parallel invocation.
type Requester interface {
	Request(ctx context.Context, service steps.ServiceType, method, path string, body any) (int, []byte, error)
}

// StatusError reports a response whose status code was not acceptable to
// the caller.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// IsTransient reports whether an error is worth retrying: any transport
// failure, or a 5xx / 429 response.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500 || se.Status == http.StatusTooManyRequests
	}
	return true
}

// CloudPolicy is the retry policy applied to every individual cloud API
// call: 5 attempts, backoff starting at 2s and doubling, retrying only
// transient failures.
func CloudPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.Retryable = IsTransient
	return p
}

// HTTPRequester is the production Requester, calling per-service base URLs
// with token authentication and JSON bodies.
type HTTPRequester struct {
	// Endpoints maps each service to its base URL, e.g.
	// "https://dfw.servers.api.rackspacecloud.com/v2/123456".
	Endpoints map[steps.ServiceType]string

	// Token is sent as the X-Auth-Token header on every request.
	Token string

	Client *http.Client
}

// NewHTTPRequester creates a Requester over the given service endpoints.
func NewHTTPRequester(endpoints map[steps.ServiceType]string, token string) *HTTPRequester {
	return &HTTPRequester{
		Endpoints: endpoints,
		Token:     token,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Request implements Requester.
func (h *HTTPRequester) Request(ctx context.Context, service steps.ServiceType, method, path string, body any) (int, []byte, error) {
	base, ok := h.Endpoints[service]
	if !ok {
		return 0, nil, fmt.Errorf("no endpoint configured for service %q", service)
	}
	url := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.Token != "" {
		req.Header.Set("X-Auth-Token", h.Token)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		metrics.CloudAPIRequestsTotal.WithLabelValues(string(service), method, "error").Inc()
		return 0, nil, fmt.Errorf("%s %s failed: %w", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	metrics.CloudAPIRequestsTotal.WithLabelValues(string(service), method, strconv.Itoa(resp.StatusCode)).Inc()
	return resp.StatusCode, respBody, nil
}

// GetJSON performs a GET with per-call retry, expecting a 200 response, and
// decodes the body into out.
func GetJSON(ctx context.Context, rq Requester, service steps.ServiceType, path string, out any) error {
	body, err := retry.Do(ctx, CloudPolicy(), func(ctx context.Context) ([]byte, error) {
		status, body, err := rq.Request(ctx, service, "GET", path, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, &StatusError{Status: status, Body: string(body)}
		}
		return body, nil
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// GetRaw performs a GET with per-call retry, expecting a 200 response, and
// returns the raw body. Used for non-JSON payloads such as atom feeds.
func GetRaw(ctx context.Context, rq Requester, service steps.ServiceType, path string) ([]byte, error) {
	return retry.Do(ctx, CloudPolicy(), func(ctx context.Context) ([]byte, error) {
		status, body, err := rq.Request(ctx, service, "GET", path, nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, &StatusError{Status: status, Body: string(body)}
		}
		return body, nil
	})
}
