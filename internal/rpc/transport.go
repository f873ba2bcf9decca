package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport delivers one request and returns the node's reply.
//
// A non-nil error means no usable reply arrived (connection refused, timeout,
// undecodable body). A reply that carries an error object is still a reply and
// is returned with a nil error; rejecting it is the caller's job, as is
// checking that the reply id matches the request id. Transports never retry.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// maxResponseBytes bounds how much of a reply body is read.
const maxResponseBytes = 32 << 20

// HTTPTransport posts JSON-RPC requests to a node over HTTP(S).
type HTTPTransport struct {
	name       string
	url        string
	httpClient *http.Client
}

// NewHTTPTransport creates a transport for url. The timeout bounds the whole
// HTTP exchange; zero means no timeout at this layer.
func NewHTTPTransport(name, url string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		name:       name,
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Name() string { return t.name }

func (t *HTTPTransport) URL() string { return t.url }

// Send executes a single POST. There is deliberately no retry loop here.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	var resp Response
	decodeErr := json.Unmarshal(respBody, &resp)

	if httpResp.StatusCode != http.StatusOK {
		// Some nodes answer JSON-RPC errors with 4xx/5xx; keep those as replies.
		if decodeErr == nil && resp.Error != nil {
			return &resp, nil
		}
		return nil, fmt.Errorf("HTTP %d", httpResp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", decodeErr)
	}
	if resp.Error == nil && resp.Result == nil {
		return nil, fmt.Errorf("invalid JSON response: neither result nor error present")
	}

	return &resp, nil
}
