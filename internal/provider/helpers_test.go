package provider

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

const (
	vitalik      = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
	vitalikLower = "0xd8da6bf26964af9d7eed9e03e53415d37aa96045"
	other        = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	otherLower   = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
)

// fakeNode records every request and answers through answer. Unknown
// methods get a null result.
type fakeNode struct {
	mu      sync.Mutex
	calls   []rpc.Request
	answers map[string]func(req *rpc.Request) (*rpc.Response, error)
}

func newFakeNode() *fakeNode {
	return &fakeNode{answers: make(map[string]func(req *rpc.Request) (*rpc.Response, error))}
}

func (f *fakeNode) Send(_ context.Context, req *rpc.Request) (*rpc.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, *req)
	answer := f.answers[req.Method]
	f.mu.Unlock()

	if answer == nil {
		return result(req, `null`), nil
	}
	return answer(req)
}

func (f *fakeNode) on(method string, answer func(req *rpc.Request) (*rpc.Response, error)) {
	f.mu.Lock()
	f.answers[method] = answer
	f.mu.Unlock()
}

// reply makes method answer with a fixed raw JSON result.
func (f *fakeNode) reply(method, raw string) {
	f.on(method, func(req *rpc.Request) (*rpc.Response, error) {
		return result(req, raw), nil
	})
}

// fail makes method answer with a node error object.
func (f *fakeNode) fail(method string, code int, message string) {
	f.on(method, func(req *rpc.Request) (*rpc.Response, error) {
		return &rpc.Response{JSONRPC: rpc.Version, ID: req.ID, Error: &rpc.RPCError{Code: code, Message: message}}, nil
	})
}

func (f *fakeNode) requests() []rpc.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rpc.Request(nil), f.calls...)
}

func (f *fakeNode) methods() []string {
	var out []string
	for _, r := range f.requests() {
		out = append(out, r.Method)
	}
	return out
}

func result(req *rpc.Request, raw string) *rpc.Response {
	return &rpc.Response{JSONRPC: rpc.Version, ID: req.ID, Result: json.RawMessage(raw)}
}

func newTestProvider(t *testing.T, node rpc.Transport, mutate ...func(*Options)) *Provider {
	t.Helper()
	opts := Options{Client: node, PollInterval: time.Millisecond}
	for _, m := range mutate {
		m(&opts)
	}
	p, err := New(opts)
	require.NoError(t, err)
	return p
}
