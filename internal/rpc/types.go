// =============================================================================
// FILE: internal/rpc/types.go
// ROLE: JSON-RPC 2.0 envelopes exchanged between the provider and a node
// =============================================================================
//
// Every call leaves the process as a Request and comes back as a Response:
//
//   Provider ──[ {"jsonrpc":"2.0","id":7,"method":...,"params":[...]} ]──▶ Node
//   Provider ◀──[ {"id":7,"result":...} | {"id":7,"error":{...}} ]──────── Node
//
// The id is the only thing tying the two together. The provider assigns it,
// the node must echo it, and a response with a different id is rejected as a
// protocol anomaly rather than handed back as someone else's result.
// =============================================================================

package rpc

import (
	"encoding/json"
	"fmt"
)

// Version is the only protocol version the provider speaks.
const Version = "2.0"

// Request is an outbound JSON-RPC call.
//
// ID zero means "not assigned yet"; the provider fills it from its sequencer.
// Params is a positional list because Ethereum methods never take named
// parameters. A nil Params is sent as [] since some nodes reject null.
type Request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Response is an inbound JSON-RPC reply. Exactly one of Result or Error is
// meaningful. Result stays raw so each caller decodes into the type it expects.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Decode unmarshals the result into v.
func (r *Response) Decode(v interface{}) error {
	if len(r.Result) == 0 {
		return fmt.Errorf("response %d has no result", r.ID)
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("failed to decode result of response %d: %w", r.ID, err)
	}
	return nil
}

// String decodes a result that is a JSON string (tx hashes, quantities,
// net_version).
func (r *Response) String() (string, error) {
	var s string
	if err := r.Decode(&s); err != nil {
		return "", err
	}
	return s, nil
}

// IsNull reports whether the node answered with an explicit null result,
// which is how eth_getTransactionReceipt says "not mined yet".
func (r *Response) IsNull() bool {
	return len(r.Result) == 0 || string(r.Result) == "null"
}

// RPCError is the error object a node puts in a response.
//
// Standard codes (-32700..-32600) come from JSON-RPC 2.0; Ethereum nodes add
// their own (3 for reverts with data, -32000 for most transaction failures,
// EIP-1193 4001/4100 for wallet refusals). Data carries revert payloads.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}
