package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/eth-generic-provider/internal/format"
)

func callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <method> [params...]",
		Short: "Send a raw JSON-RPC request",
		Long: `Send any JSON-RPC method through the provider. Each param is parsed as
JSON when it looks like JSON (objects, arrays, numbers, booleans) and sent
as a string otherwise. eth_sendTransaction gets gas and gasPrice filled.

Examples:
  provider call eth_blockNumber
  provider call eth_getBalance 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045 latest
  provider call eth_call '{"to":"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48","data":"0x18160ddd"}' latest`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(args[0], args[1:])
		},
	}
}

func runCall(method string, raw []string) error {
	p, e, err := newProvider()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	start := time.Now()
	resp, err := p.Call(ctx, method, parseParams(raw)...)
	if err != nil {
		return err
	}
	latency := time.Since(start)

	if jsonOutput() {
		return format.WriteJSON(os.Stdout, map[string]interface{}{
			"endpoint":  e.Name,
			"method":    method,
			"id":        resp.ID,
			"result":    resp.Result,
			"latencyMs": latency.Milliseconds(),
		})
	}
	format.FormatCall(os.Stdout, e.Name, method, resp.Result, latency)
	return nil
}

// parseParams decodes JSON-looking arguments and keeps everything else as
// strings, so hex values and block tags need no quoting.
func parseParams(raw []string) []interface{} {
	params := make([]interface{}, 0, len(raw))
	for _, r := range raw {
		trimmed := strings.TrimSpace(r)
		if looksLikeJSON(trimmed) {
			if v, err := decodeJSON(trimmed); err == nil {
				params = append(params, v)
				continue
			}
		}
		params = append(params, r)
	}
	return params
}

// decodeJSON keeps numbers as json.Number so quantities above 2^53 survive
// the round trip to the node.
func decodeJSON(s string) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

func looksLikeJSON(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case '{', '[', '"':
		return true
	}
	return s == "true" || s == "false" || s == "null" || (s[0] >= '0' && s[0] <= '9' && !strings.HasPrefix(s, "0x"))
}
