// Package rpc (hex.go) parses and formats the hex quantities that Ethereum
// JSON-RPC uses for every number on the wire.
package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ParseHexUint64 converts a hex string (with or without "0x") to uint64.
// An empty string is zero.
//
// Examples:
//   - "0x172721e" -> 24277534
//   - "0x0" -> 0
func ParseHexUint64(hex string) (uint64, error) {
	val, err := ParseHexBigInt(hex)
	if err != nil {
		return 0, err
	}
	if !val.IsUint64() {
		return 0, fmt.Errorf("value overflows uint64: %s", hex)
	}
	return val.Uint64(), nil
}

// ParseHexBigInt converts a hex string to *big.Int for values that may exceed
// uint64 (wei amounts, gas prices on some chains).
func ParseHexBigInt(hex string) (*big.Int, error) {
	hex = strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	if hex == "" {
		return big.NewInt(0), nil
	}
	val := new(big.Int)
	if _, ok := val.SetString(hex, 16); !ok || val.Sign() < 0 {
		return nil, fmt.Errorf("invalid hex: %s", hex)
	}
	return val, nil
}

// ParseQuantity decodes a result that should be a quantity. Nodes send hex
// strings; some test nodes send plain JSON numbers or decimal strings, which
// are accepted too.
func ParseQuantity(raw json.RawMessage) (*big.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			return ParseHexBigInt(s)
		}
		val, ok := new(big.Int).SetString(s, 10)
		if !ok || val.Sign() < 0 {
			return nil, fmt.Errorf("invalid quantity: %q", s)
		}
		return val, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("invalid quantity: %s", string(raw))
	}
	val, ok := new(big.Int).SetString(n.String(), 10)
	if !ok || val.Sign() < 0 {
		return nil, fmt.Errorf("invalid quantity: %s", n)
	}
	return val, nil
}

// Uint64ToHex converts a uint64 to a 0x-prefixed hex quantity.
func Uint64ToHex(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

// FormatNumber adds thousand separators: 24277510 -> "24,277,510".
func FormatNumber(n uint64) string {
	s := strconv.FormatUint(n, 10)
	return addThousandSeparators(s)
}

// FormatGwei renders a wei amount in gwei with two decimals, or "—" for nil.
func FormatGwei(wei *big.Int) string {
	if wei == nil {
		return "—"
	}
	gwei := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9))
	f, _ := gwei.Float64()
	return fmt.Sprintf("%.2f gwei", f)
}

// NormalizeBlockArg converts a block identifier to RPC form: decimal numbers
// become hex, tags pass through, empty input means "latest".
func NormalizeBlockArg(arg string) string {
	arg = strings.TrimSpace(strings.ToLower(arg))

	switch arg {
	case "":
		return "latest"
	case "latest", "pending", "earliest", "safe", "finalized":
		return arg
	}

	if strings.HasPrefix(arg, "0x") {
		return arg
	}

	num, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		// not a number, let the node reject it
		return arg
	}
	return Uint64ToHex(num)
}
