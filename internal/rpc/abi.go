package rpc

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/dmagro/eth-generic-provider/internal/address"
)

// Minimal calldata helpers for the handful of static-typed calls the CLI
// makes. Full ABI encoding from interface descriptions lives outside this
// module; the provider only ever sees the resulting "data" string.

// Well-known mainnet tokens the CLI can query by symbol.
const (
	USDCAddress  = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	USDTAddress  = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	USDCDecimals = 6
	USDTDecimals = 6
)

// Token describes an ERC-20 contract for display purposes.
type Token struct {
	Symbol   string
	Address  string
	Decimals int
}

// KnownTokens maps lower-case symbols to their contracts.
var KnownTokens = map[string]Token{
	"usdc": {Symbol: "USDC", Address: USDCAddress, Decimals: USDCDecimals},
	"usdt": {Symbol: "USDT", Address: USDTAddress, Decimals: USDTDecimals},
}

// FunctionSelector computes the 4-byte selector of a signature,
// e.g. "balanceOf(address)" -> 0x70a08231.
func FunctionSelector(signature string) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(signature))
	return hasher.Sum(nil)[:4]
}

// EncodeAddress left-pads an address to a 32-byte word.
func EncodeAddress(addr string) ([]byte, error) {
	if err := address.Validate(addr); err != nil {
		return nil, err
	}
	addrBytes, err := hex.DecodeString(strings.ToLower(addr[2:]))
	if err != nil {
		return nil, fmt.Errorf("invalid address hex: %w", err)
	}

	padded := make([]byte, 32)
	copy(padded[12:], addrBytes)
	return padded, nil
}

// EncodeUint256 left-pads a non-negative integer to a 32-byte word.
func EncodeUint256(v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 || v.BitLen() > 256 {
		return nil, fmt.Errorf("value out of uint256 range: %v", v)
	}
	return v.FillBytes(make([]byte, 32)), nil
}

// EncodeCall joins a selector and pre-encoded words into 0x-prefixed calldata.
func EncodeCall(signature string, words ...[]byte) string {
	calldata := FunctionSelector(signature)
	for _, w := range words {
		calldata = append(calldata, w...)
	}
	return "0x" + hex.EncodeToString(calldata)
}

// EncodeBalanceOfCalldata creates the calldata for balanceOf(address).
func EncodeBalanceOfCalldata(addr string) (string, error) {
	word, err := EncodeAddress(addr)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}
	return EncodeCall("balanceOf(address)", word), nil
}

// EncodeTransferCalldata creates the calldata for transfer(address,uint256).
func EncodeTransferCalldata(to string, amount *big.Int) (string, error) {
	toWord, err := EncodeAddress(to)
	if err != nil {
		return "", fmt.Errorf("failed to encode recipient: %w", err)
	}
	amountWord, err := EncodeUint256(amount)
	if err != nil {
		return "", fmt.Errorf("failed to encode amount: %w", err)
	}
	return EncodeCall("transfer(address,uint256)", toWord, amountWord), nil
}

// DecodeUint256 parses a 32-byte hex word into a big.Int.
func DecodeUint256(hexResult string) (*big.Int, error) {
	hexResult = strings.TrimLeft(strings.TrimPrefix(hexResult, "0x"), "0")
	if hexResult == "" {
		return big.NewInt(0), nil
	}

	result := new(big.Int)
	if _, ok := result.SetString(hexResult, 16); !ok {
		return nil, fmt.Errorf("failed to parse hex result: %s", hexResult)
	}
	return result, nil
}

// FormatTokenAmount formats a raw token amount with decimals and separators:
// 1234567890123 with 6 decimals -> "1,234,567.890123 USDC".
func FormatTokenAmount(raw *big.Int, decimals int, symbol string) string {
	if raw == nil || raw.Sign() == 0 {
		return fmt.Sprintf("0.%s %s", strings.Repeat("0", decimals), symbol)
	}

	rawStr := raw.String()
	for len(rawStr) <= decimals {
		rawStr = "0" + rawStr
	}

	insertPos := len(rawStr) - decimals
	wholePart := addThousandSeparators(rawStr[:insertPos])
	decimalPart := rawStr[insertPos:]

	if decimals == 0 {
		return fmt.Sprintf("%s %s", wholePart, symbol)
	}
	return fmt.Sprintf("%s.%s %s", wholePart, decimalPart, symbol)
}

func addThousandSeparators(s string) string {
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}
