// Package address canonicalizes account and contract identifiers.
//
// An identifier is "0x" followed by 40 hex digits. Normalization re-cases the
// digits to the EIP-55 checksum form, so two identifiers that differ only in
// letter case normalize to the same string.
package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned (wrapped) for any malformed identifier.
var ErrInvalidAddress = errors.New("invalid address")

// hexLength is the number of hex digits after the prefix.
const hexLength = 2 * common.AddressLength

// Normalize returns the checksummed form of raw.
//
// An empty input means "no identity" and yields an empty result without error.
// Surrounding whitespace is ignored.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if err := Validate(raw); err != nil {
		return "", err
	}
	return common.HexToAddress(raw).Hex(), nil
}

// NormalizeAll normalizes every entry or none: the first malformed entry
// fails the whole call.
func NormalizeAll(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for i, r := range raw {
		n, err := Normalize(r)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if n == "" {
			return nil, fmt.Errorf("entry %d: %w: empty", i, ErrInvalidAddress)
		}
		out = append(out, n)
	}
	return out, nil
}

// Validate checks the identifier grammar without re-casing it.
func Validate(raw string) error {
	if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
		return fmt.Errorf("%w: %q: missing 0x prefix", ErrInvalidAddress, raw)
	}
	if len(raw)-2 != hexLength {
		return fmt.Errorf("%w: %q: expected %d hex chars, got %d", ErrInvalidAddress, raw, hexLength, len(raw)-2)
	}
	if !common.IsHexAddress(raw) {
		return fmt.Errorf("%w: %q: contains non-hex characters", ErrInvalidAddress, raw)
	}
	return nil
}

// Equal reports whether a and b name the same account. Malformed input is
// never equal to anything.
func Equal(a, b string) bool {
	na, err := Normalize(a)
	if err != nil || na == "" {
		return false
	}
	nb, err := Normalize(b)
	if err != nil {
		return false
	}
	return na == nb
}
