package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

// SignMethod selects how claims and messages are signed.
type SignMethod int

const (
	SignEthSign SignMethod = iota
	SignTrezor
	SignEIP712
	SignPersonal
)

var signMethodNames = map[SignMethod]string{
	SignEthSign:  "eth_sign",
	SignTrezor:   "trezor",
	SignEIP712:   "eip712",
	SignPersonal: "personal_sign",
}

func (m SignMethod) String() string {
	if name, ok := signMethodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SignMethod(%d)", int(m))
}

// ParseSignMethod parses a configuration value. Empty input is eth_sign.
func ParseSignMethod(s string) (SignMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SignEthSign, nil
	}
	for m, name := range signMethodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown sign method %q", s)
}

// Defaults applied by New when an option is left at its zero value.
const (
	DefaultAssetLedgerSource     = "https://docs.0xcert.org/xcert-mock.json"
	DefaultValueLedgerSource     = "https://docs.0xcert.org/token-mock.json"
	DefaultRequiredConfirmations = 1
	DefaultPollInterval          = time.Second
)

// DefaultGasMultiplier is the safety margin applied to node estimates;
// eth_estimateGas undercounts on several node implementations.
var DefaultGasMultiplier = decimal.RequireFromString("1.1")

// Options configures a Provider. Zero values take the defaults above.
type Options struct {
	// AccountID is the default sender of every mutation.
	AccountID string

	// Client delivers requests to the node. Required.
	Client rpc.Transport

	SignMethod SignMethod

	// UnsafeRecipientIDs lists addresses that receive plain transfers
	// instead of safeTransfer calls.
	UnsafeRecipientIDs []string

	// Sources of the compiled asset and value ledger contracts.
	AssetLedgerSource string
	ValueLedgerSource string

	// RequiredConfirmations is the number of blocks, counting the one that
	// includes a transaction, before a Mutation is complete. Values below 1
	// mean 1.
	RequiredConfirmations int

	OrderGatewayID string

	// GasMultiplier scales gas and gas price estimates. Must be >= 1.
	GasMultiplier decimal.Decimal

	// PollInterval is how often a Mutation re-checks its receipt.
	PollInterval time.Duration

	Logger *zap.Logger
}

func (o *Options) applyDefaults() {
	if o.AssetLedgerSource == "" {
		o.AssetLedgerSource = DefaultAssetLedgerSource
	}
	if o.ValueLedgerSource == "" {
		o.ValueLedgerSource = DefaultValueLedgerSource
	}
	if o.RequiredConfirmations < 1 {
		o.RequiredConfirmations = DefaultRequiredConfirmations
	}
	if o.GasMultiplier.IsZero() {
		o.GasMultiplier = DefaultGasMultiplier
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

func (o *Options) validate() error {
	if o.Client == nil {
		return fmt.Errorf("client is required")
	}
	if _, ok := signMethodNames[o.SignMethod]; !ok {
		return fmt.Errorf("unknown sign method %d", int(o.SignMethod))
	}
	if o.GasMultiplier.LessThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("gas multiplier must be >= 1, got %s", o.GasMultiplier)
	}
	return nil
}
