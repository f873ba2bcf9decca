// Package config provides YAML configuration file loading and validation.
// It handles environment variable expansion, default value application,
// and converts the provider section into provider.Options.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dmagro/eth-generic-provider/internal/address"
	"github.com/dmagro/eth-generic-provider/internal/provider"
)

// Config represents the root configuration structure loaded from YAML.
type Config struct {
	Endpoints []Endpoint     `yaml:"endpoints"` // Nodes the CLI can talk to
	Defaults  Defaults       `yaml:"defaults"`  // Settings shared by every endpoint
	Provider  ProviderConfig `yaml:"provider"`  // Identity and policy of each Provider
	Log       Log            `yaml:"log"`
}

// Endpoint is a single JSON-RPC node.
type Endpoint struct {
	Name    string        `yaml:"name"`              // Endpoint identifier (e.g., "local", "infura")
	URL     string        `yaml:"url"`               // RPC URL (supports ${VAR} env expansion)
	Timeout time.Duration `yaml:"timeout,omitempty"` // Per-endpoint timeout (optional, uses Defaults.Timeout if not set)
}

// Defaults apply to every endpoint unless overridden at the endpoint level.
type Defaults struct {
	Timeout       time.Duration `yaml:"timeout"`        // HTTP request timeout (e.g., "10s")
	WatchInterval time.Duration `yaml:"watch_interval"` // net_version polling interval for watch (e.g., "5s")
	PollInterval  time.Duration `yaml:"poll_interval"`  // Receipt polling interval while waiting for a transaction
}

// ProviderConfig mirrors provider.Options in YAML form.
type ProviderConfig struct {
	AccountID             string   `yaml:"account_id"`
	SignMethod            string   `yaml:"sign_method"` // eth_sign | personal_sign | trezor | eip712
	UnsafeRecipientIDs    []string `yaml:"unsafe_recipient_ids"`
	AssetLedgerSource     string   `yaml:"asset_ledger_source"`
	ValueLedgerSource     string   `yaml:"value_ledger_source"`
	RequiredConfirmations int      `yaml:"required_confirmations"`
	OrderGatewayID        string   `yaml:"order_gateway_id"`
	GasMultiplier         string   `yaml:"gas_multiplier"` // decimal string, e.g. "1.1"
}

// Log selects the logger flavour.
type Log struct {
	Env string `yaml:"env"` // "production" for JSON, anything else for console
}

// Validate validates the configuration and applies defaults where appropriate.
// It may emit warnings (to stderr) for suspicious values but does not fail on warnings.
func (c *Config) Validate() error {
	if c.Defaults.Timeout == 0 {
		return fmt.Errorf("defaults.timeout is required")
	}
	if c.Defaults.WatchInterval == 0 {
		return fmt.Errorf("defaults.watch_interval is required")
	}
	if c.Defaults.PollInterval < 0 {
		return fmt.Errorf("defaults.poll_interval must be >= 0")
	}
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint is required")
	}

	warnTimeout := func(scope string, d time.Duration) {
		const low = 500 * time.Millisecond
		const high = 2 * time.Minute
		if d > 0 && d < low {
			fmt.Fprintf(os.Stderr, "Warning: %s timeout is very low (%s); requests may fail under normal network jitter\n", scope, d)
		}
		if d > high {
			fmt.Fprintf(os.Stderr, "Warning: %s timeout is very high (%s); failures may take a long time to surface\n", scope, d)
		}
	}
	warnTimeout("defaults", c.Defaults.Timeout)

	seen := make(map[string]bool, len(c.Endpoints))
	for i := range c.Endpoints {
		e := &c.Endpoints[i]
		if e.Name == "" {
			return fmt.Errorf("endpoint %d: name is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("endpoint %s: duplicate name", e.Name)
		}
		seen[e.Name] = true

		if e.Timeout == 0 {
			e.Timeout = c.Defaults.Timeout
		}
		if e.URL == "" {
			return fmt.Errorf("endpoint %s: url is required", e.Name)
		}

		u, err := url.Parse(e.URL)
		if err != nil {
			return fmt.Errorf("endpoint %s: invalid url: %w", e.Name, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("endpoint %s: invalid url (missing scheme or host)", e.Name)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("endpoint %s: invalid url scheme %q (expected http or https)", e.Name, u.Scheme)
		}

		warnTimeout(fmt.Sprintf("endpoint %s", e.Name), e.Timeout)
	}

	return c.Provider.validate()
}

func (p *ProviderConfig) validate() error {
	if _, err := address.Normalize(p.AccountID); err != nil {
		return fmt.Errorf("provider.account_id: %w", err)
	}
	if _, err := address.Normalize(p.OrderGatewayID); err != nil {
		return fmt.Errorf("provider.order_gateway_id: %w", err)
	}
	if _, err := address.NormalizeAll(p.UnsafeRecipientIDs); err != nil {
		return fmt.Errorf("provider.unsafe_recipient_ids: %w", err)
	}
	if _, err := provider.ParseSignMethod(p.SignMethod); err != nil {
		return fmt.Errorf("provider.sign_method: %w", err)
	}
	if p.RequiredConfirmations < 0 {
		return fmt.Errorf("provider.required_confirmations must be >= 0")
	}
	if _, err := p.multiplier(); err != nil {
		return err
	}
	if p.RequiredConfirmations > 64 {
		fmt.Fprintf(os.Stderr, "Warning: provider.required_confirmations is very high (%d); transactions will take a long time to complete\n", p.RequiredConfirmations)
	}
	return nil
}

func (p *ProviderConfig) multiplier() (decimal.Decimal, error) {
	if p.GasMultiplier == "" {
		return decimal.Zero, nil
	}
	m, err := decimal.NewFromString(p.GasMultiplier)
	if err != nil {
		return decimal.Zero, fmt.Errorf("provider.gas_multiplier: %w", err)
	}
	if m.LessThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("provider.gas_multiplier must be >= 1, got %s", m)
	}
	return m, nil
}

// ProviderOptions converts the provider section into provider.Options. The
// caller sets Client and Logger.
func (c *Config) ProviderOptions() (provider.Options, error) {
	method, err := provider.ParseSignMethod(c.Provider.SignMethod)
	if err != nil {
		return provider.Options{}, fmt.Errorf("provider.sign_method: %w", err)
	}
	mult, err := c.Provider.multiplier()
	if err != nil {
		return provider.Options{}, err
	}

	return provider.Options{
		AccountID:             c.Provider.AccountID,
		SignMethod:            method,
		UnsafeRecipientIDs:    c.Provider.UnsafeRecipientIDs,
		AssetLedgerSource:     c.Provider.AssetLedgerSource,
		ValueLedgerSource:     c.Provider.ValueLedgerSource,
		RequiredConfirmations: c.Provider.RequiredConfirmations,
		OrderGatewayID:        c.Provider.OrderGatewayID,
		GasMultiplier:         mult,
		PollInterval:          c.Defaults.PollInterval,
	}, nil
}

// Endpoint returns the endpoint called name.
func (c *Config) Endpoint(name string) (Endpoint, error) {
	for _, e := range c.Endpoints {
		if e.Name == name {
			return e, nil
		}
	}
	return Endpoint{}, fmt.Errorf("endpoint %q not found in config", name)
}

// Load reads and parses a YAML configuration file, expanding environment
// variables and validating all required fields.
//
// Environment variable expansion:
//
//	Values can use ${VAR} syntax which is expanded using os.ExpandEnv().
//	Example: url: ${INFURA_URL} uses the INFURA_URL environment variable.
//
// Validation rules:
//   - defaults.timeout and defaults.watch_interval must be set and > 0
//   - at least one endpoint with a unique name and an http(s) URL
//   - provider addresses must be 0x-prefixed 40-digit hex
//   - provider.gas_multiplier, when set, must be a decimal >= 1
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
