// Command provider drives an RPC Provider against the nodes listed in a YAML
// config: network checks across every endpoint, raw calls, transactions
// with gas autofill, signing and identity change watching.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmagro/eth-generic-provider/internal/config"
	"github.com/dmagro/eth-generic-provider/internal/env"
	"github.com/dmagro/eth-generic-provider/internal/format"
	"github.com/dmagro/eth-generic-provider/internal/logger"
	"github.com/dmagro/eth-generic-provider/internal/provider"
	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	cfgPath  string
	endpoint string
	format   string
	verbose  bool
}

var (
	flags globalFlags
	cfg   *config.Config
	pool  = rpc.NewTransportPool()
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "provider",
		Short:         "JSON-RPC provider for Ethereum-compatible nodes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Load(); err != nil {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			if flags.format != "terminal" && flags.format != "json" {
				return fmt.Errorf("invalid --format %q (expected terminal or json)", flags.format)
			}
			if flags.format == "json" {
				format.DisableColors()
			}

			loaded, err := config.Load(flags.cfgPath)
			if err != nil {
				return err
			}
			cfg = loaded

			return logger.Init(cfg.Log.Env, !flags.verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&flags.cfgPath, "config", "config/provider.yaml", "Config file path")
	cmd.PersistentFlags().StringVar(&flags.endpoint, "endpoint", "", "Endpoint name (default: first in config)")
	cmd.PersistentFlags().StringVar(&flags.format, "format", "terminal", "Output format: terminal|json")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log every request")

	cmd.AddCommand(
		networkCmd(),
		callCmd(),
		sendCmd(),
		estimateCmd(),
		balanceCmd(),
		signCmd(),
		watchCmd(),
		accountCmd(),
	)
	return cmd
}

// selectedEndpoint resolves --endpoint, falling back to the first configured one.
func selectedEndpoint() (config.Endpoint, error) {
	if flags.endpoint == "" {
		return cfg.Endpoints[0], nil
	}
	return cfg.Endpoint(flags.endpoint)
}

// providerOptions builds Options from the config with the global logger.
func providerOptions() (provider.Options, error) {
	opts, err := cfg.ProviderOptions()
	if err != nil {
		return provider.Options{}, err
	}
	opts.Logger = logger.Log
	return opts, nil
}

// newProvider builds a Provider for the selected endpoint.
func newProvider() (*provider.Provider, config.Endpoint, error) {
	e, err := selectedEndpoint()
	if err != nil {
		return nil, config.Endpoint{}, err
	}
	opts, err := providerOptions()
	if err != nil {
		return nil, e, err
	}
	opts.Client = pool.GetOrCreate(e.Name, e.URL, e.Timeout)
	opts.Logger = logger.Log.With(zap.String("endpoint", e.Name))

	p, err := provider.New(opts)
	return p, e, err
}

// allEndpoints returns every configured endpoint as a provider.Endpoint.
func allEndpoints() []provider.Endpoint {
	out := make([]provider.Endpoint, len(cfg.Endpoints))
	for i, e := range cfg.Endpoints {
		out[i] = provider.Endpoint{Name: e.Name, Client: pool.GetOrCreate(e.Name, e.URL, e.Timeout)}
	}
	return out
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// requestContext bounds one-shot commands by the default timeout and Ctrl+C.
func requestContext() (context.Context, context.CancelFunc) {
	ctx, stop := signalContext()
	ctx, cancel := context.WithTimeout(ctx, cfg.Defaults.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func jsonOutput() bool { return flags.format == "json" }

func main() {
	if err := rootCmd().Execute(); err != nil {
		format.FormatError(os.Stderr, err)
		os.Exit(1)
	}
}
