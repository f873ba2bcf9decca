package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/eth-generic-provider/internal/format"
	"github.com/dmagro/eth-generic-provider/internal/provider"
)

func networkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "network",
		Short: "Show the network version of every endpoint",
		Long: `Query net_version on every configured endpoint concurrently and flag
endpoints that are on a different network than the first healthy one.

Examples:
  provider network
  provider network --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNetwork()
		},
	}
}

func runNetwork() error {
	opts, err := providerOptions()
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	type answer struct {
		version string
		latency time.Duration
	}
	results := provider.ExecuteAll(ctx, allEndpoints(), opts, func(ctx context.Context, p *provider.Provider) (answer, error) {
		start := time.Now()
		v, err := p.GetNetworkVersion(ctx)
		return answer{version: v, latency: time.Since(start)}, err
	})

	rows := make([]format.NetworkResult, len(results))
	for i, r := range results {
		rows[i] = format.NetworkResult{
			Endpoint: r.Endpoint,
			Version:  r.Value.version,
			Latency:  r.Value.latency,
			Err:      r.Err,
		}
	}

	if jsonOutput() {
		return format.WriteJSON(os.Stdout, format.NetworksJSON(rows))
	}
	format.FormatNetworks(os.Stdout, rows)
	return nil
}
